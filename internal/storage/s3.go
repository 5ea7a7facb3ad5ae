// Package storage brokers direct-to-S3 uploads. The server never
// touches file bytes; it only signs time-boxed PUT URLs and derives the
// deterministic object keys the rest of the system stores.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/homefax/homefax/internal/config"
)

// Presigner is the broker surface handlers depend on; the api tests
// substitute a stub.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, size int64) (string, error)
	PublicURL(key string) string
}

type Broker struct {
	presign      *s3.PresignClient
	bucket       string
	publicPrefix string
	expiry       time.Duration
}

var _ Presigner = (*Broker)(nil)

// New validates the storage settings and builds the presign client.
// Credentials come from the default AWS chain (env, shared config,
// instance role).
func New(ctx context.Context, cfg config.StorageConfig) (*Broker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 300 * time.Second
	}

	return &Broker{
		presign:      s3.NewPresignClient(s3.NewFromConfig(awsCfg)),
		bucket:       cfg.Bucket,
		publicPrefix: strings.TrimRight(cfg.PublicURLPrefix, "/"),
		expiry:       expiry,
	}, nil
}

// PresignPut signs a PUT for the given key. The URL stops working after
// the configured expiry (300s by default); the caller uploads directly
// to storage with it.
func (b *Broker) PresignPut(ctx context.Context, key, contentType string, size int64) (string, error) {
	req, err := b.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(b.expiry))
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return req.URL, nil
}

// PublicURL returns where the object will be readable once uploaded.
func (b *Broker) PublicURL(key string) string {
	return b.publicPrefix + "/" + key
}
