package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	Storage       StorageConfig `yaml:"storage"`
	Seed          SeedConfig    `yaml:"seed"`
}

// StorageConfig carries the object-storage settings for the upload
// broker. Bucket, Region and PublicURLPrefix are required before any
// presigning can happen; Validate is called by the presigner constructor
// so a misconfigured deployment fails at startup, not mid-request.
type StorageConfig struct {
	Bucket          string        `yaml:"bucket"`
	Region          string        `yaml:"region"`
	PublicURLPrefix string        `yaml:"public_url_prefix"`
	PresignExpiry   time.Duration `yaml:"presign_expiry"`
}

func (s StorageConfig) Validate() error {
	if s.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required")
	}
	if s.Region == "" {
		return fmt.Errorf("AWS_REGION is required")
	}
	if s.PublicURLPrefix == "" {
		return fmt.Errorf("PUBLIC_S3_URL_PREFIX is required")
	}
	return nil
}

// SeedConfig gates the QA seed tool. Enabled requires QA_SEED=1 and the
// seeder additionally refuses to run when Env is "production".
type SeedConfig struct {
	Enabled         bool   `yaml:"enabled"`
	TestEmailDomain string `yaml:"test_email_domain"`
	Env             string `yaml:"env"`
}

func LoadConfig(path string) (*Config, error) {
	apiTimeout := 15 * time.Second
	tokenDuration := 24 * time.Hour

	cfg := &Config{
		Addr:          getEnv("HOMEFAX_ADDR", ":8080"),
		JWTSecret:     getEnv("HOMEFAX_JWT_SECRET", "supersecretkey"),
		APITimeout:    apiTimeout,
		DatabasePath:  getEnv("HOMEFAX_DATABASE_PATH", "homefax.db"),
		TokenDuration: tokenDuration,
		Storage: StorageConfig{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          os.Getenv("AWS_REGION"),
			PublicURLPrefix: os.Getenv("PUBLIC_S3_URL_PREFIX"),
			PresignExpiry:   300 * time.Second,
		},
		Seed: SeedConfig{
			Enabled:         os.Getenv("QA_SEED") == "1",
			TestEmailDomain: getEnv("TEST_EMAIL_DOMAIN", "test.yourdomain.com"),
			Env:             getEnv("APP_ENV", "development"),
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
