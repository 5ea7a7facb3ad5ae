package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/homefax/homefax/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr == "" {
		t.Fatal("empty addr")
	}
	if cfg.Storage.PresignExpiry != 300*time.Second {
		t.Fatalf("presign expiry = %v, want 300s", cfg.Storage.PresignExpiry)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("HOMEFAX_ADDR", ":9090")
	t.Setenv("S3_BUCKET", "homefax-test")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("QA_SEED", "1")
	t.Setenv("TEST_EMAIL_DOMAIN", "test.yourdomain.com")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("addr = %s", cfg.Addr)
	}
	if cfg.Storage.Bucket != "homefax-test" {
		t.Fatalf("bucket = %s", cfg.Storage.Bucket)
	}
	if !cfg.Seed.Enabled {
		t.Fatal("seed gate not picked up from env")
	}
	if cfg.Seed.TestEmailDomain != "test.yourdomain.com" {
		t.Fatalf("test email domain = %s", cfg.Seed.TestEmailDomain)
	}
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	body := "addr: \":7070\"\nstorage:\n  bucket: from-yaml\n  region: eu-west-1\n  public_url_prefix: https://cdn.example.com\n"
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Fatalf("addr = %s", cfg.Addr)
	}
	if err := cfg.Storage.Validate(); err != nil {
		t.Fatalf("storage should validate: %v", err)
	}
}

func TestStorageValidate(t *testing.T) {
	var s config.StorageConfig
	if err := s.Validate(); err == nil {
		t.Fatal("empty storage config should not validate")
	}
}
