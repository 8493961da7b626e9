package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("LOG_MODE", "development")
	t.Setenv("SENDGRID_API_KEY", "")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr() != ":3000" {
		t.Fatalf("addr: want=:3000 got=%s", cfg.Addr())
	}
	if cfg.JWTSecretKey != devJWTSecret {
		t.Fatalf("jwt secret: want dev fallback got=%q", cfg.JWTSecretKey)
	}
	if cfg.AccessTokenTTL != 2*time.Hour || cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("ttls: access=%s refresh=%s", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.TrackingCode.Prefix != "NSD" || cfg.TrackingCode.Length != 6 || cfg.TrackingCode.MaxRetries != 5 {
		t.Fatalf("tracking code: got=%+v", cfg.TrackingCode)
	}
	if cfg.EmailEnabled {
		t.Fatalf("email must be disabled without an api key")
	}
	if cfg.ReceiptStorage != ReceiptStorageLocal {
		t.Fatalf("receipt storage: got=%q", cfg.ReceiptStorage)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:8081")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("JWT_REFRESH_EXPIRES_IN", "30d")
	t.Setenv("TRACKING_CODE_PREFIX", "CVS")
	t.Setenv("RECEIPT_STORAGE", "NONE")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_DSN", "postgres://u:p@db:5432/cs")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:8081" {
		t.Fatalf("addr: got=%s", cfg.Addr())
	}
	if cfg.AccessTokenTTL != 15*time.Minute || cfg.RefreshTokenTTL != 30*24*time.Hour {
		t.Fatalf("ttls: access=%s refresh=%s", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.TrackingCode.Prefix != "CVS" || cfg.ReceiptStorage != ReceiptStorageNone {
		t.Fatalf("got prefix=%q storage=%q", cfg.TrackingCode.Prefix, cfg.ReceiptStorage)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("cors: got=%v", cfg.CORSOrigins)
	}
	if cfg.DB.DSN != "postgres://u:p@db:5432/cs" {
		t.Fatalf("dsn: got=%q", cfg.DB.DSN)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"prod without secret": {"LOG_MODE": "production", "JWT_SECRET": ""},
		"bad storage":         {"RECEIPT_STORAGE": "s3"},
		"zero length":         {"TRACKING_CODE_LENGTH": "0"},
		"zero retries":        {"TRACKING_CODE_MAX_RETRIES": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(logger.Nop()); err == nil {
				t.Fatalf("want error for %v", env)
			}
		})
	}
}

func TestYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courviaship.yaml")
	doc := []byte(`
port: 9000
tracking_code:
  prefix: YML
cors_origins:
  - https://one.example.com
  - https://two.example.com
`)
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TRACKING_CODE_PREFIX", "ENV")
	// Unset vars must be cleared so the overlay can fill them; t.Setenv
	// restores them afterwards.
	for _, k := range []string{"PORT", "CORS_ORIGINS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	src, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if src.ConfigFile != path || src.Overlaid != 2 {
		t.Fatalf("source: got=%+v", src)
	}
	if got := os.Getenv("PORT"); got != "9000" {
		t.Fatalf("PORT: want=9000 got=%q", got)
	}
	if got := os.Getenv("TRACKING_CODE_PREFIX"); got != "ENV" {
		t.Fatalf("environment must win over the overlay, got=%q", got)
	}
	if got := os.Getenv("CORS_ORIGINS"); got != "https://one.example.com,https://two.example.com" {
		t.Fatalf("CORS_ORIGINS: got=%q", got)
	}
}

func TestYAMLOverlayMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := LoadEnv(); err == nil {
		t.Fatalf("want error for a missing config file")
	}
}

func TestWireReceiptStore(t *testing.T) {
	cfg := Config{ReceiptStorage: ReceiptStorageNone}
	store, err := wireReceiptStore(logger.Nop(), cfg, Clients{})
	if err != nil || store != nil {
		t.Fatalf("none: store=%v err=%v", store, err)
	}

	cfg = Config{ReceiptStorage: ReceiptStorageLocal, ReceiptDir: filepath.Join(t.TempDir(), "r")}
	store, err = wireReceiptStore(logger.Nop(), cfg, Clients{})
	if err != nil || store == nil {
		t.Fatalf("local: store=%v err=%v", store, err)
	}

	cfg = Config{ReceiptStorage: ReceiptStorageGCS}
	if _, err := wireReceiptStore(logger.Nop(), cfg, Clients{}); err == nil {
		t.Fatalf("gcs without a bucket must fail")
	}
}

func TestTrackingCacheNilStaysNil(t *testing.T) {
	if c := trackingCache(Clients{}); c != nil {
		t.Fatalf("want nil interface got=%#v", c)
	}
}
