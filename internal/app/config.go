package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Britinogn/CourviaShipAPI/internal/data/db"
	"github.com/Britinogn/CourviaShipAPI/internal/jobs/reconcile"
	"github.com/Britinogn/CourviaShipAPI/internal/observability"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/envutil"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/rediscache"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/sendgrid"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
	"github.com/Britinogn/CourviaShipAPI/internal/temporalx"
)

const (
	ReceiptStorageLocal = "local"
	ReceiptStorageGCS   = "gcs"
	ReceiptStorageNone  = "none"

	devJWTSecret = "courviaship-dev-secret"
)

type Config struct {
	Port            string
	LogMode         string
	ShutdownTimeout time.Duration
	AutoMigrate     bool
	CORSOrigins     []string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	TrackingCode    services.TrackingCodeConfig
	TrackingBaseURL string
	EmailEnabled    bool

	ReceiptStorage string
	ReceiptDir     string
	ReceiptPrefix  string

	DB        db.Config
	Redis     rediscache.Config
	SendGrid  sendgrid.Config
	Temporal  temporalx.Config
	Reconcile reconcile.Config
	Otel      observability.OtelConfig
	Metrics   observability.MetricsConfig
}

// EnvSource records where settings came from, for the startup log.
type EnvSource struct {
	DotEnv     []string
	ConfigFile string
	Overlaid   int
}

// LoadEnv reads .env files and the optional CONFIG_FILE yaml overlay into the
// process environment. Variables already set in the environment always win.
func LoadEnv() (EnvSource, error) {
	var src EnvSource
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return src, fmt.Errorf("load %s: %w", f, err)
		}
		src.DotEnv = append(src.DotEnv, f)
	}

	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path == "" {
		return src, nil
	}
	n, err := applyYAMLOverlay(path)
	if err != nil {
		return src, err
	}
	src.ConfigFile = path
	src.Overlaid = n
	return src, nil
}

// applyYAMLOverlay reads a flat map of environment names to values. Nested
// maps are flattened with "_" and upper-cased, so
//
//	postgres:
//	  host: db
//
// sets POSTGRES_HOST.
func applyYAMLOverlay(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read config file: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return 0, fmt.Errorf("parse config file %s: %w", path, err)
	}
	flat := map[string]string{}
	flattenYAML("", doc, flat)

	applied := 0
	for k, v := range flat {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return applied, fmt.Errorf("set %s: %w", k, err)
		}
		applied++
	}
	return applied, nil
}

func flattenYAML(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := strings.ToUpper(strings.TrimSpace(k))
		if prefix != "" {
			key = prefix + "_" + key
		}
		switch val := v.(type) {
		case map[string]any:
			flattenYAML(key, val, out)
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[key] = strings.Join(parts, ",")
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// NewLogger builds the process logger from LOG_MODE and LOG_FILE.
func NewLogger() (*logger.Logger, error) {
	return logger.NewWithConfig(logger.Config{
		Mode:       envutil.String("LOG_MODE", "development"),
		File:       envutil.String("LOG_FILE", ""),
		MaxSizeMB:  envutil.Int("LOG_FILE_MAX_SIZE_MB", 100),
		MaxBackups: envutil.Int("LOG_FILE_MAX_BACKUPS", 7),
		MaxAgeDays: envutil.Int("LOG_FILE_MAX_AGE_DAYS", 30),
	})
}

func LoadConfig(log *logger.Logger) (Config, error) {
	defaults := services.DefaultTrackingCodeConfig()
	cfg := Config{
		Port:            envutil.String("PORT", "3000"),
		LogMode:         envutil.String("LOG_MODE", "development"),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		AutoMigrate:     envutil.Bool("AUTO_MIGRATE", true),
		CORSOrigins:     envutil.List("CORS_ORIGINS", nil),

		JWTSecretKey:    envutil.String("JWT_SECRET", ""),
		AccessTokenTTL:  envutil.Duration("ACCESS_TOKEN_TTL", envutil.Duration("JWT_EXPIRES_IN", 2*time.Hour)),
		RefreshTokenTTL: envutil.Duration("REFRESH_TOKEN_TTL", envutil.Duration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour)),

		TrackingCode: services.TrackingCodeConfig{
			Prefix:     envutil.String("TRACKING_CODE_PREFIX", defaults.Prefix),
			Length:     envutil.Int("TRACKING_CODE_LENGTH", defaults.Length),
			MaxRetries: envutil.Int("TRACKING_CODE_MAX_RETRIES", defaults.MaxRetries),
		},
		TrackingBaseURL: envutil.String("TRACKING_BASE_URL", "https://courviaship.com/track/"),
		EmailEnabled:    envutil.Bool("EMAIL_ENABLED", true),

		ReceiptStorage: strings.ToLower(envutil.String("RECEIPT_STORAGE", ReceiptStorageLocal)),
		ReceiptDir:     envutil.String("RECEIPT_DIR", "receipts"),
		ReceiptPrefix:  envutil.String("RECEIPT_PREFIX", "receipts"),

		DB:        db.ConfigFromEnv(),
		Redis:     rediscache.ConfigFromEnv(),
		SendGrid:  sendgrid.ConfigFromEnv(),
		Temporal:  temporalx.LoadConfig(),
		Reconcile: reconcile.ConfigFromEnv(),
		Otel:      observability.OtelConfigFromEnv(),
		Metrics:   observability.MetricsConfigFromEnv(),
	}
	if dsn := envutil.String("DATABASE_DSN", ""); dsn != "" && cfg.DB.DSN == "" {
		cfg.DB.DSN = dsn
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET not set; using the development secret")
		cfg.JWTSecretKey = devJWTSecret
	}
	if cfg.EmailEnabled && strings.TrimSpace(cfg.SendGrid.APIKey) == "" {
		log.Warn("SENDGRID_API_KEY not set; customer emails are disabled")
		cfg.EmailEnabled = false
	}
	return cfg, nil
}

func (c Config) production() bool {
	switch strings.ToLower(strings.TrimSpace(c.LogMode)) {
	case "prod", "production":
		return true
	}
	return false
}

func (c Config) validate() error {
	if c.production() && strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive (access=%s refresh=%s)", c.AccessTokenTTL, c.RefreshTokenTTL)
	}
	if c.TrackingCode.Length <= 0 {
		return fmt.Errorf("TRACKING_CODE_LENGTH must be positive, got %d", c.TrackingCode.Length)
	}
	if c.TrackingCode.MaxRetries <= 0 {
		return fmt.Errorf("TRACKING_CODE_MAX_RETRIES must be positive, got %d", c.TrackingCode.MaxRetries)
	}
	switch c.ReceiptStorage {
	case ReceiptStorageLocal, ReceiptStorageGCS, ReceiptStorageNone:
	default:
		return fmt.Errorf("invalid RECEIPT_STORAGE=%q (allowed: %q, %q, %q)",
			c.ReceiptStorage, ReceiptStorageLocal, ReceiptStorageGCS, ReceiptStorageNone)
	}
	return nil
}

func (c Config) Addr() string {
	port := strings.TrimSpace(c.Port)
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}
