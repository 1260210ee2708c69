package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/yungbote/assets-backend/internal/data/db"
	"github.com/yungbote/assets-backend/internal/modules/assets"
	"github.com/yungbote/assets-backend/internal/modules/assets/derive"
	"github.com/yungbote/assets-backend/internal/platform/envutil"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

type Config struct {
	APIURL    string `validate:"required,url"`
	APISecret string `validate:"required"`
	Port      int    `validate:"gt=0,lte=65535"`

	LogMode string

	DB db.Config

	ObjectStorageMode   string
	StorageRoot         string
	PublicBaseURL       string `validate:"required,url"`
	GCSBucket           string
	StorageEmulatorHost string
	GCSCredentials      string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIORegion    string
	MinIOUseSSL    bool

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RateLimitMax    int           `validate:"gt=0"`
	RateLimitWindow time.Duration `validate:"gt=0"`

	GeneratePreview   bool
	GenerateMedium    bool
	GenerateThumbnail bool
	ImageQuality      int `validate:"gte=1,lte=100"`
	VerifySignature   bool
	MaxUploadBytes    int64 `validate:"gt=0"`

	CORSOrigins []string

	MetricsEnabled bool
	MetricsAddr    string

	OtelEnabled     bool
	OtelEndpoint    string
	OtelHeaders     string
	OtelInsecure    bool
	OtelSampleRatio float64
	ServiceVersion  string
	Environment     string
}

// LoadDotEnv loads .env into the process environment. A missing file is not
// an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// LoadConfig reads and validates the process configuration.
func LoadConfig(log *logger.Logger) (Config, error) {
	apiURL := envutil.String("APP_API_URL", "", log)
	cfg := Config{
		APIURL:    apiURL,
		APISecret: envutil.String("APP_API_SECRET", "", log),
		Port:      envutil.Int("APP_PORT", 0, log),

		LogMode: envutil.String("LOG_MODE", "development", log),

		DB: db.Config{
			Driver:           strings.ToLower(envutil.String("DB_DRIVER", db.DriverPostgres, log)),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", "", log),
			PostgresName:     envutil.String("POSTGRES_NAME", "assets", log),
			PostgresDSN:      envutil.String("POSTGRES_DSN", "", log),
			SQLitePath:       envutil.String("SQLITE_PATH", "assets.db", log),
		},

		ObjectStorageMode:   envutil.String("OBJECT_STORAGE_MODE", "local", log),
		StorageRoot:         envutil.String("STORAGE_ROOT", ".", log),
		PublicBaseURL:       envutil.String("ASSETS_PUBLIC_BASE_URL", apiURL, log),
		GCSBucket:           envutil.String("GCS_BUCKET_NAME", "", log),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", "", log),
		GCSCredentials: envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON",
			envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "", log), log),

		MinIOEndpoint:  envutil.String("MINIO_ENDPOINT", "", log),
		MinIOAccessKey: envutil.String("MINIO_ACCESS_KEY", "", log),
		MinIOSecretKey: envutil.String("MINIO_SECRET_KEY", "", log),
		MinIOBucket:    envutil.String("MINIO_BUCKET", "", log),
		MinIORegion:    envutil.String("MINIO_REGION", "", log),
		MinIOUseSSL:    envutil.Bool("MINIO_USE_SSL", false, log),

		S3Bucket:    envutil.String("S3_BUCKET", "", log),
		S3Region:    envutil.String("S3_REGION", "us-east-1", log),
		S3Endpoint:  envutil.String("S3_ENDPOINT", "", log),
		S3AccessKey: envutil.String("AWS_ACCESS_KEY_ID", "", log),
		S3SecretKey: envutil.String("AWS_SECRET_ACCESS_KEY", "", log),

		RedisAddr:       envutil.String("REDIS_ADDR", "", log),
		RedisPassword:   envutil.String("REDIS_PASSWORD", "", log),
		RedisDB:         envutil.Int("REDIS_DB", 0, log),
		RateLimitMax:    envutil.Int("RATE_LIMIT_MAX", 500, log),
		RateLimitWindow: envutil.Duration("RATE_LIMIT_WINDOW_SECONDS", 60*time.Second, log),

		GeneratePreview:   envutil.Bool("IMAGE_GENERATE_PREVIEW", true, log),
		GenerateMedium:    envutil.Bool("IMAGE_GENERATE_MEDIUM", false, log),
		GenerateThumbnail: envutil.Bool("IMAGE_GENERATE_THUMBNAIL", true, log),
		ImageQuality:      envutil.Int("IMAGE_QUALITY", 80, log),
		VerifySignature:   envutil.Bool("VERIFY_CONTENT_SIGNATURE", false, log),
		MaxUploadBytes:    int64(envutil.Int("MAX_UPLOAD_BYTES", 10<<20, log)),

		CORSOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil, log),

		MetricsEnabled: envutil.Bool("METRICS_ENABLED", false, log),
		MetricsAddr:    envutil.String("METRICS_ADDR", "", log),

		OtelEnabled:     envutil.Bool("OTEL_ENABLED", false, log),
		OtelEndpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
		OtelHeaders:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log),
		OtelInsecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
		OtelSampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1, log),
		ServiceVersion:  envutil.String("SERVICE_VERSION", "1.0.0", log),
		Environment:     envutil.String("APP_ENV", "development", log),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var configValidator = validator.New()

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var problems []string
	if err := configValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s (%s)", envNameFor(fe.Field()), fe.Tag()))
		}
	}
	switch c.DB.Driver {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		problems = append(problems, fmt.Sprintf("DB_DRIVER (unsupported %q)", c.DB.Driver))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
	}
	return nil
}

func envNameFor(field string) string {
	switch field {
	case "APIURL":
		return "APP_API_URL"
	case "APISecret":
		return "APP_API_SECRET"
	case "Port":
		return "APP_PORT"
	case "PublicBaseURL":
		return "ASSETS_PUBLIC_BASE_URL"
	case "RateLimitMax":
		return "RATE_LIMIT_MAX"
	case "RateLimitWindow":
		return "RATE_LIMIT_WINDOW_SECONDS"
	case "ImageQuality":
		return "IMAGE_QUALITY"
	case "MaxUploadBytes":
		return "MAX_UPLOAD_BYTES"
	default:
		return field
	}
}

// AssetsConfig is the slice of configuration the asset service sees.
func (c Config) AssetsConfig() assets.Config {
	out := assets.DefaultConfig(c.PublicBaseURL)
	out.VerifySignature = c.VerifySignature
	out.Derive = derive.DefaultConfig()
	out.Derive.Quality = c.ImageQuality
	out.Derive.Preview.Enabled = c.GeneratePreview
	out.Derive.Medium.Enabled = c.GenerateMedium
	out.Derive.Thumbnail.Enabled = c.GenerateThumbnail
	return out
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
