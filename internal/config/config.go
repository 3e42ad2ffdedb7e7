package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Mongo      MongoConfig
	Media      MediaConfig
	Auth       AuthConfig
	CORS       CORSConfig
	Logger     LoggerConfig
	Validation ValidationPolicy
	Notify     NotifyConfig
}

type ServerConfig struct {
	Address         string
	DataDir         string
	StagingDir      string
	MaxUploadSizeMB int64
}

// MongoConfig selects the document store. An empty URI falls back to the
// JSON file store under Server.DataDir.
type MongoConfig struct {
	URI      string
	Database string
	TLS      bool
}

type MediaConfig struct {
	Provider          string // cloudinary, gcs or local
	RootFolder        string
	Timeout           time.Duration
	SafeSearchEnabled bool

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	GCSBucket string

	UploadDir     string
	PublicBaseURL string
}

type AuthConfig struct {
	JWTSecret         string
	JWTExpiration     time.Duration
	AdminUsername     string
	AdminPasswordHash string

	// Moderator login is optional; it is disabled while the hash is empty.
	ModeratorUsername     string
	ModeratorPasswordHash string
}

// NotifyConfig covers the optional submission guard and moderator email.
// Each feature is off while its secret is empty.
type NotifyConfig struct {
	RecaptchaSecret string

	SendGridAPIKey string
	FromEmail      string
	ToEmail        string
	ReviewURL      string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LoggerConfig struct {
	Level  string
	Format string
}

// ValidationPolicy holds the profile submission rules that differ between
// deployments.
type ValidationPolicy struct {
	// MaxLifespanYears rejects profiles whose death year minus birth year
	// exceeds the limit. Zero disables the check.
	MaxLifespanYears       int
	RequireSpiritualMaster bool
}

func DefaultValidationPolicy() ValidationPolicy {
	return ValidationPolicy{
		MaxLifespanYears:       150,
		RequireSpiritualMaster: true,
	}
}

// Load reads configuration from the environment, after merging a .env file
// when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	mediaTimeout, err := getEnvAsDuration("MEDIA_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	jwtExpiration, err := getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	defaults := DefaultValidationPolicy()

	cfg := &Config{
		Server: ServerConfig{
			Address:         serverAddress(),
			DataDir:         getEnv("DATA_DIR", "./data"),
			StagingDir:      getEnv("STAGING_DIR", "./public/temp"),
			MaxUploadSizeMB: int64(getEnvAsInt("MAX_UPLOAD_SIZE_MB", 10)),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", getEnv("MONGODB_URI", "")),
			Database: getEnv("MONGO_DB", "memorial"),
			TLS:      getEnvAsBool("MONGO_TLS", false),
		},
		Media: MediaConfig{
			Provider:            strings.ToLower(getEnv("MEDIA_PROVIDER", "cloudinary")),
			RootFolder:          getEnv("MEDIA_ROOT_FOLDER", "iskcon"),
			Timeout:             mediaTimeout,
			SafeSearchEnabled:   getEnvAsBool("SAFESEARCH_ENABLED", false),
			CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			GCSBucket:           getEnv("GCS_BUCKET", ""),
			UploadDir:           getEnv("UPLOAD_DIR", "./uploads"),
			PublicBaseURL:       strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("JWT_SECRET", ""),
			JWTExpiration:         jwtExpiration,
			AdminUsername:         getEnv("ADMIN_USERNAME", "admin"),
			AdminPasswordHash:     getEnv("ADMIN_PASSWORD_HASH", ""),
			ModeratorUsername:     getEnv("MODERATOR_USERNAME", "moderator"),
			ModeratorPasswordHash: getEnv("MODERATOR_PASSWORD_HASH", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "https://devotee-memorial.vercel.app,http://localhost:5173")),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Notify: NotifyConfig{
			RecaptchaSecret: getEnv("RECAPTCHA_SECRET", ""),
			SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
			FromEmail:       getEnv("NOTIFY_FROM_EMAIL", ""),
			ToEmail:         getEnv("NOTIFY_TO_EMAIL", ""),
			ReviewURL:       getEnv("REVIEW_URL", ""),
		},
		Validation: ValidationPolicy{
			MaxLifespanYears:       getEnvAsInt("PROFILE_MAX_LIFESPAN_YEARS", defaults.MaxLifespanYears),
			RequireSpiritualMaster: getEnvAsBool("PROFILE_REQUIRE_SPIRITUAL_MASTER", defaults.RequireSpiritualMaster),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Media.Provider {
	case "cloudinary":
		if c.Media.CloudinaryCloudName == "" || c.Media.CloudinaryAPIKey == "" || c.Media.CloudinaryAPISecret == "" {
			return fmt.Errorf("config: cloudinary media provider requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
	case "gcs":
		if c.Media.GCSBucket == "" {
			return fmt.Errorf("config: gcs media provider requires GCS_BUCKET")
		}
	case "local":
	default:
		return fmt.Errorf("config: unknown MEDIA_PROVIDER %q", c.Media.Provider)
	}
	if c.Notify.SendGridAPIKey != "" && (c.Notify.FromEmail == "" || c.Notify.ToEmail == "") {
		return fmt.Errorf("config: SENDGRID_API_KEY requires NOTIFY_FROM_EMAIL and NOTIFY_TO_EMAIL")
	}
	if c.Validation.MaxLifespanYears < 0 {
		return fmt.Errorf("config: PROFILE_MAX_LIFESPAN_YEARS must not be negative")
	}
	if c.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("config: MAX_UPLOAD_SIZE_MB must be positive")
	}
	return nil
}

// serverAddress honours PORT for platforms that only inject a port number.
func serverAddress() string {
	if addr, ok := os.LookupEnv("SERVER_ADDRESS"); ok && addr != "" {
		return addr
	}
	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		return ":" + port
	}
	return ":8080"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
