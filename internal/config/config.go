package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DB      DBConfig
	MinIO   MinIOConfig
	JWT     JWTConfig
	Server  ServerConfig
	SSO     SSOConfig
	Tracker TrackerConfig
}

type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type MinIOConfig struct {
	Driver         string
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	UseSSL         bool
	// UseIAM takes credentials from the instance role instead of the keys.
	UseIAM bool
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
	RememberHours   int
}

type ServerConfig struct {
	Port          string
	FrontendURL   string
	CORSOrigins   string
	UploadLimitMB int
}

type SSOConfig struct {
	Provider     string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	IssuerURL    string
	Scopes       string
	AdminEmails  []string
}

// Enabled reports whether an interactive identity provider is configured.
func (s SSOConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

type TrackerConfig struct {
	DefaultSection string
	SweepInterval  time.Duration
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "learntrack"),
			Password:   getEnv("DB_PASSWORD", "learntrack_secret"),
			Name:       getEnv("DB_NAME", "learntrack"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "learntrack.db"),
		},
		MinIO: MinIOConfig{
			Driver:         strings.ToLower(getEnv("STORAGE_DRIVER", "minio")),
			Endpoint:       getEnv("MINIO_ENDPOINT", "localhost:9000"),
			PublicEndpoint: getEnv("MINIO_PUBLIC_ENDPOINT", getEnv("MINIO_ENDPOINT", "localhost:9000")),
			AccessKey:      getEnv("MINIO_ACCESS_KEY", "learntrack"),
			SecretKey:      getEnv("MINIO_SECRET_KEY", "learntrack_secret"),
			Bucket:         getEnv("MINIO_BUCKET", "learntrack-notes"),
			Region:         getEnv("MINIO_REGION", ""),
			UseSSL:         getEnvAsBool("MINIO_USE_SSL", false),
			UseIAM:         getEnvAsBool("MINIO_USE_IAM", false),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
			RememberHours:   getEnvAsInt("JWT_REMEMBER_HOURS", 24*30),
		},
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
			CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000"),
			UploadLimitMB: getEnvAsInt("UPLOAD_LIMIT_MB", 50),
		},
		SSO: SSOConfig{
			Provider:     strings.ToLower(getEnv("OAUTH_PROVIDER", "google")),
			ClientID:     getEnv("OAUTH_CLIENT_ID", ""),
			ClientSecret: getEnv("OAUTH_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/api/auth/oauth/callback"),
			IssuerURL:    getEnv("OIDC_ISSUER_URL", "https://accounts.google.com"),
			Scopes:       getEnv("OAUTH_SCOPES", "openid,email,profile"),
			AdminEmails:  getEnvAsList("ADMIN_EMAILS"),
		},
		Tracker: TrackerConfig{
			DefaultSection: strings.ToLower(getEnv("DEFAULT_SECTION", "electrical")),
			SweepInterval:  getEnvAsDuration("PROGRESS_SWEEP_INTERVAL", 15*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsList(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
