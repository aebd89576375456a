package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config kimoncrm HTTP API configuration, loaded from the environment.
type Config struct {
	HTTP struct {
		Addr string
	}
	Database DatabaseConfig
	Redis    struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	ERP    ERPConfig
	Mail   MailConfig
	Images ImagesConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// ERPConfig upstream ERP catalog service (product sync).
type ERPConfig struct {
	BaseURL  string
	Username string
	Password string
}

// MailConfig OAuth endpoints for mailbox token refresh plus the
// transactional mail endpoint used for task notifications.
type MailConfig struct {
	MicrosoftTokenURL     string
	MicrosoftClientID     string
	MicrosoftClientSecret string
	GoogleTokenURL        string
	GoogleClientID        string
	GoogleClientSecret    string
	NotifyEndpoint        string
	NotifyAPIKey          string
	NotifyFrom            string
}

// ImagesConfig product image search provider.
type ImagesConfig struct {
	SearchURL string
	APIKey    string
	StoreDir  string
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "kimoncrm")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.ERP.BaseURL = getEnv("ERP_BASE_URL", "")
	cfg.ERP.Username = getEnv("ERP_USERNAME", "")
	cfg.ERP.Password = getEnv("ERP_PASSWORD", "")

	cfg.Mail.MicrosoftTokenURL = getEnv("MS_TOKEN_URL", "https://login.microsoftonline.com/common/oauth2/v2.0/token")
	cfg.Mail.MicrosoftClientID = getEnv("MS_CLIENT_ID", "")
	cfg.Mail.MicrosoftClientSecret = getEnv("MS_CLIENT_SECRET", "")
	cfg.Mail.GoogleTokenURL = getEnv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token")
	cfg.Mail.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", "")
	cfg.Mail.GoogleClientSecret = getEnv("GOOGLE_CLIENT_SECRET", "")
	cfg.Mail.NotifyEndpoint = getEnv("MAIL_NOTIFY_ENDPOINT", "")
	cfg.Mail.NotifyAPIKey = getEnv("MAIL_NOTIFY_API_KEY", "")
	cfg.Mail.NotifyFrom = getEnv("MAIL_NOTIFY_FROM", "crm@localhost")

	cfg.Images.SearchURL = getEnv("IMAGE_SEARCH_URL", "")
	cfg.Images.APIKey = getEnv("IMAGE_SEARCH_API_KEY", "")
	cfg.Images.StoreDir = getEnv("IMAGE_STORE_DIR", "./data/images")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
