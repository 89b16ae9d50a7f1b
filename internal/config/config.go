package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server      ServerConfig
	MongoDB     MongoDBConfig
	Site        SiteConfig
	Session     SessionConfig
	Identity    IdentityConfig
	Maintenance MaintenanceConfig
	Reporting   ReportingConfig
	Sheets      SheetsConfig
	WhatsApp    WhatsAppConfig
	Renderer    RendererConfig
	Kafka       KafkaConfig
	Log         LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// MongoDBConfig holds settings for the production record store.
type MongoDBConfig struct {
	URI          string
	DBName       string
	Collection   string
	PollInterval time.Duration
	DeleteBatch  int
}

// SessionConfig controls issued session tokens and where sessions are kept.
type SessionConfig struct {
	Secret    string
	TTL       time.Duration
	RedisAddr string
	RedisDB   int
}

// IdentityConfig points at the managed password sign-in provider.
type IdentityConfig struct {
	APIKey  string
	BaseURL string
}

// MaintenanceConfig holds the bulk-delete confirmation phrase and retention job settings.
type MaintenanceConfig struct {
	ConfirmationSecret string
	RetentionCron      string
	RetentionDays      int
}

// ReportingConfig holds scheduler-related settings for report publishing.
type ReportingConfig struct {
	DailySummaryCron string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
// Publishing is disabled when SpreadsheetID is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	SummaryRange    string
}

// WhatsAppConfig contains credentials for sharing reports through the Meta WhatsApp Cloud API.
// Sharing is disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
}

// RendererConfig points at the HTML to PDF conversion service. PDF export is disabled when URL is empty.
type RendererConfig struct {
	URL     string
	Timeout time.Duration
}

// KafkaConfig enables maintenance audit events when Brokers is not empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LogConfig tunes the zap logger.
type LogConfig struct {
	Level string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	site, err := LoadSite(os.Getenv("SITE_CONFIG_PATH"))
	if err != nil {
		return nil, err
	}
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		site.Timezone = tz
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("APP_PORT", "8080"),
			AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		MongoDB: MongoDBConfig{
			URI:          getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName:       getenvWithDefault("MONGODB_DB_NAME", "producao"),
			Collection:   getenvWithDefault("MONGODB_COLLECTION", "producao_hora"),
			PollInterval: getDurationWithDefault("SNAPSHOT_POLL_INTERVAL", 5*time.Second),
			DeleteBatch:  getIntWithDefault("DELETE_BATCH_SIZE", 200),
		},
		Site: site,
		Session: SessionConfig{
			Secret:    os.Getenv("SESSION_SECRET"),
			TTL:       getDurationWithDefault("SESSION_TTL", 12*time.Hour),
			RedisAddr: os.Getenv("REDIS_ADDR"),
			RedisDB:   getIntWithDefault("REDIS_DB", 0),
		},
		Identity: IdentityConfig{
			APIKey:  os.Getenv("IDENTITY_API_KEY"),
			BaseURL: getenvWithDefault("IDENTITY_BASE_URL", "https://identitytoolkit.googleapis.com"),
		},
		Maintenance: MaintenanceConfig{
			ConfirmationSecret: os.Getenv("DELETE_CONFIRMATION_SECRET"),
			RetentionCron:      os.Getenv("RETENTION_CRON_SCHEDULE"),
			RetentionDays:      getIntWithDefault("RETENTION_DAYS", 0),
		},
		Reporting: ReportingConfig{
			DailySummaryCron: os.Getenv("DAILY_SUMMARY_CRON_SCHEDULE"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_REPORT_ID"),
			SummaryRange:    getenvWithDefault("GOOGLE_SHEET_SUMMARY_RANGE", "Relatorios!A:H"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
		},
		Renderer: RendererConfig{
			URL:     os.Getenv("PDF_RENDERER_URL"),
			Timeout: getDurationWithDefault("PDF_RENDERER_TIMEOUT", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenvWithDefault("KAFKA_MAINTENANCE_TOPIC", "shiftboard.maintenance"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must be provided")
	case c.MongoDB.Collection == "":
		return errors.New("MONGODB_COLLECTION must be provided")
	}

	if c.MongoDB.PollInterval <= 0 {
		return errors.New("SNAPSHOT_POLL_INTERVAL must be positive")
	}

	if c.MongoDB.DeleteBatch <= 0 {
		return errors.New("DELETE_BATCH_SIZE must be positive")
	}

	if c.Session.Secret == "" {
		return errors.New("SESSION_SECRET must be provided")
	}

	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	if c.Identity.APIKey == "" {
		return errors.New("IDENTITY_API_KEY must be provided")
	}

	if c.Maintenance.ConfirmationSecret == "" {
		return errors.New("DELETE_CONFIRMATION_SECRET must be provided")
	}

	if c.Maintenance.RetentionDays < 0 {
		return errors.New("RETENTION_DAYS must not be negative")
	}

	if c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_REPORT_ID is set")
	}

	if c.WhatsApp.AccessToken != "" && c.WhatsApp.PhoneNumberID == "" {
		return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided when WHATSAPP_TOKEN is set")
	}

	return c.Site.Validate()
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntWithDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getDurationWithDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
