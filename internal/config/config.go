package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	S3     S3Config
	OCR    OCRConfig
	AI     AIConfig
	Log    LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DBConfig holds PostgreSQL connection settings. An empty Host disables the
// metrics store entirely; analysis still works without history.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Enabled reports whether a database was configured.
func (d *DBConfig) Enabled() bool { return d.Host != "" }

// S3Config holds settings for archiving analyzed documents. An empty Bucket
// disables archival.
type S3Config struct {
	Region        string        `mapstructure:"region"`
	Bucket        string        `mapstructure:"bucket"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// Enabled reports whether document archival was configured.
func (s *S3Config) Enabled() bool { return s.Bucket != "" }

// OCRConfig holds text extraction settings: external binary locations and
// the knobs shared by every strategy.
type OCRConfig struct {
	Pdftotext       string        `mapstructure:"pdftotext"`
	Pdftoppm        string        `mapstructure:"pdftoppm"`
	Ghostscript     string        `mapstructure:"ghostscript"`
	Tesseract       string        `mapstructure:"tesseract"`
	Language        string        `mapstructure:"language"`
	TempDir         string        `mapstructure:"temp_dir"`
	StrategyTimeout time.Duration `mapstructure:"strategy_timeout"`
	TSVConfidence   bool          `mapstructure:"tsv_confidence"`
}

// ProviderConfig holds settings for a single AI completion provider.
type ProviderConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Endpoint    string        `mapstructure:"endpoint"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// Configured reports whether the provider has enough settings to be used.
func (p *ProviderConfig) Configured() bool { return p.Provider != "" && p.APIKey != "" }

// AIConfig holds AI analysis settings with primary/secondary providers.
type AIConfig struct {
	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from environment variables with the RECONDOC_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RECONDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_mb", 25)
	v.SetDefault("server.cors_origins", []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	})

	// DB defaults (empty host = metrics store disabled)
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "recondoc")
	v.SetDefault("db.password", "recondoc_secret")
	v.SetDefault("db.name", "recondoc_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults (empty bucket = archival disabled)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.key_prefix", "documents")
	v.SetDefault("s3.presign_expiry", "24h")

	// OCR defaults
	v.SetDefault("ocr.pdftotext", "pdftotext")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.ghostscript", "gs")
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.language", "por")
	v.SetDefault("ocr.temp_dir", "")
	v.SetDefault("ocr.strategy_timeout", "60s")
	v.SetDefault("ocr.tsv_confidence", true)

	// AI defaults: GLM primary, OpenAI secondary
	v.SetDefault("ai.primary.provider", "glm")
	v.SetDefault("ai.primary.model", "glm-4.5")
	v.SetDefault("ai.primary.endpoint", "")
	v.SetDefault("ai.primary.timeout", "45s")
	v.SetDefault("ai.primary.max_attempts", 2)
	v.SetDefault("ai.secondary.provider", "openai")
	v.SetDefault("ai.secondary.model", "gpt-4o-mini")
	v.SetDefault("ai.secondary.endpoint", "")
	v.SetDefault("ai.secondary.timeout", "45s")
	v.SetDefault("ai.secondary.max_attempts", 2)

	// Log defaults
	v.SetDefault("log.level", "debug")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
