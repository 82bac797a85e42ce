package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"quickbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	OTP        OTPConfig        `yaml:"otp"`
	Mailjet    MailjetConfig    `yaml:"mailjet"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Google     GoogleConfig     `yaml:"google"`
	// SeedRoomsPath optional YAML with rooms created on first start
	SeedRoomsPath string `yaml:"seed_rooms_path"`
	// Admins e-mails promoted to admin at startup
	Admins []string `yaml:"admins"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CacheTTL  time.Duration      `yaml:"cache_ttl"`
}

type APIHTTPConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Issuer    string        `yaml:"issuer"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BookingConfig struct {
	OpenHour           int           `yaml:"open_hour"`
	CloseHour          int           `yaml:"close_hour"`
	MinDuration        time.Duration `yaml:"min_duration"`
	MaxDuration        time.Duration `yaml:"max_duration"`
	CompletionInterval time.Duration `yaml:"completion_interval"`
	Timezone           string        `yaml:"timezone"`
}

// Location resolves Timezone; empty means the process local zone.
func (b BookingConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(b.Timezone)
}

type OTPConfig struct {
	TTL          time.Duration `yaml:"ttl"`
	VerifiedTTL  time.Duration `yaml:"verified_ttl"`
	RequestLimit int           `yaml:"request_limit"`
	Window       time.Duration `yaml:"window"`
}

type MailjetConfig struct {
	APIKeyPublic  string `yaml:"api_key_public"`
	APIKeyPrivate string `yaml:"api_key_private"`
	FromEmail     string `yaml:"from_email"`
	FromName      string `yaml:"from_name"`
}

func (m MailjetConfig) Enabled() bool {
	return m.APIKeyPublic != "" && m.APIKeyPrivate != ""
}

type TelegramConfig struct {
	BotToken     string  `yaml:"bot_token"`
	AdminChatIDs []int64 `yaml:"admin_chat_ids"`
	Debug        bool    `yaml:"debug"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	RetentionDays int           `yaml:"retention_days"`
	StoragePath   string        `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GoogleConfig struct {
	CredentialsFile       string `yaml:"credentials_file"`
	ReservationsSheetID   string `yaml:"reservations_spreadsheet_id"`
	ReservationsSheetName string `yaml:"reservations_sheet_name"`
	// ResyncOnStart rewrites the whole sheet from the database at startup
	ResyncOnStart bool `yaml:"resync_on_start"`
}

func (g GoogleConfig) Enabled() bool {
	return g.CredentialsFile != "" && g.ReservationsSheetID != ""
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// ${VAR} substitution before parsing
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.API.Auth.JWTSecret == "" {
		return errors.New("api.auth.jwt_secret is required")
	}
	if len(c.API.Auth.JWTSecret) < 16 {
		return errors.New("api.auth.jwt_secret must be at least 16 characters")
	}

	b := c.Booking
	if b.OpenHour < 0 || b.CloseHour > 24 || b.OpenHour >= b.CloseHour {
		return fmt.Errorf("invalid booking hours %d-%d", b.OpenHour, b.CloseHour)
	}
	if b.MinDuration <= 0 || b.MaxDuration < b.MinDuration {
		return fmt.Errorf("invalid booking durations min=%s max=%s", b.MinDuration, b.MaxDuration)
	}
	if _, err := b.Location(); err != nil {
		return fmt.Errorf("invalid booking timezone: %w", err)
	}

	if c.Logging.Output == "file" && c.Logging.FilePath == "" {
		return errors.New("logging.file_path is required for file output")
	}
	if c.API.GRPC.TLS.Enabled && (c.API.GRPC.TLS.CertFile == "" || c.API.GRPC.TLS.KeyFile == "") {
		return errors.New("grpc tls requires cert_file and key_file")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "quickbook"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.TokenTTL == 0 {
		c.API.Auth.TokenTTL = 24 * time.Hour
	}
	if c.API.Auth.Issuer == "" {
		c.API.Auth.Issuer = c.App.Name
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
	if c.API.CacheTTL == 0 {
		c.API.CacheTTL = models.RoomsCacheTTL
	}

	// booking window
	if c.Booking.OpenHour == 0 && c.Booking.CloseHour == 0 {
		c.Booking.OpenHour = 9
		c.Booking.CloseHour = 18
	}
	if c.Booking.MinDuration == 0 {
		c.Booking.MinDuration = 15 * time.Minute
	}
	if c.Booking.MaxDuration == 0 {
		c.Booking.MaxDuration = 540 * time.Minute
	}
	if c.Booking.CompletionInterval == 0 {
		c.Booking.CompletionInterval = models.CompletionInterval
	}

	if c.OTP.TTL == 0 {
		c.OTP.TTL = models.OTPTTL
	}
	if c.OTP.VerifiedTTL == 0 {
		c.OTP.VerifiedTTL = models.OTPVerifiedTTL
	}
	if c.OTP.RequestLimit == 0 {
		c.OTP.RequestLimit = models.OTPRequestLimit
	}
	if c.OTP.Window == 0 {
		c.OTP.Window = models.OTPRequestWindow
	}

	if c.Mailjet.FromName == "" {
		c.Mailjet.FromName = "QuickBook"
	}
	if c.Google.ReservationsSheetName == "" {
		c.Google.ReservationsSheetName = "Reservations"
	}
	if c.Backup.Enabled && c.Backup.Interval == 0 {
		c.Backup.Interval = 24 * time.Hour
	}
	if c.Backup.RetentionDays == 0 {
		c.Backup.RetentionDays = 7
	}
}
