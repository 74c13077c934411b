package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"careercraft/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig          `yaml:"app"`
	API           APIConfig          `yaml:"api"`
	Database      DatabaseConfig     `yaml:"database"`
	Redis         RedisConfig        `yaml:"redis"`
	Storage       StorageConfig      `yaml:"storage"`
	Notifications NotificationConfig `yaml:"notifications"`
	Events        EventsConfig       `yaml:"events"`
	Booking       BookingConfig      `yaml:"booking"`
	Backup        BackupConfig       `yaml:"backup"`
	Monitoring    MonitoringConfig   `yaml:"monitoring"`
	Logging       LoggingConfig      `yaml:"logging"`
	Exports       ExportConfig       `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	Timezone    string `yaml:"timezone"`
}

// Location resolves the configured time zone, falling back to UTC.
func (a AppConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
}

// DSN builds a pgx connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

const (
	DownloadRedirect = "redirect"
	DownloadProxy    = "proxy"
)

type StorageConfig struct {
	UploadsDir      string       `yaml:"uploads_dir"`
	EmbedCategories []string     `yaml:"embed_categories"`
	MaxUploadMB     int          `yaml:"max_upload_mb"`
	Remote          RemoteConfig `yaml:"remote"`
	Images          ImagesConfig `yaml:"images"`
}

// MaxUploadBytes is the multipart body limit.
func (s StorageConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

type RemoteConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	PublicBaseURL   string `yaml:"public_base_url"`
	Download        string `yaml:"download"`
}

// HasCredentials reports whether an object storage client can be built,
// regardless of whether new uploads go there.
func (r RemoteConfig) HasCredentials() bool {
	return r.Endpoint != "" && r.Bucket != "" && r.AccessKeyID != "" && r.AccessKeySecret != ""
}

// Usable reports whether the remote backend is switched on and has credentials.
func (r RemoteConfig) Usable() bool {
	return r.Enabled && r.HasCredentials()
}

type ImagesConfig struct {
	WebP      bool    `yaml:"webp"`
	MaxWidth  int     `yaml:"max_width"`
	MaxHeight int     `yaml:"max_height"`
	Quality   float32 `yaml:"quality"`
}

const (
	AdminChannelEmail    = "email"
	AdminChannelTelegram = "telegram"
)

type NotificationConfig struct {
	Enabled      bool           `yaml:"enabled"`
	From         string         `yaml:"from"`
	FromName     string         `yaml:"from_name"`
	AdminEmail   string         `yaml:"admin_email"`
	SendGridKey  string         `yaml:"sendgrid_api_key"`
	MeetingLink  string         `yaml:"meeting_link"`
	AdminChannel string         `yaml:"admin_channel"`
	Timeout      time.Duration  `yaml:"timeout"`
	Telegram     TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	BotToken string  `yaml:"bot_token"`
	ChatIDs  []int64 `yaml:"chat_ids"`
	Debug    bool    `yaml:"debug"`
}

type EventsConfig struct {
	AMQP AMQPConfig `yaml:"amqp"`
}

type AMQPConfig struct {
	Enabled  bool        `yaml:"enabled"`
	URL      string      `yaml:"url"`
	Exchange string      `yaml:"exchange"`
	Retry    RetryConfig `yaml:"retry"`
}

// RetryConfig drives the relay's backoff before an event is dead-lettered.
type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

type BookingConfig struct {
	ThrottleLimit  int           `yaml:"throttle_limit"`
	ThrottleWindow time.Duration `yaml:"throttle_window"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
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

type ExportConfig struct {
	Path string `yaml:"path"`
}

var categoryPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

func Load(configPath string) (*Config, error) {
	// .env необязателен, переменные могут прийти из окружения
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
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
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case DriverPostgres:
		if c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "" {
			return errors.New("postgres host and dbname are required")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.App.Timezone != "" {
		if _, err := time.LoadLocation(c.App.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.App.Timezone, err)
		}
	}

	for _, category := range c.Storage.EmbedCategories {
		if !categoryPattern.MatchString(category) {
			return fmt.Errorf("invalid embed category %q", category)
		}
	}

	switch c.Storage.Remote.Download {
	case DownloadRedirect, DownloadProxy:
	default:
		return fmt.Errorf("storage.remote.download must be %q or %q", DownloadRedirect, DownloadProxy)
	}

	if c.Notifications.Enabled {
		if c.Notifications.SendGridKey == "" {
			return errors.New("sendgrid api key is required when notifications are enabled")
		}
		if c.Notifications.From == "" {
			return errors.New("notifications.from is required")
		}
		switch c.Notifications.AdminChannel {
		case AdminChannelEmail:
			if c.Notifications.AdminEmail == "" {
				return errors.New("notifications.admin_email is required")
			}
		case AdminChannelTelegram:
			if c.Notifications.Telegram.BotToken == "" || len(c.Notifications.Telegram.ChatIDs) == 0 {
				return errors.New("telegram bot token and chat ids are required for the telegram admin channel")
			}
		default:
			return fmt.Errorf("unknown admin channel %q", c.Notifications.AdminChannel)
		}
	}

	if c.Events.AMQP.Enabled && c.Events.AMQP.URL == "" {
		return errors.New("events.amqp.url is required")
	}
	if r := c.Events.AMQP.Retry; r.MaxDelay < r.InitialDelay || r.BackoffFactor < 1 {
		return errors.New("events.amqp.retry: max_delay must not be below initial_delay and backoff_factor must be at least 1")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "careercraft"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.HTTP.ReadTimeout == 0 {
		c.API.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.API.HTTP.WriteTimeout == 0 {
		c.API.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.API.HTTP.ShutdownTimeout == 0 {
		c.API.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = 5432
	}
	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = "disable"
	}

	// Storage defaults
	if c.Storage.UploadsDir == "" {
		c.Storage.UploadsDir = models.DefaultUploadsDir
	}
	if c.Storage.MaxUploadMB == 0 {
		c.Storage.MaxUploadMB = models.DefaultMaxUploadMB
	}
	c.Storage.Remote.Download = strings.ToLower(c.Storage.Remote.Download)
	if c.Storage.Remote.Download == "" {
		c.Storage.Remote.Download = DownloadRedirect
	}
	if c.Storage.Images.MaxWidth == 0 {
		c.Storage.Images.MaxWidth = 800
	}
	if c.Storage.Images.MaxHeight == 0 {
		c.Storage.Images.MaxHeight = 800
	}
	if c.Storage.Images.Quality == 0 {
		c.Storage.Images.Quality = 80
	}

	if c.Notifications.AdminChannel == "" {
		c.Notifications.AdminChannel = AdminChannelEmail
	}
	if c.Notifications.Timeout == 0 {
		c.Notifications.Timeout = models.NotificationTimeout * time.Second
	}
	if c.Notifications.FromName == "" {
		c.Notifications.FromName = c.App.Name
	}

	if c.Events.AMQP.Exchange == "" {
		c.Events.AMQP.Exchange = "careercraft.events"
	}
	if c.Events.AMQP.Retry.MaxRetries == 0 {
		c.Events.AMQP.Retry.MaxRetries = 5
	}
	if c.Events.AMQP.Retry.InitialDelay == 0 {
		c.Events.AMQP.Retry.InitialDelay = 500 * time.Millisecond
	}
	if c.Events.AMQP.Retry.MaxDelay == 0 {
		c.Events.AMQP.Retry.MaxDelay = 30 * time.Second
	}
	if c.Events.AMQP.Retry.BackoffFactor == 0 {
		c.Events.AMQP.Retry.BackoffFactor = 2
	}

	if c.Booking.ThrottleLimit == 0 {
		c.Booking.ThrottleLimit = models.ThrottleLimit
	}
	if c.Booking.ThrottleWindow == 0 {
		c.Booking.ThrottleWindow = models.ThrottleWindow * time.Second
	}

	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
