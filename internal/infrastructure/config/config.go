package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Data source modes for channel orders
const (
	ModeLive    = "live"
	ModeFixture = "fixture"
	ModeFile    = "file"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
	Collector CollectorConfig
	Inventory InventoryConfig
	Cafe24    Cafe24Config
	Naver     NaverConfig
	Coupang   CoupangConfig
	Scraper   ScraperConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string `validate:"oneof=development staging production test"`
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `validate:"oneof=debug info warn warning error fatal"`
	Format     string `validate:"oneof=json console"`
	Output     string // stdout, stderr, or file path
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Enabled         bool
	Driver          string `validate:"oneof=postgres sqlite"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	AutoMigrate     bool
	// Retention deletes stored runs older than this after each scheduled refresh; zero keeps all
	Retention time.Duration `validate:"gte=0"`
}

// RedisConfig holds Redis connection settings for the payload cache
type RedisConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Password   string
	DB         int
	KeyPrefix  string
	PayloadTTL time.Duration
}

// StorageConfig holds S3-compatible archive settings
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string `validate:"required_if=Enabled true"`
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Prefix          string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// TelemetryConfig holds OpenTelemetry and Prometheus configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to export traces
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 `validate:"gte=0,lte=1"`
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool // Register the otelgorm plugin
	MetricsEnabled    bool // Expose /metrics
}

// CollectorConfig controls one aggregation run
type CollectorConfig struct {
	Mode               string `validate:"oneof=live fixture file"`
	FallbackToFixture  bool
	DataDir            string
	FetchTimeout       time.Duration
	StatusPolicy       string `validate:"oneof=cancel_first complete_first"`
	PlaceholderChannel string `validate:"omitempty,oneof=cafe24 naver coupang"`
	PlaceholderPrefix  string
	Timezone           string
	FixtureSeed        uint64
	RefreshEnabled     bool
	RefreshInterval    time.Duration
	RetryAttempts      int
	RetryDelay         time.Duration
	WriteLatestFile    bool
}

// InventoryConfig holds the stock list source and classification threshold
type InventoryConfig struct {
	File              string // JSON or YAML; empty uses the built-in list
	LowStockThreshold int    `validate:"gte=0"`
}

// Cafe24Config holds Cafe24 Admin API credentials
type Cafe24Config struct {
	MallID            string
	AccessToken       string
	BaseURL           string
	RequestsPerSecond float64
}

// NaverConfig holds Naver Commerce API credentials
type NaverConfig struct {
	ClientID          string
	ClientSecret      string
	BaseURL           string
	RequestsPerSecond float64
}

// CoupangConfig holds Coupang Wing Open API credentials
type CoupangConfig struct {
	VendorID          string
	AccessKey         string
	SecretKey         string
	BaseURL           string
	RequestsPerSecond float64
}

// ScraperConfig holds settings for the Cafe24 admin page scraper
type ScraperConfig struct {
	Enabled       bool
	RemoteURL     string
	TabURLPattern string
	Timeout       time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SHOPDASH_ prefix (e.g., SHOPDASH_COUPANG_SECRET_KEY)
// 2. Variables from a .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("SHOPDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// zero is a valid threshold, so its default cannot be applied afterwards
	v.SetDefault("inventory.low_stock_threshold", 10)

	cfg := fromViper(v)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// fromViper builds the config struct from resolved viper keys
func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("database.enabled"),
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
			Retention:       v.GetDuration("database.retention"),
		},
		Redis: RedisConfig{
			Enabled:    v.GetBool("redis.enabled"),
			Host:       v.GetString("redis.host"),
			Port:       v.GetInt("redis.port"),
			Password:   v.GetString("redis.password"),
			DB:         v.GetInt("redis.db"),
			KeyPrefix:  v.GetString("redis.key_prefix"),
			PayloadTTL: v.GetDuration("redis.payload_ttl"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			Prefix:          v.GetString("storage.prefix"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Output:     v.GetString("log.output"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
		},
		Collector: CollectorConfig{
			Mode:               v.GetString("collector.mode"),
			FallbackToFixture:  v.GetBool("collector.fallback_to_fixture"),
			DataDir:            v.GetString("collector.data_dir"),
			FetchTimeout:       v.GetDuration("collector.fetch_timeout"),
			StatusPolicy:       v.GetString("collector.status_policy"),
			PlaceholderChannel: v.GetString("collector.placeholder_channel"),
			PlaceholderPrefix:  v.GetString("collector.placeholder_prefix"),
			Timezone:           v.GetString("collector.timezone"),
			FixtureSeed:        v.GetUint64("collector.fixture_seed"),
			RefreshEnabled:     v.GetBool("collector.refresh_enabled"),
			RefreshInterval:    v.GetDuration("collector.refresh_interval"),
			RetryAttempts:      v.GetInt("collector.retry_attempts"),
			RetryDelay:         v.GetDuration("collector.retry_delay"),
			WriteLatestFile:    v.GetBool("collector.write_latest_file"),
		},
		Inventory: InventoryConfig{
			File:              v.GetString("inventory.file"),
			LowStockThreshold: v.GetInt("inventory.low_stock_threshold"),
		},
		Cafe24: Cafe24Config{
			MallID:            v.GetString("cafe24.mall_id"),
			AccessToken:       v.GetString("cafe24.access_token"),
			BaseURL:           v.GetString("cafe24.base_url"),
			RequestsPerSecond: v.GetFloat64("cafe24.requests_per_second"),
		},
		Naver: NaverConfig{
			ClientID:          v.GetString("naver.client_id"),
			ClientSecret:      v.GetString("naver.client_secret"),
			BaseURL:           v.GetString("naver.base_url"),
			RequestsPerSecond: v.GetFloat64("naver.requests_per_second"),
		},
		Coupang: CoupangConfig{
			VendorID:          v.GetString("coupang.vendor_id"),
			AccessKey:         v.GetString("coupang.access_key"),
			SecretKey:         v.GetString("coupang.secret_key"),
			BaseURL:           v.GetString("coupang.base_url"),
			RequestsPerSecond: v.GetFloat64("coupang.requests_per_second"),
		},
		Scraper: ScraperConfig{
			Enabled:       v.GetBool("scraper.enabled"),
			RemoteURL:     v.GetString("scraper.remote_url"),
			TabURLPattern: v.GetString("scraper.tab_url_pattern"),
			Timeout:       v.GetDuration("scraper.timeout"),
		},
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shopdash"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8000"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "shopdash"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "shopdash.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "shopdash:"
	}
	if cfg.Redis.PayloadTTL == 0 {
		cfg.Redis.PayloadTTL = 30 * time.Minute
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "ap-northeast-2"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "dashboard"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 14
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 2 * time.Minute // refresh runs synchronously
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}

	if cfg.Collector.Mode == "" {
		cfg.Collector.Mode = ModeFile
	}
	if cfg.Collector.DataDir == "" {
		cfg.Collector.DataDir = "data"
	}
	if cfg.Collector.FetchTimeout == 0 {
		cfg.Collector.FetchTimeout = 30 * time.Second
	}
	if cfg.Collector.StatusPolicy == "" {
		cfg.Collector.StatusPolicy = "cancel_first"
	}
	if cfg.Collector.PlaceholderChannel == "" {
		cfg.Collector.PlaceholderChannel = "naver"
	}
	if cfg.Collector.PlaceholderPrefix == "" {
		cfg.Collector.PlaceholderPrefix = "EST-"
	}
	if cfg.Collector.Timezone == "" {
		cfg.Collector.Timezone = "Asia/Seoul"
	}
	if cfg.Collector.FixtureSeed == 0 {
		cfg.Collector.FixtureSeed = 20240101
	}
	if cfg.Collector.RefreshInterval == 0 {
		cfg.Collector.RefreshInterval = 15 * time.Minute
	}
	if cfg.Collector.RetryAttempts == 0 {
		cfg.Collector.RetryAttempts = 3
	}
	if cfg.Collector.RetryDelay == 0 {
		cfg.Collector.RetryDelay = time.Minute
	}

	if cfg.Cafe24.RequestsPerSecond == 0 {
		cfg.Cafe24.RequestsPerSecond = 2
	}
	if cfg.Naver.BaseURL == "" {
		cfg.Naver.BaseURL = "https://api.commerce.naver.com/external"
	}
	if cfg.Naver.RequestsPerSecond == 0 {
		cfg.Naver.RequestsPerSecond = 2
	}
	if cfg.Coupang.BaseURL == "" {
		cfg.Coupang.BaseURL = "https://api-gateway.coupang.com"
	}
	if cfg.Coupang.RequestsPerSecond == 0 {
		cfg.Coupang.RequestsPerSecond = 5
	}

	if cfg.Scraper.RemoteURL == "" {
		cfg.Scraper.RemoteURL = "http://127.0.0.1:18800"
	}
	if cfg.Scraper.TabURLPattern == "" {
		cfg.Scraper.TabURLPattern = "cafe24.com/admin"
	}
	if cfg.Scraper.Timeout == 0 {
		cfg.Scraper.Timeout = 20 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if _, err := time.LoadLocation(c.Collector.Timezone); err != nil {
		return fmt.Errorf("collector.timezone %q: %w", c.Collector.Timezone, err)
	}

	if c.App.Env == "production" {
		if c.Database.Enabled && c.Database.Driver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// Location returns the time zone used for run dates and the weekly series
func (c *CollectorConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
