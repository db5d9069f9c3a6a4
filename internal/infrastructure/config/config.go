package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Printers PrintersConfig
	Archive  ArchiveConfig
	Chrome   ChromeConfig
	Client   ClientConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// DatabaseConfig holds print history database settings
type DatabaseConfig struct {
	Driver          string // sqlite, postgres
	Path            string // sqlite file, ":memory:" for an in-memory database
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings. When enabled, device locks
// are shared between print server instances.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	LockTTL  time.Duration
}

// PrintersConfig describes the attached printers and how labels are printed
type PrintersConfig struct {
	File          string        // printers.json
	PapersFile    string        // papers.json
	HeadWidth     int           // printable dots of the print head
	CenterOnHead  bool          // shift narrow labels to the middle of the head
	Threshold     uint8         // luminance below which a pixel prints black
	Density       int           // 1-15
	Speed         int           // 1-15
	Cutter        bool          // cut after each label
	DeviceTimeout time.Duration // dial and write timeout for network printers
	LockWait      time.Duration // how long a job waits for a busy device
}

// ArchiveConfig selects where received label images are kept
type ArchiveConfig struct {
	Backend     string // none, filesystem, s3
	Path        string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string // custom endpoint for R2 or MinIO
	S3AccessKey string
	S3SecretKey string
	S3PathStyle bool
	S3Prefix    string
}

// ChromeConfig holds headless Chrome settings for HTML labels
type ChromeConfig struct {
	ExecPath  string
	Timeout   time.Duration
	NoSandbox bool
}

// ClientConfig holds settings of the command line composer
type ClientConfig struct {
	ServerURL string
	Printer   string
	Timeout   time.Duration
	UserAgent string
	FontSize  float64
}

// Load loads configuration from the default locations.
// Priority (highest to lowest):
// 1. Environment variables with LABEL_ prefix (e.g., LABEL_DATABASE_DRIVER)
// 2. .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from the given TOML file, or from the
// default locations when path is empty
func LoadFile(path string) (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/labelprint")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("LABEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			LockTTL:  v.GetDuration("redis.lock_ttl"),
		},
		Printers: PrintersConfig{
			File:          v.GetString("printers.file"),
			PapersFile:    v.GetString("printers.papers_file"),
			HeadWidth:     v.GetInt("printers.head_width"),
			CenterOnHead:  v.GetBool("printers.center_on_head"),
			Threshold:     uint8(v.GetUint("printers.threshold")),
			Density:       v.GetInt("printers.density"),
			Speed:         v.GetInt("printers.speed"),
			Cutter:        v.GetBool("printers.cutter"),
			DeviceTimeout: v.GetDuration("printers.device_timeout"),
			LockWait:      v.GetDuration("printers.lock_wait"),
		},
		Archive: ArchiveConfig{
			Backend:     v.GetString("archive.backend"),
			Path:        v.GetString("archive.path"),
			S3Bucket:    v.GetString("archive.s3_bucket"),
			S3Region:    v.GetString("archive.s3_region"),
			S3Endpoint:  v.GetString("archive.s3_endpoint"),
			S3AccessKey: v.GetString("archive.s3_access_key"),
			S3SecretKey: v.GetString("archive.s3_secret_key"),
			S3PathStyle: v.GetBool("archive.s3_path_style"),
			S3Prefix:    v.GetString("archive.s3_prefix"),
		},
		Chrome: ChromeConfig{
			ExecPath:  v.GetString("chrome.exec_path"),
			Timeout:   v.GetDuration("chrome.timeout"),
			NoSandbox: v.GetBool("chrome.no_sandbox"),
		},
		Client: ClientConfig{
			ServerURL: v.GetString("client.server_url"),
			Printer:   v.GetString("client.printer"),
			Timeout:   v.GetDuration("client.timeout"),
			UserAgent: v.GetString("client.user_agent"),
			FontSize:  v.GetFloat64("client.font_size"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "labelprint"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "5000"
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
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 40 << 20 // 40MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "labelprint.db"
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
		cfg.Database.DBName = "labelprint"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
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
	if cfg.Redis.LockTTL == 0 {
		cfg.Redis.LockTTL = 2 * time.Minute
	}
	if cfg.Printers.File == "" {
		cfg.Printers.File = "printers.json"
	}
	if cfg.Printers.PapersFile == "" {
		cfg.Printers.PapersFile = "papers.json"
	}
	if cfg.Printers.HeadWidth == 0 {
		cfg.Printers.HeadWidth = 384
	}
	if cfg.Printers.Threshold == 0 {
		cfg.Printers.Threshold = 128
	}
	if cfg.Printers.Density == 0 {
		cfg.Printers.Density = 15
	}
	if cfg.Printers.Speed == 0 {
		cfg.Printers.Speed = 7
	}
	if cfg.Printers.DeviceTimeout == 0 {
		cfg.Printers.DeviceTimeout = 10 * time.Second
	}
	if cfg.Printers.LockWait == 0 {
		cfg.Printers.LockWait = 30 * time.Second
	}
	if cfg.Archive.Backend == "" {
		cfg.Archive.Backend = "none"
	}
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = "labels"
	}
	if cfg.Archive.S3Region == "" {
		cfg.Archive.S3Region = "auto"
	}
	if cfg.Chrome.Timeout == 0 {
		cfg.Chrome.Timeout = 30 * time.Second
	}
	if cfg.Client.ServerURL == "" {
		cfg.Client.ServerURL = "http://localhost:5000"
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = 30 * time.Second
	}
	if cfg.Client.UserAgent == "" {
		cfg.Client.UserAgent = "labelprint/1.0"
	}
	if cfg.Client.FontSize == 0 {
		cfg.Client.FontSize = 32
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Printers.HeadWidth < 8 {
		return fmt.Errorf("printers.head_width must be at least 8 dots")
	}
	if c.Printers.Density < 1 || c.Printers.Density > 15 {
		return fmt.Errorf("printers.density must be between 1 and 15, got %d", c.Printers.Density)
	}
	if c.Printers.Speed < 1 || c.Printers.Speed > 15 {
		return fmt.Errorf("printers.speed must be between 1 and 15, got %d", c.Printers.Speed)
	}

	switch c.Archive.Backend {
	case "none", "filesystem":
	case "s3":
		if c.Archive.S3Bucket == "" {
			return fmt.Errorf("archive.s3_bucket is required for the s3 archive")
		}
	default:
		return fmt.Errorf("archive.backend must be none, filesystem or s3, got %q", c.Archive.Backend)
	}

	if _, err := url.ParseRequestURI(c.Client.ServerURL); err != nil {
		return fmt.Errorf("client.server_url is not a valid URL: %w", err)
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" && c.Database.Password == "" {
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

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
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

// RedisAddr returns the host:port of the Redis server
func (r *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
