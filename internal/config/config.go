package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// this is a pointer so that if someone attempts to use it before loading it will
// panic and force them to load it first.
// it is also private so that it cannot be modified after loading.
var _loaded *Config

// Config is the main configuration structure
type Config struct {
	Common Common `yaml:"common"`
}

// Load loads the configuration following proper precedence: defaults → config file → environment variables
func Load() {
	_loaded = copyDefault()

	configFile := os.Getenv("USERHUB_CONFIG_FILE")
	if configFile == "" {
		configFile = "userhub.yaml"
	}

	if err := LoadFromFile(configFile); err != nil {
		log.Printf("Failed to load config file: %v, using defaults", err)
	} else {
		log.Printf("Loaded config from file: %s", configFile)
	}

	// Environment variables have the highest priority
	ApplyEnvOverrides()
}

func LoadDefault() {
	_loaded = copyDefault()
}

// LoadFromFile loads configuration from a YAML file, merging it over the defaults
func LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := copyDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	_loaded = cfg
	return nil
}

func copyDefault() *Config {
	cfg := defaultConfig
	return &cfg
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
var defaultConfig = Config{
	Common: Common{
		Log: logConfig{
			Level:  "info",
			Format: "json",
		},
		Http: httpConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			MaxRequestSize: 1048576,
		},
		Auth: authConfig{
			APIKey: "",
		},
		Database: databaseConfig{
			Driver:             "postgres",
			MaxOpenConnections: 10,
			Postgres: postgresConfig{
				User:         "postgres",
				Password:     "postgres",
				Host:         "localhost",
				Port:         5432,
				Database:     "userhub",
				ReadTimeout:  30,
				WriteTimeout: 30,
			},
			Sqlite: sqliteConfig{
				Path: "data/userhub.db",
			},
		},
		Pagination: paginationConfig{
			DefaultLimit: 100,
			MaxLimit:     1000,
		},
		Audit: auditConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
	},
}

type Common struct {
	Log        logConfig        `yaml:"log"`
	Http       httpConfig       `yaml:"http"`
	Auth       authConfig       `yaml:"auth"`
	Database   databaseConfig   `yaml:"database"`
	Pagination paginationConfig `yaml:"pagination"`
	Audit      auditConfig      `yaml:"audit"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type httpConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxRequestSize int64  `yaml:"max_request_size"`
}

func (c httpConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type authConfig struct {
	APIKey string `yaml:"api_key"` // empty disables API key checks
}

type databaseConfig struct {
	Driver             string         `yaml:"driver"` // "postgres" or "sqlite"
	MaxOpenConnections int            `yaml:"max_open_connections"`
	Debug              bool           `yaml:"debug"` // log every query at debug level
	Postgres           postgresConfig `yaml:"postgres"`
	Sqlite             sqliteConfig   `yaml:"sqlite"`
}

type postgresConfig struct {
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Database     string `yaml:"database"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
}

func (c postgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
	)
}

type sqliteConfig struct {
	Path string `yaml:"path"` // ":memory:" for a throwaway database
}

type paginationConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

type auditConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"` // 0 keeps request logs forever
}

// Validate checks values that would make the server misbehave at runtime
func (c *Config) Validate() error {
	switch c.Common.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Common.Database.Driver)
	}

	p := c.Common.Pagination
	if p.DefaultLimit <= 0 {
		return fmt.Errorf("pagination.default_limit must be positive, got %d", p.DefaultLimit)
	}
	if p.MaxLimit < p.DefaultLimit {
		return fmt.Errorf("pagination.max_limit (%d) must not be below default_limit (%d)", p.MaxLimit, p.DefaultLimit)
	}

	if c.Common.Audit.RetentionDays < 0 {
		return fmt.Errorf("audit.retention_days must not be negative, got %d", c.Common.Audit.RetentionDays)
	}

	if c.Common.Http.Port <= 0 || c.Common.Http.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.Common.Http.Port)
	}
	return nil
}

// there should be a getter for each top level field in the config struct.
// these getters will panic if the config has not been loaded.

func Logger() logConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Log
}

func Http() httpConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Http
}

func Auth() authConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Auth
}

func Database() databaseConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Database
}

func Pagination() paginationConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Pagination
}

func Audit() auditConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Audit
}

// Get returns the full configuration
func Get() *Config {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded
}

func ApplyEnvOverrides() {
	if _loaded == nil {
		return
	}

	if level := os.Getenv("USERHUB_LOG_LEVEL"); level != "" {
		_loaded.Common.Log.Level = level
	}
	if format := os.Getenv("USERHUB_LOG_FORMAT"); format != "" {
		_loaded.Common.Log.Format = format
	}

	if httpHost := os.Getenv("USERHUB_HTTP_HOST"); httpHost != "" {
		_loaded.Common.Http.Host = httpHost
	}
	if httpPort := os.Getenv("USERHUB_HTTP_PORT"); httpPort != "" {
		if port, err := strconv.Atoi(httpPort); err == nil {
			_loaded.Common.Http.Port = port
		}
	}

	if apiKey := os.Getenv("USERHUB_API_KEY"); apiKey != "" {
		_loaded.Common.Auth.APIKey = apiKey
	}

	if driver := os.Getenv("USERHUB_DB_DRIVER"); driver != "" {
		_loaded.Common.Database.Driver = driver
	}
	if dbHost := os.Getenv("USERHUB_DB_HOST"); dbHost != "" {
		_loaded.Common.Database.Postgres.Host = dbHost
	}
	if dbPort := os.Getenv("USERHUB_DB_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			_loaded.Common.Database.Postgres.Port = port
		}
	}
	if dbUser := os.Getenv("USERHUB_DB_USER"); dbUser != "" {
		_loaded.Common.Database.Postgres.User = dbUser
	}
	if dbPassword := os.Getenv("USERHUB_DB_PASSWORD"); dbPassword != "" {
		_loaded.Common.Database.Postgres.Password = dbPassword
	}
	if dbName := os.Getenv("USERHUB_DB_NAME"); dbName != "" {
		_loaded.Common.Database.Postgres.Database = dbName
	}
	if sqlitePath := os.Getenv("USERHUB_SQLITE_PATH"); sqlitePath != "" {
		_loaded.Common.Database.Sqlite.Path = sqlitePath
	}

	if limit := os.Getenv("USERHUB_DEFAULT_PAGINATION_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			_loaded.Common.Pagination.DefaultLimit = n
		}
	}
	if limit := os.Getenv("USERHUB_MAX_PAGINATION_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			_loaded.Common.Pagination.MaxLimit = n
		}
	}

	if audit := os.Getenv("USERHUB_AUDIT_ENABLED"); audit != "" {
		if enabled, err := strconv.ParseBool(audit); err == nil {
			_loaded.Common.Audit.Enabled = enabled
		}
	}
	if days := os.Getenv("USERHUB_AUDIT_RETENTION_DAYS"); days != "" {
		if n, err := strconv.Atoi(days); err == nil {
			_loaded.Common.Audit.RetentionDays = n
		}
	}
}
