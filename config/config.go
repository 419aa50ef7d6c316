// Package config loads settings for the board binaries: defaults, then an
// optional TOML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends for board-api.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendTable  = "table"
)

// Local fallback stores for board-web.
const (
	LocalFile  = "file"
	LocalRedis = "redis"
)

// Default values.
const (
	DefaultListenAddr   = ":8080"
	DefaultDataFile     = "shared_project_data.json"
	DefaultSQLitePath   = "board.db"
	DefaultBoardTable   = "board"
	DefaultCacheTTL     = 5 * time.Minute
	DefaultDeduperTTL   = 24 * time.Hour
	DefaultSaveDebounce = 500 * time.Millisecond
	DefaultLocalPath    = ".swimlane"
	DefaultGzipMinSize  = 16 << 10
)

// Duration is a time.Duration that decodes from strings like "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds the settings of board-api, board-web and board-init.
type Config struct {
	Debug      bool          `toml:"debug"`
	ListenAddr string        `toml:"listen_addr"`
	Storage    StorageConfig `toml:"storage"`
	Redis      RedisConfig   `toml:"redis"`
	Auth       AuthConfig    `toml:"auth"`
	Web        WebConfig     `toml:"web"`
}

type StorageConfig struct {
	Backend          string `toml:"backend"`
	ConnectionString string `toml:"connection_string"`
	Table            string `toml:"table"`
	EventsQueue      string `toml:"events_queue"`
	DataFile         string `toml:"data_file"`
	SQLitePath       string `toml:"sqlite_path"`
}

type RedisConfig struct {
	ConnectionString string   `toml:"connection_string"`
	CacheTTL         Duration `toml:"cache_ttl"`
	DeduperTTL       Duration `toml:"deduper_ttl"`
}

type AuthConfig struct {
	Domain       string   `toml:"domain"`
	Audience     string   `toml:"audience"`
	TestMode     bool     `toml:"test_mode"`
	TestSecret   string   `toml:"test_secret"`
	JWKSCacheTTL Duration `toml:"jwks_cache_ttl"`
}

// Enabled reports whether POST /api/data requires a token.
func (a AuthConfig) Enabled() bool {
	return a.TestMode || a.Domain != ""
}

type WebConfig struct {
	RemoteURL      string   `toml:"remote_url"`
	RemoteToken    string   `toml:"remote_token"`
	GzipMinSize    int      `toml:"gzip_min_size"`
	LocalStore     string   `toml:"local_store"`
	LocalStorePath string   `toml:"local_store_path"`
	SaveDebounce   Duration `toml:"save_debounce"`
}

func setDefaults(cfg *Config) {
	cfg.ListenAddr = DefaultListenAddr
	cfg.Storage.Backend = BackendFile
	cfg.Storage.Table = DefaultBoardTable
	cfg.Storage.DataFile = DefaultDataFile
	cfg.Storage.SQLitePath = DefaultSQLitePath
	cfg.Redis.CacheTTL = Duration(DefaultCacheTTL)
	cfg.Redis.DeduperTTL = Duration(DefaultDeduperTTL)
	cfg.Web.LocalStore = LocalFile
	cfg.Web.LocalStorePath = DefaultLocalPath
	cfg.Web.SaveDebounce = Duration(DefaultSaveDebounce)
	cfg.Web.GzipMinSize = DefaultGzipMinSize
}

// Load builds the configuration. path names a TOML file; when empty the
// SWIMLANE_CONFIG variable is consulted, and no file is read if both are empty.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path == "" {
		path, _ = lookup("SWIMLANE_CONFIG")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}
	if err := loadFromEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *Duration) {
		if v, ok := lookup(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				errs = append(errs, fmt.Errorf("invalid %s: %q", name, v))
				return
			}
			*dst = Duration(d)
		}
	}

	boolean("DEBUG", &cfg.Debug)
	str("LISTEN_ADDR", &cfg.ListenAddr)
	if port, ok := lookup("FUNCTIONS_CUSTOMHANDLER_PORT"); ok && port != "" {
		cfg.ListenAddr = ":" + port
	}

	str("STORAGE_BACKEND", &cfg.Storage.Backend)
	str("STORAGE_CONNECTION_STRING", &cfg.Storage.ConnectionString)
	str("BOARD_TABLE", &cfg.Storage.Table)
	str("BOARD_EVENTS_QUEUE", &cfg.Storage.EventsQueue)
	str("DATA_FILE", &cfg.Storage.DataFile)
	str("SQLITE_PATH", &cfg.Storage.SQLitePath)

	str("REDIS_CONNECTION_STRING", &cfg.Redis.ConnectionString)
	duration("CACHE_TTL", &cfg.Redis.CacheTTL)
	duration("DEDUPER_TTL", &cfg.Redis.DeduperTTL)

	str("AUTH0_DOMAIN", &cfg.Auth.Domain)
	str("AUTH0_AUDIENCE", &cfg.Auth.Audience)
	if v, ok := lookup("AUTH0_TEST_MODE"); ok && v != "" {
		cfg.Auth.TestMode = v == "1" || strings.EqualFold(v, "true")
	}
	str("TEST_JWT_SECRET", &cfg.Auth.TestSecret)
	duration("JWKS_CACHE_TTL", &cfg.Auth.JWKSCacheTTL)

	str("REMOTE_STORE_URL", &cfg.Web.RemoteURL)
	str("REMOTE_STORE_TOKEN", &cfg.Web.RemoteToken)
	str("LOCAL_STORE", &cfg.Web.LocalStore)
	str("LOCAL_STORE_PATH", &cfg.Web.LocalStorePath)
	duration("SAVE_DEBOUNCE", &cfg.Web.SaveDebounce)

	return errors.Join(errs...)
}

// Validate checks the combination of settings.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	case BackendTable:
		if c.Storage.ConnectionString == "" || c.Storage.Table == "" {
			errs = append(errs, errors.New("table backend needs STORAGE_CONNECTION_STRING and BOARD_TABLE"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	if c.Storage.EventsQueue != "" && c.Storage.ConnectionString == "" {
		errs = append(errs, errors.New("BOARD_EVENTS_QUEUE needs STORAGE_CONNECTION_STRING"))
	}
	switch c.Web.LocalStore {
	case LocalFile:
	case LocalRedis:
		if c.Redis.ConnectionString == "" {
			errs = append(errs, errors.New("redis local store needs REDIS_CONNECTION_STRING"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown local store %q", c.Web.LocalStore))
	}
	if c.Web.SaveDebounce <= 0 {
		errs = append(errs, errors.New("save debounce must be positive"))
	}
	if c.Auth.TestMode && c.Auth.TestSecret == "" {
		errs = append(errs, errors.New("TEST_JWT_SECRET must be set when AUTH0_TEST_MODE=1"))
	}
	if !c.Auth.TestMode && c.Auth.Domain != "" && c.Auth.Audience == "" {
		errs = append(errs, errors.New("AUTH0_AUDIENCE must be set with AUTH0_DOMAIN"))
	}
	return errors.Join(errs...)
}
