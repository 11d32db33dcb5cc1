// Package config loads the mirror's settings from a YAML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/carlosatFroom/learning-system/internal/catalog"
	"github.com/carlosatFroom/learning-system/internal/errs"
	"github.com/carlosatFroom/learning-system/internal/filestore"
	"github.com/carlosatFroom/learning-system/internal/gate"
	"github.com/carlosatFroom/learning-system/internal/logger"
	"github.com/carlosatFroom/learning-system/internal/state"
)

// Config is the full process configuration.
type Config struct {
	Local       LocalConfig      `yaml:"local"`
	Remote      RemoteConfig     `yaml:"remote"`
	Sync        SyncConfig       `yaml:"sync"`
	State       StateConfig      `yaml:"state"`
	ObjectStore filestore.Config `yaml:"object_store"`
	Server      ServerConfig     `yaml:"server"`
	Log         logger.Config    `yaml:"log"`
}

// SyncConfig tunes sync runs.
type SyncConfig struct {
	// Prefix is prepended to every remote table name.
	Prefix string `yaml:"prefix"`

	// Cooldown is the minimum time between two unforced runs.
	Cooldown time.Duration `yaml:"cooldown"`

	// ProbeTimeout bounds the remote liveness check.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// Parallelism caps how many independent tables are copied at once.
	Parallelism int `yaml:"parallelism"`
}

// StateConfig selects where the last sync time is kept.
type StateConfig struct {
	// Backend is "file" (default) or "object".
	Backend string `yaml:"backend"`
	File    string `yaml:"file"`
	Key     string `yaml:"key"`
}

const (
	StateBackendFile   = "file"
	StateBackendObject = "object"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	logCfg := logger.DefaultConfig()
	return &Config{
		Local: LocalConfig{Driver: "sqlite", DSN: "learning.db"},
		Sync: SyncConfig{
			Prefix:       catalog.DefaultPrefix,
			Cooldown:     gate.DefaultCooldown,
			ProbeTimeout: 5 * time.Second,
			Parallelism:  1,
		},
		State:       StateConfig{Backend: StateBackendFile, File: state.DefaultPath, Key: state.DefaultObjectKey},
		ObjectStore: filestore.Config{Provider: filestore.ProviderMinIO, Bucket: "learning-system"},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: *logCfg,
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindConfig, "failed to read config file", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, err
		}
	}

	ApplyEnv(cfg, viper.New())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errs.Wrap(errs.ErrKindConfig, "failed to parse config file", err)
	}
	return nil
}

// envBindings maps config keys to the environment variables that override
// them. The names match the ones the platform already exports.
var envBindings = map[string]string{
	"remote.user":     "sql_user",
	"remote.password": "sql_pwd",
	"remote.host":     "sql_host",
	"remote.database": "sql_db",
	"remote.port":     "sql_port",
	"remote.driver":   "sql_driver",
	"remote.url":      "REMOTE_DB_URL",
	"local.dsn":       "LOCAL_DB_PATH",
	"state.file":      "SYNC_STATE_FILE",
	"state.backend":   "SYNC_STATE_BACKEND",
	"sync.prefix":     "SYNC_TABLE_PREFIX",
	"log.level":       "LOG_LEVEL",
}

// ApplyEnv overrides cfg with any bound environment variable that is set.
func ApplyEnv(cfg *Config, v *viper.Viper) {
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	str("remote.user", &cfg.Remote.User)
	str("remote.password", &cfg.Remote.Password)
	str("remote.host", &cfg.Remote.Host)
	str("remote.database", &cfg.Remote.Database)
	str("remote.driver", &cfg.Remote.Driver)
	str("remote.url", &cfg.Remote.URL)
	str("local.dsn", &cfg.Local.DSN)
	str("state.file", &cfg.State.File)
	str("state.backend", &cfg.State.Backend)
	str("sync.prefix", &cfg.Sync.Prefix)
	str("log.level", &cfg.Log.Level)
	if v.IsSet("remote.port") {
		cfg.Remote.Port = v.GetInt("remote.port")
	}
}

// Validate rejects settings that can never work. An unconfigured remote is
// valid; a malformed one is not.
func (c *Config) Validate() error {
	if c.Sync.Prefix == "" {
		return errs.New(errs.ErrKindConfig, "sync.prefix must not be empty")
	}
	if c.Sync.Parallelism < 1 {
		return errs.New(errs.ErrKindConfig, "sync.parallelism must be at least 1")
	}
	if c.Sync.Cooldown < 0 || c.Sync.ProbeTimeout < 0 {
		return errs.New(errs.ErrKindConfig, "sync durations must not be negative")
	}

	if _, err := c.Local.Resolve(); err != nil {
		return err
	}
	if c.Remote.Configured() {
		if _, err := c.Remote.Resolve(); err != nil {
			return err
		}
	}

	switch c.State.Backend {
	case StateBackendFile:
	case StateBackendObject:
		if c.ObjectStore.Endpoint == "" || c.ObjectStore.Bucket == "" {
			return errs.New(errs.ErrKindConfig, "object state backend needs object_store.endpoint and object_store.bucket")
		}
	default:
		return errs.Newf(errs.ErrKindConfig, "unknown state backend %q", c.State.Backend)
	}
	return nil
}
