package config

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/carlosatFroom/learning-system/internal/database"
	"github.com/carlosatFroom/learning-system/internal/database/mysql"
	"github.com/carlosatFroom/learning-system/internal/database/postgres"
	"github.com/carlosatFroom/learning-system/internal/errs"
)

// LocalConfig points at the platform's own store.
type LocalConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Resolve returns the connection settings of the local store.
func (l LocalConfig) Resolve() (*database.Config, error) {
	if l.DSN == "" {
		return nil, errs.New(errs.ErrKindConfig, "local.dsn must not be empty")
	}
	driver := database.DriverSQLite
	if l.Driver != "" {
		d, err := database.ParseDriver(l.Driver)
		if err != nil {
			return nil, err
		}
		driver = d
	}
	return database.DefaultConfig(driver, l.DSN), nil
}

// RemoteConfig points at the mirror target, either as discrete parameters or
// as a single URL. Discrete parameters win when user, host and database are
// all set.
type RemoteConfig struct {
	URL string `yaml:"url"`

	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

func (r RemoteConfig) discrete() bool {
	return r.User != "" && r.Host != "" && r.Database != ""
}

// Configured reports whether any remote target is set.
func (r RemoteConfig) Configured() bool {
	return r.discrete() || r.URL != ""
}

// Resolve resolves the remote target into connection settings.
func (r RemoteConfig) Resolve() (*database.Config, error) {
	if r.discrete() {
		driver := database.DriverMySQL
		if r.Driver != "" {
			d, err := database.ParseDriver(r.Driver)
			if err != nil {
				return nil, err
			}
			driver = d
		}
		switch driver {
		case database.DriverMySQL:
			return database.DefaultConfig(driver, mysql.BuildDSN(r.Host, r.Port, r.User, r.Password, r.Database)), nil
		case database.DriverPostgres:
			return database.DefaultConfig(driver, postgres.BuildDSN(r.Host, r.Port, r.User, r.Password, r.Database, r.SSLMode)), nil
		default:
			return nil, errs.Newf(errs.ErrKindConfig, "driver %q cannot be configured from host parameters", driver)
		}
	}
	if r.URL == "" {
		return nil, errs.New(errs.ErrKindConfig, "no remote configured")
	}
	return ParseURL(r.URL)
}

// ParseURL turns a SQLAlchemy-style database URL into connection settings.
// Accepted schemes: mysql, mysql+<dbapi>, postgres, postgresql,
// postgresql+<dbapi> and sqlite.
func ParseURL(raw string) (*database.Config, error) {
	scheme, _, ok := strings.Cut(raw, "://")
	if !ok {
		return nil, errs.New(errs.ErrKindConfig, "remote URL has no scheme")
	}
	base, _, _ := strings.Cut(strings.ToLower(scheme), "+")

	switch base {
	case "sqlite":
		path := strings.TrimPrefix(raw, scheme+"://")
		path = strings.TrimPrefix(path, "/")
		if path == "" {
			return nil, errs.New(errs.ErrKindConfig, "sqlite URL has no path")
		}
		return database.DefaultConfig(database.DriverSQLite, path), nil

	case "mysql", "mariadb":
		u, err := url.Parse(raw)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindConfig, "malformed remote URL", err)
		}
		port := 0
		if p := u.Port(); p != "" {
			if port, err = strconv.Atoi(p); err != nil {
				return nil, errs.Wrap(errs.ErrKindConfig, "malformed remote URL port", err)
			}
		}
		dbname := strings.TrimPrefix(u.Path, "/")
		if u.Hostname() == "" || dbname == "" {
			return nil, errs.New(errs.ErrKindConfig, "mysql URL needs a host and a database")
		}
		pwd, _ := u.User.Password()
		return database.DefaultConfig(database.DriverMySQL, mysql.BuildDSN(u.Hostname(), port, u.User.Username(), pwd, dbname)), nil

	case "postgres", "postgresql":
		dsn := "postgres://" + strings.TrimPrefix(raw, scheme+"://")
		if err := postgres.ValidateDSN(dsn); err != nil {
			return nil, err
		}
		return database.DefaultConfig(database.DriverPostgres, dsn), nil
	}

	return nil, errs.Newf(errs.ErrKindConfig, "unsupported remote URL scheme %q", scheme)
}
