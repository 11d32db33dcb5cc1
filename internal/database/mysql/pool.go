package mysql

import (
	"database/sql"
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/carlosatFroom/learning-system/internal/database"
)

const (
	defaultMaxOpenConns    = 4
	defaultMaxIdleConns    = 1
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 10 * time.Minute
	defaultConnTimeout     = 5 * time.Second
	defaultPort            = 3306
)

// buildPool configures and returns a *sql.DB with pool settings
func buildPool(cfg *database.Config) (*sql.DB, error) {
	db, err := openDB(cfg.DSN)
	if err != nil {
		return nil, err
	}

	maxOpen := int(cfg.MaxConns)
	if maxOpen == 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := int(cfg.MinConns)
	if maxIdle == 0 {
		maxIdle = defaultMaxIdleConns
	}
	lifetime := cfg.MaxConnLifetime
	if lifetime == 0 {
		lifetime = defaultConnMaxLifetime
	}
	idle := cfg.MaxConnIdleTime
	if idle == 0 {
		idle = defaultConnMaxIdleTime
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)
	db.SetConnMaxIdleTime(idle)

	return db, nil
}

// BuildDSN constructs the MySQL DSN from discrete settings.
// format: user:pass@tcp(host:port)/dbname?parseTime=true&loc=UTC
func BuildDSN(host string, port int, user, password, dbname string) string {
	if port == 0 {
		port = defaultPort
	}
	c := gomysql.NewConfig()
	c.User = user
	c.Passwd = password
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", host, port)
	c.DBName = dbname
	return withRequiredOptions(c).FormatDSN()
}

// withRequiredOptions forces options the replicator depends on: DATETIME
// columns scan into time.Time and are interpreted as UTC.
func withRequiredOptions(c *gomysql.Config) *gomysql.Config {
	c.ParseTime = true
	c.Loc = time.UTC
	if c.Timeout == 0 {
		c.Timeout = defaultConnTimeout
	}
	return c
}

func connectTimeout(cfg *database.Config) time.Duration {
	if cfg.ConnectTimeout > 0 {
		return cfg.ConnectTimeout
	}
	return defaultConnTimeout
}
