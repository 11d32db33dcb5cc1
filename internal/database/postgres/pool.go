package postgres

import (
	"fmt"
	"net/url"
	"time"
)

const (
	defaultMaxConns    = 4
	defaultMinConns    = 1
	defaultConnTimeout = 5 * time.Second
	defaultPort        = 5432
)

// BuildDSN constructs a postgres:// connection URL from discrete settings.
// Credentials are URL-escaped.
func BuildDSN(host string, port int, user, password, dbname, sslMode string) string {
	if sslMode == "" {
		sslMode = "disable"
	}
	if port == 0 {
		port = defaultPort
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		Path:     "/" + dbname,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// withDefault returns val if non-zero, otherwise returns def
func withDefault(val, def int32) int32 {
	if val == 0 {
		return def
	}
	return val
}
