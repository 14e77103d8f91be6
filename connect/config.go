package connect

import (
	"fmt"
	"strings"
	"time"
)

// Config contains PostgreSQL connection options.
type Config struct {
	// Driver is the database/sql driver name: "postgres" (lib/pq) or "pgx".
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // "disable", "require", "verify-ca", "verify-full"
	// SocketDir is the unix socket directory used for peer/trust authentication.
	SocketDir      string
	ConnectTimeout time.Duration
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSocketDir returns the usual unix socket directory of a packaged PostgreSQL.
func DefaultSocketDir() string {
	return "/var/run/postgresql"
}

func (c Config) withDefaults() Config {
	if c.Driver == "" {
		c.Driver = "postgres"
	}
	if c.Port == 0 {
		c.Port = DefaultPort()
	}
	if c.SocketDir == "" {
		c.SocketDir = DefaultSocketDir()
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	return c
}

// keywordDSN renders libpq keyword/value pairs. Both lib/pq and pgx parse
// this form, so the same string serves either driver.
func keywordDSN(pairs [][2]string) string {
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%s", kv[0], quoteValue(kv[1])))
	}
	return strings.Join(parts, " ")
}

// quoteValue single-quotes values that are empty or contain spaces, quotes
// or backslashes.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
