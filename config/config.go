// Package config loads pgdiagram settings from an optional YAML file, an
// optional .env file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultPath is the config file read when no -config flag is given.
const DefaultPath = "pgdiagram.yaml"

// Output formats.
const (
	FormatHTML    = "html"
	FormatMermaid = "mermaid"
)

// Config holds all configuration for pgdiagram.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Output   OutputConfig   `yaml:"output"`

	// Schemas is the allow-list of schemas to introspect.
	Schemas []string `yaml:"schemas" env:"PGDIAGRAM_SCHEMAS" env-separator:"," env-default:"core,customer,employee,operations,finance"`
	// ExcludeTables drops tables by bare name or "schema.table".
	ExcludeTables []string `yaml:"exclude_tables" env:"PGDIAGRAM_EXCLUDE_TABLES" env-separator:","`

	// ShortTypeNames renders "character varying" as "varchar" and so on.
	ShortTypeNames bool `yaml:"short_type_names" env:"PGDIAGRAM_SHORT_TYPE_NAMES" env-default:"false"`
	// TypeMappings overrides type names, keyed by data type or udt name.
	TypeMappings map[string]string `yaml:"type_mappings" env:"PGDIAGRAM_TYPE_MAPPINGS" env-separator:","`

	LogLevel string `yaml:"log_level" env:"PGDIAGRAM_LOG_LEVEL" env-default:"info"`

	// Source is the config file that was read, empty when none existed.
	Source string `yaml:"-"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Driver         string        `yaml:"driver" env:"PGDIAGRAM_DRIVER" env-default:"postgres"`
	Host           string        `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int           `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string        `yaml:"user" env:"PGUSER" env-default:"postgres"`
	Password       string        `yaml:"-" env:"PGPASSWORD" env-default:"postgres"` // Secret - not in YAML
	Database       string        `yaml:"database" env:"PGDATABASE" env-default:"kenya_airways"`
	SSLMode        string        `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	SocketDir      string        `yaml:"socket_dir" env:"PGSOCKETDIR" env-default:"/var/run/postgresql"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"PGCONNECT_TIMEOUT" env-default:"5s"`
}

// OutputConfig controls the generated artifact.
type OutputConfig struct {
	Path        string `yaml:"path" env:"PGDIAGRAM_OUTPUT" env-default:"kenya_airways_schema.html"`
	Format      string `yaml:"format" env:"PGDIAGRAM_FORMAT" env-default:"html"`
	Title       string `yaml:"title" env:"PGDIAGRAM_TITLE" env-default:"Kenya Airways Database Schema"`
	Description string `yaml:"description" env:"PGDIAGRAM_DESCRIPTION" env-default:"This diagram shows the tables and relationships in the Kenya Airways database."`
	MermaidURL  string `yaml:"mermaid_url" env:"PGDIAGRAM_MERMAID_URL" env-default:"https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"`
	// SchemaColors maps schema name to a CSS colour.
	SchemaColors map[string]string `yaml:"schema_colors" env:"PGDIAGRAM_SCHEMA_COLORS" env-separator:"," env-default:"core:#CCEEFF,customer:#FFDDCC,employee:#DDFFCC,operations:#FFCCDD,finance:#DDCCFF"`
}

// Load reads .env (if present), then path (if present) with environment
// variable overrides. A missing file is not an error: defaults and
// environment variables still apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		cfg.Source = path
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate normalizes list fields and rejects unusable settings.
func (c *Config) Validate() error {
	c.Schemas = trimAll(c.Schemas)
	c.ExcludeTables = trimAll(c.ExcludeTables)

	if len(c.Schemas) == 0 {
		return errors.New("at least one schema is required")
	}

	switch c.Output.Format {
	case FormatHTML, FormatMermaid:
	default:
		return fmt.Errorf("unknown output format %q (want %q or %q)", c.Output.Format, FormatHTML, FormatMermaid)
	}

	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("unknown driver %q (want \"postgres\" or \"pgx\")", c.Database.Driver)
	}

	if c.Output.Path == "" {
		return errors.New("output path is required")
	}

	return nil
}

// Hint names where connection parameters come from, for operator messages.
func (c *Config) Hint() string {
	if c.Source != "" {
		return c.Source
	}
	return "the PG* environment variables"
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
