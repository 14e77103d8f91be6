package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGSSLMODE", "PGSOCKETDIR",
	"PGCONNECT_TIMEOUT", "PGDIAGRAM_DRIVER", "PGDIAGRAM_SCHEMAS", "PGDIAGRAM_EXCLUDE_TABLES",
	"PGDIAGRAM_SHORT_TYPE_NAMES", "PGDIAGRAM_TYPE_MAPPINGS", "PGDIAGRAM_LOG_LEVEL",
	"PGDIAGRAM_OUTPUT", "PGDIAGRAM_FORMAT", "PGDIAGRAM_TITLE", "PGDIAGRAM_DESCRIPTION",
	"PGDIAGRAM_MERMAID_URL", "PGDIAGRAM_SCHEMA_COLORS",
}

// clearEnv unsets every variable Load looks at, restoring them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Source)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "postgres", cfg.Database.Password)
	assert.Equal(t, "kenya_airways", cfg.Database.Database)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, []string{"core", "customer", "employee", "operations", "finance"}, cfg.Schemas)
	assert.Equal(t, "kenya_airways_schema.html", cfg.Output.Path)
	assert.Equal(t, FormatHTML, cfg.Output.Format)
	assert.Equal(t, "Kenya Airways Database Schema", cfg.Output.Title)
	assert.Equal(t, "#CCEEFF", cfg.Output.SchemaColors["core"])
	assert.Equal(t, "the PG* environment variables", cfg.Hint())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGPORT", "6543")
	t.Setenv("PGPASSWORD", "s3cret")
	t.Setenv("PGDIAGRAM_SCHEMAS", "core, finance")
	t.Setenv("PGDIAGRAM_FORMAT", "mermaid")
	t.Setenv("PGDIAGRAM_TYPE_MAPPINGS", "citext:text,ltree:text")

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, []string{"core", "finance"}, cfg.Schemas)
	assert.Equal(t, FormatMermaid, cfg.Output.Format)
	assert.Equal(t, map[string]string{"citext": "text", "ltree": "text"}, cfg.TypeMappings)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	yaml := `
database:
  host: yaml-host
  database: airline
schemas:
  - core
  - operations
exclude_tables:
  - schema_migrations
output:
  path: out/airline.html
  title: Airline
`
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	t.Setenv("PGDATABASE", "from_env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, path, cfg.Hint())
	assert.Equal(t, "yaml-host", cfg.Database.Host)
	assert.Equal(t, "from_env", cfg.Database.Database, "environment must override YAML")
	assert.Equal(t, []string{"core", "operations"}, cfg.Schemas)
	assert.Equal(t, []string{"schema_migrations"}, cfg.ExcludeTables)
	assert.Equal(t, "out/airline.html", cfg.Output.Path)
	assert.Equal(t, "Airline", cfg.Output.Title)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PGUSER=reporter\nPGDIAGRAM_OUTPUT=report.html\n"), 0644))

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)

	assert.Equal(t, "reporter", cfg.Database.User)
	assert.Equal(t, "report.html", cfg.Output.Path)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Schemas:  []string{"core"},
			Database: DatabaseConfig{Driver: "postgres"},
			Output:   OutputConfig{Path: "out.html", Format: FormatHTML},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"pgx driver", func(c *Config) { c.Database.Driver = "pgx" }, ""},
		{"blank schemas", func(c *Config) { c.Schemas = []string{" ", ""} }, "at least one schema"},
		{"bad format", func(c *Config) { c.Output.Format = "svg" }, "unknown output format"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "unknown driver"},
		{"no output", func(c *Config) { c.Output.Path = "" }, "output path is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
