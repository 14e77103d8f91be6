package pgdiagram

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasefe/pgdiagram/config"
	"github.com/lucasefe/pgdiagram/connect"
	"github.com/lucasefe/pgdiagram/schema"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Database: "kenya_airways",
		},
		Output: config.OutputConfig{
			Path:   filepath.Join(t.TempDir(), "kenya_airways_schema.html"),
			Format: config.FormatHTML,
			Title:  "Kenya Airways Database Schema",
		},
		Schemas: []string{"core", "customer"},
	}
}

func failingOpener(_ context.Context, _, _ string) (*sql.DB, error) {
	return nil, errors.New("connection refused")
}

func mockOpener(db *sql.DB) connect.Opener {
	return func(context.Context, string, string) (*sql.DB, error) {
		return db, nil
	}
}

func expectAirlineCatalog(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`FROM information_schema\.tables`).
		WithArgs("core", "customer").
		WillReturnRows(sqlmock.NewRows([]string{"table_schema", "table_name"}).
			AddRow("core", "flight").
			AddRow("customer", "booking"))

	columns := []string{"column_name", "data_type", "udt_name", "is_nullable", "column_default", "is_primary_key"}
	mock.ExpectQuery(`FROM information_schema\.columns`).
		WithArgs("core", "flight").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("flight_id", "integer", "int4", "NO", nil, true))
	mock.ExpectQuery(`FROM information_schema\.columns`).
		WithArgs("customer", "booking").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("booking_id", "integer", "int4", "NO", nil, true).
			AddRow("flight_id", "integer", "int4", "NO", nil, false))

	mock.ExpectQuery(`FROM information_schema\.referential_constraints`).
		WithArgs("core", "customer").
		WillReturnRows(sqlmock.NewRows([]string{
			"table_schema", "table_name", "column_name",
			"foreign_table_schema", "foreign_table_name", "foreign_column_name",
			"constraint_name", "delete_rule", "update_rule",
		}).AddRow("customer", "booking", "flight_id", "core", "flight", "flight_id", "booking_flight_id_fkey", "NO ACTION", "NO ACTION"))
}

func TestRun_WritesSchemaDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	expectAirlineCatalog(mock)
	mock.ExpectClose()

	cfg := testConfig(t)
	var stdout bytes.Buffer

	err = Run(context.Background(), cfg, WithStdout(&stdout), WithOpener(mockOpener(db)))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	page, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>Kenya Airways Database Schema</title>")
	assert.Contains(t, string(page), "    customer_booking ||--o{ core_flight : references\n")
	assert.Contains(t, string(page), "Foreign Key to core.flight(flight_id)")

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, []string{
		"Connecting to database...",
		"Getting tables...",
		"Getting columns...",
		"Getting foreign keys...",
		"Generating HTML diagram...",
	}, lines[:5])
	assert.True(t, strings.HasPrefix(lines[5], "Schema diagram generated as '"+cfg.Output.Path+"' ("))
	assert.Equal(t, "Open this file in a web browser to view the database schema.", lines[6])
}

func TestRun_MermaidFormat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	expectAirlineCatalog(mock)

	cfg := testConfig(t)
	cfg.Output.Format = config.FormatMermaid
	cfg.Output.Path = filepath.Join(t.TempDir(), "schema.md")

	err = Run(context.Background(), cfg, WithStdout(&bytes.Buffer{}), WithOpener(mockOpener(db)))
	require.NoError(t, err)

	content, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "```mermaid\nerDiagram\n"))
	assert.Contains(t, string(content), "        integer flight_id PK NOT NULL\n")
}

func TestRun_AllConnectionMethodsFail(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Output.Path, []byte("stale diagram"), 0644))
	var stdout bytes.Buffer

	err := Run(context.Background(), cfg, WithStdout(&stdout), WithOpener(failingOpener))

	require.Error(t, err)
	assert.True(t, errors.Is(err, connect.ErrNoConnection))

	page, readErr := os.ReadFile(cfg.Output.Path)
	require.NoError(t, readErr)
	assert.Equal(t, 3, strings.Count(string(page), "<h3>Connection Method "))
	assert.Contains(t, string(page), "<title>Kenya Airways Database Schema - Error</title>")
	assert.NotContains(t, string(page), "stale diagram")

	out := stdout.String()
	assert.Contains(t, out, "Password authentication failed: connection refused\n")
	assert.Contains(t, out, "Peer authentication failed: connection refused\n")
	assert.Contains(t, out, "No password authentication failed: connection refused\n")
	assert.Contains(t, out, "Could not connect to the database. Please check your PostgreSQL configuration.")
}

func TestRun_DiagnosticWriteFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Path = filepath.Join(t.TempDir(), "missing", "dir", "out.html")

	err := Run(context.Background(), cfg, WithStdout(&bytes.Buffer{}), WithOpener(failingOpener))

	require.Error(t, err)
	assert.True(t, errors.Is(err, connect.ErrNoConnection))
	assert.Contains(t, err.Error(), "diagnostic page not written")
}

func TestRun_OutputWriteFailureIsFatal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	expectAirlineCatalog(mock)

	cfg := testConfig(t)
	cfg.Output.Path = filepath.Join(t.TempDir(), "missing", "out.html")

	err = Run(context.Background(), cfg, WithStdout(&bytes.Buffer{}), WithOpener(mockOpener(db)))

	require.Error(t, err)
	assert.False(t, errors.Is(err, connect.ErrNoConnection))
	assert.Contains(t, err.Error(), "failed to write")
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := testConfig(t)
	var outputs [][]byte

	for i := 0; i < 2; i++ {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		expectAirlineCatalog(mock)

		outputs = append(outputs, Generate(context.Background(), db, cfg, nil))
		db.Close()
	}

	assert.Equal(t, outputs[0], outputs[1])
}

func TestNewReaderTypeMapping(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig(t)
	cfg.ShortTypeNames = true

	mock.ExpectQuery(`FROM information_schema\.columns`).
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "udt_name", "is_nullable", "column_default", "is_primary_key"}).
			AddRow("name", "character varying", "varchar", "YES", nil, false))

	reader := NewReader(db, cfg, nil)
	columns := reader.ListColumns(context.Background(), schema.TableRef{Schema: "core", Name: "airport"})

	require.Len(t, columns, 1)
	assert.Equal(t, "varchar", columns[0].Type)
}

func TestWriteFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.html")
	require.NoError(t, WriteFile(path, []byte("first version, longer")))
	require.NoError(t, WriteFile(path, []byte("second")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestRenderAppliesExcludeTables(t *testing.T) {
	flight := schema.TableRef{Schema: "core", Name: "flight"}
	migrations := schema.TableRef{Schema: "core", Name: "schema_migrations"}
	catalog := &schema.Catalog{
		Tables: []schema.TableRef{flight, migrations},
		Columns: map[schema.TableRef][]schema.Column{
			flight:     {{Name: "flight_id", Type: "integer", IsPrimaryKey: true}},
			migrations: {{Name: "version", Type: "bigint", IsPrimaryKey: true}},
		},
	}

	cfg := testConfig(t)
	cfg.Output.Format = config.FormatMermaid
	cfg.ExcludeTables = []string{"core.schema_migrations"}

	out := string(Render(catalog, cfg))

	assert.Contains(t, out, "    core_flight {\n")
	assert.NotContains(t, out, "schema_migrations")
	assert.Len(t, catalog.Tables, 2, "input catalog must not be modified")
}
