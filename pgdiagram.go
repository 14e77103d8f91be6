package pgdiagram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/lucasefe/pgdiagram/config"
	"github.com/lucasefe/pgdiagram/connect"
	"github.com/lucasefe/pgdiagram/generator"
	"github.com/lucasefe/pgdiagram/introspect"
	"github.com/lucasefe/pgdiagram/schema"
)

// NewReader builds a catalog reader from cfg.
func NewReader(db introspect.Querier, cfg *config.Config, logger *zap.Logger) *introspect.Reader {
	opts := []introspect.Option{
		introspect.WithSchemas(cfg.Schemas...),
		introspect.WithExcludeTables(cfg.ExcludeTables...),
		introspect.WithLogger(logger),
	}
	if cfg.ShortTypeNames || len(cfg.TypeMappings) > 0 {
		mapper := introspect.NewPostgreSQLTypeMapper(cfg.TypeMappings)
		mapper.ShortNames = cfg.ShortTypeNames
		opts = append(opts, introspect.WithTypeMapper(mapper))
	}
	return introspect.New(db, opts...)
}

// NewConnector builds a connector from cfg.
func NewConnector(cfg *config.Config, opts ...connect.Option) *connect.Connector {
	db := cfg.Database
	return connect.New(connect.Config{
		Driver:         db.Driver,
		Host:           db.Host,
		Port:           db.Port,
		User:           db.User,
		Password:       db.Password,
		Database:       db.Database,
		SSLMode:        db.SSLMode,
		SocketDir:      db.SocketDir,
		ConnectTimeout: db.ConnectTimeout,
	}, opts...)
}

func generatorOptions(cfg *config.Config) []generator.Option {
	return []generator.Option{
		generator.WithTitle(cfg.Output.Title),
		generator.WithDescription(cfg.Output.Description),
		generator.WithMermaidURL(cfg.Output.MermaidURL),
		generator.WithSchemaColors(cfg.Output.SchemaColors),
	}
}

// Render renders catalog in the configured output format, without the
// tables named in cfg.ExcludeTables.
func Render(catalog *schema.Catalog, cfg *config.Config) []byte {
	if len(cfg.ExcludeTables) > 0 {
		catalog = schema.FilterTables(catalog, cfg.ExcludeTables)
	}
	if cfg.Output.Format == config.FormatMermaid {
		return generator.Mermaid(catalog)
	}
	return generator.HTML(catalog, generatorOptions(cfg)...)
}

// Generate reads the catalog through db and renders it.
func Generate(ctx context.Context, db *sql.DB, cfg *config.Config, logger *zap.Logger) []byte {
	catalog := NewReader(db, cfg, logger).Read(ctx)
	return Render(catalog, cfg)
}

// WriteFile writes content to filename, replacing any existing file.
func WriteFile(filename string, content []byte) error {
	if err := os.WriteFile(filename, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// RunOption configures Run.
type RunOption func(*runner)

type runner struct {
	stdout io.Writer
	logger *zap.Logger
	opener connect.Opener
}

// WithStdout redirects the progress lines.
func WithStdout(w io.Writer) RunOption {
	return func(r *runner) {
		r.stdout = w
	}
}

// WithLogger sets the structured logger passed to every stage.
func WithLogger(logger *zap.Logger) RunOption {
	return func(r *runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOpener replaces how connections are opened, mostly for tests.
func WithOpener(open connect.Opener) RunOption {
	return func(r *runner) {
		r.opener = open
	}
}

// Run connects, reads the catalog, renders it and writes cfg.Output.Path.
// When no connection method works it writes the diagnostic page to the same
// path instead and returns an error matching connect.ErrNoConnection.
func Run(ctx context.Context, cfg *config.Config, opts ...RunOption) error {
	r := &runner{
		stdout: os.Stdout,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.println("Connecting to database...")
	connector := NewConnector(cfg, connect.WithOpener(r.opener), connect.WithLogger(r.logger))
	db, method, err := connector.Connect(ctx)
	if err != nil {
		return r.connectionFailed(cfg, err)
	}
	defer db.Close()
	r.logger.Info("connected to database",
		zap.String("database", cfg.Database.Database),
		zap.String("method", method.String()))

	reader := NewReader(db, cfg, r.logger)
	catalog := &schema.Catalog{Columns: make(map[schema.TableRef][]schema.Column)}

	r.println("Getting tables...")
	catalog.Tables = reader.ListTables(ctx)

	r.println("Getting columns...")
	for _, t := range catalog.Tables {
		catalog.Columns[t] = reader.ListColumns(ctx, t)
	}

	r.println("Getting foreign keys...")
	catalog.ForeignKeys = reader.ListForeignKeys(ctx)

	if cfg.Output.Format == config.FormatMermaid {
		r.println("Generating Mermaid diagram...")
	} else {
		r.println("Generating HTML diagram...")
	}
	content := Render(catalog, cfg)

	if err := WriteFile(cfg.Output.Path, content); err != nil {
		return err
	}

	r.logger.Info("schema diagram written",
		zap.String("path", cfg.Output.Path),
		zap.Int("tables", len(catalog.Tables)),
		zap.Int("foreign_keys", len(catalog.ForeignKeys)))
	r.println(fmt.Sprintf("Schema diagram generated as '%s' (%s)", cfg.Output.Path, humanize.Bytes(uint64(len(content)))))
	if cfg.Output.Format == config.FormatHTML {
		r.println("Open this file in a web browser to view the database schema.")
	}

	return nil
}

func (r *runner) connectionFailed(cfg *config.Config, err error) error {
	var failures []string
	var connErr *connect.Error
	if errors.As(err, &connErr) {
		failures = connErr.Messages()
	} else {
		failures = []string{err.Error()}
	}

	for _, msg := range failures {
		r.println(msg)
	}
	r.println("\nCould not connect to the database. Please check your PostgreSQL configuration.")
	r.println(fmt.Sprintf("You might need to modify the database connection parameters in %s.", cfg.Hint()))

	page := generator.ErrorPage(generator.ErrorReport{
		Database:   cfg.Database.Database,
		User:       cfg.Database.User,
		ConfigHint: cfg.Hint(),
		Failures:   failures,
	}, generatorOptions(cfg)...)

	if writeErr := WriteFile(cfg.Output.Path, page); writeErr != nil {
		return fmt.Errorf("%w (diagnostic page not written: %v)", err, writeErr)
	}

	return fmt.Errorf("connect to %s: %w", cfg.Database.Database, err)
}

func (r *runner) println(line string) {
	fmt.Fprintln(r.stdout, line)
}
