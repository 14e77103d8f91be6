package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lucasefe/pgdiagram"
	"github.com/lucasefe/pgdiagram/config"
)

const version = "1.0.0"

type flags struct {
	ConfigPath    string
	OutputFile    string
	Format        string
	Schemas       string
	ExcludeTables string
	ShowVersion   bool
	ShowHelp      bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup, such as flushing
// the logger, happens before the process exits.
func run(args []string) int {
	f, err := parseFlags(args)
	if err != nil {
		return 2
	}

	if f.ShowVersion {
		fmt.Printf("pgdiagram version %s\n", version)
		return 0
	}

	if f.ShowHelp {
		printUsage()
		return 0
	}

	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Flags win over the config file and environment
	if f.OutputFile != "" {
		cfg.Output.Path = f.OutputFile
	}
	if f.Format != "" {
		cfg.Output.Format = f.Format
	}
	if f.Schemas != "" {
		cfg.Schemas = splitList(f.Schemas)
	}
	if f.ExcludeTables != "" {
		cfg.ExcludeTables = splitList(f.ExcludeTables)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		printUsage()
		return 1
	}

	logger, err := newLogger(cfg.LogLevel, zapcore.Lock(os.Stderr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pgdiagram.Run(ctx, cfg, pgdiagram.WithLogger(logger)); err != nil {
		logger.Error("pgdiagram failed", zap.Error(err))
		return 1
	}
	return 0
}

func newLogger(level string, out zapcore.WriteSyncer) (*zap.Logger, error) {
	atom, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), out, atom)
	return zap.New(core, zap.ErrorOutput(out)), nil
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("pgdiagram", flag.ContinueOnError)
	fs.Usage = printUsage

	fs.StringVar(&f.ConfigPath, "config", config.DefaultPath, "YAML config file (optional)")
	fs.StringVar(&f.ConfigPath, "c", config.DefaultPath, "YAML config file (short form)")
	fs.StringVar(&f.OutputFile, "output", "", "Output file path")
	fs.StringVar(&f.OutputFile, "o", "", "Output file path (short form)")
	fs.StringVar(&f.Format, "format", "", "Output format: html or mermaid")
	fs.StringVar(&f.Format, "f", "", "Output format (short form)")
	fs.StringVar(&f.Schemas, "schemas", "", "Comma-separated list of schemas to include")
	fs.StringVar(&f.Schemas, "s", "", "Comma-separated list of schemas to include (short form)")
	fs.StringVar(&f.ExcludeTables, "exclude-tables", "", "Comma-separated list of tables to exclude")
	fs.StringVar(&f.ExcludeTables, "x", "", "Comma-separated list of tables to exclude (short form)")
	fs.BoolVar(&f.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&f.ShowVersion, "v", false, "Show version information (short form)")
	fs.BoolVar(&f.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&f.ShowHelp, "h", false, "Show help information (short form)")

	err := fs.Parse(args)
	return f, err
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printUsage() {
	fmt.Printf(`pgdiagram - Generate an HTML schema diagram from a PostgreSQL database

USAGE:
    pgdiagram [OPTIONS]

OPTIONS:
    -c, --config <FILE>            YAML config file (default: pgdiagram.yaml, optional)
    -o, --output <FILE>            Output file (default: kenya_airways_schema.html)
    -f, --format <FORMAT>          html or mermaid (default: html)
    -s, --schemas <SCHEMAS>        Comma-separated schemas to include
                                   (default: core,customer,employee,operations,finance)
    -x, --exclude-tables <TABLES>  Comma-separated tables to exclude (name or schema.name)
    -v, --version                  Show version
    -h, --help                     Show help

ENVIRONMENT VARIABLES:
    PGHOST, PGPORT, PGUSER         Server location and role (default: localhost, 5432, postgres)
    PGPASSWORD                     Password for password authentication (default: postgres)
    PGDATABASE                     Database to document (default: kenya_airways)
    PGSOCKETDIR                    Unix socket directory for peer authentication
    PGCONNECT_TIMEOUT              Per-attempt connect timeout (default: 5s)
    PGDIAGRAM_DRIVER               postgres (lib/pq) or pgx
    PGDIAGRAM_SCHEMAS              Comma-separated schemas to include
    PGDIAGRAM_OUTPUT               Output file
    PGDIAGRAM_LOG_LEVEL            debug, info, warn or error (default: info)

    Variables in a .env file in the working directory are loaded first.

EXAMPLES:
    # Document the default schemas of kenya_airways
    pgdiagram

    # Only two schemas, skipping migration bookkeeping
    pgdiagram --schemas "core,finance" --exclude-tables "schema_migrations"

    # Mermaid markdown instead of HTML
    pgdiagram --format mermaid --output schema.md

    # Another database, verbose connection attempts
    PGDATABASE=inventory PGDIAGRAM_LOG_LEVEL=debug pgdiagram -o inventory.html

`)
}
