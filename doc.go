// Package pgdiagram generates a static HTML page describing a PostgreSQL
// database: one section per schema with a column table for every base table
// and a Mermaid ER diagram, followed by an overview diagram of the whole
// database.
//
// The pipeline has four stages, each in its own package:
//
//   - github.com/lucasefe/pgdiagram/connect - tries password, peer and
//     empty-password authentication in turn
//   - github.com/lucasefe/pgdiagram/introspect - best-effort catalog reads
//   - github.com/lucasefe/pgdiagram/generator - HTML, Mermaid and diagnostic pages
//   - this package - orchestration and writing the output file
//
// # Basic Usage
//
//	cfg, err := config.Load(config.DefaultPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := pgdiagram.Run(ctx, cfg); err != nil {
//	    os.Exit(1)
//	}
//
// When no authentication method succeeds, Run writes a diagnostic page to
// the configured output path instead of the diagram, so a run always leaves
// a file behind.
//
// # Working with the Catalog Directly
//
//	db, err := sql.Open("postgres", connStr)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	catalog := introspect.New(db, introspect.WithSchemas("core", "finance")).Read(ctx)
//	catalog = schema.FilterTables(catalog, []string{"schema_migrations"})
//	os.Stdout.Write(generator.Mermaid(catalog))
package pgdiagram
