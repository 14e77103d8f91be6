// Package introspect reads the PostgreSQL catalog for a fixed allow-list of
// schemas: base tables, their columns with primary-key flags, and foreign
// key edges.
//
// Every read is best-effort. A failing query is logged and yields an empty
// result, so one inaccessible table never aborts the whole pass.
//
// Basic usage:
//
//	r := introspect.New(db,
//	    introspect.WithSchemas("core", "finance"),
//	    introspect.WithExcludeTables("schema_migrations"),
//	    introspect.WithLogger(logger),
//	)
//	catalog := r.Read(ctx)
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lucasefe/pgdiagram/schema"
)

// Querier is the subset of *sql.DB the reader needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Reader issues the catalog queries.
type Reader struct {
	db   Querier
	opts *options
}

// New creates a Reader over db.
func New(db Querier, opts ...Option) *Reader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Reader{db: db, opts: o}
}

// Schemas returns the allow-list this reader is restricted to.
func (r *Reader) Schemas() []string {
	return r.opts.schemas
}

// Read runs all three catalog reads in sequence.
func (r *Reader) Read(ctx context.Context) *schema.Catalog {
	catalog := &schema.Catalog{
		Columns: make(map[schema.TableRef][]schema.Column),
	}

	catalog.Tables = r.ListTables(ctx)
	for _, t := range catalog.Tables {
		catalog.Columns[t] = r.ListColumns(ctx, t)
	}
	catalog.ForeignKeys = r.ListForeignKeys(ctx)

	return catalog
}

// ListTables returns the base tables of the allow-listed schemas ordered by
// (schema, table). Excluded tables are dropped.
func (r *Reader) ListTables(ctx context.Context) []schema.TableRef {
	tables, err := r.queryTables(ctx)
	if err != nil {
		r.opts.logger.Warn("failed to get tables",
			zap.Strings("schemas", r.opts.schemas),
			zap.Error(err))
		return []schema.TableRef{}
	}
	return tables
}

// ListColumns returns the columns of t in ordinal order.
func (r *Reader) ListColumns(ctx context.Context, t schema.TableRef) []schema.Column {
	columns, err := r.queryColumns(ctx, t)
	if err != nil {
		r.opts.logger.Warn("failed to get columns",
			zap.String("schema", t.Schema),
			zap.String("table", t.Name),
			zap.Error(err))
		return []schema.Column{}
	}
	return columns
}

// ListForeignKeys returns every foreign key column pair owned by an
// allow-listed table, ordered by (source schema, source table).
func (r *Reader) ListForeignKeys(ctx context.Context) []schema.ForeignKey {
	fks, err := r.queryForeignKeys(ctx)
	if err != nil {
		r.opts.logger.Warn("failed to get foreign keys",
			zap.Strings("schemas", r.opts.schemas),
			zap.Error(err))
		return []schema.ForeignKey{}
	}
	return fks
}

// inList returns "$start, $start+1, ..." placeholders and the matching args.
func inList(values []string, start int) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = fmt.Sprintf("$%d", start+i)
		args[i] = v
	}
	return strings.Join(placeholders, ", "), args
}

func (r *Reader) queryTables(ctx context.Context) ([]schema.TableRef, error) {
	in, args := inList(r.opts.schemas, 1)
	query := `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_schema IN (` + in + `)
			AND table_type = 'BASE TABLE'
		ORDER BY table_schema, table_name
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	tables := []schema.TableRef{}
	for rows.Next() {
		var t schema.TableRef
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		if schema.Excluded(t, r.opts.excludeTables) {
			continue
		}
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	return tables, nil
}

func (r *Reader) queryColumns(ctx context.Context, t schema.TableRef) ([]schema.Column, error) {
	const query = `
		SELECT
			c.column_name,
			c.data_type,
			COALESCE(c.udt_name, c.data_type) AS udt_name,
			c.is_nullable,
			c.column_default,
			EXISTS (
				SELECT 1
				FROM pg_catalog.pg_constraint con
				JOIN pg_catalog.pg_class rel ON rel.oid = con.conrelid
				JOIN pg_catalog.pg_namespace nsp ON nsp.oid = rel.relnamespace
				JOIN pg_catalog.pg_attribute att ON att.attrelid = rel.oid
				WHERE con.contype = 'p'
					AND nsp.nspname = c.table_schema
					AND rel.relname = c.table_name
					AND att.attname = c.column_name
					AND att.attnum = ANY(con.conkey)
			) AS is_primary_key
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := r.db.QueryContext(ctx, query, t.Schema, t.Name)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := []schema.Column{}
	for rows.Next() {
		var col schema.Column
		var dataType, udtName, isNullable string
		var columnDefault sql.NullString

		err := rows.Scan(
			&col.Name,
			&dataType,
			&udtName,
			&isNullable,
			&columnDefault,
			&col.IsPrimaryKey,
		)
		if err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}

		col.Type = dataType
		if r.opts.typeMapper != nil {
			col.Type = r.opts.typeMapper.MapType(dataType, udtName)
		}
		col.Nullable = isNullable == "YES"
		if columnDefault.Valid {
			col.DefaultValue = &columnDefault.String
		}

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return columns, nil
}

func (r *Reader) queryForeignKeys(ctx context.Context) ([]schema.ForeignKey, error) {
	in, args := inList(r.opts.schemas, 1)
	query := `
		SELECT
			kcu1.table_schema,
			kcu1.table_name,
			kcu1.column_name,
			kcu2.table_schema AS foreign_table_schema,
			kcu2.table_name AS foreign_table_name,
			kcu2.column_name AS foreign_column_name,
			rc.constraint_name,
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu1
			ON kcu1.constraint_name = rc.constraint_name
			AND kcu1.constraint_schema = rc.constraint_schema
		JOIN information_schema.key_column_usage kcu2
			ON kcu2.constraint_name = rc.unique_constraint_name
			AND kcu2.constraint_schema = rc.unique_constraint_schema
			AND kcu2.ordinal_position = kcu1.position_in_unique_constraint
		WHERE kcu1.table_schema IN (` + in + `)
		ORDER BY kcu1.table_schema, kcu1.table_name, rc.constraint_name, kcu1.ordinal_position
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	fks := []schema.ForeignKey{}
	for rows.Next() {
		var fk schema.ForeignKey
		err := rows.Scan(
			&fk.FromSchema,
			&fk.FromTable,
			&fk.FromColumn,
			&fk.ToSchema,
			&fk.ToTable,
			&fk.ToColumn,
			&fk.Constraint,
			&fk.OnDelete,
			&fk.OnUpdate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}

	return fks, nil
}
