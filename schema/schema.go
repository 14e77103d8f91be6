// Package schema defines the in-memory projection of a database catalog.
// These types are produced by the introspect package and consumed by the
// generator package; nothing in here talks to a database.
package schema

import (
	"fmt"
	"sort"
)

// TableRef identifies a table by schema and name. It is comparable and is
// used as the key for per-table column lookups.
type TableRef struct {
	// Schema is the database schema containing the table (e.g., "core").
	Schema string
	// Name is the table name without schema qualification.
	Name string
}

// ID returns the diagram node id "schema_table". Qualifying the node keeps
// same-named tables in different schemas apart.
func (t TableRef) ID() string {
	return fmt.Sprintf("%s_%s", t.Schema, t.Name)
}

// String returns the qualified "schema.table" form.
func (t TableRef) String() string {
	return fmt.Sprintf("%s.%s", t.Schema, t.Name)
}

// Column represents a database column within a table.
type Column struct {
	// Name is the column name.
	Name string
	// Type is the declared data type, possibly rewritten by a type mapper.
	Type string
	// Nullable indicates whether the column allows NULL values.
	Nullable bool
	// DefaultValue is the column's default value expression, or nil if none.
	DefaultValue *string
	// IsPrimaryKey indicates whether this column is part of the primary key.
	IsPrimaryKey bool
}

// ForeignKey is one column pair of a foreign key constraint, directed from
// the owning table to the referenced table.
type ForeignKey struct {
	FromSchema string
	FromTable  string
	FromColumn string
	ToSchema   string
	ToTable    string
	ToColumn   string
	// Constraint is the constraint name, used only for stable ordering.
	Constraint string
	// OnDelete is the referential action on delete (e.g., "CASCADE", "SET NULL").
	OnDelete string
	// OnUpdate is the referential action on update.
	OnUpdate string
}

// Source returns the table owning the foreign key.
func (fk ForeignKey) Source() TableRef {
	return TableRef{Schema: fk.FromSchema, Name: fk.FromTable}
}

// Target returns the referenced table.
func (fk ForeignKey) Target() TableRef {
	return TableRef{Schema: fk.ToSchema, Name: fk.ToTable}
}

// Catalog is the result of one introspection pass. It is read-only once
// built; renderers only look things up in it.
type Catalog struct {
	// Tables lists every table in reader order: (schema, name) ascending.
	Tables []TableRef
	// Columns maps each table to its columns in ordinal order.
	Columns map[TableRef][]Column
	// ForeignKeys lists every foreign key edge in reader order.
	ForeignKeys []ForeignKey
}

// ColumnsOf returns the columns of t, or nil when none were read.
func (c *Catalog) ColumnsOf(t TableRef) []Column {
	if c.Columns == nil {
		return nil
	}
	return c.Columns[t]
}

// Schemas returns the distinct schema names that own at least one table, sorted.
func (c *Catalog) Schemas() []string {
	seen := make(map[string]bool)
	var names []string
	for _, t := range c.Tables {
		if !seen[t.Schema] {
			seen[t.Schema] = true
			names = append(names, t.Schema)
		}
	}
	sort.Strings(names)
	return names
}

// TablesIn returns the tables of one schema sorted by name.
func (c *Catalog) TablesIn(schemaName string) []TableRef {
	var tables []TableRef
	for _, t := range c.Tables {
		if t.Schema == schemaName {
			tables = append(tables, t)
		}
	}
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Name < tables[j].Name
	})
	return tables
}

// ForeignKeysFrom returns the edges whose source is exactly t.column.
func (c *Catalog) ForeignKeysFrom(t TableRef, column string) []ForeignKey {
	var fks []ForeignKey
	for _, fk := range c.ForeignKeys {
		if fk.FromSchema == t.Schema && fk.FromTable == t.Name && fk.FromColumn == column {
			fks = append(fks, fk)
		}
	}
	return fks
}

// ForeignKeysWithin returns the edges whose source and target both live in schemaName.
func (c *Catalog) ForeignKeysWithin(schemaName string) []ForeignKey {
	var fks []ForeignKey
	for _, fk := range c.ForeignKeys {
		if fk.FromSchema == schemaName && fk.ToSchema == schemaName {
			fks = append(fks, fk)
		}
	}
	return fks
}
