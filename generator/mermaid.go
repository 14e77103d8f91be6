// Package generator renders a schema.Catalog as Mermaid ER diagrams and as
// a self-contained HTML page. Every function here is a pure function of its
// input: the same catalog always renders to the same bytes.
//
// Basic usage:
//
//	page := generator.HTML(catalog, generator.WithTitle("Airline Schema"))
//	os.WriteFile("schema.html", page, 0644)
package generator

import (
	"fmt"
	"strings"

	"github.com/lucasefe/pgdiagram/schema"
)

// TruncationMarker is the attribute row appended to an overview block when
// some columns were left out.
const TruncationMarker = "... ... ..."

type entity struct {
	id         string
	attributes []string
}

type relationship struct {
	from string
	to   string
}

// writeERDiagram emits one erDiagram body. escape is applied to every
// identifier and attribute; the markdown variant passes the identity.
func writeERDiagram(builder *strings.Builder, entities []entity, relationships []relationship, escape func(string) string) {
	builder.WriteString("erDiagram\n")

	for _, e := range entities {
		builder.WriteString(fmt.Sprintf("    %s {\n", escape(e.id)))
		for _, attr := range e.attributes {
			builder.WriteString(fmt.Sprintf("        %s\n", escape(attr)))
		}
		builder.WriteString("    }\n")
	}

	for _, rel := range relationships {
		builder.WriteString(fmt.Sprintf("    %s ||--o{ %s : references\n", escape(rel.from), escape(rel.to)))
	}
}

// detailAttribute renders "<type> <name>[ PK][ NOT NULL]".
func detailAttribute(col schema.Column) string {
	parts := []string{col.Type, col.Name}
	if col.IsPrimaryKey {
		parts = append(parts, "PK")
	}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, " ")
}

// overviewAttribute renders "<type> <name>[ PK]".
func overviewAttribute(col schema.Column) string {
	if col.IsPrimaryKey {
		return fmt.Sprintf("%s %s PK", col.Type, col.Name)
	}
	return fmt.Sprintf("%s %s", col.Type, col.Name)
}

// overviewColumns keeps every primary key and "_id" column, then tops the
// list up to three with the leading remaining columns. Declaration order is
// preserved. The second result reports whether anything was left out.
func overviewColumns(columns []schema.Column) ([]schema.Column, bool) {
	keys := 0
	for _, col := range columns {
		if isKeyColumn(col) {
			keys++
		}
	}
	others := 3 - keys

	var shown []schema.Column
	for _, col := range columns {
		switch {
		case isKeyColumn(col):
			shown = append(shown, col)
		case others > 0:
			shown = append(shown, col)
			others--
		}
	}
	return shown, len(shown) < len(columns)
}

func isKeyColumn(col schema.Column) bool {
	return col.IsPrimaryKey || strings.HasSuffix(col.Name, "_id")
}

func detailEntity(id string, columns []schema.Column) entity {
	e := entity{id: id}
	for _, col := range columns {
		e.attributes = append(e.attributes, detailAttribute(col))
	}
	return e
}

func overviewEntity(id string, columns []schema.Column) entity {
	e := entity{id: id}
	shown, truncated := overviewColumns(columns)
	for _, col := range shown {
		e.attributes = append(e.attributes, overviewAttribute(col))
	}
	if truncated {
		e.attributes = append(e.attributes, TruncationMarker)
	}
	return e
}

// qualifiedRelationships turns every edge into a "schema_table" relationship.
// Targets outside the table list are emitted all the same.
func qualifiedRelationships(fks []schema.ForeignKey) []relationship {
	rels := make([]relationship, 0, len(fks))
	for _, fk := range fks {
		rels = append(rels, relationship{from: fk.Source().ID(), to: fk.Target().ID()})
	}
	return rels
}

// Mermaid renders the whole catalog as a fenced markdown Mermaid block with
// full column detail. Tables and edges keep catalog order.
func Mermaid(c *schema.Catalog) []byte {
	var builder strings.Builder

	entities := make([]entity, 0, len(c.Tables))
	for _, t := range c.Tables {
		entities = append(entities, detailEntity(t.ID(), c.ColumnsOf(t)))
	}

	builder.WriteString("```mermaid\n")
	writeERDiagram(&builder, entities, qualifiedRelationships(c.ForeignKeys), identity)
	builder.WriteString("```\n")

	return []byte(builder.String())
}

func identity(s string) string {
	return s
}
