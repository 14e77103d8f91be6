package generator

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/lucasefe/pgdiagram/schema"
)

const pageStyle = `        body { font-family: Arial, sans-serif; margin: 20px; }
        h1 { color: #003366; }
        h2 { color: #0066cc; margin-top: 30px; }
        .mermaid { margin: 20px 0; }
        .schema-container { margin-bottom: 50px; }
        table { border-collapse: collapse; width: 100%; margin-bottom: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
`

const mermaidInit = "        mermaid.initialize({ startOnLoad: true, theme: 'default', securityLevel: 'loose', er: { useMaxWidth: false } });\n"

// HTML renders the full schema document: a detail section per schema
// (sorted), then one overview diagram of the whole database.
func HTML(c *schema.Catalog, opts ...Option) []byte {
	o := buildOptions(opts)
	var builder strings.Builder

	builder.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	builder.WriteString("    <meta charset=\"UTF-8\">\n")
	builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(o.title)))
	builder.WriteString(fmt.Sprintf("    <script src=\"%s\"></script>\n", html.EscapeString(o.mermaidURL)))
	builder.WriteString("    <style>\n")
	builder.WriteString(pageStyle)
	writeSchemaColors(&builder, o.schemaColors)
	builder.WriteString("    </style>\n</head>\n<body>\n")
	builder.WriteString(fmt.Sprintf("    <h1>%s</h1>\n", html.EscapeString(o.title)))
	builder.WriteString(fmt.Sprintf("    <p>%s</p>\n", html.EscapeString(o.description)))

	for _, schemaName := range c.Schemas() {
		generateSchemaSection(&builder, c, schemaName, o)
	}

	builder.WriteString("    <h2>Full Database Diagram</h2>\n")
	builder.WriteString("    <div class=\"mermaid\">\n")
	entities := make([]entity, 0, len(c.Tables))
	for _, t := range c.Tables {
		entities = append(entities, overviewEntity(t.ID(), c.ColumnsOf(t)))
	}
	writeERDiagram(&builder, entities, qualifiedRelationships(c.ForeignKeys), html.EscapeString)
	builder.WriteString("    </div>\n")

	builder.WriteString("    <script>\n")
	builder.WriteString(mermaidInit)
	builder.WriteString("    </script>\n</body>\n</html>\n")

	return []byte(builder.String())
}

func writeSchemaColors(builder *strings.Builder, colors map[string]string) {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		builder.WriteString(fmt.Sprintf("        .schema-%s { background-color: %s; }\n",
			html.EscapeString(name), html.EscapeString(colors[name])))
	}
}

func generateSchemaSection(builder *strings.Builder, c *schema.Catalog, schemaName string, o *options) {
	class := "schema-container"
	if _, ok := o.schemaColors[schemaName]; ok {
		class += " schema-" + schemaName
	}

	builder.WriteString(fmt.Sprintf("    <div class=\"%s\">\n", html.EscapeString(class)))
	builder.WriteString(fmt.Sprintf("    <h2>Schema: %s</h2>\n", html.EscapeString(schemaName)))

	tables := c.TablesIn(schemaName)
	for _, t := range tables {
		generateTableDetail(builder, c, t)
	}

	entities := make([]entity, 0, len(tables))
	for _, t := range tables {
		entities = append(entities, detailEntity(t.Name, c.ColumnsOf(t)))
	}

	// Cross-schema edges only appear in the full diagram.
	var rels []relationship
	for _, fk := range c.ForeignKeysWithin(schemaName) {
		rels = append(rels, relationship{from: fk.FromTable, to: fk.ToTable})
	}

	builder.WriteString("    <div class=\"mermaid\">\n")
	writeERDiagram(builder, entities, rels, html.EscapeString)
	builder.WriteString("    </div>\n")
	builder.WriteString("    </div>\n")
}

func generateTableDetail(builder *strings.Builder, c *schema.Catalog, t schema.TableRef) {
	builder.WriteString(fmt.Sprintf("    <h3>Table: %s</h3>\n", html.EscapeString(t.Name)))
	builder.WriteString("    <table>\n")
	builder.WriteString("        <tr><th>Column</th><th>Data Type</th><th>Nullable</th><th>Default</th><th>Constraints</th></tr>\n")

	for _, col := range c.ColumnsOf(t) {
		nullable := "Yes"
		if !col.Nullable {
			nullable = "No"
		}

		defaultValue := ""
		if col.DefaultValue != nil {
			defaultValue = *col.DefaultValue
		}

		builder.WriteString(fmt.Sprintf("        <tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(col.Name),
			html.EscapeString(col.Type),
			nullable,
			html.EscapeString(defaultValue),
			html.EscapeString(constraintsText(c, t, col))))
	}

	builder.WriteString("    </table>\n")
}

// constraintsText lists "Primary Key" and one "Foreign Key to s.t(c)" per
// edge leaving exactly this schema, table and column.
func constraintsText(c *schema.Catalog, t schema.TableRef, col schema.Column) string {
	var constraints []string
	if col.IsPrimaryKey {
		constraints = append(constraints, "Primary Key")
	}

	for _, fk := range c.ForeignKeysFrom(t, col.Name) {
		text := fmt.Sprintf("Foreign Key to %s.%s(%s)", fk.ToSchema, fk.ToTable, fk.ToColumn)
		if rules := referentialActions(fk); rules != "" {
			text += fmt.Sprintf(" (%s)", rules)
		}
		constraints = append(constraints, text)
	}

	return strings.Join(constraints, ", ")
}

func referentialActions(fk schema.ForeignKey) string {
	var actions []string
	if fk.OnDelete != "NO ACTION" && fk.OnDelete != "" {
		actions = append(actions, fmt.Sprintf("on delete %s", strings.ToLower(fk.OnDelete)))
	}
	if fk.OnUpdate != "NO ACTION" && fk.OnUpdate != "" {
		actions = append(actions, fmt.Sprintf("on update %s", strings.ToLower(fk.OnUpdate)))
	}
	return strings.Join(actions, ", ")
}
