package generator

// DefaultMermaidURL is the CDN script that renders the diagrams client-side.
const DefaultMermaidURL = "https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"

// DefaultSchemaColors gives each allow-listed schema its background colour.
var DefaultSchemaColors = map[string]string{
	"core":       "#CCEEFF",
	"customer":   "#FFDDCC",
	"employee":   "#DDFFCC",
	"operations": "#FFCCDD",
	"finance":    "#DDCCFF",
}

// Option configures document rendering.
type Option func(*options)

type options struct {
	title        string
	description  string
	mermaidURL   string
	schemaColors map[string]string
}

func defaultOptions() *options {
	return &options{
		title:        "Database Schema",
		description:  "This diagram shows the tables and relationships in the database.",
		mermaidURL:   DefaultMermaidURL,
		schemaColors: DefaultSchemaColors,
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithTitle sets the page title and top heading.
func WithTitle(title string) Option {
	return func(o *options) {
		if title != "" {
			o.title = title
		}
	}
}

// WithDescription sets the paragraph under the heading.
func WithDescription(description string) Option {
	return func(o *options) {
		if description != "" {
			o.description = description
		}
	}
}

// WithMermaidURL overrides the diagram script location.
func WithMermaidURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.mermaidURL = url
		}
	}
}

// WithSchemaColors replaces the schema colour map. An empty map disables
// schema colouring.
func WithSchemaColors(colors map[string]string) Option {
	return func(o *options) {
		if colors != nil {
			o.schemaColors = colors
		}
	}
}
