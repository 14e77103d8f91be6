package introspect

import "go.uber.org/zap"

// DefaultSchemas is the allow-list used when WithSchemas is not given.
var DefaultSchemas = []string{"core", "customer", "employee", "operations", "finance"}

// Option configures introspection behavior.
type Option func(*options)

type options struct {
	schemas       []string
	excludeTables []string
	typeMapper    TypeMapper
	logger        *zap.Logger
}

func defaultOptions() *options {
	return &options{
		schemas: DefaultSchemas,
		logger:  zap.NewNop(),
	}
}

// WithSchemas specifies which database schemas to introspect.
// If not specified, defaults to DefaultSchemas.
func WithSchemas(schemas ...string) Option {
	return func(o *options) {
		if len(schemas) > 0 {
			o.schemas = schemas
		}
	}
}

// WithExcludeTables specifies tables to exclude from introspection, either
// as bare names or as "schema.table".
func WithExcludeTables(tables ...string) Option {
	return func(o *options) {
		o.excludeTables = tables
	}
}

// WithTypeMapper sets a custom type mapper. Without one, columns carry their
// declared data type verbatim.
func WithTypeMapper(mapper TypeMapper) Option {
	return func(o *options) {
		o.typeMapper = mapper
	}
}

// WithTypeMappings provides custom type mappings as a simple map.
// This is a convenience alternative to WithTypeMapper for simple use cases.
// Keys are PostgreSQL type names (case-insensitive).
func WithTypeMappings(mappings map[string]string) Option {
	return func(o *options) {
		o.typeMapper = NewPostgreSQLTypeMapper(mappings)
	}
}

// WithLogger sets the logger that receives best-effort query failures.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
