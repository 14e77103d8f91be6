package introspect

import "strings"

// TypeMapper rewrites the declared type of a column before it is rendered.
// Implement this interface to customize type mapping behavior.
type TypeMapper interface {
	// MapType converts a column type to the string shown in the document.
	// dataType is information_schema.columns.data_type (e.g., "integer",
	// "character varying", "USER-DEFINED"); udtName is the underlying type
	// name (e.g., "int4", "flight_status", "_text").
	MapType(dataType, udtName string) string
}

// ShortTypeNames maps multi-word SQL type names to their single-word
// PostgreSQL aliases. Mermaid attribute types cannot contain spaces, so these
// keep diagrams parseable.
var ShortTypeNames = map[string]string{
	"character varying":           "varchar",
	"character":                   "char",
	"bit varying":                 "varbit",
	"double precision":            "float8",
	"timestamp without time zone": "timestamp",
	"timestamp with time zone":    "timestamptz",
	"time without time zone":      "time",
	"time with time zone":         "timetz",
}

// PostgreSQLTypeMapper resolves user-defined and array types to their real
// names and applies custom overrides.
type PostgreSQLTypeMapper struct {
	// CustomMappings allows overriding type names.
	// Keys are PostgreSQL type names (case-insensitive), matched against the
	// data type first and the udt name second.
	CustomMappings map[string]string
	// ShortNames enables ShortTypeNames.
	ShortNames bool
}

// NewPostgreSQLTypeMapper creates a new TypeMapper with optional custom mappings.
// Short type names are enabled.
//
// Example:
//
//	mapper := introspect.NewPostgreSQLTypeMapper(map[string]string{
//	    "citext": "text",
//	    "ltree":  "text",
//	})
func NewPostgreSQLTypeMapper(customMappings map[string]string) *PostgreSQLTypeMapper {
	lowered := make(map[string]string, len(customMappings))
	for k, v := range customMappings {
		lowered[strings.ToLower(k)] = v
	}
	return &PostgreSQLTypeMapper{CustomMappings: lowered, ShortNames: true}
}

// MapType implements TypeMapper.
func (m *PostgreSQLTypeMapper) MapType(dataType, udtName string) string {
	if mapped, ok := m.CustomMappings[strings.ToLower(dataType)]; ok {
		return mapped
	}
	if mapped, ok := m.CustomMappings[strings.ToLower(udtName)]; ok {
		return mapped
	}

	switch strings.ToLower(dataType) {
	case "user-defined":
		if udtName != "" {
			return udtName
		}
	case "array":
		// Array udt names carry a leading underscore: "_int4" is int4[].
		if elem := strings.TrimPrefix(udtName, "_"); elem != "" {
			return elem + "[]"
		}
	}

	if m.ShortNames {
		if short, ok := ShortTypeNames[strings.ToLower(dataType)]; ok {
			return short
		}
	}

	return dataType
}
