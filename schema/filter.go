package schema

// FilterTables removes tables from the catalog that match the exclude list.
// An entry matches either the bare table name or the qualified "schema.table".
// It returns a new Catalog; the original is not modified. Foreign keys are kept
// as they are, since edges are never validated against the table list.
func FilterTables(c *Catalog, excludeTables []string) *Catalog {
	excludeMap := make(map[string]bool)
	for _, table := range excludeTables {
		excludeMap[table] = true
	}

	filteredTables := make([]TableRef, 0, len(c.Tables))
	columns := make(map[TableRef][]Column)
	for _, table := range c.Tables {
		if excludeMap[table.Name] || excludeMap[table.String()] {
			continue
		}
		filteredTables = append(filteredTables, table)
		if cols, ok := c.Columns[table]; ok {
			columns[table] = cols
		}
	}

	return &Catalog{
		Tables:      filteredTables,
		Columns:     columns,
		ForeignKeys: c.ForeignKeys,
	}
}

// Excluded reports whether t matches an entry of excludeTables.
func Excluded(t TableRef, excludeTables []string) bool {
	for _, name := range excludeTables {
		if name == t.Name || name == t.String() {
			return true
		}
	}
	return false
}
