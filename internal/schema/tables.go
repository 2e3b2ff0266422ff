// Package schema introspects the live database and reconciles it, additively,
// against the declared content types and the fixed system tables.
package schema

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// TableDef describes a table the reconciler can create.
type TableDef struct {
	Name    string
	Columns []types.Column
	Indexes []IndexDef
}

// IndexDef describes a secondary index created together with its table.
type IndexDef struct {
	Name    string
	Columns []string
}

// Column lists per table, in creation order.
var (
	usersColumns = []types.Column{
		{Name: "id", Kind: types.ColumnAutoID},
		{Name: "username", Kind: types.ColumnString, Length: 32},
		{Name: "password", Kind: types.ColumnString, Length: 128},
		{Name: "email", Kind: types.ColumnString, Length: 128},
		{Name: "lastseen", Kind: types.ColumnTimestamp},
		{Name: "lastip", Kind: types.ColumnString, Length: 32},
		{Name: "displayname", Kind: types.ColumnString, Length: 32},
		{Name: "userlevel", Kind: types.ColumnInteger},
		{Name: "enabled", Kind: types.ColumnBoolean},
	}

	taxonomyColumns = []types.Column{
		{Name: "id", Kind: types.ColumnAutoID},
		{Name: "content_id", Kind: types.ColumnInteger},
		{Name: "contenttype", Kind: types.ColumnString, Length: 32},
		{Name: "taxonomytype", Kind: types.ColumnString, Length: 32},
		{Name: "slug", Kind: types.ColumnString, Length: 64},
		{Name: "name", Kind: types.ColumnString, Length: 64},
	}

	relationsColumns = []types.Column{
		{Name: "id", Kind: types.ColumnAutoID},
		{Name: "from_contenttype", Kind: types.ColumnString, Length: 32},
		{Name: "from_id", Kind: types.ColumnInteger},
		{Name: "to_contenttype", Kind: types.ColumnString, Length: 32},
		{Name: "to_id", Kind: types.ColumnInteger},
	}

	contentColumns = []types.Column{
		{Name: types.ColumnID, Kind: types.ColumnAutoID},
		{Name: types.ColumnSlug, Kind: types.ColumnString, Length: 128},
		{Name: types.ColumnDateCreated, Kind: types.ColumnTimestamp},
		{Name: types.ColumnDateChanged, Kind: types.ColumnTimestamp},
		{Name: types.ColumnUsername, Kind: types.ColumnString, Length: 32},
		{Name: types.ColumnStatus, Kind: types.ColumnString, Length: 32},
	}
)

// FixedTables returns the system tables every installation carries.
func FixedTables(cfg *types.Config) []TableDef {
	users := cfg.FixedTable(types.TableUsers)
	taxonomy := cfg.FixedTable(types.TableTaxonomy)
	relations := cfg.FixedTable(types.TableRelations)
	return []TableDef{
		{Name: users, Columns: usersColumns},
		{
			Name:    taxonomy,
			Columns: taxonomyColumns,
			Indexes: []IndexDef{
				{Name: taxonomy + "_content", Columns: []string{"content_id", "contenttype", "taxonomytype"}},
				{Name: taxonomy + "_slug", Columns: []string{"contenttype", "taxonomytype", "slug"}},
			},
		},
		{
			Name:    relations,
			Columns: relationsColumns,
			Indexes: []IndexDef{
				{Name: relations + "_from", Columns: []string{"from_contenttype", "from_id"}},
				{Name: relations + "_to", Columns: []string{"to_contenttype", "to_id"}},
			},
		},
	}
}

// ContentTable returns the table of a content type with its base columns.
// Declared fields are added by the column pass, not at creation.
func ContentTable(cfg *types.Config, ct *types.ContentType) TableDef {
	return TableDef{Name: cfg.TableName(ct), Columns: contentColumns}
}

func createTableSQL(d types.Dialect, t TableDef) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = d.QuoteIdentifier(c.Name) + " " + d.ColumnDefinition(c)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)",
		d.QuoteIdentifier(t.Name), strings.Join(defs, ",\n    "))
}

func createIndexSQL(d types.Dialect, table string, idx IndexDef) string {
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = d.QuoteIdentifier(c)
	}
	// MySQL has no IF NOT EXISTS for indexes.
	guard := "IF NOT EXISTS "
	if d.Name() == types.DriverMySQL {
		guard = ""
	}
	return fmt.Sprintf("CREATE INDEX %s%s ON %s (%s)",
		guard, d.QuoteIdentifier(idx.Name), d.QuoteIdentifier(table), strings.Join(cols, ", "))
}

func addColumnSQL(d types.Dialect, table string, c types.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		d.QuoteIdentifier(table), d.QuoteIdentifier(c.Name), d.ColumnDefinition(c))
}
