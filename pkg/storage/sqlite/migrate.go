package sqlite

import (
	"context"
	"fmt"
	"strings"

	"mercator-hq/magicbox/pkg/schema"
	"mercator-hq/magicbox/pkg/storage"
)

// columnTypes maps field types to SQLite column types. Datetime is stored as
// fixed width text (see storage.DateTimeLayout) so drivers never convert it.
var columnTypes = map[schema.FieldType]string{
	schema.TypeString:   "TEXT",
	schema.TypeInteger:  "INTEGER",
	schema.TypeFloat:    "REAL",
	schema.TypeBoolean:  "BOOLEAN",
	schema.TypeDateTime: "TEXT",
	schema.TypeUUID:     "TEXT",
}

// CreateTableSQL renders the CREATE TABLE statement for m.
func CreateTableSQL(m *schema.Model) string {
	var defs []string
	seen := map[string]bool{}

	for _, f := range m.Fields {
		if seen[f.Column] {
			continue
		}
		seen[f.Column] = true

		def := quoteIdent(f.Column) + " " + columnTypes[f.Type]
		if f.Name == m.PrimaryKey {
			def += " PRIMARY KEY"
			if m.PrimaryKeyType == schema.TypeInteger {
				def += " AUTOINCREMENT"
			} else {
				def += " NOT NULL"
			}
		}
		defs = append(defs, def)
	}

	for _, r := range m.Relations {
		if r.Kind != schema.ManyToOne || seen[r.Column] {
			continue
		}
		seen[r.Column] = true

		target := r.Target()
		colType := columnTypes[schema.TypeInteger]
		ref := ""
		if target != nil {
			colType = columnTypes[target.PrimaryKeyType]
			ref = fmt.Sprintf(" REFERENCES %s(%s) ON DELETE SET NULL",
				quoteIdent(target.Table), quoteIdent(target.PrimaryKeyColumn()))
		}
		defs = append(defs, quoteIdent(r.Column)+" "+colType+ref)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)",
		quoteIdent(m.Table), strings.Join(defs, ",\n    "))
}

// Migrate creates a table for every model in reg that does not have one.
// Existing tables are left untouched.
func (s *Store) Migrate(ctx context.Context, reg *schema.Registry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.NewStorageError(backendName, "migrate", err)
	}
	defer tx.Rollback()

	for _, m := range reg.Models() {
		if _, err := tx.ExecContext(ctx, CreateTableSQL(m)); err != nil {
			return storage.NewStorageError(backendName, "migrate",
				fmt.Errorf("model %s: %w", m.Name, err))
		}
		s.logger.Debug("table ready", "model", m.Name, "table", m.Table)
	}

	if err := tx.Commit(); err != nil {
		return storage.NewStorageError(backendName, "migrate", err)
	}
	return nil
}
