package pool

import (
	"context"
	"database/sql"
	"fmt"
)

// Table describes one expected schema object: its name as it appears in the
// database catalog, and the DDL that creates it. DDL must be portable across
// the supported dialects (postgres, sqlite3), so tenant schemas stick to
// TEXT/INTEGER/TIMESTAMP column types.
type Table struct {
	Name string
	DDL  string
}

// Schema is the expected-schema descriptor diffed against a tenant database
// by ProvisionSchema.
type Schema struct {
	Tables []Table
}

// TableNames returns the expected table names in declaration order.
func (s Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}
	return names
}

// TenantSchema is the expected schema for every tenant database: the
// principal store plus the document signing workflow tables.
func TenantSchema() Schema {
	return Schema{
		Tables: []Table{
			{
				Name: "principals",
				DDL: `
					CREATE TABLE principals (
						identity TEXT PRIMARY KEY,
						display_name TEXT NOT NULL DEFAULT '',
						role TEXT NOT NULL,
						created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
					)
				`,
			},
			{
				Name: "documents",
				DDL: `
					CREATE TABLE documents (
						id TEXT PRIMARY KEY,
						title TEXT NOT NULL,
						creator TEXT NOT NULL,
						state TEXT NOT NULL DEFAULT 'pending',
						created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
						updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
					)
				`,
			},
			{
				Name: "document_recipients",
				DDL: `
					CREATE TABLE document_recipients (
						document_id TEXT NOT NULL,
						recipient TEXT NOT NULL,
						PRIMARY KEY (document_id, recipient)
					)
				`,
			},
			{
				Name: "signatures",
				DDL: `
					CREATE TABLE signatures (
						document_id TEXT NOT NULL,
						signer TEXT NOT NULL,
						signed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
						PRIMARY KEY (document_id, signer)
					)
				`,
			},
			{
				Name: "audit_events",
				DDL: `
					CREATE TABLE audit_events (
						id INTEGER PRIMARY KEY,
						actor TEXT NOT NULL,
						action TEXT NOT NULL,
						document_id TEXT,
						occurred_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
					)
				`,
			},
		},
	}
}

// existingTables lists the table names present in a tenant database. Catalog
// queries differ per dialect.
func existingTables(ctx context.Context, db *sql.DB, driver string) (map[string]bool, error) {
	var query string
	switch driver {
	case "sqlite3":
		query = `SELECT name FROM sqlite_master WHERE type = 'table'`
	default:
		// postgres and anything else speaking information_schema
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public'`
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect schema: %w", err)
	}
	defer rows.Close()

	tables := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables[name] = true
	}
	return tables, rows.Err()
}
