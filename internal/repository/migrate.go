package repository

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

const (
	tableRecords        = "ticket_records"
	tableTranscriptions = "transcriptions"
)

// Migrate creates the tables the repositories need if they are missing.
func (d *DB) Migrate(ctx context.Context) error {
	b := d.builder()
	stmts := []entsql.Querier{
		b.CreateTable(tableRecords).IfNotExists().
			Columns(
				entsql.Column("id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("user_id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("source").Type("TEXT").Attr("NOT NULL DEFAULT ''"),
				entsql.Column("mode").Type("TEXT").Attr("NOT NULL DEFAULT ''"),
				entsql.Column("file_name").Type("TEXT").Attr("NOT NULL DEFAULT ''"),
				entsql.Column("ocr_text").Type("TEXT").Attr("NOT NULL DEFAULT ''"),
				entsql.Column("llm_raw").Type("TEXT").Attr("NOT NULL DEFAULT ''"),
				entsql.Column("fields").Type("TEXT").Attr("NOT NULL DEFAULT '{}'"),
				entsql.Column("confidence").Type("REAL").Attr("NOT NULL DEFAULT 0"),
				entsql.Column("created_at").Type("BIGINT").Attr("NOT NULL"),
			).
			PrimaryKey("id"),
		b.CreateTable(tableTranscriptions).IfNotExists().
			Columns(
				entsql.Column("id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("user_id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("file_name").Type("TEXT").Attr("NOT NULL DEFAULT ''"),
				entsql.Column("text").Type("TEXT").Attr("NOT NULL DEFAULT ''"),
				entsql.Column("summary").Type("TEXT").Attr("NOT NULL DEFAULT ''"),
				entsql.Column("questions").Type("TEXT").Attr("NOT NULL DEFAULT '[]'"),
				entsql.Column("created_at").Type("BIGINT").Attr("NOT NULL"),
			).
			PrimaryKey("id"),
	}
	for _, st := range stmts {
		q, args := st.Query()
		if _, err := d.sql().ExecContext(ctx, q, args...); err != nil {
			d.logger.Error("db.migrate.failed", "query", q, "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	for _, idx := range []string{
		"CREATE INDEX IF NOT EXISTS ticket_records_user_created ON ticket_records (user_id, created_at)",
		"CREATE INDEX IF NOT EXISTS transcriptions_user_created ON transcriptions (user_id, created_at)",
	} {
		if _, err := d.sql().ExecContext(ctx, idx); err != nil {
			d.logger.Error("db.migrate.failed", "query", idx, "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	d.logger.Info("db.migrate.ok", "dialect", d.Dialect())
	return nil
}
