package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBProvider is an interface for database clients that expose a sql.DB
// handle. Both PostgresClient and SupabaseClient satisfy it, so either
// can back a SQLArchive.
type DBProvider interface {
	DB() *sql.DB
}

// SQLArchive stores payloads in a relational table:
//
//	CREATE TABLE payloads (
//	    note_id     text NOT NULL,
//	    kind        text NOT NULL,
//	    payload     jsonb NOT NULL,
//	    captured_at timestamptz NOT NULL,
//	    PRIMARY KEY (note_id, kind)
//	)
type SQLArchive struct {
	provider DBProvider
	table    string
}

// NewSQLArchive creates an archive over the given provider. An empty
// table name defaults to "payloads".
func NewSQLArchive(provider DBProvider, table string) *SQLArchive {
	if table == "" {
		table = "payloads"
	}
	return &SQLArchive{provider: provider, table: table}
}

// Save upserts the payload keyed by note ID and kind.
func (a *SQLArchive) Save(ctx context.Context, noteID string, kind Kind, payload []byte) error {
	db := a.provider.DB()
	if db == nil {
		return fmt.Errorf("no database handle available")
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (note_id, kind, payload, captured_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (note_id, kind) DO UPDATE
		SET payload = EXCLUDED.payload, captured_at = EXCLUDED.captured_at`, a.table)

	if _, err := db.ExecContext(ctx, query, noteID, string(kind), string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("save %s/%s: %w", kind, noteID, err)
	}
	return nil
}

// Load fetches the stored payload for a note.
func (a *SQLArchive) Load(ctx context.Context, noteID string, kind Kind) ([]byte, error) {
	db := a.provider.DB()
	if db == nil {
		return nil, fmt.Errorf("no database handle available")
	}

	query := fmt.Sprintf("SELECT payload FROM %s WHERE note_id = $1 AND kind = $2", a.table)
	var payload string
	if err := db.QueryRowContext(ctx, query, noteID, string(kind)).Scan(&payload); err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", kind, noteID, err)
	}
	return []byte(payload), nil
}
