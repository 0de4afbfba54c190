package memory

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteArchive implements Archive using SQLite.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive opens (or creates) a SQLite database at the given path.
func NewSQLiteArchive(dbPath string) (*SQLiteArchive, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	a := &SQLiteArchive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return a, nil
}

func (a *SQLiteArchive) migrate() error {
	for _, stmt := range migrations {
		if _, err := a.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveTurn archives one finished turn.
func (a *SQLiteArchive) SaveTurn(ctx context.Context, rec TurnRecord) error {
	var history *string
	if rec.HistoryJSON != "" {
		history = &rec.HistoryJSON
	}

	_, err := a.db.ExecContext(ctx,
		`INSERT INTO turns (id, conversation_id, goal, status, summary, iterations, history)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ConversationID, rec.Goal, rec.Status, rec.Summary, rec.Iterations, history,
	)
	return err
}

// ListTurns returns the most recent turns for a conversation, oldest first.
func (a *SQLiteArchive) ListTurns(ctx context.Context, conversationID string, limit int) ([]TurnRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, conversation_id, goal, status, summary, iterations, history, created_at FROM (
			SELECT id, conversation_id, goal, status, summary, iterations, history, created_at
			FROM turns WHERE conversation_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
		) sub ORDER BY created_at ASC, id ASC`,
		conversationID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var summary, history sql.NullString

		if err := rows.Scan(&rec.ID, &rec.ConversationID, &rec.Goal, &rec.Status,
			&summary, &rec.Iterations, &history, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Summary = summary.String
		rec.HistoryJSON = history.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
