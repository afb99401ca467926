package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bunchhieng/coursetree/internal/model"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements Storage using SQLite. Documents live in a single
// trees table with a JSON content column.
type SQLiteStorage struct {
	db *sqlx.DB
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	var dsn string
	if dbPath == ":memory:" {
		dsn = dbPath + "?_pragma=journal_mode(DELETE)&_pragma=synchronous(NORMAL)"
	} else {
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every new connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := runMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

type treeRow struct {
	ID        string `db:"id"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r *treeRow) toSummary() Summary {
	return Summary{
		ID:        r.ID,
		CreatedAt: parseSQLiteTime(r.CreatedAt),
		UpdatedAt: parseSQLiteTime(r.UpdatedAt),
	}
}

// Create inserts a new document under a generated short ID.
func (s *SQLiteStorage) Create(ctx context.Context, content []byte) (string, error) {
	id := model.GenerateShortID()
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO trees (id, content, created_at, updated_at) VALUES (?, ?, ?, ?)",
		id, string(content), now, now)
	if err != nil {
		return "", fmt.Errorf("insert tree: %w", err)
	}
	return id, nil
}

// Read fetches a document's raw content.
func (s *SQLiteStorage) Read(ctx context.Context, id string) ([]byte, error) {
	if !model.ValidateTreeID(id) {
		return nil, model.ErrInvalidID
	}
	var content string
	err := s.db.GetContext(ctx, &content, "SELECT content FROM trees WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}
	return []byte(content), nil
}

// Update overwrites a document's content.
func (s *SQLiteStorage) Update(ctx context.Context, id string, content []byte) error {
	if !model.ValidateTreeID(id) {
		return model.ErrInvalidID
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE trees SET content = ?, updated_at = ? WHERE id = ?",
		string(content), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("update tree: %w", err)
	}
	return checkRowsAffected(result)
}

// List returns document summaries, most recently updated first.
func (s *SQLiteStorage) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	query := "SELECT id, created_at, updated_at FROM trees ORDER BY updated_at DESC"
	args := []interface{}{}
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	var rows []treeRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list trees: %w", err)
	}

	out := make([]Summary, len(rows))
	for i := range rows {
		out[i] = rows[i].toSummary()
	}
	return out, nil
}

func checkRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func parseSQLiteTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
