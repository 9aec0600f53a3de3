package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/justyntemme/filmybuddy/internal/models"
)

// Database is the append-only media log. There is no update or delete path.
type Database struct {
	db *sql.DB
}

// NewDatabase creates and initializes the SQLite database, creating the
// parent directory when needed
func NewDatabase(dbPath string) (*Database, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return d, nil
}

func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		user_name TEXT NOT NULL,
		title TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'Other',
		status TEXT NOT NULL DEFAULT 'Watched',
		year TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entries_title ON entries(title);
	CREATE INDEX IF NOT EXISTS idx_entries_kind ON entries(kind);
	`

	_, err := d.db.Exec(schema)
	return err
}

const entryColumns = `id, user_name, title, kind, status, year, language, note, created_at`

// AppendEntry inserts a new row. An empty ID is assigned a uuid and a zero
// timestamp becomes the current time.
func (d *Database) AppendEntry(ctx context.Context, entry *models.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.User, entry.Title, string(entry.Kind), string(entry.Status),
		entry.Year, entry.Language, entry.Note, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// ListEntries returns every row in append order
func (d *Database) ListEntries(ctx context.Context) ([]models.Entry, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// SearchEntries returns rows whose title contains query, case-insensitively,
// in append order. A blank query lists everything.
func (d *Database) SearchEntries(ctx context.Context, query string) ([]models.Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return d.ListEntries(ctx)
	}

	searchTerm := "%" + escapeLike(query) + "%"
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE title LIKE ? ESCAPE '\'
		ORDER BY rowid`, searchTerm,
	)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// CountEntries returns the number of rows
func (d *Database) CountEntries(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Ping checks the connection
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

func scanEntries(rows *sql.Rows) ([]models.Entry, error) {
	entries := []models.Entry{}
	for rows.Next() {
		var e models.Entry
		var kind, status string
		err := rows.Scan(&e.ID, &e.User, &e.Title, &kind, &status,
			&e.Year, &e.Language, &e.Note, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = models.MediaKind(kind)
		e.Status = models.WatchStatus(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
