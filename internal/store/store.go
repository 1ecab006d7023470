// Package store persists material documents in SQLite.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/hyperifyio/materialbox/internal/material"
)

// SummaryRunes is the number of content runes kept in a derived summary.
const SummaryRunes = 50

// TimeLayout is the created_at format.
const TimeLayout = "2006-01-02 15:04:05"

// ErrNotFound is returned when no document has the requested id.
var ErrNotFound = errors.New("document not found")

// Document is a persisted material card.
type Document struct {
	ID        int64
	Content   string
	Summary   string
	Category  string
	Themes    []string
	Tags      []string
	CreatedAt string
}

// Date returns the date part of CreatedAt.
func (d Document) Date() string {
	date, _, _ := strings.Cut(d.CreatedAt, " ")
	return date
}

// Filter narrows List. Empty fields do not filter.
type Filter struct {
	// Query matches as a substring of content, summary, tags or themes.
	Query string
	// Category matches exactly; material.AllCategories disables it.
	Category string
	// Theme matches as a substring of the serialized theme list.
	Theme string
}

// Store wraps a SQLite database handle.
type Store struct {
	db *sql.DB
	// Now stamps created_at. Defaults to time.Now.
	Now func() time.Time
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// a single connection keeps PRAGMAs and in-memory databases consistent
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}
	s := &Store{db: db, Now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	log.Debug().Str("path", path).Msg("store opened")
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			content    TEXT,
			summary    TEXT,
			tags       TEXT,
			themes     TEXT,
			category   TEXT,
			created_at TEXT
		)`)
	return err
}

// Summarize returns the first SummaryRunes runes of content with newlines
// flattened, followed by "...".
func Summarize(content string) string {
	n := 0
	cut := len(content)
	for i := range content {
		if n == SummaryRunes {
			cut = i
			break
		}
		n++
	}
	return strings.ReplaceAll(content[:cut], "\n", " ") + "..."
}

// Create stores content with the record's classification and returns the
// new id. The record's summary is used when present.
func (s *Store) Create(ctx context.Context, content string, rec material.Record) (int64, error) {
	category := rec.Type
	if category == "" {
		category = material.Uncategorized
	}
	summary := rec.Summary
	if summary == "" {
		summary = Summarize(content)
	}
	tags, err := encodeList(rec.Tags)
	if err != nil {
		return 0, fmt.Errorf("encode tags: %w", err)
	}
	themes, err := encodeList(rec.Themes)
	if err != nil {
		return 0, fmt.Errorf("encode themes: %w", err)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (content, summary, tags, themes, category, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		content, summary, tags, themes, category, now().Format(TimeLayout))
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return res.LastInsertId()
}

// Get returns the document with id. ok is false when it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (Document, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, summary, tags, themes, category, created_at FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("get document %d: %w", id, err)
	}
	return d, true, nil
}

// UpdateContent replaces the content and recomputes the summary.
func (s *Store) UpdateContent(ctx context.Context, id int64, content string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET content = ?, summary = ? WHERE id = ?`, content, Summarize(content), id)
	if err != nil {
		return fmt.Errorf("update document %d: %w", id, err)
	}
	return requireRow(res)
}

// Delete removes the document with id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %d: %w", id, err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns matching documents, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Document, error) {
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		term := likeTerm(q)
		where = append(where, `(content LIKE ? ESCAPE '\' OR summary LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\' OR themes LIKE ? ESCAPE '\')`)
		args = append(args, term, term, term, term)
	}
	if c := strings.TrimSpace(f.Category); c != "" && c != material.AllCategories {
		where = append(where, `category = ?`)
		args = append(args, c)
	}
	if t := strings.TrimSpace(f.Theme); t != "" {
		where = append(where, `themes LIKE ? ESCAPE '\'`)
		args = append(args, likeTerm(t))
	}
	query := `SELECT id, content, summary, tags, themes, category, created_at FROM documents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	docs := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (Document, error) {
	var (
		d                                          Document
		content, summary, tags, themes, cat, stamp sql.NullString
	)
	if err := sc.Scan(&d.ID, &content, &summary, &tags, &themes, &cat, &stamp); err != nil {
		return Document{}, err
	}
	d.Content = content.String
	d.Summary = summary.String
	d.Category = cat.String
	d.CreatedAt = stamp.String
	d.Tags = decodeList(tags.String)
	d.Themes = decodeList(themes.String)
	return d, nil
}

// encodeList serializes a string list as JSON with non-ASCII kept verbatim.
func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// decodeList reads a stored list; malformed values read as empty.
func decodeList(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func likeTerm(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
