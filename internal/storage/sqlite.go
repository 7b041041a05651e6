// Package storage keeps a history of crawl runs and their popular words in
// SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/masahif/wordcrawler/internal/crawler"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run id does not exist
var ErrRunNotFound = errors.New("run not found")

// Run is a stored crawl
type Run struct {
	ID             int64
	StartedAt      time.Time
	Duration       time.Duration
	URLsVisited    int
	MaxDepth       int
	Parallelism    int
	Implementation string
	SeedURLs       []string
	Words          []crawler.WordCount
}

// SQLiteStorage stores crawl runs in a SQLite database
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at dbPath
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	storage := &SQLiteStorage{db: db}

	if err := storage.InitSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// InitSchema creates the database schema
func (s *SQLiteStorage) InitSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveRun stores run and its ranked words in one transaction and returns the
// new run id.
func (s *SQLiteStorage) SaveRun(run *Run) (int64, error) {
	seeds, err := json.Marshal(run.SeedURLs)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal seed URLs: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		INSERT INTO crawl_runs (
			started_at, duration_ms, urls_visited, max_depth,
			parallelism, implementation, seed_urls
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.StartedAt.UTC(),
		run.Duration.Milliseconds(),
		run.URLsVisited,
		run.MaxDepth,
		run.Parallelism,
		run.Implementation,
		string(seeds),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_words (run_id, rank, word, count)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, wc := range run.Words {
		if _, err := stmt.Exec(id, i+1, wc.Word, wc.Count); err != nil {
			return 0, fmt.Errorf("failed to insert word %q: %w", wc.Word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	run.ID = id
	return id, nil
}

// ListRuns returns the most recent runs first, without their words.
// limit <= 0 returns all runs.
func (s *SQLiteStorage) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT id, started_at, duration_ms, urls_visited, max_depth,
			parallelism, implementation, seed_urls
		FROM crawl_runs
		ORDER BY id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// GetRun returns a run together with its ranked words
func (s *SQLiteStorage) GetRun(id int64) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, started_at, duration_ms, urls_visited, max_depth,
			parallelism, implementation, seed_urls
		FROM crawl_runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	run.Words, err = s.GetRunWords(id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetRunWords returns the words of a run in rank order
func (s *SQLiteStorage) GetRunWords(id int64) ([]crawler.WordCount, error) {
	rows, err := s.db.Query(`
		SELECT word, count FROM run_words
		WHERE run_id = ?
		ORDER BY rank ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run words: %w", err)
	}
	defer func() { _ = rows.Close() }()

	words := []crawler.WordCount{}
	for rows.Next() {
		var wc crawler.WordCount
		if err := rows.Scan(&wc.Word, &wc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan run word: %w", err)
		}
		words = append(words, wc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run words: %w", err)
	}

	return words, nil
}

// DeleteRun removes a run and its words
func (s *SQLiteStorage) DeleteRun(id int64) error {
	res, err := s.db.Exec("DELETE FROM crawl_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}

// GetMeta retrieves a metadata value
func (s *SQLiteStorage) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM crawl_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta: %w", err)
	}
	return value, nil
}

// SetMeta stores a metadata value
func (s *SQLiteStorage) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO crawl_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set meta: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run        Run
		durationMS int64
		seeds      sql.NullString
	)
	if err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&durationMS,
		&run.URLsVisited,
		&run.MaxDepth,
		&run.Parallelism,
		&run.Implementation,
		&seeds,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Duration = time.Duration(durationMS) * time.Millisecond
	if seeds.Valid && seeds.String != "" {
		if err := json.Unmarshal([]byte(seeds.String), &run.SeedURLs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal seed URLs: %w", err)
		}
	}
	return &run, nil
}
