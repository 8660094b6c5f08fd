// internal/store/store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github-cve-monitor/internal/model"
	"github-cve-monitor/migrations"
)

// Querier defines the storage operations used by the monitor and the API.
// It is satisfied by *Store and can be replaced with a mock for testing.
type Querier interface {
	// RecordExists looks up a repository by id and returns its stored updated_at.
	RecordExists(ctx context.Context, id int64) (string, bool, error)

	// UpsertRecord inserts a repository or refreshes it when the incoming
	// updated_at is strictly newer than the stored one. Stale or duplicate
	// writes are a no-op.
	UpsertRecord(ctx context.Context, repo model.Repository, status model.Status) error

	// AppendCheckRecord appends one entry to the poll audit log.
	AppendCheckRecord(ctx context.Context, checkTime time.Time, totalCount int) error

	// LastTotalCount returns the total_count of the most recent check record,
	// or 0 when the log is empty.
	LastTotalCount(ctx context.Context) (int, error)

	// ListRepositories returns stored repositories, most recently updated first.
	ListRepositories(ctx context.Context, limit int) ([]model.Repository, error)

	// ListCheckRecords returns the newest check records first.
	ListCheckRecords(ctx context.Context, limit int) ([]model.CheckRecord, error)
}

// Compile-time check that *Store satisfies the Querier interface.
var _ Querier = (*Store)(nil)

// Store is the SQLite-backed persistence layer.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens the database at path, creating the file on first run.
func New(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Migrate applies the embedded schema migrations. It is idempotent.
func (s *Store) Migrate() error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to load migration source: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RecordExists(ctx context.Context, id int64) (string, bool, error) {
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM repositories WHERE id = ?`, id).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up repository %d: %w", id, err)
	}
	return updatedAt, true, nil
}

const upsertRepository = `
INSERT INTO repositories (id, name, full_name, description, url, pushed_at, created_at, updated_at, cve_ids, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	full_name = excluded.full_name,
	description = excluded.description,
	url = excluded.url,
	pushed_at = excluded.pushed_at,
	created_at = excluded.created_at,
	updated_at = excluded.updated_at,
	cve_ids = excluded.cve_ids,
	status = excluded.status
WHERE excluded.updated_at > repositories.updated_at`

func (s *Store) UpsertRecord(ctx context.Context, repo model.Repository, status model.Status) error {
	res, err := s.db.ExecContext(ctx, upsertRepository,
		repo.ID, repo.Name, repo.FullName, repo.Description, repo.URL,
		repo.PushedAt, repo.CreatedAt, repo.UpdatedAt,
		strings.Join(repo.CVEIDs, ","), string(status))
	if err != nil {
		return fmt.Errorf("failed to upsert repository %d: %w", repo.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.logger.Info("Repository already stored with same or newer state", "repo_id", repo.ID)
	}
	return nil
}

func (s *Store) AppendCheckRecord(ctx context.Context, checkTime time.Time, totalCount int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO check_records (check_time, total_count) VALUES (?, ?)`,
		checkTime.UTC().Format(time.RFC3339), totalCount)
	if err != nil {
		return fmt.Errorf("failed to append check record: %w", err)
	}
	return nil
}

func (s *Store) LastTotalCount(ctx context.Context) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT total_count FROM check_records ORDER BY id DESC LIMIT 1`).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read last total count: %w", err)
	}
	return total, nil
}

func (s *Store) ListRepositories(ctx context.Context, limit int) ([]model.Repository, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, full_name, description, url, pushed_at, created_at, updated_at, cve_ids, status
		FROM repositories ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		var r model.Repository
		var cveIDs, status string
		if err := rows.Scan(&r.ID, &r.Name, &r.FullName, &r.Description, &r.URL,
			&r.PushedAt, &r.CreatedAt, &r.UpdatedAt, &cveIDs, &status); err != nil {
			return nil, fmt.Errorf("failed to scan repository row: %w", err)
		}
		r.CVEIDs = splitIDs(cveIDs)
		r.Status = model.Status(status)
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

func (s *Store) ListCheckRecords(ctx context.Context, limit int) ([]model.CheckRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, check_time, total_count FROM check_records ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list check records: %w", err)
	}
	defer rows.Close()

	var records []model.CheckRecord
	for rows.Next() {
		var rec model.CheckRecord
		var checkTime string
		if err := rows.Scan(&rec.ID, &checkTime, &rec.TotalCount); err != nil {
			return nil, fmt.Errorf("failed to scan check record row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, checkTime); err == nil {
			rec.CheckTime = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func splitIDs(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}
