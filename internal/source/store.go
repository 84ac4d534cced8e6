package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lunbi/lunbi/internal/log"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations, raised when two invocations race to insert the same source.
const pgUniqueViolation = "23505"

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const sourceCols = `id, title, url, md_filename, created_at`

// Store provides persistence for source records.
//
// Store is safe for concurrent use; unique-key races on insert are resolved
// by re-reading the winning row.
type Store struct {
	db     querier
	logger log.Logger
}

// NewStore creates a source Store. db is typically a *pgxpool.Pool.
func NewStore(db querier, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, logger: logger}
}

func scanSource(row pgx.Row) (*Source, error) {
	var s Source
	err := row.Scan(&s.ID, &s.Title, &s.URL, &s.Filename, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByFilename looks up a source by its markdown filename.
// Returns (nil, nil) when no record exists.
func (s *Store) GetByFilename(ctx context.Context, filename string) (*Source, error) {
	src, err := scanSource(s.db.QueryRow(ctx,
		`SELECT `+sourceCols+` FROM sources WHERE md_filename = $1`, filename))
	if err != nil {
		return nil, fmt.Errorf("looking up source by filename %q: %w", filename, err)
	}
	return src, nil
}

// GetByURL looks up a source by its canonical URL.
// Returns (nil, nil) when no record exists.
func (s *Store) GetByURL(ctx context.Context, url string) (*Source, error) {
	src, err := scanSource(s.db.QueryRow(ctx,
		`SELECT `+sourceCols+` FROM sources WHERE url = $1`, url))
	if err != nil {
		return nil, fmt.Errorf("looking up source by url %q: %w", url, err)
	}
	return src, nil
}

// Upsert inserts or updates the source keyed by filename. Title and URL are
// updated in place when they drift; the filename stays fixed as the key.
//
// Concurrent identical upserts are safe: the filename conflict is handled by
// ON CONFLICT, and a losing race on the url unique constraint is treated as
// "already exists" and resolved by re-reading the existing record.
func (s *Store) Upsert(ctx context.Context, title, url, filename string) (*Source, error) {
	src, err := scanSource(s.db.QueryRow(ctx,
		`INSERT INTO sources (title, url, md_filename)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (md_filename) DO UPDATE
		 SET title = EXCLUDED.title, url = EXCLUDED.url
		 RETURNING `+sourceCols,
		title, url, filename))
	if err == nil {
		return src, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		// A concurrent writer owns this url under a different filename,
		// or inserted the row between our statement and its commit.
		s.logger.Debug("source upsert lost unique race, re-reading", "url", url)
		if existing, readErr := s.GetByURL(ctx, url); readErr == nil && existing != nil {
			return existing, nil
		}
		if existing, readErr := s.GetByFilename(ctx, filename); readErr == nil && existing != nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("upserting source %q: %w", filename, err)
}

// ListAll returns every source record. Used to build the catalog index.
func (s *Store) ListAll(ctx context.Context) ([]Source, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+sourceCols+` FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.ID, &src.Title, &src.URL, &src.Filename, &src.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning source row: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return sources, nil
}
