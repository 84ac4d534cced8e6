package prompt

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lunbi/lunbi/internal/assistant"
	"github.com/lunbi/lunbi/internal/log"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DefaultListLimit caps ListLatest when the caller passes no limit.
const DefaultListLimit = 20

// Store provides persistence for prompt records.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     querier
	logger log.Logger
}

// NewStore creates a prompt Store. db is typically a *pgxpool.Pool.
func NewStore(db querier, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Add inserts a record and returns it with the generated id and timestamp.
func (s *Store) Add(ctx context.Context, rec Record) (Record, error) {
	err := s.db.QueryRow(ctx,
		`INSERT INTO prompts (query, answer, status, source_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		rec.Query, rec.Answer, string(rec.Status), rec.SourceID,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("inserting prompt record: %w", err)
	}

	s.logger.Debug("prompt persisted", "id", rec.ID, "status", rec.Status)
	return rec, nil
}

// ListLatest returns the most recent records, newest first.
func (s *Store) ListLatest(ctx context.Context, limit int) ([]Record, error) {
	if limit < 1 {
		limit = DefaultListLimit
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, query, answer, status, source_id, created_at
		 FROM prompts
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.Answer, &status,
			&rec.SourceID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning prompt row: %w", err)
		}
		rec.Status = assistant.ParseStatus(status, s.logger)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}
	return records, nil
}
