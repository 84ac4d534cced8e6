package source

import (
	"context"
	"path/filepath"

	"github.com/lunbi/lunbi/internal/log"
)

// resolveStrategy is one stage of the resolution fallback chain. A stage
// returns (nil, nil, nil) when it has no match; the first stage with a
// match wins.
type resolveStrategy interface {
	resolve(ctx context.Context, candidates []string) (*Source, *Payload, error)
}

// Resolver maps retrieval references to durable source records using an
// ordered chain of strategies: durable lookup first, catalog upsert second.
//
// Absence of a resolvable source is not an error; strategy failures are
// logged and the chain moves on.
type Resolver struct {
	strategies []resolveStrategy
	logger     log.Logger
}

// NewResolver creates a Resolver over the standard fallback chain.
func NewResolver(store *Store, catalog *Catalog, logger log.Logger) *Resolver {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Resolver{
		strategies: []resolveStrategy{
			&lookupStrategy{store: store},
			&catalogStrategy{catalog: catalog, store: store},
		},
		logger: logger,
	}
}

// Resolve maps candidate references to a durable source record. Empty
// candidates are skipped. Returns (nil, nil) when nothing matches.
func (r *Resolver) Resolve(ctx context.Context, candidates []string) (*Source, *Payload) {
	filtered := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != "" {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	for _, strategy := range r.strategies {
		src, payload, err := strategy.resolve(ctx, filtered)
		if err != nil {
			r.logger.Error("source resolution stage failed", "error", err)
			if payload != nil {
				// Display metadata survives a failed durable write.
				return src, payload
			}
			continue
		}
		if payload != nil {
			return src, payload
		}
	}

	r.logger.Debug("unable to resolve source", "candidates", filtered)
	return nil, nil
}

// finder is the store capability the lookup stage needs.
type finder interface {
	GetByFilename(ctx context.Context, filename string) (*Source, error)
}

// lookupStrategy tries a durable lookup by filename for each candidate.
// A hit returns immediately with no update and no further candidates tried.
type lookupStrategy struct {
	store finder
}

func (s *lookupStrategy) resolve(ctx context.Context, candidates []string) (*Source, *Payload, error) {
	for _, raw := range candidates {
		filename := filepath.Base(raw)
		record, err := s.store.GetByFilename(ctx, filename)
		if err != nil {
			return nil, nil, err
		}
		if record != nil {
			return record, &Payload{Title: record.Title, URL: record.URL}, nil
		}
	}
	return nil, nil, nil
}

// upserter is the store capability the catalog stage needs.
type upserter interface {
	Upsert(ctx context.Context, title, url, filename string) (*Source, error)
}

// catalogLookup is the catalog capability the catalog stage needs.
type catalogLookup interface {
	Lookup(ctx context.Context, path string) (Metadata, bool, error)
}

// catalogStrategy falls back to the in-memory metadata index, consulting
// only the first candidate, and upserts a hit into the durable store.
type catalogStrategy struct {
	catalog catalogLookup
	store   upserter
}

func (s *catalogStrategy) resolve(ctx context.Context, candidates []string) (*Source, *Payload, error) {
	meta, ok, err := s.catalog.Lookup(ctx, candidates[0])
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, nil
	}

	payload := &Payload{Title: meta.Title, URL: meta.URL}

	record, err := s.store.Upsert(ctx, meta.Title, meta.URL, filepath.Base(candidates[0]))
	if err != nil {
		// The display payload is still usable without the durable record.
		return nil, payload, err
	}
	return record, payload, nil
}
