package source

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/lunbi/lunbi/internal/log"
)

// lister is the store capability the catalog needs.
type lister interface {
	ListAll(ctx context.Context) ([]Source, error)
}

// Catalog is the in-memory metadata index: title/url keyed by markdown
// filename, built once from the sources table. It is read-only after its
// single load, so no synchronization is needed beyond the init guard.
type Catalog struct {
	store  lister
	logger log.Logger

	once  sync.Once
	index map[string]Metadata
	err   error
}

// NewCatalog creates a Catalog backed by the given store. The index is
// loaded lazily on first lookup.
func NewCatalog(store lister, logger log.Logger) *Catalog {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Catalog{store: store, logger: logger}
}

func (c *Catalog) load(ctx context.Context) {
	sources, err := c.store.ListAll(ctx)
	if err != nil {
		c.err = err
		return
	}
	index := make(map[string]Metadata, len(sources))
	for _, s := range sources {
		index[filepath.Base(s.Filename)] = Metadata{Title: s.Title, URL: s.URL}
	}
	c.index = index
	c.logger.Info("catalog index loaded", "entries", len(index))
}

// Lookup returns the metadata for the given reference path, keyed by its
// filename component. The second return value reports whether an entry was
// found; a load failure is returned as an error on every call thereafter.
func (c *Catalog) Lookup(ctx context.Context, path string) (Metadata, bool, error) {
	c.once.Do(func() { c.load(ctx) })
	if c.err != nil {
		return Metadata{}, false, c.err
	}
	meta, ok := c.index[filepath.Base(path)]
	return meta, ok, nil
}
