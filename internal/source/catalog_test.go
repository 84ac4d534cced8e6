package source

import (
	"context"
	"errors"
	"testing"

	"github.com/lunbi/lunbi/internal/log"
)

type fakeLister struct {
	sources []Source
	err     error
	calls   int
}

func (f *fakeLister) ListAll(_ context.Context) ([]Source, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.sources, nil
}

func TestCatalogLookup(t *testing.T) {
	lister := &fakeLister{sources: []Source{
		{ID: 1, Title: "Bone Density", URL: "https://example.org/bone", Filename: "bone_density.md"},
		{ID: 2, Title: "Plant Roots", URL: "https://example.org/roots", Filename: "archive/plant_roots.md"},
	}}
	c := NewCatalog(lister, log.NewNop())

	meta, ok, err := c.Lookup(context.Background(), "articles/bone_density.md")
	if err != nil {
		t.Fatalf("Lookup() unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("Lookup() ok = false, want true")
	}
	if meta.Title != "Bone Density" {
		t.Errorf("meta.Title = %q, want Bone Density", meta.Title)
	}

	// Index keys use the filename component of stored paths too.
	_, ok, err = c.Lookup(context.Background(), "plant_roots.md")
	if err != nil || !ok {
		t.Errorf("Lookup(plant_roots.md) = (%v, %v), want hit", ok, err)
	}

	_, ok, err = c.Lookup(context.Background(), "missing.md")
	if err != nil {
		t.Fatalf("Lookup() unexpected error: %v", err)
	}
	if ok {
		t.Error("Lookup(missing.md) ok = true, want false")
	}

	if lister.calls != 1 {
		t.Errorf("ListAll calls = %d, want 1 (single lazy load)", lister.calls)
	}
}

func TestCatalogLoadFailure(t *testing.T) {
	loadErr := errors.New("relation does not exist")
	c := NewCatalog(&fakeLister{err: loadErr}, log.NewNop())

	_, _, err := c.Lookup(context.Background(), "doc.md")
	if !errors.Is(err, loadErr) {
		t.Fatalf("Lookup() error = %v, want %v", err, loadErr)
	}

	// The failure is sticky: the load is not retried.
	_, _, err = c.Lookup(context.Background(), "doc.md")
	if !errors.Is(err, loadErr) {
		t.Fatalf("second Lookup() error = %v, want %v", err, loadErr)
	}
}
