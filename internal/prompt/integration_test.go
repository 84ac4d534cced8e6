//go:build integration

package prompt

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/lunbi/lunbi/internal/assistant"
	"github.com/lunbi/lunbi/internal/source"
	"github.com/lunbi/lunbi/internal/testutil"
)

var sharedDB *testutil.TestDBContainer

func TestMain(m *testing.M) {
	var cleanup func()
	var err error
	sharedDB, cleanup, err = testutil.SetupTestDBForMain()
	if err != nil {
		log.Fatalf("starting test database: %v", err)
	}
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func setupIntegrationStore(t *testing.T) *Store {
	t.Helper()
	testutil.CleanTables(t, sharedDB.Pool)
	return NewStore(sharedDB.Pool, testutil.DiscardLogger())
}

func TestIntegrationAddAndList(t *testing.T) {
	store := setupIntegrationStore(t)
	ctx := context.Background()

	src, err := source.NewStore(sharedDB.Pool, testutil.DiscardLogger()).
		Upsert(ctx, "Bone", "https://example.org/bone", "bone.md")
	if err != nil {
		t.Fatalf("seeding source: %v", err)
	}

	answer := "Bone density drops in orbit."
	rec, err := store.Add(ctx, Record{
		Query:    "How does microgravity affect bone?",
		Answer:   &answer,
		Status:   assistant.StatusSuccess,
		SourceID: &src.ID,
	})
	if err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}
	if rec.ID == 0 {
		t.Fatal("Add() returned zero id")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("Add() returned zero timestamp")
	}

	records, err := store.ListLatest(ctx, 10)
	if err != nil {
		t.Fatalf("ListLatest() unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ListLatest() = %d records, want 1", len(records))
	}
	got := records[0]
	if got.Answer == nil || *got.Answer != answer {
		t.Errorf("Answer = %v, want %q", got.Answer, answer)
	}
	if got.SourceID == nil || *got.SourceID != src.ID {
		t.Errorf("SourceID = %v, want %d", got.SourceID, src.ID)
	}
	if got.Status != assistant.StatusSuccess {
		t.Errorf("Status = %q, want success", got.Status)
	}
}

func TestIntegrationAddWithoutAnswerOrSource(t *testing.T) {
	store := setupIntegrationStore(t)
	ctx := context.Background()

	rec, err := store.Add(ctx, Record{
		Query:  "What is the capital of France?",
		Status: assistant.StatusOutOfContext,
	})
	if err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}

	records, err := store.ListLatest(ctx, 10)
	if err != nil {
		t.Fatalf("ListLatest() unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ListLatest() = %d records, want 1", len(records))
	}
	if records[0].ID != rec.ID {
		t.Errorf("ID = %d, want %d", records[0].ID, rec.ID)
	}
	if records[0].Answer != nil {
		t.Errorf("Answer = %v, want nil", records[0].Answer)
	}
	if records[0].SourceID != nil {
		t.Errorf("SourceID = %v, want nil", records[0].SourceID)
	}
}

func TestIntegrationListLatestOrderAndLimit(t *testing.T) {
	store := setupIntegrationStore(t)
	ctx := context.Background()

	queries := []string{"first", "second", "third"}
	for _, q := range queries {
		if _, err := store.Add(ctx, Record{Query: q, Status: assistant.StatusSuccess}); err != nil {
			t.Fatalf("Add(%q) unexpected error: %v", q, err)
		}
	}

	records, err := store.ListLatest(ctx, 2)
	if err != nil {
		t.Fatalf("ListLatest() unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListLatest(2) = %d records, want 2", len(records))
	}
	if records[0].ID <= records[1].ID {
		t.Errorf("records not newest first: ids %d, %d", records[0].ID, records[1].ID)
	}
}

func TestIntegrationListCoercesUnknownStatus(t *testing.T) {
	store := setupIntegrationStore(t)
	ctx := context.Background()

	// A row written by an older release with a status this version no
	// longer recognizes.
	_, err := sharedDB.Pool.Exec(ctx,
		`INSERT INTO prompts (query, status) VALUES ($1, $2)`, "legacy", "pending")
	if err != nil {
		t.Fatalf("seeding legacy row: %v", err)
	}

	records, err := store.ListLatest(ctx, 10)
	if err != nil {
		t.Fatalf("ListLatest() unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ListLatest() = %d records, want 1", len(records))
	}
	if records[0].Status != assistant.StatusSuccess {
		t.Errorf("Status = %q, want coercion to success", records[0].Status)
	}
}
