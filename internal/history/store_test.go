package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun(sessionID, title string, createdAt time.Time) Run {
	return Run{
		SessionID:  sessionID,
		Title:      title,
		Template:   "springer_lncs",
		Sections:   5,
		Figures:    2,
		References: 12,
		Warnings:   []string{"image 2 below 300 DPI"},
		Duration:   1400 * time.Millisecond,
		CreatedAt:  createdAt,
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	runs := []Run{
		sampleRun("aaaa1111", "Efficient Attention Mechanisms", base),
		sampleRun("bbbb2222", "Protein Folding with Transformers", base.Add(time.Hour)),
		sampleRun("cccc3333", "Sparse Mixture Routing", base.Add(2*time.Hour)),
	}
	for _, run := range runs {
		if err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record(%s): %v", run.SessionID, err)
		}
	}

	got, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d runs, want 3", len(got))
	}

	// Newest first.
	wantOrder := []string{"cccc3333", "bbbb2222", "aaaa1111"}
	for i, id := range wantOrder {
		if got[i].SessionID != id {
			t.Errorf("got[%d].SessionID = %s, want %s", i, got[i].SessionID, id)
		}
	}

	first := got[2]
	if first.Title != "Efficient Attention Mechanisms" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Template != "springer_lncs" {
		t.Errorf("Template = %q", first.Template)
	}
	if first.Sections != 5 || first.Figures != 2 || first.References != 12 {
		t.Errorf("counts = %d/%d/%d, want 5/2/12", first.Sections, first.Figures, first.References)
	}
	if len(first.Warnings) != 1 || first.Warnings[0] != "image 2 below 300 DPI" {
		t.Errorf("Warnings = %v", first.Warnings)
	}
	if first.Duration != 1400*time.Millisecond {
		t.Errorf("Duration = %v", first.Duration)
	}
	if !first.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", first.CreatedAt, base)
	}
}

func TestRecentLimit(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"aaaa1111", "bbbb2222", "cccc3333"} {
		run := sampleRun(id, "Manuscript", base.Add(time.Duration(i)*time.Minute))
		if err := store.Record(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent(2) returned %d runs", len(got))
	}
	if got[0].SessionID != "cccc3333" {
		t.Errorf("got[0].SessionID = %s, want cccc3333", got[0].SessionID)
	}
}

func TestRecordUpsertsBySession(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	if err := store.Record(ctx, sampleRun("aaaa1111", "Draft Title", base)); err != nil {
		t.Fatal(err)
	}
	second := sampleRun("aaaa1111", "Final Title", base.Add(time.Minute))
	second.Figures = 4
	if err := store.Record(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one run after re-record, got %d", len(got))
	}
	if got[0].Title != "Final Title" || got[0].Figures != 4 {
		t.Errorf("run not updated: title=%q figures=%d", got[0].Title, got[0].Figures)
	}

	// The FTS index must follow the update.
	if hits, err := store.Search(ctx, "draft"); err != nil {
		t.Fatal(err)
	} else if len(hits) != 0 {
		t.Errorf("stale title still searchable: %d hits", len(hits))
	}
	if hits, err := store.Search(ctx, "final"); err != nil {
		t.Fatal(err)
	} else if len(hits) != 1 {
		t.Errorf("updated title not searchable: %d hits", len(hits))
	}
}

func TestSearch(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	titles := map[string]string{
		"aaaa1111": "Efficient Attention Mechanisms for Transformers",
		"bbbb2222": "Protein Folding with Deep Learning",
		"cccc3333": "Attention Is Not All You Need",
	}
	i := 0
	for id, title := range titles {
		if err := store.Record(ctx, sampleRun(id, title, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
		i++
	}

	hits, err := store.Search(ctx, "attention")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("Search(attention) returned %d runs, want 2", len(hits))
	}
	for _, run := range hits {
		if run.SessionID == "bbbb2222" {
			t.Errorf("unrelated run matched: %s", run.Title)
		}
	}

	if hits, err = store.Search(ctx, "protein"); err != nil {
		t.Fatal(err)
	} else if len(hits) != 1 || hits[0].SessionID != "bbbb2222" {
		t.Errorf("Search(protein) = %v", hits)
	}

	// Empty query falls back to recency.
	all, err := store.Search(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("Search(\"\") returned %d runs, want 3", len(all))
	}
}

func TestPurge(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	if err := store.Record(ctx, sampleRun("aaaa1111", "Ancient Manuscript", base.AddDate(0, -2, 0))); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, sampleRun("bbbb2222", "Fresh Manuscript", base)); err != nil {
		t.Fatal(err)
	}

	purged, err := store.Purge(ctx, base.AddDate(0, -1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Fatalf("Purge removed %d runs, want 1", purged)
	}

	got, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].SessionID != "bbbb2222" {
		t.Errorf("Recent after purge = %v", got)
	}

	// Purged titles must leave the FTS index too.
	if hits, err := store.Search(ctx, "ancient"); err != nil {
		t.Fatal(err)
	} else if len(hits) != 0 {
		t.Errorf("purged title still searchable: %d hits", len(hits))
	}
}

func TestRecordRejectsEmptySessionID(t *testing.T) {
	store := testStore(t)
	if err := store.Record(context.Background(), Run{Title: "No Session"}); err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestRecordStampsCreatedAt(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, Run{SessionID: "aaaa1111", Title: "Untimed"}); err != nil {
		t.Fatal(err)
	}
	got, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].CreatedAt.IsZero() {
		t.Errorf("CreatedAt not stamped: %v", got)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	store.Close()
}

func TestOpenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, sampleRun("aaaa1111", "Persisted", time.Now().UTC())); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "Persisted" {
		t.Errorf("reopened history = %v", got)
	}
}
