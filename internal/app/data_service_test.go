package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"noteflow/internal/adapter/memory"
	"noteflow/internal/app"
	"noteflow/internal/domain"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := memory.New()
	journal := app.NewJournalService(src, nil)
	substances := app.NewSubstanceService(src, nil)

	if _, err := journal.Save(ctx, 1, domain.JournalEntry{Date: "2026-02-01", Mood: 6, CravingLevel: 4, Triggers: []string{"work"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := substances.Record(ctx, 1, domain.SubstanceLog{Substance: "alcohol", Quantity: 2, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	doc, err := app.NewDataService(src, src, nil).Export(ctx, 1)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if doc.Version != app.ExportVersion || len(doc.Entries) != 1 || len(doc.Logs) != 1 {
		t.Fatalf("unexpected export %+v", doc)
	}

	dst := memory.New()
	inv := &countingInvalidator{}
	res, err := app.NewDataService(dst, dst, inv).Import(ctx, 42, *doc)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Entries != 1 || res.Logs != 1 {
		t.Fatalf("import result %+v", res)
	}

	entries, _ := dst.ListEntries(ctx, 42, domain.DateRange{})
	if len(entries) != 1 || entries[0].UserID != 42 || entries[0].ID != doc.Entries[0].ID {
		t.Fatalf("entries not re-homed: %+v", entries)
	}
	if !entries[0].CreatedAt.Equal(doc.Entries[0].CreatedAt) {
		t.Errorf("CreatedAt not preserved: %v vs %v", entries[0].CreatedAt, doc.Entries[0].CreatedAt)
	}
	if len(inv.calls) != 1 {
		t.Errorf("expected one invalidation, got %v", inv.calls)
	}
}

func TestImport_InvalidRecordWritesNothing(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	svc := app.NewDataService(db, db, nil)

	doc := app.ExportDocument{
		Entries: []domain.JournalEntry{
			{Date: "2026-02-01", Mood: 6, CravingLevel: 4},
			{Date: "2026-02-02", Mood: 60, CravingLevel: 4},
		},
	}
	_, err := svc.Import(ctx, 1, doc)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	entries, _ := db.ListEntries(ctx, 1, domain.DateRange{})
	if len(entries) != 0 {
		t.Fatalf("expected nothing stored, got %d entries", len(entries))
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	journal := app.NewJournalService(db, nil)
	_, _ = journal.Save(ctx, 1, domain.JournalEntry{Date: "2026-02-01", Mood: 6, CravingLevel: 4})
	_, _ = journal.Save(ctx, 2, domain.JournalEntry{Date: "2026-02-01", Mood: 6, CravingLevel: 4})

	inv := &countingInvalidator{}
	if err := app.NewDataService(db, db, inv).Clear(ctx, 1); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if e, _ := db.ListEntries(ctx, 1, domain.DateRange{}); len(e) != 0 {
		t.Error("expected user 1 cleared")
	}
	if e, _ := db.ListEntries(ctx, 2, domain.DateRange{}); len(e) != 1 {
		t.Error("user 2 must be untouched")
	}
	if len(inv.calls) != 1 {
		t.Errorf("expected invalidation, got %v", inv.calls)
	}
}
