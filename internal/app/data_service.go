package app

import (
	"context"
	"fmt"
	"time"

	"noteflow/internal/domain"
)

// ExportVersion is written into every export document.
const ExportVersion = 1

// ExportDocument is the portable form of a user's records.
type ExportDocument struct {
	Version    int                   `json:"version"`
	ExportedAt time.Time             `json:"exportedAt"`
	Entries    []domain.JournalEntry `json:"entries"`
	Logs       []domain.SubstanceLog `json:"logs"`
}

// ImportResult reports how many records an import stored.
type ImportResult struct {
	Entries int `json:"entries"`
	Logs    int `json:"logs"`
}

// DataService exports, imports and clears a user's records.
type DataService struct {
	entries domain.EntryRepository
	logs    domain.LogRepository
	inv     Invalidator
}

// NewDataService creates a DataService. inv may be nil.
func NewDataService(entries domain.EntryRepository, logs domain.LogRepository, inv Invalidator) *DataService {
	return &DataService{entries: entries, logs: logs, inv: inv}
}

// Export returns every record the user owns.
func (s *DataService) Export(ctx context.Context, userID int64) (*ExportDocument, error) {
	entries, err := s.entries.ListEntries(ctx, userID, domain.DateRange{})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	logs, err := s.logs.ListLogs(ctx, userID, domain.DateRange{})
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return &ExportDocument{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Entries:    entries,
		Logs:       logs,
	}, nil
}

// Import stores every record of doc under userID, whatever user it was
// exported from. All records are validated before any is written, so a bad
// record leaves the store untouched.
func (s *DataService) Import(ctx context.Context, userID int64, doc ExportDocument) (ImportResult, error) {
	now := time.Now().UTC()

	entries := make([]domain.JournalEntry, 0, len(doc.Entries))
	for i, e := range doc.Entries {
		p, err := prepareEntry(userID, e)
		if err != nil {
			return ImportResult{}, fmt.Errorf("entry %d: %w", i, err)
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}
		entries = append(entries, p)
	}

	logs := make([]domain.SubstanceLog, 0, len(doc.Logs))
	for i, l := range doc.Logs {
		p, err := prepareLog(userID, l)
		if err != nil {
			return ImportResult{}, fmt.Errorf("log %d: %w", i, err)
		}
		logs = append(logs, p)
	}

	var res ImportResult
	defer func() {
		if res.Entries+res.Logs > 0 {
			notify(s.inv, userID)
		}
	}()
	for _, e := range entries {
		if err := s.entries.UpsertEntry(ctx, e); err != nil {
			return res, fmt.Errorf("store entry %s: %w", e.ID, err)
		}
		res.Entries++
	}
	for _, l := range logs {
		if err := s.logs.UpsertLog(ctx, l); err != nil {
			return res, fmt.Errorf("store log %s: %w", l.ID, err)
		}
		res.Logs++
	}
	return res, nil
}

// Clear deletes every entry and log the user owns.
func (s *DataService) Clear(ctx context.Context, userID int64) error {
	defer notify(s.inv, userID)
	if err := s.entries.DeleteAllEntries(ctx, userID); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if err := s.logs.DeleteAllLogs(ctx, userID); err != nil {
		return fmt.Errorf("clear logs: %w", err)
	}
	return nil
}
