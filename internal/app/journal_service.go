package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"noteflow/internal/domain"

	"github.com/google/uuid"
)

// Invalidator is told when a user's stored records change.
type Invalidator interface {
	Invalidate(userID int64)
}

// JournalService encapsulates journal check-in use cases.
type JournalService struct {
	repo domain.EntryRepository
	inv  Invalidator
}

// NewJournalService creates a JournalService backed by the given repository.
// inv may be nil.
func NewJournalService(repo domain.EntryRepository, inv Invalidator) *JournalService {
	return &JournalService{repo: repo, inv: inv}
}

// Save validates and stores an entry, creating it when its ID is empty or
// unknown and replacing it otherwise. The stored entry is returned.
func (s *JournalService) Save(ctx context.Context, userID int64, e domain.JournalEntry) (*domain.JournalEntry, error) {
	e, err := prepareEntry(userID, e)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	existing, err := s.repo.GetEntry(ctx, userID, e.ID)
	switch {
	case err == nil:
		e.CreatedAt = existing.CreatedAt
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if err := s.repo.UpsertEntry(ctx, e); err != nil {
		return nil, err
	}
	notify(s.inv, userID)
	return &e, nil
}

// Get returns a single entry.
func (s *JournalService) Get(ctx context.Context, userID int64, id string) (*domain.JournalEntry, error) {
	return s.repo.GetEntry(ctx, userID, id)
}

// Delete removes an entry and reports whether it existed.
func (s *JournalService) Delete(ctx context.Context, userID int64, id string) (bool, error) {
	deleted, err := s.repo.DeleteEntry(ctx, userID, id)
	if err != nil {
		return false, err
	}
	if deleted {
		notify(s.inv, userID)
	}
	return deleted, nil
}

// List returns the user's entries within r, oldest first.
func (s *JournalService) List(ctx context.Context, userID int64, r domain.DateRange) ([]domain.JournalEntry, error) {
	return s.repo.ListEntries(ctx, userID, r)
}

// prepareEntry applies defaults, validation and normalisation shared by Save
// and Import.
func prepareEntry(userID int64, e domain.JournalEntry) (domain.JournalEntry, error) {
	if strings.TrimSpace(e.Date) == "" {
		e.Date = time.Now().In(time.Local).Format(domain.DayLayout)
	}
	if err := domain.ValidateEntry(e); err != nil {
		return e, err
	}
	day, err := domain.NormalizeEntryDate(e.Date)
	if err != nil {
		return e, err
	}
	id, err := normalizeID(e.ID)
	if err != nil {
		return e, err
	}

	e.ID = id
	e.UserID = userID
	e.Date = day
	e.Triggers = normalizeLabels(e.Triggers)
	e.CopingStrategies = normalizeLabels(e.CopingStrategies)
	e.Notes = strings.TrimSpace(e.Notes)
	return e, nil
}

// normalizeID returns a fresh UUID for an empty id and rejects anything that
// is not a UUID.
func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return uuid.NewString(), nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: id %q is not a uuid", domain.ErrInvalidInput, id)
	}
	return parsed.String(), nil
}

// normalizeLabels trims labels, drops empty ones and removes duplicates
// while keeping the order they were authored in.
func normalizeLabels(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, l := range in {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

func notify(inv Invalidator, userID int64) {
	if inv != nil {
		inv.Invalidate(userID)
	}
}
