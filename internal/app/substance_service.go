package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"noteflow/internal/domain"
)

// SubstanceService encapsulates substance-use tracking use cases.
type SubstanceService struct {
	repo domain.LogRepository
	inv  Invalidator
}

// NewSubstanceService creates a SubstanceService backed by the given
// repository. inv may be nil.
func NewSubstanceService(repo domain.LogRepository, inv Invalidator) *SubstanceService {
	return &SubstanceService{repo: repo, inv: inv}
}

// Record validates and stores a log, replacing any existing log with the
// same ID.
func (s *SubstanceService) Record(ctx context.Context, userID int64, l domain.SubstanceLog) (*domain.SubstanceLog, error) {
	l, err := prepareLog(userID, l)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertLog(ctx, l); err != nil {
		return nil, err
	}
	notify(s.inv, userID)
	return &l, nil
}

// Delete removes a log and reports whether it existed.
func (s *SubstanceService) Delete(ctx context.Context, userID int64, id string) (bool, error) {
	deleted, err := s.repo.DeleteLog(ctx, userID, id)
	if err != nil {
		return false, err
	}
	if deleted {
		notify(s.inv, userID)
	}
	return deleted, nil
}

// List returns the user's logs within r, newest first.
func (s *SubstanceService) List(ctx context.Context, userID int64, r domain.DateRange) ([]domain.SubstanceLog, error) {
	return s.repo.ListLogs(ctx, userID, r)
}

func prepareLog(userID int64, l domain.SubstanceLog) (domain.SubstanceLog, error) {
	l.Substance = strings.TrimSpace(l.Substance)
	if l.Substance == "" {
		return l, fmt.Errorf("%w: substance is required", domain.ErrInvalidInput)
	}
	if l.Quantity <= 0 || math.IsInf(l.Quantity, 0) || math.IsNaN(l.Quantity) {
		return l, fmt.Errorf("%w: quantity must be > 0", domain.ErrInvalidInput)
	}
	if l.Context == "" {
		l.Context = domain.ContextUnknown
	}
	if !domain.ValidContext(l.Context) {
		return l, fmt.Errorf("%w: context must be Social, Solo or Unknown", domain.ErrInvalidInput)
	}
	id, err := normalizeID(l.ID)
	if err != nil {
		return l, err
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}

	l.ID = id
	l.UserID = userID
	l.Timestamp = l.Timestamp.UTC()
	l.Unit = strings.TrimSpace(l.Unit)
	l.Location = strings.TrimSpace(l.Location)
	l.Emotions = normalizeLabels(l.Emotions)
	return l, nil
}
