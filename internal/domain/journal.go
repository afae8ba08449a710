package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidInput indicates a value outside its documented domain.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates that a record does not exist for the user.
	ErrNotFound = errors.New("not found")
)

// DayLayout is the calendar-day format used for journal entry dates.
const DayLayout = "2006-01-02"

// Mood and craving levels share the same inclusive scale.
const (
	MinLevel = 1
	MaxLevel = 10
)

// JournalEntry is one day's recovery check-in.
type JournalEntry struct {
	ID               string    `json:"id"`
	UserID           int64     `json:"userId"`
	Date             string    `json:"date"`
	Mood             int       `json:"mood"`
	CravingLevel     int       `json:"cravingLevel"`
	Triggers         []string  `json:"triggers"`
	CopingStrategies []string  `json:"copingStrategies"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// DateRange bounds a listing. A zero Start or End leaves that side open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// StartDay returns the inclusive lower bound as a calendar day, or "" if open.
func (r DateRange) StartDay() string {
	if r.Start.IsZero() {
		return ""
	}
	return r.Start.In(time.Local).Format(DayLayout)
}

// EndDay returns the inclusive upper bound as a calendar day, or "" if open.
func (r DateRange) EndDay() string {
	if r.End.IsZero() {
		return ""
	}
	return r.End.In(time.Local).Format(DayLayout)
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// ContainsDay reports whether the calendar day falls inside the range.
func (r DateRange) ContainsDay(day string) bool {
	if s := r.StartDay(); s != "" && day < s {
		return false
	}
	if e := r.EndDay(); e != "" && day > e {
		return false
	}
	return true
}

// EntryRepository is the port for journal entry persistence.
type EntryRepository interface {
	UpsertEntry(ctx context.Context, e JournalEntry) error
	GetEntry(ctx context.Context, userID int64, id string) (*JournalEntry, error)
	DeleteEntry(ctx context.Context, userID int64, id string) (bool, error)
	ListEntries(ctx context.Context, userID int64, r DateRange) ([]JournalEntry, error)
	DeleteAllEntries(ctx context.Context, userID int64) error
}

// ParseEntryDate parses a journal date. Plain calendar days are the norm;
// full RFC 3339 timestamps are accepted and keep their own offset.
func ParseEntryDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DayLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: date %q is not a calendar day", ErrInvalidInput, s)
}

// NormalizeEntryDate returns the calendar day a date string refers to.
func NormalizeEntryDate(s string) (string, error) {
	t, err := ParseEntryDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(DayLayout), nil
}

// EntryWeekday returns the weekday of the calendar date as written.
func EntryWeekday(date string) (time.Weekday, error) {
	t, err := ParseEntryDate(date)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}

// ValidateEntry checks the fields the insight engine depends on.
func ValidateEntry(e JournalEntry) error {
	if e.Mood < MinLevel || e.Mood > MaxLevel {
		return fmt.Errorf("%w: mood %d outside %d-%d", ErrInvalidInput, e.Mood, MinLevel, MaxLevel)
	}
	if e.CravingLevel < MinLevel || e.CravingLevel > MaxLevel {
		return fmt.Errorf("%w: cravingLevel %d outside %d-%d", ErrInvalidInput, e.CravingLevel, MinLevel, MaxLevel)
	}
	if _, err := ParseEntryDate(e.Date); err != nil {
		return err
	}
	return nil
}
