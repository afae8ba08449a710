package domain

import (
	"context"
	"time"
)

// Substance log contexts.
const (
	ContextSocial  = "Social"
	ContextSolo    = "Solo"
	ContextUnknown = "Unknown"
)

// SubstanceLog is one timestamped record of substance use.
type SubstanceLog struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Substance string    `json:"substance"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
	Location  string    `json:"location"`
	Context   string    `json:"context"`
	Emotions  []string  `json:"emotions"`
}

// LogRepository is the port for substance log persistence.
type LogRepository interface {
	UpsertLog(ctx context.Context, l SubstanceLog) error
	GetLog(ctx context.Context, userID int64, id string) (*SubstanceLog, error)
	DeleteLog(ctx context.Context, userID int64, id string) (bool, error)
	ListLogs(ctx context.Context, userID int64, r DateRange) ([]SubstanceLog, error)
	DeleteAllLogs(ctx context.Context, userID int64) error
}

// ValidContext reports whether c is a known log context.
func ValidContext(c string) bool {
	switch c {
	case ContextSocial, ContextSolo, ContextUnknown:
		return true
	}
	return false
}
