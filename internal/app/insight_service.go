package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"noteflow/internal/domain"

	cache "github.com/patrickmn/go-cache"
)

const (
	// DefaultSummaryDays is the window used when a caller asks for none.
	DefaultSummaryDays = 30
	// MaxSummaryDays caps the summary window.
	MaxSummaryDays = 366
	// DefaultSummaryTTL bounds how long a cached summary is served.
	DefaultSummaryTTL = 5 * time.Minute
)

// InsightService runs the insight engine, either over records supplied by the
// caller or over the user's stored records.
type InsightService struct {
	entries domain.EntryRepository
	logs    domain.LogRepository
	cache   *cache.Cache

	mu   sync.Mutex
	gens map[int64]uint64
}

// NewInsightService creates an InsightService backed by the given
// repositories. Summaries are cached for ttl.
func NewInsightService(entries domain.EntryRepository, logs domain.LogRepository, ttl time.Duration) *InsightService {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &InsightService{
		entries: entries,
		logs:    logs,
		cache:   cache.New(ttl, 2*ttl),
		gens:    make(map[int64]uint64),
	}
}

// Analyze computes insights over caller-supplied records.
func (s *InsightService) Analyze(entries []domain.JournalEntry, logs []domain.SubstanceLog, analysisType string) (domain.InsightResult, error) {
	t, err := domain.ParseAnalysisType(analysisType)
	if err != nil {
		return domain.InsightResult{}, err
	}
	return domain.ComputeInsights(entries, logs, t)
}

// MoodPoint is one entry on the mood/craving timeline.
type MoodPoint struct {
	Date    string `json:"date"`
	Mood    int    `json:"mood"`
	Craving int    `json:"craving"`
}

// Summary is the analytics view over a user's recent records.
type Summary struct {
	domain.InsightResult

	Days       int               `json:"days"`
	Start      string            `json:"start"`
	End        string            `json:"end"`
	EntryCount int               `json:"entryCount"`
	LogCount   int               `json:"logCount"`
	RiskBand   string            `json:"riskBand"`
	MoodSeries []MoodPoint       `json:"moodSeries"`
	Coping     []domain.Pattern  `json:"coping"`
	Substances []domain.Quantity `json:"substances"`
	// Cached reports whether the summary was served without running the
	// engine.
	Cached bool `json:"cached"`
}

// Summary computes the analytics view over the user's records from the last
// days calendar days, today included. Results are cached until the user's
// data changes.
func (s *InsightService) Summary(ctx context.Context, userID int64, days int) (Summary, error) {
	if days <= 0 {
		days = DefaultSummaryDays
	}
	if days > MaxSummaryDays {
		days = MaxSummaryDays
	}

	gen := s.generation(userID)
	key := summaryKey(userID, gen, days)
	if v, ok := s.cache.Get(key); ok {
		sum := v.(Summary)
		sum.Cached = true
		return sum, nil
	}

	now := time.Now().In(time.Local)
	first := now.AddDate(0, 0, -(days - 1))
	start := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.Local)
	r := domain.DateRange{Start: start, End: now}

	entries, err := s.entries.ListEntries(ctx, userID, r)
	if err != nil {
		return Summary{}, fmt.Errorf("list entries: %w", err)
	}
	logs, err := s.logs.ListLogs(ctx, userID, r)
	if err != nil {
		return Summary{}, fmt.Errorf("list logs: %w", err)
	}

	res, err := domain.ComputeInsights(entries, logs, domain.AnalysisPatterns)
	if err != nil {
		return Summary{}, err
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	series := make([]MoodPoint, 0, len(entries))
	coping := make([][]string, 0, len(entries))
	for _, e := range entries {
		series = append(series, MoodPoint{Date: e.Date, Mood: e.Mood, Craving: e.CravingLevel})
		coping = append(coping, e.CopingStrategies)
	}

	sum := Summary{
		InsightResult: res,
		Days:          days,
		Start:         r.StartDay(),
		End:           r.EndDay(),
		EntryCount:    len(entries),
		LogCount:      len(logs),
		RiskBand:      domain.RiskBand(res.RiskLevel),
		MoodSeries:    series,
		Coping:        domain.RankLabels(coping, domain.MaxPatterns),
		Substances:    domain.RankSubstances(logs, domain.MaxPatterns),
	}
	// A write during the listing bumps the generation; the result is then
	// returned but not cached.
	if s.generation(userID) == gen {
		s.cache.Set(key, sum, cache.DefaultExpiration)
	}
	return sum, nil
}

// Invalidate retires every cached summary for the user. Retired entries are
// never read again and expire with the cache's TTL.
func (s *InsightService) Invalidate(userID int64) {
	s.mu.Lock()
	s.gens[userID]++
	s.mu.Unlock()
}

func (s *InsightService) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

func summaryKey(userID int64, gen uint64, days int) string {
	return fmt.Sprintf("%d:%d:%d", userID, gen, days)
}
