package adapthttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"noteflow/internal/app"
	"noteflow/internal/domain"
)

// insightsRequest is the body of the stateless engine endpoint. Clients post
// their own records verbatim, so owner ids and bookkeeping timestamps are
// accepted in any JSON form and ignored.
type insightsRequest struct {
	Entries      []insightEntry `json:"entries"`
	Logs         []insightLog   `json:"logs"`
	AnalysisType string         `json:"analysisType"`
}

type insightEntry struct {
	ID               string          `json:"id"`
	UserID           json.RawMessage `json:"userId"`
	Date             string          `json:"date"`
	Mood             int             `json:"mood"`
	CravingLevel     int             `json:"cravingLevel"`
	Triggers         []string        `json:"triggers"`
	CopingStrategies []string        `json:"copingStrategies"`
	Notes            string          `json:"notes"`
	CreatedAt        json.RawMessage `json:"createdAt"`
	UpdatedAt        json.RawMessage `json:"updatedAt"`
}

type insightLog struct {
	ID        string          `json:"id"`
	UserID    json.RawMessage `json:"userId"`
	Substance string          `json:"substance"`
	Quantity  float64         `json:"quantity"`
	Unit      string          `json:"unit"`
	Timestamp string          `json:"timestamp"`
	Location  string          `json:"location"`
	Context   string          `json:"context"`
	Emotions  []string        `json:"emotions"`
	Photo     json.RawMessage `json:"photo"`
}

func (req insightsRequest) records() ([]domain.JournalEntry, []domain.SubstanceLog) {
	entries := make([]domain.JournalEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, domain.JournalEntry{
			ID:               e.ID,
			Date:             e.Date,
			Mood:             e.Mood,
			CravingLevel:     e.CravingLevel,
			Triggers:         e.Triggers,
			CopingStrategies: e.CopingStrategies,
			Notes:            e.Notes,
		})
	}
	logs := make([]domain.SubstanceLog, 0, len(req.Logs))
	for _, l := range req.Logs {
		// The engine does not read timestamps; an unparseable one stays zero.
		ts, _ := time.Parse(time.RFC3339Nano, l.Timestamp)
		logs = append(logs, domain.SubstanceLog{
			ID:        l.ID,
			Substance: l.Substance,
			Quantity:  l.Quantity,
			Unit:      l.Unit,
			Timestamp: ts,
			Location:  l.Location,
			Context:   l.Context,
			Emotions:  l.Emotions,
		})
	}
	return entries, logs
}

// handleInsights runs the engine over the records in the request body. It
// stores nothing and needs no session.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	defer func() {
		if p := recover(); p != nil {
			s.log().WithField("panic", p).Error("insight engine panicked")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to generate insights"})
		}
	}()

	var req insightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	entries, logs := req.records()
	res, err := s.insights.Analyze(entries, logs, req.AnalysisType)
	if errors.Is(err, domain.ErrInvalidInput) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid analysis type"})
		return
	}
	if err != nil {
		s.log().WithError(err).Error("insight engine")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to generate insights"})
		return
	}

	recordRun(req.AnalysisType, len(res.Rejected))
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleInsightSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	days := intQuery(r, "days", app.DefaultSummaryDays)
	sum, err := s.insights.Summary(r.Context(), s.userID(r), days)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !sum.Cached {
		recordRun(string(domain.AnalysisPatterns), len(sum.Rejected))
	}
	writeJSON(w, http.StatusOK, sum)
}

func recordRun(analysisType string, rejected int) {
	t, err := domain.ParseAnalysisType(analysisType)
	if err != nil {
		return
	}
	insightRuns.WithLabelValues(string(t)).Inc()
	if rejected > 0 {
		insightRejected.Add(float64(rejected))
	}
}
