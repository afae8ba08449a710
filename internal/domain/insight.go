package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// AnalysisType selects which part of an InsightResult a caller intends to
// display. Every result is computed in full regardless.
type AnalysisType string

// Known analysis types.
const (
	AnalysisPatterns    AnalysisType = "patterns"
	AnalysisRisk        AnalysisType = "risk"
	AnalysisSuggestions AnalysisType = "suggestions"
)

const (
	// MaxPatterns caps the ranked breakdowns.
	MaxPatterns = 6
	// MaxRisk is the upper bound of the risk score.
	MaxRisk = 10

	riskPerLog       = 0.1
	hotspotThreshold = 5.0
)

// Insight messages.
const (
	MsgPositiveMood    = "Your mood has been consistently positive. Keep up the great work!"
	MsgLowMood         = "Your mood has been low. Consider reaching out to your support network."
	MsgCravingsManaged = "Cravings are well managed. Your coping strategies are working effectively."
	MsgHighCravings    = "High craving levels detected. Review your triggers and consider additional support."
	MsgKeepLogging     = "Keep logging your entries to receive personalized insights."
)

// ParseAnalysisType validates s. An empty string means AnalysisPatterns.
func ParseAnalysisType(s string) (AnalysisType, error) {
	switch t := AnalysisType(strings.TrimSpace(s)); t {
	case "":
		return AnalysisPatterns, nil
	case AnalysisPatterns, AnalysisRisk, AnalysisSuggestions:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown analysis type %q", ErrInvalidInput, s)
}

// Pattern is a label with its occurrence count.
type Pattern struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Quantity is a label with a summed amount.
type Quantity struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Rejection describes an entry left out of the analysis.
type Rejection struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// InsightResult is the output of ComputeInsights.
type InsightResult struct {
	Insights  []string    `json:"insights"`
	Patterns  []Pattern   `json:"patterns"`
	RiskLevel int         `json:"riskLevel"`
	Rejected  []Rejection `json:"rejected,omitempty"`
}

// HotspotMessage is the insight naming the weekday with the highest cravings.
func HotspotMessage(day time.Weekday) string {
	return fmt.Sprintf("Cravings tend to be highest on %ss. Plan extra support for these days.", day)
}

// ComputeInsights summarizes journal entries and substance logs. Entries with
// an out-of-range mood or craving level, or an unparseable date, are skipped
// and reported in Rejected; the remaining entries are still analyzed. The
// only error is an unknown analysis type.
//
// Insights and risk do not depend on the order of entries.
func ComputeInsights(entries []JournalEntry, logs []SubstanceLog, analysisType AnalysisType) (InsightResult, error) {
	if _, err := ParseAnalysisType(string(analysisType)); err != nil {
		return InsightResult{}, err
	}

	res := InsightResult{Insights: []string{}}

	var (
		moodSum, cravingSum float64
		daySum              [7]float64
		dayCount            [7]int
		triggers            = make([][]string, 0, len(entries))
	)
	n := 0
	for i, e := range entries {
		if err := ValidateEntry(e); err != nil {
			res.Rejected = append(res.Rejected, Rejection{Index: i, ID: e.ID, Reason: err.Error()})
			continue
		}
		wd, _ := EntryWeekday(e.Date)
		n++
		moodSum += float64(e.Mood)
		cravingSum += float64(e.CravingLevel)
		daySum[wd] += float64(e.CravingLevel)
		dayCount[wd]++
		triggers = append(triggers, e.Triggers)
	}

	res.Patterns = RankLabels(triggers, MaxPatterns)

	if n > 0 {
		avgMood := moodSum / float64(n)
		avgCraving := cravingSum / float64(n)

		switch {
		case avgMood >= 7:
			res.Insights = append(res.Insights, MsgPositiveMood)
		case avgMood < 5:
			res.Insights = append(res.Insights, MsgLowMood)
		}

		switch {
		case avgCraving <= 3:
			res.Insights = append(res.Insights, MsgCravingsManaged)
		case avgCraving >= 7:
			res.Insights = append(res.Insights, MsgHighCravings)
		}

		maxDay, maxAvg := -1, 0.0
		for d := range 7 {
			if dayCount[d] == 0 {
				continue
			}
			avg := daySum[d] / float64(dayCount[d])
			if maxDay < 0 || avg > maxAvg {
				maxDay, maxAvg = d, avg
			}
		}
		if maxDay >= 0 && maxAvg > hotspotThreshold {
			res.Insights = append(res.Insights, HotspotMessage(time.Weekday(maxDay)))
		}

		res.RiskLevel = riskScore(avgCraving, len(logs))
	}

	if len(res.Insights) == 0 {
		res.Insights = append(res.Insights, MsgKeepLogging)
	}
	return res, nil
}

// riskScore rounds half up and clamps to [0, MaxRisk].
func riskScore(avgCraving float64, logCount int) int {
	raw := math.Floor(avgCraving + riskPerLog*float64(logCount) + 0.5)
	return int(math.Max(0, math.Min(MaxRisk, raw)))
}

// RankLabels counts every label across the lists (a label repeated within
// one list counts each time), orders by count descending with ties broken by
// first appearance, and truncates to limit. limit <= 0 keeps everything.
func RankLabels(lists [][]string, limit int) []Pattern {
	out := make([]Pattern, 0)
	index := make(map[string]int)
	for _, list := range lists {
		for _, label := range list {
			if i, ok := index[label]; ok {
				out[i].Value++
				continue
			}
			index[label] = len(out)
			out = append(out, Pattern{Label: label, Value: 1})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RankSubstances sums logged quantity per substance, ordered like RankLabels.
func RankSubstances(logs []SubstanceLog, limit int) []Quantity {
	out := make([]Quantity, 0)
	index := make(map[string]int)
	for _, l := range logs {
		if i, ok := index[l.Substance]; ok {
			out[i].Value += l.Quantity
			continue
		}
		index[l.Substance] = len(out)
		out = append(out, Quantity{Label: l.Substance, Value: l.Quantity})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RiskBand buckets a risk level for display.
func RiskBand(level int) string {
	switch {
	case level <= 3:
		return "low"
	case level <= 6:
		return "moderate"
	default:
		return "high"
	}
}
