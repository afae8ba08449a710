package domain_test

import (
	"errors"
	"reflect"
	"slices"
	"testing"
	"time"

	"noteflow/internal/domain"
)

const (
	sunday  = "2024-01-07"
	monday  = "2024-01-08"
	tuesday = "2024-01-09"
)

func entry(date string, mood, craving int, triggers ...string) domain.JournalEntry {
	return domain.JournalEntry{Date: date, Mood: mood, CravingLevel: craving, Triggers: triggers}
}

func moodEntries(moods ...int) []domain.JournalEntry {
	out := make([]domain.JournalEntry, 0, len(moods))
	for _, m := range moods {
		out = append(out, entry(monday, m, 5))
	}
	return out
}

func compute(t *testing.T, entries []domain.JournalEntry, logs int) domain.InsightResult {
	t.Helper()
	res, err := domain.ComputeInsights(entries, make([]domain.SubstanceLog, logs), domain.AnalysisPatterns)
	if err != nil {
		t.Fatalf("ComputeInsights: %v", err)
	}
	return res
}

func TestComputeInsights_Empty(t *testing.T) {
	for _, at := range []domain.AnalysisType{domain.AnalysisPatterns, domain.AnalysisRisk, domain.AnalysisSuggestions, ""} {
		t.Run(string(at), func(t *testing.T) {
			res, err := domain.ComputeInsights(nil, nil, at)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(res.Insights, []string{domain.MsgKeepLogging}) {
				t.Errorf("insights = %v; want fallback only", res.Insights)
			}
			if res.Patterns == nil || len(res.Patterns) != 0 {
				t.Errorf("patterns = %#v; want empty non-nil slice", res.Patterns)
			}
			if res.RiskLevel != 0 {
				t.Errorf("riskLevel = %d; want 0", res.RiskLevel)
			}
		})
	}
}

func TestComputeInsights_LogsWithoutEntries(t *testing.T) {
	res := compute(t, nil, 30)
	if res.RiskLevel != 0 {
		t.Errorf("riskLevel = %d; want 0 with no entries", res.RiskLevel)
	}
	if len(res.Insights) != 1 || res.Insights[0] != domain.MsgKeepLogging {
		t.Errorf("insights = %v; want fallback", res.Insights)
	}
}

func TestComputeInsights_MoodBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		moods []int
		msg   string
		want  bool
	}{
		{"mean 7 positive", []int{7, 7, 7}, domain.MsgPositiveMood, true},
		{"mean 6.67 not positive", []int{7, 7, 6}, domain.MsgPositiveMood, false},
		{"mean 4.5 low", []int{4, 5}, domain.MsgLowMood, true},
		{"mean 5 not low", []int{5, 5}, domain.MsgLowMood, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := compute(t, moodEntries(tc.moods...), 0)
			if got := slices.Contains(res.Insights, tc.msg); got != tc.want {
				t.Errorf("contains %q = %v; want %v (insights %v)", tc.msg, got, tc.want, res.Insights)
			}
		})
	}
}

func TestComputeInsights_CravingBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		cravings []int
		msg      string
		want     bool
	}{
		{"mean 3 managed", []int{3, 3}, domain.MsgCravingsManaged, true},
		{"mean 3.5 not managed", []int{3, 4}, domain.MsgCravingsManaged, false},
		{"mean 7 high", []int{7, 7}, domain.MsgHighCravings, true},
		{"mean 6.5 not high", []int{6, 7}, domain.MsgHighCravings, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var entries []domain.JournalEntry
			for _, c := range tc.cravings {
				entries = append(entries, entry(monday, 6, c))
			}
			res := compute(t, entries, 0)
			if got := slices.Contains(res.Insights, tc.msg); got != tc.want {
				t.Errorf("contains %q = %v; want %v (insights %v)", tc.msg, got, tc.want, res.Insights)
			}
		})
	}
}

func TestComputeInsights_FallbackIsExclusive(t *testing.T) {
	res := compute(t, []domain.JournalEntry{entry(monday, 5, 5), entry(tuesday, 6, 4)}, 0)
	if !reflect.DeepEqual(res.Insights, []string{domain.MsgKeepLogging}) {
		t.Fatalf("insights = %v; want fallback only", res.Insights)
	}

	res = compute(t, []domain.JournalEntry{entry(monday, 8, 5)}, 0)
	if slices.Contains(res.Insights, domain.MsgKeepLogging) {
		t.Fatalf("fallback mixed with other insights: %v", res.Insights)
	}
}

func TestComputeInsights_Risk(t *testing.T) {
	tests := []struct {
		name     string
		cravings []int
		logs     int
		want     int
	}{
		{"clamped at 10", []int{9, 9}, 20, 10},
		{"half rounds up", []int{4, 5}, 0, 5},
		{"logs add a tenth each", []int{3}, 4, 3},
		{"logs push over half", []int{3}, 5, 4},
		{"minimum craving", []int{1}, 0, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var entries []domain.JournalEntry
			for _, c := range tc.cravings {
				entries = append(entries, entry(monday, 6, c))
			}
			if got := compute(t, entries, tc.logs).RiskLevel; got != tc.want {
				t.Errorf("riskLevel = %d; want %d", got, tc.want)
			}
		})
	}
}

func TestComputeInsights_TriggerRanking(t *testing.T) {
	entries := []domain.JournalEntry{
		entry(monday, 6, 5, "A", "B"),
		entry(monday, 6, 5, "A"),
		entry(monday, 6, 5, "B"),
		entry(monday, 6, 5, "B"),
	}
	want := []domain.Pattern{{Label: "B", Value: 3}, {Label: "A", Value: 2}}
	if got := compute(t, entries, 0).Patterns; !reflect.DeepEqual(got, want) {
		t.Fatalf("patterns = %v; want %v", got, want)
	}
}

func TestComputeInsights_TriggerTruncationAndTies(t *testing.T) {
	entries := []domain.JournalEntry{
		entry(monday, 6, 5, "h", "g", "f", "e", "d", "c", "b", "a"),
		entry(monday, 6, 5, "a", "a"),
	}
	got := compute(t, entries, 0).Patterns
	want := []domain.Pattern{
		{Label: "a", Value: 3},
		{Label: "h", Value: 1},
		{Label: "g", Value: 1},
		{Label: "f", Value: 1},
		{Label: "e", Value: 1},
		{Label: "d", Value: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("patterns = %v; want %v", got, want)
	}
}

func TestComputeInsights_EntryWithoutTriggers(t *testing.T) {
	res := compute(t, []domain.JournalEntry{{Date: monday, Mood: 6, CravingLevel: 5}}, 0)
	if len(res.Patterns) != 0 {
		t.Fatalf("patterns = %v; want none", res.Patterns)
	}
}

func TestComputeInsights_WeekdayHotspot(t *testing.T) {
	res := compute(t, []domain.JournalEntry{
		entry(monday, 6, 3),
		entry(tuesday, 6, 9),
		entry(tuesday, 6, 7),
	}, 0)
	if !slices.Contains(res.Insights, domain.HotspotMessage(time.Tuesday)) {
		t.Fatalf("expected Tuesday hotspot, got %v", res.Insights)
	}

	res = compute(t, []domain.JournalEntry{entry(monday, 6, 5), entry(tuesday, 6, 4)}, 0)
	for _, in := range res.Insights {
		if in != domain.MsgKeepLogging {
			t.Fatalf("unexpected insight for max mean 5: %q", in)
		}
	}
}

func TestComputeInsights_WeekdayTieBreak(t *testing.T) {
	forward := []domain.JournalEntry{entry(monday, 6, 8), entry(sunday, 6, 8), entry(tuesday, 6, 2)}
	backward := []domain.JournalEntry{entry(tuesday, 6, 2), entry(sunday, 6, 8), entry(monday, 6, 8)}

	for name, entries := range map[string][]domain.JournalEntry{"forward": forward, "backward": backward} {
		t.Run(name, func(t *testing.T) {
			res := compute(t, entries, 0)
			if !slices.Contains(res.Insights, domain.HotspotMessage(time.Sunday)) {
				t.Fatalf("expected Sunday to win the tie, got %v", res.Insights)
			}
			if slices.Contains(res.Insights, domain.HotspotMessage(time.Monday)) {
				t.Fatalf("Monday must not be named: %v", res.Insights)
			}
		})
	}
}

func TestComputeInsights_OrderIndependent(t *testing.T) {
	entries := []domain.JournalEntry{
		entry(sunday, 8, 9, "stress"),
		entry(monday, 7, 2, "party"),
		entry(tuesday, 9, 6, "stress", "boredom"),
		entry("2024-01-14", 7, 9),
	}
	reversed := slices.Clone(entries)
	slices.Reverse(reversed)

	a := compute(t, entries, 3)
	b := compute(t, reversed, 3)
	if !reflect.DeepEqual(a.Insights, b.Insights) {
		t.Errorf("insights differ: %v vs %v", a.Insights, b.Insights)
	}
	if a.RiskLevel != b.RiskLevel {
		t.Errorf("riskLevel differs: %d vs %d", a.RiskLevel, b.RiskLevel)
	}
	counts := func(ps []domain.Pattern) map[string]int {
		m := make(map[string]int)
		for _, p := range ps {
			m[p.Label] = p.Value
		}
		return m
	}
	if !reflect.DeepEqual(counts(a.Patterns), counts(b.Patterns)) {
		t.Errorf("patterns differ: %v vs %v", a.Patterns, b.Patterns)
	}
}

func TestComputeInsights_Idempotent(t *testing.T) {
	entries := []domain.JournalEntry{entry(sunday, 3, 8, "a"), entry(monday, 4, 7, "b")}
	first := compute(t, entries, 2)
	second := compute(t, entries, 2)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ: %+v vs %+v", first, second)
	}
}

func TestComputeInsights_RejectsInvalidEntries(t *testing.T) {
	entries := []domain.JournalEntry{
		entry(monday, 8, 2, "walk"),
		{ID: "bad-mood", Date: monday, Mood: 11, CravingLevel: 2},
		{ID: "bad-craving", Date: monday, Mood: 5, CravingLevel: 0},
		{ID: "bad-date", Date: "last tuesday", Mood: 5, CravingLevel: 5},
		entry(tuesday, 8, 2),
	}
	res := compute(t, entries, 0)

	if len(res.Rejected) != 3 {
		t.Fatalf("rejected = %v; want 3", res.Rejected)
	}
	wantIdx := []int{1, 2, 3}
	for i, r := range res.Rejected {
		if r.Index != wantIdx[i] {
			t.Errorf("rejected[%d].Index = %d; want %d", i, r.Index, wantIdx[i])
		}
		if r.Reason == "" {
			t.Errorf("rejected[%d] has empty reason", i)
		}
	}
	if !slices.Contains(res.Insights, domain.MsgPositiveMood) || !slices.Contains(res.Insights, domain.MsgCravingsManaged) {
		t.Errorf("valid entries not analyzed: %v", res.Insights)
	}
	if res.RiskLevel != 2 {
		t.Errorf("riskLevel = %d; want 2", res.RiskLevel)
	}
}

func TestComputeInsights_AllRejected(t *testing.T) {
	res := compute(t, []domain.JournalEntry{{Date: monday, Mood: 0, CravingLevel: 12}}, 5)
	if res.RiskLevel != 0 || len(res.Insights) != 1 || res.Insights[0] != domain.MsgKeepLogging {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestComputeInsights_UnknownAnalysisType(t *testing.T) {
	_, err := domain.ComputeInsights(nil, nil, "forecast")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v; want ErrInvalidInput", err)
	}
}

func TestComputeInsights_TimestampDates(t *testing.T) {
	// 23:30 at -05:00 is still Sunday where it was written.
	res := compute(t, []domain.JournalEntry{entry("2024-01-07T23:30:00-05:00", 6, 9)}, 0)
	if !slices.Contains(res.Insights, domain.HotspotMessage(time.Sunday)) {
		t.Fatalf("expected Sunday hotspot, got %v", res.Insights)
	}
}

func TestRankSubstances(t *testing.T) {
	logs := []domain.SubstanceLog{
		{Substance: "alcohol", Quantity: 2},
		{Substance: "nicotine", Quantity: 5},
		{Substance: "alcohol", Quantity: 4},
		{Substance: "cannabis", Quantity: 1},
	}
	got := domain.RankSubstances(logs, 2)
	want := []domain.Quantity{{Label: "alcohol", Value: 6}, {Label: "nicotine", Value: 5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RankSubstances = %v; want %v", got, want)
	}
}

func TestRiskBand(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{0, "low"}, {3, "low"}, {4, "moderate"}, {6, "moderate"}, {7, "high"}, {10, "high"},
	}
	for _, tc := range tests {
		if got := domain.RiskBand(tc.level); got != tc.want {
			t.Errorf("RiskBand(%d) = %q; want %q", tc.level, got, tc.want)
		}
	}
}
