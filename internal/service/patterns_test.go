package service

import (
	"context"
	"testing"
	"time"

	"github.com/memoryos/analytics-api/internal/models"
)

// mockMemoryUnitRepository is a mock implementation of MemoryUnitRepository
// backed by an in-memory slice
type mockMemoryUnitRepository struct {
	units []models.MemoryUnit
}

func newMockMemoryUnitRepository(units ...models.MemoryUnit) *mockMemoryUnitRepository {
	return &mockMemoryUnitRepository{units: units}
}

func (m *mockMemoryUnitRepository) ListValidatedSince(ctx context.Context, userID, category string, since time.Time) ([]models.MemoryUnit, error) {
	var result []models.MemoryUnit
	for _, u := range m.units {
		if u.UserID != userID {
			continue
		}
		if category != "" && u.Category != category {
			continue
		}
		if u.CreatedAt.Before(since) {
			continue
		}
		result = append(result, u)
	}
	return result, nil
}

// unitAt builds a validated memory unit daysAgo days in the past at the
// given hour
func unitAt(activity, category string, daysAgo, hour int) models.MemoryUnit {
	d := time.Now().AddDate(0, 0, -daysAgo)
	return models.MemoryUnit{
		UserID:        testUserID,
		Category:      category,
		ActivityLabel: activity,
		Status:        models.MemoryStatusValidated,
		CreatedAt:     time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC),
	}
}

func TestDetectFrequencyPatternsDailyHabit(t *testing.T) {
	// One meditation per day for 14 days
	var units []models.MemoryUnit
	for daysAgo := 0; daysAgo < 14; daysAgo++ {
		units = append(units, unitAt("meditate", "wellness", daysAgo, 6))
	}
	svc := NewPatternService(newMockMemoryUnitRepository(units...))

	patterns, err := svc.DetectFrequencyPatterns(context.Background(), testUserID, "")
	if err != nil {
		t.Fatalf("DetectFrequencyPatterns failed: %v", err)
	}

	if len(patterns) != 1 {
		t.Fatalf("Expected 1 pattern, got %d", len(patterns))
	}

	p := patterns[0]
	if p.PatternType != models.PatternTypeFrequency {
		t.Errorf("Expected pattern_type=%q, got %q", models.PatternTypeFrequency, p.PatternType)
	}
	if p.Activity != "meditate" {
		t.Errorf("Expected activity=meditate, got %q", p.Activity)
	}
	if p.Category != "wellness" {
		t.Errorf("Expected category=wellness, got %q", p.Category)
	}
	if p.FrequencyPerWeek != 7.0 {
		t.Errorf("Expected frequency_per_week=7.0, got %v", p.FrequencyPerWeek)
	}
	if p.RegularityScore != 1.0 {
		t.Errorf("Expected regularity_score=1.0, got %v", p.RegularityScore)
	}
	if p.Confidence != 1.0 {
		t.Errorf("Expected confidence=1.0, got %v", p.Confidence)
	}
	if p.Description != "You meditate 7.0x per week on average" {
		t.Errorf("Unexpected description: %q", p.Description)
	}
	if p.Evidence.SampleSize != 14 {
		t.Errorf("Expected sample_size=14, got %d", p.Evidence.SampleSize)
	}
	if p.Evidence.DaysSpanned != 14 {
		t.Errorf("Expected days_spanned=14, got %d", p.Evidence.DaysSpanned)
	}
}

func TestDetectFrequencyPatternsTooFewDays(t *testing.T) {
	svc := NewPatternService(newMockMemoryUnitRepository(
		unitAt("run", "fitness", 0, 7),
		unitAt("run", "fitness", 8, 7),
	))

	patterns, err := svc.DetectFrequencyPatterns(context.Background(), testUserID, "")
	if err != nil {
		t.Fatalf("DetectFrequencyPatterns failed: %v", err)
	}

	if len(patterns) != 0 {
		t.Errorf("Expected no patterns for 2 active days, got %d", len(patterns))
	}
}

func TestDetectFrequencyPatternsShortSpan(t *testing.T) {
	// Three active days but all within 5 days
	svc := NewPatternService(newMockMemoryUnitRepository(
		unitAt("run", "fitness", 0, 7),
		unitAt("run", "fitness", 2, 7),
		unitAt("run", "fitness", 4, 7),
	))

	patterns, err := svc.DetectFrequencyPatterns(context.Background(), testUserID, "")
	if err != nil {
		t.Fatalf("DetectFrequencyPatterns failed: %v", err)
	}

	if len(patterns) != 0 {
		t.Errorf("Expected no patterns for a 5-day span, got %d", len(patterns))
	}
}

func TestDetectFrequencyPatternsIrregularFiltered(t *testing.T) {
	// A burst day followed by trickles is not a habit
	var units []models.MemoryUnit
	for i := 0; i < 10; i++ {
		units = append(units, unitAt("journal", "wellness", 0, 8+i%4))
	}
	units = append(units, unitAt("journal", "wellness", 7, 8))
	units = append(units, unitAt("journal", "wellness", 9, 8))
	svc := NewPatternService(newMockMemoryUnitRepository(units...))

	patterns, err := svc.DetectFrequencyPatterns(context.Background(), testUserID, "")
	if err != nil {
		t.Fatalf("DetectFrequencyPatterns failed: %v", err)
	}

	if len(patterns) != 0 {
		t.Errorf("Expected irregular activity to be filtered, got %d patterns", len(patterns))
	}
}

func TestDetectFrequencyPatternsCategoryScoped(t *testing.T) {
	var units []models.MemoryUnit
	for daysAgo := 0; daysAgo < 10; daysAgo++ {
		units = append(units, unitAt("meditate", "wellness", daysAgo, 6))
		units = append(units, unitAt("run", "fitness", daysAgo, 18))
	}
	svc := NewPatternService(newMockMemoryUnitRepository(units...))

	patterns, err := svc.DetectFrequencyPatterns(context.Background(), testUserID, "fitness")
	if err != nil {
		t.Fatalf("DetectFrequencyPatterns failed: %v", err)
	}

	if len(patterns) != 1 {
		t.Fatalf("Expected 1 pattern scoped to fitness, got %d", len(patterns))
	}
	if patterns[0].Activity != "run" {
		t.Errorf("Expected activity=run, got %q", patterns[0].Activity)
	}
}

func TestDetectFrequencyPatternsSortedByConfidence(t *testing.T) {
	var units []models.MemoryUnit
	// Daily habit with a big sample: confidence 1.0
	for daysAgo := 0; daysAgo < 14; daysAgo++ {
		units = append(units, unitAt("meditate", "wellness", daysAgo, 6))
	}
	// Sparse but regular habit: confidence capped by sample size
	for daysAgo := 0; daysAgo < 8; daysAgo += 2 {
		units = append(units, unitAt("run", "fitness", daysAgo, 18))
	}
	svc := NewPatternService(newMockMemoryUnitRepository(units...))

	patterns, err := svc.DetectFrequencyPatterns(context.Background(), testUserID, "")
	if err != nil {
		t.Fatalf("DetectFrequencyPatterns failed: %v", err)
	}

	if len(patterns) != 2 {
		t.Fatalf("Expected 2 patterns, got %d", len(patterns))
	}
	if patterns[0].Confidence < patterns[1].Confidence {
		t.Errorf("Patterns not sorted by confidence: %v then %v",
			patterns[0].Confidence, patterns[1].Confidence)
	}
	if patterns[0].Activity != "meditate" {
		t.Errorf("Expected highest-confidence pattern first, got %q", patterns[0].Activity)
	}
}

func TestDetectFrequencyPatternsNoData(t *testing.T) {
	svc := NewPatternService(newMockMemoryUnitRepository())

	patterns, err := svc.DetectFrequencyPatterns(context.Background(), testUserID, "")
	if err != nil {
		t.Fatalf("DetectFrequencyPatterns failed: %v", err)
	}

	if len(patterns) != 0 {
		t.Errorf("Expected no patterns, got %d", len(patterns))
	}
}

func TestDetectTimePatternsMorningPeak(t *testing.T) {
	// 8 meditations at 6 AM, 2 at 2 PM
	var units []models.MemoryUnit
	for i := 0; i < 8; i++ {
		units = append(units, unitAt("meditate", "wellness", i, 6))
	}
	units = append(units, unitAt("meditate", "wellness", 8, 14))
	units = append(units, unitAt("meditate", "wellness", 9, 14))
	svc := NewPatternService(newMockMemoryUnitRepository(units...))

	patterns, err := svc.DetectTimePatterns(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("DetectTimePatterns failed: %v", err)
	}

	if len(patterns) != 1 {
		t.Fatalf("Expected 1 pattern, got %d", len(patterns))
	}

	p := patterns[0]
	if p.PatternType != models.PatternTypeTime {
		t.Errorf("Expected pattern_type=%q, got %q", models.PatternTypeTime, p.PatternType)
	}
	if p.PeakHour != 6 {
		t.Errorf("Expected peak_hour=6, got %d", p.PeakHour)
	}
	if p.Concentration != 0.8 {
		t.Errorf("Expected concentration=0.8, got %v", p.Concentration)
	}
	if p.Confidence != 0.8 {
		t.Errorf("Expected confidence=0.8, got %v", p.Confidence)
	}
	if p.Description != "You usually meditate around 6 AM" {
		t.Errorf("Unexpected description: %q", p.Description)
	}
	if p.Evidence.SampleSize != 10 {
		t.Errorf("Expected sample_size=10, got %d", p.Evidence.SampleSize)
	}
	if p.Evidence.PeakCount != 8 {
		t.Errorf("Expected peak_count=8, got %d", p.Evidence.PeakCount)
	}
}

func TestDetectTimePatternsNoQualifyingHour(t *testing.T) {
	// No hour reaches the minimum bucket count
	svc := NewPatternService(newMockMemoryUnitRepository(
		unitAt("journal", "wellness", 0, 6),
		unitAt("journal", "wellness", 1, 6),
		unitAt("journal", "wellness", 2, 14),
		unitAt("journal", "wellness", 3, 14),
	))

	patterns, err := svc.DetectTimePatterns(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("DetectTimePatterns failed: %v", err)
	}

	if len(patterns) != 0 {
		t.Errorf("Expected no patterns without a qualifying peak hour, got %d", len(patterns))
	}
}

func TestDetectTimePatternsDilutedPeak(t *testing.T) {
	// Peak hour holds 3 of 7 events: below the concentration bar
	var units []models.MemoryUnit
	for i := 0; i < 3; i++ {
		units = append(units, unitAt("journal", "wellness", i, 6))
	}
	for i, hour := range []int{9, 12, 15, 20} {
		units = append(units, unitAt("journal", "wellness", 3+i, hour))
	}
	svc := NewPatternService(newMockMemoryUnitRepository(units...))

	patterns, err := svc.DetectTimePatterns(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("DetectTimePatterns failed: %v", err)
	}

	if len(patterns) != 0 {
		t.Errorf("Expected diluted peak to be filtered, got %d patterns", len(patterns))
	}
}

func TestDetectTimePatternsMidnightAndNoon(t *testing.T) {
	var units []models.MemoryUnit
	for i := 0; i < 4; i++ {
		units = append(units, unitAt("journal", "wellness", i, 0))
		units = append(units, unitAt("lunch walk", "fitness", i, 12))
	}
	svc := NewPatternService(newMockMemoryUnitRepository(units...))

	patterns, err := svc.DetectTimePatterns(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("DetectTimePatterns failed: %v", err)
	}

	if len(patterns) != 2 {
		t.Fatalf("Expected 2 patterns, got %d", len(patterns))
	}

	descriptions := map[string]bool{}
	for _, p := range patterns {
		descriptions[p.Description] = true
	}
	if !descriptions["You usually journal around Midnight"] {
		t.Errorf("Missing midnight description, got %v", descriptions)
	}
	if !descriptions["You usually lunch walk around Noon"] {
		t.Errorf("Missing noon description, got %v", descriptions)
	}
}

func TestDetectAllPatterns(t *testing.T) {
	var units []models.MemoryUnit
	for daysAgo := 0; daysAgo < 14; daysAgo++ {
		units = append(units, unitAt("meditate", "wellness", daysAgo, 6))
	}
	svc := NewPatternService(newMockMemoryUnitRepository(units...))

	set, err := svc.DetectAllPatterns(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("DetectAllPatterns failed: %v", err)
	}

	if len(set.FrequencyPatterns) != 1 {
		t.Errorf("Expected 1 frequency pattern, got %d", len(set.FrequencyPatterns))
	}
	if len(set.TimePatterns) != 1 {
		t.Errorf("Expected 1 time pattern, got %d", len(set.TimePatterns))
	}
}

func TestHourLabel(t *testing.T) {
	cases := []struct {
		hour     int
		expected string
	}{
		{0, "Midnight"},
		{1, "1 AM"},
		{6, "6 AM"},
		{11, "11 AM"},
		{12, "Noon"},
		{13, "1 PM"},
		{18, "6 PM"},
		{23, "11 PM"},
	}

	for _, tc := range cases {
		if got := hourLabel(tc.hour); got != tc.expected {
			t.Errorf("hourLabel(%d): expected %q, got %q", tc.hour, tc.expected, got)
		}
	}
}

func TestSampleStdDev(t *testing.T) {
	cases := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"single value", []float64{5}, 0},
		{"identical values", []float64{2, 2, 2, 2}, 0},
		{"two values", []float64{1, 3}, 1.4142135623730951},
	}

	for _, tc := range cases {
		if got := sampleStdDev(tc.values); got != tc.expected {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}
