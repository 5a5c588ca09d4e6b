package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/memoryos/analytics-api/internal/models"
	"github.com/memoryos/analytics-api/internal/repository"
)

const (
	// patternWindowDays is the trailing window pattern mining looks at
	patternWindowDays = 30

	// minPatternDays is the minimum distinct active days for a frequency
	// pattern
	minPatternDays = 3

	// minSpanDays is the minimum spread between first and last occurrence
	minSpanDays = 7

	// minHourlyCount is the minimum events in one hour bucket for that
	// hour to qualify as a peak
	minHourlyCount = 3

	// minConcentration is the share of events the peak hour must hold
	minConcentration = 0.5

	// minRegularity gates frequency patterns on evenness of occurrence
	minRegularity = 0.3
)

type patternService struct {
	memoryRepo repository.MemoryUnitRepository
}

// NewPatternService creates a new pattern service
func NewPatternService(memoryRepo repository.MemoryUnitRepository) PatternService {
	return &patternService{memoryRepo: memoryRepo}
}

// groupKey identifies one behavior stream: an activity within a category.
type groupKey struct {
	activity string
	category string
}

func (s *patternService) DetectFrequencyPatterns(ctx context.Context, userID, category string) ([]models.FrequencyPattern, error) {
	since := time.Now().AddDate(0, 0, -patternWindowDays)

	units, err := s.memoryRepo.ListValidatedSince(ctx, userID, category, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory units: %w", err)
	}

	// Per group, count occurrences per calendar date
	dailyByGroup := make(map[groupKey]map[time.Time]int)
	for _, u := range units {
		key := groupKey{activity: u.ActivityLabel, category: u.Category}
		if dailyByGroup[key] == nil {
			dailyByGroup[key] = make(map[time.Time]int)
		}
		dailyByGroup[key][models.DateOf(u.CreatedAt).Time]++
	}

	patterns := []models.FrequencyPattern{}
	for _, key := range sortedGroupKeys(dailyByGroup) {
		daily := dailyByGroup[key]
		if len(daily) < minPatternDays {
			continue
		}

		var first, last time.Time
		total := 0
		counts := make([]float64, 0, len(daily))
		for date, n := range daily {
			if first.IsZero() || date.Before(first) {
				first = date
			}
			if date.After(last) {
				last = date
			}
			total += n
			counts = append(counts, float64(n))
		}

		daysSpanned := models.DateOf(first).DaysUntil(models.DateOf(last)) + 1
		if daysSpanned < minSpanDays {
			continue
		}

		weeks := float64(daysSpanned) / 7
		perWeek := float64(total) / weeks

		// Even daily counts mean a habit, spiky ones mean bursts
		regularity := 1 - sampleStdDev(counts)/(mean(counts)+1)

		if perWeek < 1 || regularity <= minRegularity {
			continue
		}

		patterns = append(patterns, models.FrequencyPattern{
			PatternType:      models.PatternTypeFrequency,
			Category:         key.category,
			Activity:         key.activity,
			FrequencyPerWeek: round1(perWeek),
			RegularityScore:  round2(regularity),
			Confidence:       round2(math.Min(regularity, float64(total)/10)),
			Description:      fmt.Sprintf("You %s %.1fx per week on average", key.activity, round1(perWeek)),
			Evidence: models.FrequencyEvidence{
				SampleSize:  total,
				DaysSpanned: daysSpanned,
				Frequency:   round2(perWeek),
				Regularity:  round2(regularity),
			},
		})
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Confidence > patterns[j].Confidence
	})

	return patterns, nil
}

func (s *patternService) DetectTimePatterns(ctx context.Context, userID string) ([]models.TimePattern, error) {
	since := time.Now().AddDate(0, 0, -patternWindowDays)

	units, err := s.memoryRepo.ListValidatedSince(ctx, userID, "", since)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory units: %w", err)
	}

	// Per group, count occurrences per hour of day
	hoursByGroup := make(map[groupKey]*[24]int)
	for _, u := range units {
		key := groupKey{activity: u.ActivityLabel, category: u.Category}
		if hoursByGroup[key] == nil {
			hoursByGroup[key] = &[24]int{}
		}
		hoursByGroup[key][u.CreatedAt.Hour()]++
	}

	patterns := []models.TimePattern{}
	for _, key := range sortedGroupKeys(hoursByGroup) {
		hours := hoursByGroup[key]

		total := 0
		peakHour := -1
		peakCount := 0
		for h, n := range hours {
			total += n
			// Sparse hours can't be a peak; ties go to the earlier hour
			if n >= minHourlyCount && n > peakCount {
				peakHour = h
				peakCount = n
			}
		}

		if peakHour < 0 {
			continue
		}

		concentration := float64(peakCount) / float64(total)
		if concentration <= minConcentration {
			continue
		}

		patterns = append(patterns, models.TimePattern{
			PatternType:   models.PatternTypeTime,
			Category:      key.category,
			Activity:      key.activity,
			PeakHour:      peakHour,
			Concentration: round2(concentration),
			Confidence:    round2(math.Min(concentration, float64(peakCount)/10)),
			Description:   fmt.Sprintf("You usually %s around %s", key.activity, hourLabel(peakHour)),
			Evidence: models.TimeEvidence{
				SampleSize:    total,
				PeakCount:     peakCount,
				Concentration: round2(concentration),
				PeakHour:      peakHour,
			},
		})
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Confidence > patterns[j].Confidence
	})

	return patterns, nil
}

func (s *patternService) DetectAllPatterns(ctx context.Context, userID string) (*models.PatternSet, error) {
	frequency, err := s.DetectFrequencyPatterns(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	timePatterns, err := s.DetectTimePatterns(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.PatternSet{
		FrequencyPatterns: frequency,
		TimePatterns:      timePatterns,
	}, nil
}

// sortedGroupKeys returns map keys ordered by activity then category so
// iteration order is stable across runs.
func sortedGroupKeys[V any](m map[groupKey]V) []groupKey {
	keys := make([]groupKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].activity != keys[j].activity {
			return keys[i].activity < keys[j].activity
		}
		return keys[i].category < keys[j].category
	})
	return keys
}

// hourLabel renders an hour of day for pattern descriptions.
func hourLabel(hour int) string {
	switch {
	case hour == 0:
		return "Midnight"
	case hour == 12:
		return "Noon"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}

// mean returns the arithmetic mean, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev returns the sample standard deviation (n-1 divisor),
// or 0 with fewer than two values.
func sampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
