package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/memoryos/analytics-api/internal/models"
	"github.com/memoryos/analytics-api/internal/repository"
)

const (
	// engagementWindowDays is the trailing window for frequency and
	// consistency analysis
	engagementWindowDays = 30

	// weekWindowDays is the short window for recent-activity counts
	weekWindowDays = 7

	// streakLookbackDays bounds how far back streak and gap detection look
	streakLookbackDays = 90

	// maxGapsReturned caps the gap list at the most recent gaps
	maxGapsReturned = 10

	// noActivityDays is the sentinel for users with no recorded events
	noActivityDays = 999
)

type consistencyService struct {
	metricRepo repository.MetricRepository
}

// NewConsistencyService creates a new consistency service
func NewConsistencyService(metricRepo repository.MetricRepository) ConsistencyService {
	return &consistencyService{metricRepo: metricRepo}
}

// scoreBand maps a threshold to a sub-score. Bands are evaluated in order.
type scoreBand struct {
	limit int
	score float64
}

// recencyBands score low day-counts high; evaluated with scoreAtMost.
var recencyBands = []scoreBand{
	{0, 100},
	{1, 80},
	{2, 60},
	{3, 40},
	{7, 20},
}

// frequencyBands score high weekly event counts high; evaluated with
// scoreAtLeast. 14 events over 7 days is twice daily.
var frequencyBands = []scoreBand{
	{14, 100},
	{7, 80},
	{4, 60},
	{2, 40},
	{1, 20},
}

// streakBands score long consecutive-day runs high; 21 days is the
// habit-formation mark.
var streakBands = []scoreBand{
	{21, 100},
	{14, 80},
	{7, 60},
	{3, 40},
	{1, 20},
}

// scoreAtMost returns the score of the first band whose limit is >= value,
// or 0 past the last band.
func scoreAtMost(value int, bands []scoreBand) float64 {
	for _, b := range bands {
		if value <= b.limit {
			return b.score
		}
	}
	return 0
}

// scoreAtLeast returns the score of the first band whose limit is <= value,
// or 0 below the last band.
func scoreAtLeast(value int, bands []scoreBand) float64 {
	for _, b := range bands {
		if value >= b.limit {
			return b.score
		}
	}
	return 0
}

func (s *consistencyService) CalculateEngagementScore(ctx context.Context, userID string) (*models.EngagementScore, error) {
	now := time.Now()
	today := models.DateOf(now)

	latest, err := s.metricRepo.LatestDate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest activity date: %w", err)
	}

	daysSinceLast := noActivityDays
	if latest != nil {
		daysSinceLast = models.DateOf(*latest).DaysUntil(today)
	}

	events7d, err := s.metricRepo.CountSince(ctx, userID, now.AddDate(0, 0, -weekWindowDays))
	if err != nil {
		return nil, fmt.Errorf("failed to count recent events: %w", err)
	}

	events30d, err := s.metricRepo.CountSince(ctx, userID, now.AddDate(0, 0, -engagementWindowDays))
	if err != nil {
		return nil, fmt.Errorf("failed to count window events: %w", err)
	}

	dates, err := s.metricRepo.DistinctDates(ctx, userID, "", streakLookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity dates: %w", err)
	}
	streak := currentStreak(dates, today)

	recencyScore := scoreAtMost(daysSinceLast, recencyBands)
	frequencyScore := scoreAtLeast(events7d, frequencyBands)
	streakScore := scoreAtLeast(streak, streakBands)
	growthScore := scoreGrowth(events7d, events30d)

	// Weighted composite: recency dominates, growth is a nudge
	score := recencyScore*0.4 + frequencyScore*0.3 + streakScore*0.2 + growthScore*0.1

	return &models.EngagementScore{
		Score:     int(math.Round(score)),
		Trend:     determineTrend(score, daysSinceLast),
		RiskLevel: assessRisk(score, daysSinceLast),
		IsAtRisk:  daysSinceLast >= 3,
		Components: models.ScoreComponents{
			Recency:   int(math.Round(recencyScore)),
			Frequency: int(math.Round(frequencyScore)),
			Streak:    int(math.Round(streakScore)),
			Growth:    int(math.Round(growthScore)),
		},
		Stats: models.EngagementStats{
			DaysSinceLast: daysSinceLast,
			Events7d:      events7d,
			Events30d:     events30d,
			CurrentStreak: streak,
		},
	}, nil
}

// scoreGrowth compares recent volume against the 30-day run rate.
func scoreGrowth(events7d, events30d int) float64 {
	if events30d == 0 {
		return 0
	}

	expected7d := float64(events30d) / float64(engagementWindowDays) * float64(weekWindowDays)
	actual := float64(events7d)

	switch {
	case actual > expected7d*1.2:
		return 100
	case actual > expected7d:
		return 70
	case actual >= expected7d*0.8:
		return 50
	default:
		return 20
	}
}

// determineTrend classifies engagement direction. Absence beats score:
// a week of silence is inactive no matter how good the composite looks.
func determineTrend(score float64, daysSinceLast int) string {
	switch {
	case daysSinceLast >= 7:
		return models.TrendInactive
	case daysSinceLast >= 3:
		return models.TrendDeclining
	case score >= 70:
		return models.TrendIncreasing
	default:
		return models.TrendStable
	}
}

// assessRisk classifies churn risk from silence first, then score.
func assessRisk(score float64, daysSinceLast int) string {
	switch {
	case daysSinceLast >= 14:
		return models.RiskChurned
	case daysSinceLast >= 7:
		return models.RiskHigh
	case daysSinceLast >= 3:
		return models.RiskMedium
	case score < 40:
		return models.RiskLow
	default:
		return models.RiskNone
	}
}

// currentStreak counts consecutive activity days ending today or yesterday.
// dates must be distinct calendar dates, newest first.
func currentStreak(dates []time.Time, today models.Date) int {
	if len(dates) == 0 {
		return 0
	}

	newest := models.DateOf(dates[0])
	gap := newest.DaysUntil(today)
	if gap != 0 && gap != 1 {
		return 0
	}

	streak := 1
	for i := 0; i < len(dates)-1; i++ {
		if models.DateOf(dates[i+1]).DaysUntil(models.DateOf(dates[i])) == 1 {
			streak++
		} else {
			break
		}
	}

	return streak
}

func (s *consistencyService) CalculateCategoryConsistency(ctx context.Context, userID, category string) (*models.ConsistencyScore, error) {
	since := time.Now().AddDate(0, 0, -engagementWindowDays)

	metrics, err := s.metricRepo.ListSince(ctx, userID, category, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get category metrics: %w", err)
	}

	if len(metrics) == 0 {
		return &models.ConsistencyScore{ConsistencyScore: 0, HasData: false}, nil
	}

	// Bucket events by (date, hour); each bucket is one observation
	type dateHour struct {
		date time.Time
		hour int
	}
	buckets := make(map[dateHour]int)
	for _, m := range metrics {
		key := dateHour{date: m.OccurredOn.Time, hour: m.OccurredAt.Hour()}
		buckets[key]++
	}

	activeDates := make(map[time.Time]bool)
	rowsPerDate := make(map[time.Time]int)
	hours := make([]float64, 0, len(buckets))
	for key := range buckets {
		activeDates[key.date] = true
		rowsPerDate[key.date]++
		hours = append(hours, float64(key.hour))
	}

	activeDays := len(activeDates)
	frequency := float64(activeDays) / float64(engagementWindowDays)

	// Tight hour spread means a stable daily routine
	timeVariance := 0.0
	if len(hours) > 1 {
		timeVariance = sampleStdDev(hours)
	}
	timeConsistency := math.Max(0, 100-timeVariance*10)

	regularity := calculateRegularity(rowsPerDate)

	score := (frequency*0.4 + timeConsistency/100*0.3 + regularity*0.3) * 100

	totalDays := engagementWindowDays
	frequencyRate := round1(frequency * 100)
	timeScore := int(math.Round(timeConsistency))
	regularityScore := int(math.Round(regularity * 100))

	return &models.ConsistencyScore{
		ConsistencyScore: int(math.Round(score)),
		ActiveDays:       &activeDays,
		TotalDays:        &totalDays,
		FrequencyRate:    &frequencyRate,
		TimeConsistency:  &timeScore,
		Regularity:       &regularityScore,
		HasData:          true,
	}, nil
}

// calculateRegularity scores how evenly observations spread across active
// days, as 1 minus half the coefficient of variation, clamped to [0, 1].
func calculateRegularity(rowsPerDate map[time.Time]int) float64 {
	total := 0
	for _, n := range rowsPerDate {
		total += n
	}
	if total < 2 {
		return 0.5
	}

	counts := make([]float64, 0, len(rowsPerDate))
	for _, n := range rowsPerDate {
		counts = append(counts, float64(n))
	}

	m := mean(counts)
	if m == 0 {
		return 0
	}

	cv := sampleStdDev(counts) / m
	return math.Max(0, 1-cv/2)
}

func (s *consistencyService) DetectGaps(ctx context.Context, userID, category string) ([]models.Gap, error) {
	dates, err := s.metricRepo.DistinctDates(ctx, userID, category, streakLookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity dates: %w", err)
	}

	gaps := []models.Gap{}
	for i := 0; i < len(dates)-1; i++ {
		newer := models.DateOf(dates[i])
		older := models.DateOf(dates[i+1])

		diff := older.DaysUntil(newer)
		if diff <= 1 {
			continue
		}

		// The gap spans the missed days strictly between the two
		// observed dates
		gaps = append(gaps, models.Gap{
			StartDate: older.AddDays(1).Format(models.DateLayout),
			EndDate:   newer.AddDays(-1).Format(models.DateLayout),
			GapDays:   diff - 1,
			Severity:  gapSeverity(diff),
		})

		if len(gaps) >= maxGapsReturned {
			break
		}
	}

	return gaps, nil
}

// gapSeverity classifies a gap by the day difference between the two
// bounding activity dates.
func gapSeverity(diff int) string {
	switch {
	case diff > 7:
		return models.SeverityHigh
	case diff > 3:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
