package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates (PostgreSQL date columns).
const DateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD.
// PostgREST returns date columns without a time component, which the
// standard time.Time JSON codec rejects.
type Date struct {
	time.Time
}

// NewDate builds a Date from year/month/day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// DaysUntil returns the whole number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// Metric is one normalized activity event row from the shared event log.
// The store adapter projects raw rows into this shape; analysis code never
// sees store-level representations.
type Metric struct {
	UserID     string    `json:"user_id"`
	Category   string    `json:"category"`
	OccurredOn Date      `json:"occurred_on"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Memory unit validation states.
const (
	MemoryStatusPending   = "pending"
	MemoryStatusValidated = "validated"
	MemoryStatusRejected  = "rejected"
)

// MemoryUnit is a validated activity record with a normalized action name.
// ActivityLabel is projected out of the unit's semi-structured payload by
// the store adapter.
type MemoryUnit struct {
	UserID        string    `json:"user_id"`
	Category      string    `json:"category"`
	ActivityLabel string    `json:"activity"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Engagement trend values, in order of precedence.
const (
	TrendInactive   = "inactive"
	TrendDeclining  = "declining"
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
)

// Churn risk levels.
const (
	RiskChurned = "churned"
	RiskHigh    = "high"
	RiskMedium  = "medium"
	RiskLow     = "low"
	RiskNone    = "none"
)

// ScoreComponents holds the rounded 0-100 sub-scores feeding the
// engagement score.
type ScoreComponents struct {
	Recency   int `json:"recency"`
	Frequency int `json:"frequency"`
	Streak    int `json:"streak"`
	Growth    int `json:"growth"`
}

// EngagementStats holds the raw inputs the sub-scores were derived from.
type EngagementStats struct {
	DaysSinceLast int `json:"days_since_last"`
	Events7d      int `json:"events_7d"`
	Events30d     int `json:"events_30d"`
	CurrentStreak int `json:"current_streak"`
}

// EngagementScore is the weighted recency/frequency/streak/growth composite
// summarizing a user's activity health. Derived per request, never stored.
type EngagementScore struct {
	Score      int             `json:"engagement_score"`
	Trend      string          `json:"trend"`
	RiskLevel  string          `json:"risk_level"`
	IsAtRisk   bool            `json:"is_at_risk"`
	Components ScoreComponents `json:"components"`
	Stats      EngagementStats `json:"stats"`
}

// ConsistencyScore measures how regularly a user logs activity in one
// category over a trailing 30-day window. The metric fields are pointers:
// nil when HasData is false, always set otherwise, so a no-data response
// carries only the score and flag while real results keep every field even
// at zero.
type ConsistencyScore struct {
	ConsistencyScore int      `json:"consistency_score"`
	ActiveDays       *int     `json:"active_days,omitempty"`
	TotalDays        *int     `json:"total_days,omitempty"`
	FrequencyRate    *float64 `json:"frequency_rate,omitempty"`
	TimeConsistency  *int     `json:"time_consistency,omitempty"`
	Regularity       *int     `json:"regularity,omitempty"`
	HasData          bool     `json:"has_data"`
}

// Gap severity labels.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Gap is a contiguous span of calendar days with no recorded activity,
// bounded by two observed activity dates. StartDate and EndDate are the
// first and last missed days.
type Gap struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	GapDays   int    `json:"gap_days"`
	Severity  string `json:"severity"`
}

// Pattern type discriminators.
const (
	PatternTypeFrequency = "frequency"
	PatternTypeTime      = "time_preference"
)

// FrequencyEvidence carries the raw statistics behind a frequency pattern
// for auditability.
type FrequencyEvidence struct {
	SampleSize  int     `json:"sample_size"`
	DaysSpanned int     `json:"days_spanned"`
	Frequency   float64 `json:"frequency"`
	Regularity  float64 `json:"regularity"`
}

// FrequencyPattern describes a recurring "does X about N times per week"
// behavior, ranked by confidence.
type FrequencyPattern struct {
	PatternType      string            `json:"pattern_type"`
	Category         string            `json:"category"`
	Activity         string            `json:"activity"`
	FrequencyPerWeek float64           `json:"frequency_per_week"`
	RegularityScore  float64           `json:"regularity_score"`
	Confidence       float64           `json:"confidence"`
	Description      string            `json:"description"`
	Evidence         FrequencyEvidence `json:"evidence"`
}

// TimeEvidence carries the raw statistics behind a time-preference pattern.
type TimeEvidence struct {
	SampleSize    int     `json:"sample_size"`
	PeakCount     int     `json:"peak_count"`
	Concentration float64 `json:"concentration"`
	PeakHour      int     `json:"peak_hour"`
}

// TimePattern describes a "usually does X around HH" time-of-day
// preference, ranked by confidence.
type TimePattern struct {
	PatternType   string       `json:"pattern_type"`
	Category      string       `json:"category"`
	Activity      string       `json:"activity"`
	PeakHour      int          `json:"peak_hour"`
	Concentration float64      `json:"concentration"`
	Confidence    float64      `json:"confidence"`
	Description   string       `json:"description"`
	Evidence      TimeEvidence `json:"evidence"`
}

// PatternSet bundles both pattern families for the combined endpoint.
type PatternSet struct {
	FrequencyPatterns []FrequencyPattern `json:"frequency_patterns"`
	TimePatterns      []TimePattern      `json:"time_patterns"`
}
