package srs

import (
	"math"
	"time"

	"github.com/capsched/capsched/internal/domain"
)

// Policy holds the tunable constants of the scheduling model. The numbers
// here are a starting point; everything that affects scheduling behaviour
// lives in this table so it can be adjusted without touching the algorithms.
type Policy struct {
	// Intervals maps a review stage to its due interval in days.
	// Index 0 must be 0 (new capsules are due immediately) and the
	// sequence must be non-decreasing. Stages past the end of the table
	// hold at the final value.
	Intervals []int

	// RetentionFactor controls how quickly recall probability decays
	// relative to the stage interval: R(t) = 1 / (1 + t/(factor*interval)).
	RetentionFactor float64

	// RecencyRatio is the geometric weight applied per step back in the
	// review history when averaging scores. Must be in (0, 1].
	RecencyRatio float64

	// GraceDays is how many days past its due date a capsule may sit
	// before it counts as overdue.
	GraceDays int
}

// DefaultPolicy provides the stock scheduling constants: a Leitner-style
// interval ladder capped at 180 days and a gently sloped forgetting curve.
func DefaultPolicy() *Policy {
	return &Policy{
		Intervals:       []int{0, 1, 3, 7, 14, 30, 90, 180},
		RetentionFactor: 9.0,
		RecencyRatio:    0.6,
		GraceDays:       3,
	}
}

// Interval returns the due interval in days for the given review stage.
// Stage 0 is always 0; stages beyond the ladder hold at the cap.
func (p *Policy) Interval(stage int) int {
	if stage <= 0 || len(p.Intervals) == 0 {
		return 0
	}
	if stage >= len(p.Intervals) {
		return p.Intervals[len(p.Intervals)-1]
	}
	return p.Intervals[stage]
}

// NextDue returns the moment the capsule next requires review.
// For a capsule that has never been reviewed it returns the zero time,
// which sits before any real clock reading.
func (p *Policy) NextDue(c domain.Capsule) time.Time {
	if c.LastReviewed == nil {
		return time.Time{}
	}
	days := p.Interval(c.ReviewStage)
	return c.LastReviewed.Add(time.Duration(days) * 24 * time.Hour)
}

// IsDue reports whether the capsule requires review at the given time.
// Unseen capsules are always due.
func (p *Policy) IsDue(c domain.Capsule, now time.Time) bool {
	if c.LastReviewed == nil {
		return true
	}
	return !now.Before(p.NextDue(c))
}

// IsOverdue reports whether the capsule is due by more than the grace
// window. Unseen capsules are due but never overdue: there is no missed
// appointment to measure against.
func (p *Policy) IsOverdue(c domain.Capsule, now time.Time) bool {
	if c.LastReviewed == nil {
		return false
	}
	grace := time.Duration(p.GraceDays) * 24 * time.Hour
	return now.After(p.NextDue(c).Add(grace))
}

// Retention estimates the probability in [0, 1] that the capsule can still
// be recalled at the given time, using a power forgetting curve anchored on
// the current stage interval. Never-reviewed capsules have no retention.
func (p *Policy) Retention(c domain.Capsule, now time.Time) float64 {
	if c.LastReviewed == nil {
		return 0
	}
	elapsed := now.Sub(*c.LastReviewed).Hours() / 24.0
	if elapsed < 0 {
		elapsed = 0
	}
	stability := float64(p.Interval(c.ReviewStage))
	if stability < 1 {
		stability = 1
	}
	return 1 / (1 + elapsed/(p.RetentionFactor*stability))
}

// Mastery estimates how well the capsule is currently retained, on a 0-100
// scale. It is a recency-weighted average of historical review scores,
// discounted by the forgetting curve as time since the last review grows.
// A capsule with no history scores 0.
func (p *Policy) Mastery(c domain.Capsule, now time.Time) float64 {
	if len(c.History) == 0 {
		return 0
	}
	score := p.weightedScore(c.History)
	if c.LastReviewed != nil {
		score *= p.Retention(c, now)
	}
	return clamp(score, 0, 100)
}

// weightedScore averages history scores with geometrically decreasing
// weight: the most recent review counts fully, each earlier one by a
// factor of RecencyRatio less.
func (p *Policy) weightedScore(history []domain.ReviewEvent) float64 {
	var sum, weights float64
	w := 1.0
	for i := len(history) - 1; i >= 0; i-- {
		sum += history[i].Score * w
		weights += w
		w *= p.RecencyRatio
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
