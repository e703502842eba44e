// Package stats aggregates per-capsule scheduling signals into collection-wide
// retention statistics.
package stats

import (
	"time"

	"github.com/capsched/capsched/internal/domain"
	"github.com/capsched/capsched/internal/srs"
)

// Analyze computes global performance statistics for a capsule collection at
// the given time. An empty collection yields all-zero stats rather than NaN
// so downstream consumers never see non-finite numbers.
func Analyze(policy *srs.Policy, capsules []domain.Capsule, now time.Time) domain.PerformanceStats {
	var out domain.PerformanceStats
	if len(capsules) == 0 {
		return out
	}

	var masterySum, retentionSum float64
	for _, c := range capsules {
		masterySum += policy.Mastery(c, now)
		retentionSum += policy.Retention(c, now)
		if policy.IsDue(c, now) {
			out.DueCount++
		}
		if policy.IsOverdue(c, now) {
			out.OverdueCount++
		}
	}

	n := float64(len(capsules))
	out.GlobalMastery = masterySum / n
	out.RetentionAverage = retentionSum / n
	return out
}
