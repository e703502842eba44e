package srs

import (
	"testing"
	"time"

	"github.com/capsched/capsched/internal/domain"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// reviewedCapsule builds a capsule whose last review happened daysAgo days
// before testNow, with one history event per score in chronological order.
func reviewedCapsule(stage int, daysAgo float64, scores ...float64) domain.Capsule {
	last := testNow.Add(-time.Duration(daysAgo * 24 * float64(time.Hour)))
	c := domain.Capsule{ID: "c1", Title: "Go basics", ReviewStage: stage, LastReviewed: &last}
	for i, s := range scores {
		offset := time.Duration(len(scores)-1-i) * 24 * time.Hour
		c.History = append(c.History, domain.ReviewEvent{
			Timestamp: last.Add(-offset),
			Kind:      domain.ReviewManual,
			Score:     s,
		})
	}
	return c
}

func TestInterval(t *testing.T) {
	p := DefaultPolicy()

	if got := p.Interval(0); got != 0 {
		t.Errorf("Interval(0) = %d, want 0", got)
	}

	for stage := 1; stage <= 20; stage++ {
		if p.Interval(stage) < p.Interval(stage-1) {
			t.Errorf("Interval(%d) = %d is less than Interval(%d) = %d",
				stage, p.Interval(stage), stage-1, p.Interval(stage-1))
		}
	}

	// Stages beyond the ladder hold at the cap.
	cap := p.Intervals[len(p.Intervals)-1]
	if got := p.Interval(100); got != cap {
		t.Errorf("Interval(100) = %d, want cap %d", got, cap)
	}
}

func TestIsDue(t *testing.T) {
	p := DefaultPolicy()

	t.Run("unseen capsule is always due", func(t *testing.T) {
		if !p.IsDue(domain.Capsule{ID: "new"}, testNow) {
			t.Error("expected never-reviewed capsule to be due")
		}
	})

	t.Run("before interval elapses", func(t *testing.T) {
		// Stage 2 has a 3 day interval.
		if p.IsDue(reviewedCapsule(2, 2, 80), testNow) {
			t.Error("capsule reviewed 2 days ago at stage 2 should not be due")
		}
	})

	t.Run("exactly at the due moment", func(t *testing.T) {
		if !p.IsDue(reviewedCapsule(2, 3, 80), testNow) {
			t.Error("capsule at its due moment should be due")
		}
	})

	t.Run("past the due moment", func(t *testing.T) {
		if !p.IsDue(reviewedCapsule(2, 10, 80), testNow) {
			t.Error("capsule past its due moment should be due")
		}
	})
}

func TestIsOverdue(t *testing.T) {
	p := DefaultPolicy()

	cases := []struct {
		name    string
		capsule domain.Capsule
		want    bool
	}{
		{"unseen is never overdue", domain.Capsule{ID: "new"}, false},
		{"due but inside grace", reviewedCapsule(2, 5, 70), false},
		{"exactly at grace boundary", reviewedCapsule(2, 6, 70), false},
		{"past the grace window", reviewedCapsule(2, 7, 70), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.IsOverdue(tc.capsule, testNow); got != tc.want {
				t.Errorf("IsOverdue = %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("overdue implies due", func(t *testing.T) {
		c := reviewedCapsule(2, 7, 70)
		if p.IsOverdue(c, testNow) && !p.IsDue(c, testNow) {
			t.Error("an overdue capsule must also be due")
		}
	})
}

func TestRetention(t *testing.T) {
	p := DefaultPolicy()

	t.Run("unseen capsule has no retention", func(t *testing.T) {
		if got := p.Retention(domain.Capsule{ID: "new"}, testNow); got != 0 {
			t.Errorf("Retention = %f, want 0", got)
		}
	})

	t.Run("fresh review retains fully", func(t *testing.T) {
		if got := p.Retention(reviewedCapsule(1, 0, 90), testNow); got != 1 {
			t.Errorf("Retention at zero elapsed = %f, want 1", got)
		}
	})

	t.Run("halves at nine stability intervals", func(t *testing.T) {
		// Stage 1 interval is 1 day, so t = 9 days gives R = 0.5.
		got := p.Retention(reviewedCapsule(1, 9, 90), testNow)
		if got < 0.499 || got > 0.501 {
			t.Errorf("Retention = %f, want 0.5", got)
		}
	})

	t.Run("non-increasing in elapsed time", func(t *testing.T) {
		prev := 2.0
		for _, daysAgo := range []float64{0, 1, 5, 30, 365} {
			got := p.Retention(reviewedCapsule(3, daysAgo, 90), testNow)
			if got > prev {
				t.Errorf("Retention rose from %f to %f at %v days elapsed", prev, got, daysAgo)
			}
			prev = got
		}
	})
}

func TestMastery(t *testing.T) {
	p := DefaultPolicy()

	t.Run("empty history scores zero", func(t *testing.T) {
		if got := p.Mastery(domain.Capsule{ID: "new"}, testNow); got != 0 {
			t.Errorf("Mastery = %f, want 0", got)
		}
	})

	t.Run("fresh single review scores its value", func(t *testing.T) {
		if got := p.Mastery(reviewedCapsule(1, 0, 80), testNow); got != 80 {
			t.Errorf("Mastery = %f, want 80", got)
		}
	})

	t.Run("always within bounds", func(t *testing.T) {
		capsules := []domain.Capsule{
			reviewedCapsule(1, 0, 100, 100, 100),
			reviewedCapsule(5, 400, 0, 0),
			reviewedCapsule(2, 50, 10, 95, 40),
			{ID: "empty"},
		}
		for _, c := range capsules {
			got := p.Mastery(c, testNow)
			if got < 0 || got > 100 {
				t.Errorf("Mastery(%s) = %f out of [0,100]", c.ID, got)
			}
		}
	})

	t.Run("non-increasing as time passes", func(t *testing.T) {
		prev := 101.0
		for _, daysAgo := range []float64{0, 2, 10, 60, 200} {
			got := p.Mastery(reviewedCapsule(3, daysAgo, 70, 85), testNow)
			if got > prev {
				t.Errorf("Mastery rose from %f to %f at %v days elapsed", prev, got, daysAgo)
			}
			prev = got
		}
	})

	t.Run("perfect review never lowers the score", func(t *testing.T) {
		before := reviewedCapsule(2, 5, 40, 60)
		after := before
		after.History = append(append([]domain.ReviewEvent{}, before.History...), domain.ReviewEvent{
			Timestamp: testNow,
			Kind:      domain.ReviewQuiz,
			Score:     100,
		})
		after.ReviewStage++
		after.LastReviewed = &testNow

		if p.Mastery(after, testNow) < p.Mastery(before, testNow) {
			t.Errorf("Mastery dropped after a perfect review: %f -> %f",
				p.Mastery(before, testNow), p.Mastery(after, testNow))
		}
	})

	t.Run("recent reviews weigh more than old ones", func(t *testing.T) {
		improving := reviewedCapsule(2, 0, 20, 90)
		declining := reviewedCapsule(2, 0, 90, 20)
		if p.Mastery(improving, testNow) <= p.Mastery(declining, testNow) {
			t.Errorf("expected improving history to outscore declining: %f vs %f",
				p.Mastery(improving, testNow), p.Mastery(declining, testNow))
		}
	})
}
