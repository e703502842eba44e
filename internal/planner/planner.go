// Package planner turns a capsule collection into a day-by-day study plan
// that fits a daily time budget and ends at an exam deadline.
package planner

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/capsched/capsched/internal/domain"
	"github.com/capsched/capsched/internal/srs"
)

// Policy holds the cost model for estimating per-capsule study time and the
// thresholds for choosing task kinds. Like srs.Policy, it is a table of
// tunables rather than behaviour.
type Policy struct {
	BaseMinutes      int     // fixed per-task setup cost
	ConceptMinutes   float64 // added per key concept
	FlashcardMinutes float64 // added per flashcard
	QuizMinutes      float64 // added per quiz question
	QuizThreshold    float64 // mastery below which a quizzable capsule gets a quiz task
}

// DefaultPolicy returns the stock cost model.
func DefaultPolicy() *Policy {
	return &Policy{
		BaseMinutes:      5,
		ConceptMinutes:   2.0,
		FlashcardMinutes: 0.5,
		QuizMinutes:      1.0,
		QuizThreshold:    40,
	}
}

// Planner generates and prices study plans. It is stateless apart from its
// policy tables and safe to share.
type Planner struct {
	srs    *srs.Policy
	policy *Policy
}

// New creates a Planner. Nil policies fall back to defaults.
func New(srsPolicy *srs.Policy, policy *Policy) *Planner {
	if srsPolicy == nil {
		srsPolicy = srs.DefaultPolicy()
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Planner{srs: srsPolicy, policy: policy}
}

// EstimateMinutes is the heuristic time cost of studying the capsule once:
// a base cost plus a content-volume weight scaled by how weak the current
// mastery is. The factor runs from 1.0 at full mastery to 2.0 at zero, so
// weaker mastery or more content never lowers the estimate. Always >= 1.
func (p *Planner) EstimateMinutes(c domain.Capsule, now time.Time) int {
	mastery := p.srs.Mastery(c, now)
	factor := 1 + (100-mastery)/100

	weight := p.policy.ConceptMinutes*float64(len(c.KeyConcepts)) +
		p.policy.FlashcardMinutes*float64(len(c.Flashcards)) +
		p.policy.QuizMinutes*float64(len(c.QuizQuestions))

	minutes := int(math.Ceil(float64(p.policy.BaseMinutes) + weight*factor))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// GeneratePlan builds a study plan covering the given capsules between now
// and examDate.
//
// The plan has exactly ceil((examDate-now)/24h) sessions, one per day
// starting today. Tasks are ordered weakest mastery first and packed
// greedily into the daily minute budget. A day that cannot fit the next
// task still takes it when the day is otherwise empty, so work always makes
// progress. Days left empty after all tasks are placed are rest days. If
// the capsule set outgrows the available days, the remainder is dealt
// round-robin across the existing days rather than dropped.
//
// The only failure is a *ValidationError when examDate is not strictly
// after now.
func (p *Planner) GeneratePlan(name string, capsules []domain.Capsule, examDate time.Time, dailyMinutes int, now time.Time) (domain.StudyPlan, error) {
	if !examDate.After(now) {
		return domain.StudyPlan{}, &ValidationError{Reason: "deadline must be in the future"}
	}

	days := int(math.Ceil(examDate.Sub(now).Hours() / 24.0))

	type scoredTask struct {
		task    domain.StudyTask
		mastery float64
	}

	tasks := make([]scoredTask, 0, len(capsules))
	ids := make([]string, 0, len(capsules))
	for _, c := range capsules {
		ids = append(ids, c.ID)
		mastery := p.srs.Mastery(c, now)
		tasks = append(tasks, scoredTask{
			task: domain.StudyTask{
				CapsuleID:        c.ID,
				EstimatedMinutes: p.EstimateMinutes(c, now),
				Status:           domain.TaskPending,
				Kind:             p.taskKind(c, mastery),
			},
			mastery: mastery,
		})
	}

	// Weakest first; capsule ID breaks ties so the ordering is stable for
	// a given input snapshot.
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].mastery != tasks[j].mastery {
			return tasks[i].mastery < tasks[j].mastery
		}
		return tasks[i].task.CapsuleID < tasks[j].task.CapsuleID
	})

	sessions := make([]domain.DailySession, days)
	next := 0
	for d := range sessions {
		sessions[d].Date = now.AddDate(0, 0, d).Format(domain.SessionDateLayout)
		for next < len(tasks) {
			t := tasks[next].task
			if len(sessions[d].Tasks) > 0 && sessions[d].TotalMinutes+t.EstimatedMinutes > dailyMinutes {
				break
			}
			sessions[d].Tasks = append(sessions[d].Tasks, t)
			sessions[d].TotalMinutes += t.EstimatedMinutes
			next++
		}
	}

	// Cramming fallback: every day already has work, so cycle the
	// remainder across days rather than dropping it.
	for i := 0; next < len(tasks); i++ {
		d := i % days
		t := tasks[next].task
		sessions[d].Tasks = append(sessions[d].Tasks, t)
		sessions[d].TotalMinutes += t.EstimatedMinutes
		next++
	}

	// An empty day at this point is genuine slack: the packer never skips
	// a day while tasks remain.
	for d := range sessions {
		sessions[d].IsRestDay = len(sessions[d].Tasks) == 0
	}

	return domain.StudyPlan{
		ID:           uuid.NewString(),
		Name:         name,
		ExamDate:     examDate,
		DailyMinutes: dailyMinutes,
		Sessions:     sessions,
		CreatedAt:    now,
		CapsuleIDs:   ids,
	}, nil
}

// taskKind picks what a scheduled session should ask for: unseen capsules
// are learned, weak capsules with quiz material get quizzed, the rest are
// plain reviews.
func (p *Planner) taskKind(c domain.Capsule, mastery float64) domain.TaskKind {
	if !c.Reviewed() {
		return domain.TaskLearn
	}
	if len(c.QuizQuestions) > 0 && mastery < p.policy.QuizThreshold {
		return domain.TaskQuiz
	}
	return domain.TaskReview
}
