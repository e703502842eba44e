package domain

import "time"

// TaskStatus is the completion state of a scheduled study task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// TaskKind classifies the work a study task asks for.
type TaskKind string

const (
	TaskReview TaskKind = "review"
	TaskLearn  TaskKind = "learn"
	TaskQuiz   TaskKind = "quiz"
)

// SessionDateLayout is the ISO date format used for DailySession.Date.
const SessionDateLayout = "2006-01-02"

// StudyTask is one unit of scheduled work referencing a capsule.
// It is owned exclusively by the DailySession that contains it.
type StudyTask struct {
	CapsuleID        string     `json:"capsuleId"`
	EstimatedMinutes int        `json:"estimatedMinutes"`
	Status           TaskStatus `json:"status"`
	Kind             TaskKind   `json:"kind"`
}

// DailySession is one calendar day of a study plan. Task order is the
// scheduling order. A rest day carries no tasks and only appears once every
// capsule in the plan has already been scheduled on an earlier day.
type DailySession struct {
	Date         string      `json:"date"`
	Tasks        []StudyTask `json:"tasks"`
	TotalMinutes int         `json:"totalMinutes"`
	IsRestDay    bool        `json:"isRestDay"`
}

// StudyPlan is a day-by-day schedule of study work ending at an exam
// deadline. Session index equals the day offset from plan creation.
//
// Plans are value-semantic: mutations go through the planner, which returns
// a fresh plan and never edits an existing one in place. The JSON field
// names here are the persistence contract and must round-trip exactly.
type StudyPlan struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	ExamDate     time.Time      `json:"examDate"`
	DailyMinutes int            `json:"dailyMinutes"`
	Sessions     []DailySession `json:"sessions"`
	CreatedAt    time.Time      `json:"createdAt"`
	CapsuleIDs   []string       `json:"capsuleIds"`
}

// Clone returns a deep copy of the plan. Slices are copied element by
// element so the result shares no mutable state with the receiver.
func (p StudyPlan) Clone() StudyPlan {
	out := p
	if p.Sessions != nil {
		out.Sessions = make([]DailySession, len(p.Sessions))
		for i, s := range p.Sessions {
			cs := s
			if s.Tasks != nil {
				cs.Tasks = make([]StudyTask, len(s.Tasks))
				copy(cs.Tasks, s.Tasks)
			}
			out.Sessions[i] = cs
		}
	}
	if p.CapsuleIDs != nil {
		out.CapsuleIDs = make([]string, len(p.CapsuleIDs))
		copy(out.CapsuleIDs, p.CapsuleIDs)
	}
	return out
}

// PerformanceStats summarizes retention across a whole capsule collection.
// It is a pure projection recomputed on demand, never persisted.
type PerformanceStats struct {
	GlobalMastery    float64 `json:"globalMastery"`
	RetentionAverage float64 `json:"retentionAverage"`
	DueCount         int     `json:"dueCount"`
	OverdueCount     int     `json:"overdueCount"`
}
