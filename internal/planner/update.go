package planner

import "github.com/capsched/capsched/internal/domain"

// UpdateTaskStatus returns a copy of the plan with the status of the task
// matching (date, capsuleID) replaced. The input plan is never modified.
// When no task matches, the copy is returned unchanged: a missing pair is
// an identity transform, not an error. Applying the same update twice
// yields deep-equal plans.
func UpdateTaskStatus(plan domain.StudyPlan, date, capsuleID string, status domain.TaskStatus) domain.StudyPlan {
	out := plan.Clone()
	for si := range out.Sessions {
		if out.Sessions[si].Date != date {
			continue
		}
		for ti := range out.Sessions[si].Tasks {
			if out.Sessions[si].Tasks[ti].CapsuleID == capsuleID {
				out.Sessions[si].Tasks[ti].Status = status
				return out
			}
		}
	}
	return out
}
