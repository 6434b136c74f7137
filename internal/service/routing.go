package service

import "github.com/openassess/grading-controller/internal/models"

// NextGraderPolicy decides which grader type should see a submission after a
// grade record has been applied. The policy is injected so routing can change
// without touching the state machine.
type NextGraderPolicy interface {
	NextGrader(submission models.Submission, grade models.Grader) models.GraderType
}

// SameGraderPolicy routes the submission back to whatever grader type produced
// the most recent grade record, regardless of outcome. This reproduces the
// historical controller behavior; swap the policy in main to change routing.
type SameGraderPolicy struct{}

// NextGrader returns the type of the grade record just applied.
func (SameGraderPolicy) NextGrader(_ models.Submission, grade models.Grader) models.GraderType {
	return grade.GraderType
}
