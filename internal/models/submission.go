package models

import "time"

// SubmissionState is the closed set of routing states a submission moves through.
type SubmissionState string

const (
	// StateWaitingToBeGraded indicates the submission sits in a grading queue.
	StateWaitingToBeGraded SubmissionState = "waiting_to_be_graded"
	// StateBeingGraded indicates a grader has pulled the submission.
	StateBeingGraded SubmissionState = "being_graded"
	// StateFinished indicates grading completed per the completion policy.
	StateFinished SubmissionState = "finished"
	// StateFlagged indicates the submission is held for moderator review.
	StateFlagged SubmissionState = "flagged"
)

// Valid reports whether the state belongs to the closed set.
func (s SubmissionState) Valid() bool {
	switch s {
	case StateWaitingToBeGraded, StateBeingGraded, StateFinished, StateFlagged:
		return true
	}
	return false
}

// Submission is the routing record for one piece of student work. The
// submission body itself lives in the external queue; the engine only keeps
// the opaque identity pair needed to route results back. Rows are never
// deleted (audit trail).
type Submission struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	XQueueSubmissionID  string          `gorm:"size:128;not null" json:"xqueue_submission_id"`
	XQueueSubmissionKey string          `gorm:"size:128;not null" json:"xqueue_submission_key"`
	Location            string          `gorm:"size:255;not null;index" json:"location"`
	CourseID            string          `gorm:"size:255;not null;index" json:"course_id"`
	StudentID           string          `gorm:"size:255;not null;index" json:"student_id"`
	State               SubmissionState `gorm:"size:32;not null" json:"state"`
	NextGraderType      GraderType      `gorm:"size:4" json:"next_grader_type"`
	PreviousGraderType  GraderType      `gorm:"size:4" json:"previous_grader_type"`
	FinishedAt          *time.Time      `gorm:"index" json:"finished_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Graders             []Grader        `gorm:"constraint:OnUpdate:CASCADE" json:"graders,omitempty"`
}

// IsFinished reports whether grading has completed for the submission.
func (s Submission) IsFinished() bool {
	return s.State == StateFinished
}
