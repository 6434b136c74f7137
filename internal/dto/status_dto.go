package dto

import (
	"time"

	"github.com/openassess/grading-controller/internal/models"
)

// ProblemStatus reports one submitted problem's grading progress.
type ProblemStatus struct {
	SubmissionID       uint                   `json:"submission_id"`
	Location           string                 `json:"location"`
	State              models.SubmissionState `json:"state"`
	NextGraderType     models.GraderType      `json:"next_grader_type"`
	PreviousGraderType models.GraderType      `json:"previous_grader_type"`
	PeerGradeCount     int64                  `json:"peer_grade_count"`
	SubmittedAt        time.Time              `json:"submitted_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// ProblemListResponse wraps the status listing for a student in a course.
type ProblemListResponse struct {
	ProblemList []ProblemStatus `json:"problem_list"`
}

// NewProblemStatus converts a submission into its status entry.
func NewProblemStatus(submission models.Submission, peerGrades int64) ProblemStatus {
	return ProblemStatus{
		SubmissionID:       submission.ID,
		Location:           submission.Location,
		State:              submission.State,
		NextGraderType:     submission.NextGraderType,
		PreviousGraderType: submission.PreviousGraderType,
		PeerGradeCount:     peerGrades,
		SubmittedAt:        submission.CreatedAt,
		UpdatedAt:          submission.UpdatedAt,
	}
}
