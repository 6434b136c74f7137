package dto

import (
	"time"

	"github.com/openassess/grading-controller/internal/models"
)

// FlaggedSubmissionResponse serializes one open flag for the moderation queue.
type FlaggedSubmissionResponse struct {
	FlagID       uint      `json:"flag_id"`
	SubmissionID uint      `json:"submission_id"`
	Location     string    `json:"location"`
	StudentID    string    `json:"student_id"`
	RaisedBy     string    `json:"raised_by"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}

// FlaggedListResponse wraps the flagged-submission listing for a course.
type FlaggedListResponse struct {
	FlaggedSubmissions []FlaggedSubmissionResponse `json:"flagged_submissions"`
}

// ModerationActionRequest is a moderator's action against a student's flags.
type ModerationActionRequest struct {
	CourseID   string `json:"course_id" validate:"required"`
	StudentID  string `json:"student_id" validate:"required"`
	ActionType string `json:"action_type" validate:"required"`
	Reason     string `json:"reason"`
}

// ModerationActionResponse reports the effect of a moderation action.
type ModerationActionResponse struct {
	ActionType    string `json:"action_type"`
	CourseID      string `json:"course_id"`
	StudentID     string `json:"student_id"`
	ResolvedFlags int64  `json:"resolved_flags"`
	Banned        bool   `json:"banned"`
}

// NewFlaggedSubmissionResponse converts a flag model into its DTO.
func NewFlaggedSubmissionResponse(flag models.SubmissionFlag) FlaggedSubmissionResponse {
	return FlaggedSubmissionResponse{
		FlagID:       flag.ID,
		SubmissionID: flag.SubmissionID,
		Location:     flag.Submission.Location,
		StudentID:    flag.StudentID,
		RaisedBy:     flag.RaisedBy,
		Reason:       flag.Reason,
		CreatedAt:    flag.CreatedAt,
	}
}

// NewFlaggedSubmissionResponseSlice converts flag models into DTOs.
func NewFlaggedSubmissionResponseSlice(flags []models.SubmissionFlag) []FlaggedSubmissionResponse {
	responses := make([]FlaggedSubmissionResponse, 0, len(flags))
	for _, flag := range flags {
		responses = append(responses, NewFlaggedSubmissionResponse(flag))
	}

	return responses
}
