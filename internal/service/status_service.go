package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/openassess/grading-controller/internal/dto"
	"github.com/openassess/grading-controller/internal/repository"
)

// StatusService lists the problems a student has submitted in a course along
// with each submission's grading progress.
type StatusService interface {
	ProblemList(ctx context.Context, courseID, studentID string) (dto.ProblemListResponse, error)
}

type statusService struct {
	submissions repository.SubmissionRepository
	quorum      PeerQuorum
	logger      zerolog.Logger
}

// NewStatusService constructs the listing service.
func NewStatusService(submissions repository.SubmissionRepository, quorum PeerQuorum, logger zerolog.Logger) StatusService {
	return &statusService{
		submissions: submissions,
		quorum:      quorum,
		logger:      logger.With().Str("component", "status_service").Logger(),
	}
}

func (s *statusService) ProblemList(ctx context.Context, courseID, studentID string) (dto.ProblemListResponse, error) {
	if courseID == "" {
		return dto.ProblemListResponse{}, NewMissingKeyError("course_id")
	}
	if studentID == "" {
		return dto.ProblemListResponse{}, NewMissingKeyError("student_id")
	}

	submissions, err := s.submissions.ListByStudentAndCourse(ctx, courseID, studentID)
	if err != nil {
		return dto.ProblemListResponse{}, &StoreError{Op: "list submissions", Err: err}
	}

	problems := make([]dto.ProblemStatus, 0, len(submissions))
	for _, submission := range submissions {
		peerGrades, err := s.quorum.SuccessfulPeerGradeCount(ctx, submission.ID)
		if err != nil {
			return dto.ProblemListResponse{}, err
		}
		problems = append(problems, dto.NewProblemStatus(submission, peerGrades))
	}

	return dto.ProblemListResponse{ProblemList: problems}, nil
}
