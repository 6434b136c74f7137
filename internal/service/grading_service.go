package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/openassess/grading-controller/internal/dto"
	"github.com/openassess/grading-controller/internal/models"
	"github.com/openassess/grading-controller/internal/observability"
	"github.com/openassess/grading-controller/internal/repository"
)

// GradingService owns the submission state machine: it ingests grade records
// and decides, per submission, whether grading is finished and which grader
// type should see the submission next.
type GradingService interface {
	ApplyGrade(ctx context.Context, payload dto.GradeIngestRequest) (dto.GradeReceipt, error)
}

type gradingService struct {
	store     repository.GradingStore
	routing   NextGraderPolicy
	quorum    QuorumSource
	events    EventPublisher
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewGradingService constructs the state machine service.
func NewGradingService(store repository.GradingStore, routing NextGraderPolicy, quorum QuorumSource, events EventPublisher, logger zerolog.Logger) GradingService {
	if events == nil {
		events = NopPublisher{}
	}

	return &gradingService{
		store:     store,
		routing:   routing,
		quorum:    quorum,
		events:    events,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "grading_service").Logger(),
	}
}

type submissionFinishedEvent struct {
	SubmissionID        uint              `json:"submission_id"`
	XQueueSubmissionID  string            `json:"xqueue_submission_id"`
	XQueueSubmissionKey string            `json:"xqueue_submission_key"`
	Location            string            `json:"location"`
	CourseID            string            `json:"course_id"`
	StudentID           string            `json:"student_id"`
	GraderType          models.GraderType `json:"grader_type"`
}

func (s *gradingService) ApplyGrade(ctx context.Context, payload dto.GradeIngestRequest) (dto.GradeReceipt, error) {
	tracer := otel.Tracer("github.com/openassess/grading-controller/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.apply_grade")
	defer span.End()

	grade, err := s.buildGrader(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.GradeReceipt{}, err
	}

	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(grade.SubmissionID)),
		attribute.String("grading.grader_type", string(grade.GraderType)),
		attribute.String("grading.status", string(grade.StatusCode)),
	)

	var receipt dto.GradeReceipt
	var finished submissionFinishedEvent
	transitioned := false

	err = s.store.ApplyGrade(ctx, grade.SubmissionID, func(tx repository.GradingTx) error {
		submission := tx.Submission()

		if err := tx.CreateGrader(&grade); err != nil {
			return err
		}

		submission.PreviousGraderType = grade.GraderType
		submission.NextGraderType = s.routing.NextGrader(submission, grade)

		if grade.IsSuccessful() && !submission.IsFinished() {
			done, err := s.completionReached(tx, grade)
			if err != nil {
				return err
			}
			if done {
				now := time.Now().UTC()
				submission.State = models.StateFinished
				submission.FinishedAt = &now
				transitioned = true
			}
		}
		// Failed attempts are persisted but never advance or regress state.

		if err := tx.UpdateSubmission(&submission); err != nil {
			return err
		}

		receipt = dto.GradeReceipt{
			SubmissionID:  submission.XQueueSubmissionID,
			SubmissionKey: submission.XQueueSubmissionKey,
		}
		finished = submissionFinishedEvent{
			SubmissionID:        submission.ID,
			XQueueSubmissionID:  submission.XQueueSubmissionID,
			XQueueSubmissionKey: submission.XQueueSubmissionKey,
			Location:            submission.Location,
			CourseID:            submission.CourseID,
			StudentID:           submission.StudentID,
			GraderType:          grade.GraderType,
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(ErrSubmissionNotFound)
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.GradeReceipt{}, ErrSubmissionNotFound
		}
		storeErr := &StoreError{Op: "apply grade", Err: err}
		span.RecordError(storeErr)
		span.SetStatus(codes.Error, "apply_grade_failed")
		return dto.GradeReceipt{}, storeErr
	}

	observability.GradesIngested().WithLabelValues(string(grade.GraderType), string(grade.StatusCode)).Inc()

	if transitioned {
		observability.SubmissionsFinished().WithLabelValues(string(grade.GraderType)).Inc()
		s.events.Publish("submission.finished", finished)
		s.logger.Info().
			Uint("submission_id", grade.SubmissionID).
			Str("grader_type", string(grade.GraderType)).
			Msg("submission finished grading")
	} else {
		s.logger.Debug().
			Uint("submission_id", grade.SubmissionID).
			Str("grader_type", string(grade.GraderType)).
			Str("status", string(grade.StatusCode)).
			Msg("grade recorded")
	}

	return receipt, nil
}

// completionReached evaluates the completion policy for a successful grade.
// Instructor and machine grades are authoritative on their own; peer grades
// finish the submission only once the quorum of successful peer grades is met.
// The count runs inside the transaction, against the row lock, so concurrent
// peer grades cannot both observe a pre-quorum count.
func (s *gradingService) completionReached(tx repository.GradingTx, grade models.Grader) (bool, error) {
	if grade.GraderType.Terminal() {
		return true, nil
	}

	count, err := tx.CountSuccessfulPeerGrades()
	if err != nil {
		return false, err
	}

	return QuorumReached(count, s.quorum()), nil
}

func (s *gradingService) buildGrader(payload dto.GradeIngestRequest) (models.Grader, error) {
	if key := payload.MissingKey(); key != "" {
		return models.Grader{}, NewMissingKeyError(key)
	}

	graderType := models.GraderType(strings.ToUpper(strings.TrimSpace(*payload.GraderType)))
	if !graderType.Valid() {
		return models.Grader{}, NewInvalidFieldError("grader_type", "grader_type must be one of ML, IN, PE")
	}

	status := models.GraderStatus(strings.ToLower(strings.TrimSpace(*payload.Status)))
	if !status.Valid() {
		return models.Grader{}, NewInvalidFieldError("status", "status must be one of success, failure")
	}

	if *payload.Confidence < 0 || *payload.Confidence > 1 {
		return models.Grader{}, NewInvalidFieldError("confidence", "confidence must be between 0.0 and 1.0")
	}

	if strings.TrimSpace(*payload.GraderID) == "" {
		return models.Grader{}, NewInvalidFieldError("grader_id", "grader_id must not be empty")
	}

	return models.Grader{
		SubmissionID: *payload.SubmissionID,
		Score:        *payload.Score,
		Feedback:     s.sanitizer.Sanitize(*payload.Feedback),
		StatusCode:   status,
		GraderID:     strings.TrimSpace(*payload.GraderID),
		GraderType:   graderType,
		Confidence:   *payload.Confidence,
	}, nil
}
