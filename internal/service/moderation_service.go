package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/openassess/grading-controller/internal/dto"
	"github.com/openassess/grading-controller/internal/models"
	"github.com/openassess/grading-controller/internal/observability"
	"github.com/openassess/grading-controller/internal/repository"
)

// Moderator action types. The set is closed; unknown actions are rejected.
const (
	ActionBanFromPeerGrading = "ban_from_peer_grading"
	ActionDismissFlags       = "dismiss_flags"
)

// ModerationService tracks flagged peer submissions and applies moderator
// actions. Bans are durable and exposed through IsBannedFromPeerGrading as the
// contract consumed by peer work distribution.
type ModerationService interface {
	ListFlagged(ctx context.Context, courseID string) (dto.FlaggedListResponse, error)
	TakeAction(ctx context.Context, payload dto.ModerationActionRequest, moderatorID string) (dto.ModerationActionResponse, error)
	IsBannedFromPeerGrading(ctx context.Context, courseID, studentID string) (bool, error)
}

type moderationService struct {
	moderation repository.ModerationRepository
	validator  *validator.Validate
	events     EventPublisher
	logger     zerolog.Logger
}

// NewModerationService constructs the moderation subsystem.
func NewModerationService(moderation repository.ModerationRepository, validate *validator.Validate, events EventPublisher, logger zerolog.Logger) ModerationService {
	if events == nil {
		events = NopPublisher{}
	}

	return &moderationService{
		moderation: moderation,
		validator:  validate,
		events:     events,
		logger:     logger.With().Str("component", "moderation_service").Logger(),
	}
}

type moderationActionEvent struct {
	ActionType    string `json:"action_type"`
	CourseID      string `json:"course_id"`
	StudentID     string `json:"student_id"`
	ModeratorID   string `json:"moderator_id"`
	ResolvedFlags int64  `json:"resolved_flags"`
}

func (s *moderationService) ListFlagged(ctx context.Context, courseID string) (dto.FlaggedListResponse, error) {
	if courseID == "" {
		return dto.FlaggedListResponse{}, NewMissingKeyError("course_id")
	}

	flags, err := s.moderation.ListOpenFlagsByCourse(ctx, courseID)
	if err != nil {
		return dto.FlaggedListResponse{}, &StoreError{Op: "list open flags", Err: err}
	}

	return dto.FlaggedListResponse{FlaggedSubmissions: dto.NewFlaggedSubmissionResponseSlice(flags)}, nil
}

func (s *moderationService) TakeAction(ctx context.Context, payload dto.ModerationActionRequest, moderatorID string) (dto.ModerationActionResponse, error) {
	tracer := otel.Tracer("github.com/openassess/grading-controller/internal/service/moderation")
	ctx, span := tracer.Start(ctx, "moderation.take_action")
	span.SetAttributes(
		attribute.String("moderation.course_id", payload.CourseID),
		attribute.String("moderation.action_type", payload.ActionType),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ModerationActionResponse{}, translateValidatorError(err)
	}

	response := dto.ModerationActionResponse{
		ActionType: payload.ActionType,
		CourseID:   payload.CourseID,
		StudentID:  payload.StudentID,
	}

	switch payload.ActionType {
	case ActionBanFromPeerGrading:
		ban := models.PeerBan{
			CourseID:  payload.CourseID,
			StudentID: payload.StudentID,
			BannedBy:  moderatorID,
			Reason:    payload.Reason,
		}
		// One transaction: the ban row and the closing of the student's open
		// flags land together, so a failure leaves neither behind and stale
		// pre-ban items can never outlive a recorded ban. Flagged submissions
		// stay gated.
		resolved, err := s.moderation.BanAndResolveFlags(ctx, &ban)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "ban_failed")
			return dto.ModerationActionResponse{}, &StoreError{Op: "ban from peer grading", Err: err}
		}

		response.Banned = true
		response.ResolvedFlags = resolved

	case ActionDismissFlags:
		// Dismissal declares the flags unfounded and returns the flagged
		// submissions to the grading queue.
		resolved, err := s.moderation.ResolveFlagsForStudent(ctx, payload.CourseID, payload.StudentID, models.FlagStatusDismissed, true)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "dismiss_flags_failed")
			return dto.ModerationActionResponse{}, &StoreError{Op: "dismiss flags", Err: err}
		}

		response.ResolvedFlags = resolved

	default:
		err := NewInvalidFieldError("action_type", fmt.Sprintf("unknown action_type %q", payload.ActionType))
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown_action")
		return dto.ModerationActionResponse{}, err
	}

	observability.ModerationActions().WithLabelValues(payload.ActionType).Inc()
	s.events.Publish("moderation.action", moderationActionEvent{
		ActionType:    payload.ActionType,
		CourseID:      payload.CourseID,
		StudentID:     payload.StudentID,
		ModeratorID:   moderatorID,
		ResolvedFlags: response.ResolvedFlags,
	})

	s.logger.Info().
		Str("action_type", payload.ActionType).
		Str("course_id", payload.CourseID).
		Str("student_id", payload.StudentID).
		Int64("resolved_flags", response.ResolvedFlags).
		Msg("moderation action applied")

	return response, nil
}

func (s *moderationService) IsBannedFromPeerGrading(ctx context.Context, courseID, studentID string) (bool, error) {
	banned, err := s.moderation.IsBanned(ctx, courseID, studentID)
	if err != nil {
		return false, &StoreError{Op: "check peer ban", Err: err}
	}

	return banned, nil
}

// translateValidatorError maps the first struct validation failure onto the
// missing-key error contract.
func translateValidatorError(err error) error {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		switch fields[0].Field() {
		case "CourseID":
			return NewMissingKeyError("course_id")
		case "StudentID":
			return NewMissingKeyError("student_id")
		case "ActionType":
			return NewMissingKeyError("action_type")
		}
	}

	return NewInvalidFieldError("payload", err.Error())
}
