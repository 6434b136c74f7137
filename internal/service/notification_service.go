package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/openassess/grading-controller/internal/dto"
	"github.com/openassess/grading-controller/internal/observability"
	"github.com/openassess/grading-controller/internal/repository"
)

// lastViewedFormats are accepted watermark timestamp layouts, newest clients
// first.
var lastViewedFormats = []string{time.RFC3339, "2006-01-02 15:04:05"}

// NotificationService aggregates grading events that occurred after a
// client-supplied watermark. Polling read model; staleness is expected.
type NotificationService interface {
	Combined(ctx context.Context, query dto.NotificationQuery) (dto.CombinedNotificationsResponse, error)
}

type notificationService struct {
	submissions repository.SubmissionRepository
	moderation  repository.ModerationRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewNotificationService constructs the aggregator.
func NewNotificationService(submissions repository.SubmissionRepository, moderation repository.ModerationRepository, logger zerolog.Logger) NotificationService {
	return &notificationService{
		submissions: submissions,
		moderation:  moderation,
		logger:      logger.With().Str("component", "notification_service").Logger(),
		now:         time.Now,
	}
}

func (s *notificationService) Combined(ctx context.Context, query dto.NotificationQuery) (dto.CombinedNotificationsResponse, error) {
	if query.CourseID == "" {
		return dto.CombinedNotificationsResponse{}, NewMissingKeyError("course_id")
	}
	if query.UserIsStaff == nil {
		return dto.CombinedNotificationsResponse{}, NewMissingKeyError("user_is_staff")
	}
	if query.LastTimeViewed == "" {
		return dto.CombinedNotificationsResponse{}, NewMissingKeyError("last_time_viewed")
	}
	if query.StudentID == "" {
		return dto.CombinedNotificationsResponse{}, NewMissingKeyError("student_id")
	}

	lastViewed, err := parseLastViewed(query.LastTimeViewed)
	if err != nil {
		return dto.CombinedNotificationsResponse{}, NewInvalidFieldError("last_time_viewed", "last_time_viewed is not a valid timestamp")
	}

	response := dto.CombinedNotificationsResponse{CheckedAt: s.now().UTC()}

	response.NewGradesReceived, err = s.submissions.CountFinishedSince(ctx, query.CourseID, query.StudentID, lastViewed)
	if err != nil {
		return dto.CombinedNotificationsResponse{}, &StoreError{Op: "count finished submissions", Err: err}
	}

	if *query.UserIsStaff {
		response.NewFlagsRaised, err = s.moderation.CountFlagsRaisedSince(ctx, query.CourseID, lastViewed)
		if err != nil {
			return dto.CombinedNotificationsResponse{}, &StoreError{Op: "count raised flags", Err: err}
		}
	}

	response.OverallNeedToCheck = response.NewGradesReceived > 0 || response.NewFlagsRaised > 0
	observability.NotificationQueries().Inc()

	return response, nil
}

func parseLastViewed(value string) (time.Time, error) {
	var lastErr error
	for _, format := range lastViewedFormats {
		parsed, err := time.Parse(format, value)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}

	return time.Time{}, lastErr
}
