package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openassess/grading-controller/internal/models"
)

// ModerationRepository defines data operations for flags and peer bans.
type ModerationRepository interface {
	CreateFlag(ctx context.Context, flag *models.SubmissionFlag) error
	ListOpenFlagsByCourse(ctx context.Context, courseID string) ([]models.SubmissionFlag, error)
	CountFlagsRaisedSince(ctx context.Context, courseID string, since time.Time) (int64, error)
	// ResolveFlagsForStudent closes all of a student's open flags in a course
	// and, when restoreState is true, returns the flagged submissions to the
	// grading queue. Runs as one transaction.
	ResolveFlagsForStudent(ctx context.Context, courseID, studentID string, status models.FlagStatus, restoreState bool) (int64, error)
	// BanAndResolveFlags records the ban and closes the student's open flags
	// in one transaction: either both land or neither does. Flagged
	// submissions stay gated.
	BanAndResolveFlags(ctx context.Context, ban *models.PeerBan) (int64, error)
	IsBanned(ctx context.Context, courseID, studentID string) (bool, error)
}

type moderationRepository struct {
	db *gorm.DB
}

// NewModerationRepository instantiates the repository.
func NewModerationRepository(db *gorm.DB) ModerationRepository {
	return &moderationRepository{db: db}
}

func (r *moderationRepository) CreateFlag(ctx context.Context, flag *models.SubmissionFlag) error {
	return r.db.WithContext(ctx).Create(flag).Error
}

func (r *moderationRepository) ListOpenFlagsByCourse(ctx context.Context, courseID string) ([]models.SubmissionFlag, error) {
	var flags []models.SubmissionFlag
	err := r.db.WithContext(ctx).Model(&models.SubmissionFlag{}).
		Preload("Submission").
		Where("course_id = ?", courseID).
		Where("status = ?", models.FlagStatusOpen).
		Order("created_at ASC").
		Find(&flags).Error
	if err != nil {
		return nil, err
	}

	return flags, nil
}

func (r *moderationRepository) CountFlagsRaisedSince(ctx context.Context, courseID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SubmissionFlag{}).
		Where("course_id = ?", courseID).
		Where("created_at > ?", since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *moderationRepository) ResolveFlagsForStudent(ctx context.Context, courseID, studentID string, status models.FlagStatus, restoreState bool) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		affected, err = resolveOpenFlags(tx, courseID, studentID, status, restoreState)
		return err
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}

func (r *moderationRepository) BanAndResolveFlags(ctx context.Context, ban *models.PeerBan) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-banning an already banned student is a no-op, not an error.
		if err := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "course_id"}, {Name: "student_id"}},
				DoNothing: true,
			}).
			Create(ban).Error; err != nil {
			return err
		}

		var err error
		affected, err = resolveOpenFlags(tx, ban.CourseID, ban.StudentID, models.FlagStatusResolved, false)
		return err
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}

// resolveOpenFlags closes the student's open flags in a course and optionally
// returns the flagged submissions to the grading queue. Must run inside a
// transaction.
func resolveOpenFlags(tx *gorm.DB, courseID, studentID string, status models.FlagStatus, restoreState bool) (int64, error) {
	var flags []models.SubmissionFlag
	if err := tx.Model(&models.SubmissionFlag{}).
		Where("course_id = ?", courseID).
		Where("student_id = ?", studentID).
		Where("status = ?", models.FlagStatusOpen).
		Find(&flags).Error; err != nil {
		return 0, err
	}

	if len(flags) == 0 {
		return 0, nil
	}

	flagIDs := make([]uint, 0, len(flags))
	submissionIDs := make([]uint, 0, len(flags))
	for _, flag := range flags {
		flagIDs = append(flagIDs, flag.ID)
		submissionIDs = append(submissionIDs, flag.SubmissionID)
	}

	result := tx.Model(&models.SubmissionFlag{}).
		Where("id IN ?", flagIDs).
		Update("status", status)
	if result.Error != nil {
		return 0, result.Error
	}

	if restoreState {
		if err := tx.Model(&models.Submission{}).
			Where("id IN ?", submissionIDs).
			Where("state = ?", models.StateFlagged).
			Update("state", models.StateWaitingToBeGraded).Error; err != nil {
			return 0, err
		}
	}

	return result.RowsAffected, nil
}

func (r *moderationRepository) IsBanned(ctx context.Context, courseID, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PeerBan{}).
		Where("course_id = ?", courseID).
		Where("student_id = ?", studentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
