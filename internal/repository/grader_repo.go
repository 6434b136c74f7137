package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/openassess/grading-controller/internal/models"
)

// GraderRepository defines data operations on the append-only grade record store.
type GraderRepository interface {
	Create(ctx context.Context, grader *models.Grader) error
	CountSuccessfulPeerGrades(ctx context.Context, submissionID uint) (int64, error)
	CountCompletedAtLocationSince(ctx context.Context, location string, since time.Time) (int64, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Grader, error)
}

type graderRepository struct {
	db *gorm.DB
}

// NewGraderRepository instantiates the repository.
func NewGraderRepository(db *gorm.DB) GraderRepository {
	return &graderRepository{db: db}
}

func (r *graderRepository) Create(ctx context.Context, grader *models.Grader) error {
	return r.db.WithContext(ctx).Create(grader).Error
}

func (r *graderRepository) CountSuccessfulPeerGrades(ctx context.Context, submissionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Grader{}).
		Where("submission_id = ?", submissionID).
		Where("grader_type = ?", models.GraderTypePE).
		Where("status_code = ?", models.GraderStatusSuccess).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *graderRepository) CountCompletedAtLocationSince(ctx context.Context, location string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Grader{}).
		Joins("JOIN submissions ON submissions.id = graders.submission_id").
		Where("submissions.location = ?", location).
		Where("graders.created_at > ?", since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *graderRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Grader, error) {
	var graders []models.Grader
	err := r.db.WithContext(ctx).Model(&models.Grader{}).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&graders).Error
	if err != nil {
		return nil, err
	}

	return graders, nil
}
