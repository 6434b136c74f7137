package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/openassess/grading-controller/internal/models"
)

// SubmissionRepository defines read/write operations on submission routing state.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	CountPendingByLocation(ctx context.Context, location string) (int64, error)
	CountFinishedSince(ctx context.Context, courseID, studentID string, since time.Time) (int64, error)
	ListByStudentAndCourse(ctx context.Context, courseID, studentID string) ([]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *submissionRepository) CountPendingByLocation(ctx context.Context, location string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("location = ?", location).
		Where("state IN ?", []models.SubmissionState{models.StateWaitingToBeGraded, models.StateBeingGraded}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *submissionRepository) CountFinishedSince(ctx context.Context, courseID, studentID string, since time.Time) (int64, error) {
	// finished_at is set once at the finished transition, so later writes to
	// the row (post-quorum grades, failed attempts) never re-count a
	// submission as newly finished.
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("course_id = ?", courseID).
		Where("student_id = ?", studentID).
		Where("state = ?", models.StateFinished).
		Where("finished_at > ?", since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *submissionRepository) ListByStudentAndCourse(ctx context.Context, courseID, studentID string) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("course_id = ?", courseID).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}
