package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openassess/grading-controller/internal/models"
)

// GradingTx exposes the operations available inside one atomic grade
// application. The submission row is locked for the lifetime of the
// transaction, so quorum counts and the resulting state transition are never
// computed from a stale view.
type GradingTx interface {
	Submission() models.Submission
	CreateGrader(grader *models.Grader) error
	CountSuccessfulPeerGrades() (int64, error)
	UpdateSubmission(submission *models.Submission) error
}

// GradingStore runs the persist-grade-and-recompute-state unit of work.
type GradingStore interface {
	// ApplyGrade locks the submission row, then invokes apply inside the
	// transaction. Returns gorm.ErrRecordNotFound when the submission does
	// not exist. Concurrent calls for the same submission serialize on the
	// row lock; calls for different submissions proceed in parallel.
	ApplyGrade(ctx context.Context, submissionID uint, apply func(tx GradingTx) error) error
}

type gradingStore struct {
	db *gorm.DB
}

// NewGradingStore instantiates the transactional grading store.
func NewGradingStore(db *gorm.DB) GradingStore {
	return &gradingStore{db: db}
}

func (s *gradingStore) ApplyGrade(ctx context.Context, submissionID uint, apply func(tx GradingTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.Submission{})
		// sqlite (used in tests) has no SELECT ... FOR UPDATE; its writers
		// serialize on the database lock instead.
		if tx.Dialector.Name() != "sqlite" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var submission models.Submission
		if err := query.First(&submission, submissionID).Error; err != nil {
			return err
		}

		return apply(&gradingTx{db: tx, submission: submission})
	})
}

type gradingTx struct {
	db         *gorm.DB
	submission models.Submission
}

func (t *gradingTx) Submission() models.Submission {
	return t.submission
}

func (t *gradingTx) CreateGrader(grader *models.Grader) error {
	return t.db.Create(grader).Error
}

func (t *gradingTx) CountSuccessfulPeerGrades() (int64, error) {
	var count int64
	err := t.db.Model(&models.Grader{}).
		Where("submission_id = ?", t.submission.ID).
		Where("grader_type = ?", models.GraderTypePE).
		Where("status_code = ?", models.GraderStatusSuccess).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (t *gradingTx) UpdateSubmission(submission *models.Submission) error {
	return t.db.Save(submission).Error
}
