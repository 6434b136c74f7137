package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/openassess/grading-controller/internal/models"
)

// openTestDB gives every test its own named in-memory database so fixtures
// cannot leak between tests.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Submission{}, &models.Grader{}, &models.SubmissionFlag{}, &models.PeerBan{}))

	return db
}

func seedSubmission(t *testing.T, db *gorm.DB, submission models.Submission) models.Submission {
	t.Helper()

	if submission.State == "" {
		submission.State = models.StateBeingGraded
	}
	require.NoError(t, db.Create(&submission).Error)

	return submission
}
