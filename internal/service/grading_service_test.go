package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openassess/grading-controller/internal/dto"
	"github.com/openassess/grading-controller/internal/models"
	"github.com/openassess/grading-controller/internal/repository"
)

// memoryGradingStore mimics the transactional store: ApplyGrade holds a mutex
// for the duration of the closure, the same serialization the row lock gives
// concurrent callers in production.
type memoryGradingStore struct {
	mu           sync.Mutex
	submissions  map[uint]models.Submission
	graders      map[uint][]models.Grader
	nextGraderID uint
}

func newMemoryGradingStore(submissions ...models.Submission) *memoryGradingStore {
	store := &memoryGradingStore{
		submissions:  make(map[uint]models.Submission),
		graders:      make(map[uint][]models.Grader),
		nextGraderID: 1,
	}
	for _, submission := range submissions {
		store.submissions[submission.ID] = submission
	}
	return store
}

func (m *memoryGradingStore) ApplyGrade(_ context.Context, submissionID uint, apply func(tx repository.GradingTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	submission, ok := m.submissions[submissionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	return apply(&memoryGradingTx{store: m, submission: submission})
}

type memoryGradingTx struct {
	store      *memoryGradingStore
	submission models.Submission
}

func (t *memoryGradingTx) Submission() models.Submission {
	return t.submission
}

func (t *memoryGradingTx) CreateGrader(grader *models.Grader) error {
	grader.ID = t.store.nextGraderID
	t.store.nextGraderID++
	t.store.graders[grader.SubmissionID] = append(t.store.graders[grader.SubmissionID], *grader)
	return nil
}

func (t *memoryGradingTx) CountSuccessfulPeerGrades() (int64, error) {
	var count int64
	for _, grader := range t.store.graders[t.submission.ID] {
		if grader.GraderType == models.GraderTypePE && grader.StatusCode == models.GraderStatusSuccess {
			count++
		}
	}
	return count, nil
}

func (t *memoryGradingTx) UpdateSubmission(submission *models.Submission) error {
	t.store.submissions[submission.ID] = *submission
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	subject string
	payload interface{}
}

func (p *capturePublisher) Publish(subject string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{subject: subject, payload: payload})
}

func (p *capturePublisher) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, event := range p.events {
		if event.subject == subject {
			total++
		}
	}
	return total
}

func pendingSubmission(id uint) models.Submission {
	return models.Submission{
		ID:                  id,
		XQueueSubmissionID:  "queue-1001",
		XQueueSubmissionKey: "key-abcdef",
		Location:            "i4x://course/problem/p1",
		CourseID:            "course-v1:Demo+101+2026",
		StudentID:           "student-42",
		State:               models.StateBeingGraded,
	}
}

func gradePayload(submissionID uint, graderType, status string) dto.GradeIngestRequest {
	feedback := "well done"
	graderID := "grader-7"
	confidence := 0.9
	score := 0.85
	return dto.GradeIngestRequest{
		Feedback:     &feedback,
		Status:       &status,
		GraderID:     &graderID,
		GraderType:   &graderType,
		Confidence:   &confidence,
		Score:        &score,
		SubmissionID: &submissionID,
	}
}

func fixedQuorum(n int) QuorumSource {
	return func() int { return n }
}

func TestApplyGradeReportsFirstMissingKey(t *testing.T) {
	store := newMemoryGradingStore(pendingSubmission(1))
	svc := NewGradingService(store, SameGraderPolicy{}, fixedQuorum(3), nil, zerolog.Nop())

	cases := []struct {
		key   string
		strip func(*dto.GradeIngestRequest)
	}{
		{"feedback", func(r *dto.GradeIngestRequest) { r.Feedback = nil }},
		{"status", func(r *dto.GradeIngestRequest) { r.Status = nil }},
		{"grader_id", func(r *dto.GradeIngestRequest) { r.GraderID = nil }},
		{"grader_type", func(r *dto.GradeIngestRequest) { r.GraderType = nil }},
		{"confidence", func(r *dto.GradeIngestRequest) { r.Confidence = nil }},
		{"score", func(r *dto.GradeIngestRequest) { r.Score = nil }},
		{"submission_id", func(r *dto.GradeIngestRequest) { r.SubmissionID = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			payload := gradePayload(1, "ML", "success")
			tc.strip(&payload)

			_, err := svc.ApplyGrade(context.Background(), payload)
			require.Error(t, err)
			require.True(t, IsValidationError(err))
			require.Equal(t, "missing required key "+tc.key, err.Error())
		})
	}
}

func TestApplyGradeRejectsMalformedFields(t *testing.T) {
	store := newMemoryGradingStore(pendingSubmission(1))
	svc := NewGradingService(store, SameGraderPolicy{}, fixedQuorum(3), nil, zerolog.Nop())

	t.Run("unknown grader type", func(t *testing.T) {
		_, err := svc.ApplyGrade(context.Background(), gradePayload(1, "XX", "success"))
		require.True(t, IsValidationError(err))
		require.Contains(t, err.Error(), "grader_type")
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := svc.ApplyGrade(context.Background(), gradePayload(1, "ML", "maybe"))
		require.True(t, IsValidationError(err))
		require.Contains(t, err.Error(), "status")
	})

	t.Run("confidence out of range", func(t *testing.T) {
		payload := gradePayload(1, "ML", "success")
		confidence := 1.5
		payload.Confidence = &confidence

		_, err := svc.ApplyGrade(context.Background(), payload)
		require.True(t, IsValidationError(err))
		require.Contains(t, err.Error(), "confidence")
	})

	t.Run("blank grader id", func(t *testing.T) {
		payload := gradePayload(1, "ML", "success")
		blank := "   "
		payload.GraderID = &blank

		_, err := svc.ApplyGrade(context.Background(), payload)
		require.True(t, IsValidationError(err))
		require.Contains(t, err.Error(), "grader_id")
	})

	// Nothing is persisted when validation fails.
	require.Empty(t, store.graders[1])
}

func TestApplyGradeMachineSuccessFinishesImmediately(t *testing.T) {
	store := newMemoryGradingStore(pendingSubmission(1))
	events := &capturePublisher{}
	svc := NewGradingService(store, SameGraderPolicy{}, fixedQuorum(3), events, zerolog.Nop())

	receipt, err := svc.ApplyGrade(context.Background(), gradePayload(1, "ML", "success"))
	require.NoError(t, err)
	require.Equal(t, "queue-1001", receipt.SubmissionID)
	require.Equal(t, "key-abcdef", receipt.SubmissionKey)

	updated := store.submissions[1]
	require.Equal(t, models.StateFinished, updated.State)
	require.Equal(t, models.GraderTypeML, updated.PreviousGraderType)
	require.Equal(t, models.GraderTypeML, updated.NextGraderType)
	require.Len(t, store.graders[1], 1)
	require.Equal(t, 1, events.count("submission.finished"))
}

func TestApplyGradeInstructorSuccessFinishesImmediately(t *testing.T) {
	store := newMemoryGradingStore(pendingSubmission(1))
	svc := NewGradingService(store, SameGraderPolicy{}, fixedQuorum(3), nil, zerolog.Nop())

	_, err := svc.ApplyGrade(context.Background(), gradePayload(1, "IN", "success"))
	require.NoError(t, err)
	require.Equal(t, models.StateFinished, store.submissions[1].State)
}

func TestApplyGradePeerQuorumBoundary(t *testing.T) {
	store := newMemoryGradingStore(pendingSubmission(1))
	events := &capturePublisher{}
	svc := NewGradingService(store, SameGraderPolicy{}, fixedQuorum(3), events, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := svc.ApplyGrade(context.Background(), gradePayload(1, "PE", "success"))
		require.NoError(t, err)
		require.Equal(t, models.StateBeingGraded, store.submissions[1].State)
	}

	_, err := svc.ApplyGrade(context.Background(), gradePayload(1, "PE", "success"))
	require.NoError(t, err)
	require.Equal(t, models.StateFinished, store.submissions[1].State)
	require.Equal(t, 1, events.count("submission.finished"))

	require.NotNil(t, store.submissions[1].FinishedAt)
	finishedAt := *store.submissions[1].FinishedAt

	// A grade past the quorum is recorded but does not re-announce completion
	// or move the finished timestamp.
	_, err = svc.ApplyGrade(context.Background(), gradePayload(1, "PE", "success"))
	require.NoError(t, err)
	require.Equal(t, models.StateFinished, store.submissions[1].State)
	require.Len(t, store.graders[1], 4)
	require.Equal(t, 1, events.count("submission.finished"))
	require.NotNil(t, store.submissions[1].FinishedAt)
	require.Equal(t, finishedAt, *store.submissions[1].FinishedAt)
}

func TestApplyGradeFailureRecordsWithoutTransition(t *testing.T) {
	store := newMemoryGradingStore(pendingSubmission(1))
	events := &capturePublisher{}
	svc := NewGradingService(store, SameGraderPolicy{}, fixedQuorum(3), events, zerolog.Nop())

	receipt, err := svc.ApplyGrade(context.Background(), gradePayload(1, "ML", "failure"))
	require.NoError(t, err)
	require.Equal(t, "queue-1001", receipt.SubmissionID)

	updated := store.submissions[1]
	require.Equal(t, models.StateBeingGraded, updated.State)
	require.Equal(t, models.GraderTypeML, updated.PreviousGraderType)
	require.Len(t, store.graders[1], 1)
	require.Equal(t, 0, events.count("submission.finished"))
}

func TestApplyGradeFinishedSubmissionStaysFinished(t *testing.T) {
	submission := pendingSubmission(1)
	submission.State = models.StateFinished
	store := newMemoryGradingStore(submission)
	events := &capturePublisher{}
	svc := NewGradingService(store, SameGraderPolicy{}, fixedQuorum(3), events, zerolog.Nop())

	_, err := svc.ApplyGrade(context.Background(), gradePayload(1, "IN", "success"))
	require.NoError(t, err)
	require.Equal(t, models.StateFinished, store.submissions[1].State)
	require.Len(t, store.graders[1], 1)
	// Already-finished submissions never re-announce completion.
	require.Equal(t, 0, events.count("submission.finished"))
}

func TestApplyGradeUnknownSubmission(t *testing.T) {
	store := newMemoryGradingStore()
	svc := NewGradingService(store, SameGraderPolicy{}, fixedQuorum(3), nil, zerolog.Nop())

	_, err := svc.ApplyGrade(context.Background(), gradePayload(99, "ML", "success"))
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestApplyGradeWrapsStoreFailures(t *testing.T) {
	boom := errors.New("disk on fire")
	svc := NewGradingService(failingGradingStore{err: boom}, SameGraderPolicy{}, fixedQuorum(3), nil, zerolog.Nop())

	_, err := svc.ApplyGrade(context.Background(), gradePayload(1, "ML", "success"))

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	require.ErrorIs(t, err, boom)
}

type failingGradingStore struct {
	err error
}

func (f failingGradingStore) ApplyGrade(context.Context, uint, func(tx repository.GradingTx) error) error {
	return f.err
}

func TestApplyGradeSanitizesFeedback(t *testing.T) {
	store := newMemoryGradingStore(pendingSubmission(1))
	svc := NewGradingService(store, SameGraderPolicy{}, fixedQuorum(3), nil, zerolog.Nop())

	payload := gradePayload(1, "ML", "success")
	feedback := "<b>well</b> done"
	payload.Feedback = &feedback

	_, err := svc.ApplyGrade(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, "well done", store.graders[1][0].Feedback)
}

func TestApplyGradeConcurrentPeerGradesFinishOnce(t *testing.T) {
	store := newMemoryGradingStore(pendingSubmission(1))
	events := &capturePublisher{}
	svc := NewGradingService(store, SameGraderPolicy{}, fixedQuorum(2), events, zerolog.Nop())

	errs := make(chan error, 4)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyGrade(context.Background(), gradePayload(1, "PE", "success"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, models.StateFinished, store.submissions[1].State)
	require.Len(t, store.graders[1], 4)
	require.Equal(t, 1, events.count("submission.finished"))
}

func TestSubmissionFinishedEventCarriesIdentityPair(t *testing.T) {
	store := newMemoryGradingStore(pendingSubmission(1))
	events := &capturePublisher{}
	svc := NewGradingService(store, SameGraderPolicy{}, fixedQuorum(3), events, zerolog.Nop())

	_, err := svc.ApplyGrade(context.Background(), gradePayload(1, "ML", "success"))
	require.NoError(t, err)
	require.Len(t, events.events, 1)

	encoded, err := json.Marshal(events.events[0].payload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, "queue-1001", decoded["xqueue_submission_id"])
	require.Equal(t, "key-abcdef", decoded["xqueue_submission_key"])
	require.Equal(t, "ML", decoded["grader_type"])
}
