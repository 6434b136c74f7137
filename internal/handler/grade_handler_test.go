package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/openassess/grading-controller/internal/dto"
	"github.com/openassess/grading-controller/internal/service"
	"github.com/openassess/grading-controller/internal/utils"
)

type stubGradingService struct {
	receipt dto.GradeReceipt
	err     error
	got     dto.GradeIngestRequest
}

func (s *stubGradingService) ApplyGrade(_ context.Context, payload dto.GradeIngestRequest) (dto.GradeReceipt, error) {
	s.got = payload
	return s.receipt, s.err
}

func newGradeApp(svc service.GradingService) *fiber.App {
	app := fiber.New()
	NewGradeHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/grades"))
	return app
}

func postGrade(t *testing.T, app *fiber.App, body string) (*http.Response, utils.APIResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/grades", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope utils.APIResponse
	require.NoError(t, json.Unmarshal(raw, &envelope))

	return resp, envelope
}

func TestGradeIngestReturnsReceipt(t *testing.T) {
	stub := &stubGradingService{receipt: dto.GradeReceipt{SubmissionID: "queue-1", SubmissionKey: "key-1"}}
	app := newGradeApp(stub)

	resp, envelope := postGrade(t, app, `{
		"feedback": "solid work",
		"status": "success",
		"grader_id": "grader-7",
		"grader_type": "PE",
		"confidence": 0.9,
		"score": 0.85,
		"submission_id": 12
	}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)
	require.Equal(t, utils.InterfaceVersion, envelope.Version)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "queue-1", data["submission_id"])
	require.Equal(t, "key-1", data["submission_key"])

	require.NotNil(t, stub.got.SubmissionID)
	require.Equal(t, uint(12), *stub.got.SubmissionID)
}

func TestGradeIngestRejectsMalformedBody(t *testing.T) {
	app := newGradeApp(&stubGradingService{})

	resp, envelope := postGrade(t, app, `{"feedback": `)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.False(t, envelope.Success)
}

func TestGradeIngestReportsValidationErrorsVerbatim(t *testing.T) {
	stub := &stubGradingService{err: service.NewMissingKeyError("grader_type")}
	app := newGradeApp(stub)

	resp, envelope := postGrade(t, app, `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.False(t, envelope.Success)
	require.Equal(t, "missing required key grader_type", envelope.Message)
}

func TestGradeIngestMapsUnknownSubmissionTo404(t *testing.T) {
	stub := &stubGradingService{err: service.ErrSubmissionNotFound}
	app := newGradeApp(stub)

	resp, envelope := postGrade(t, app, `{}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "submission not found", envelope.Message)
}

func TestGradeIngestHidesStoreFailures(t *testing.T) {
	stub := &stubGradingService{err: &service.StoreError{Op: "apply grade", Err: context.DeadlineExceeded}}
	app := newGradeApp(stub)

	resp, envelope := postGrade(t, app, `{}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "internal server error", envelope.Message)
}
