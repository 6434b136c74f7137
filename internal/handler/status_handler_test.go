package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/openassess/grading-controller/internal/dto"
	"github.com/openassess/grading-controller/internal/service"
)

type stubStatusService struct {
	response dto.ProblemListResponse
	err      error
	courseID string
	student  string
}

func (s *stubStatusService) ProblemList(_ context.Context, courseID, studentID string) (dto.ProblemListResponse, error) {
	s.courseID = courseID
	s.student = studentID
	if s.err != nil {
		return dto.ProblemListResponse{}, s.err
	}
	return s.response, nil
}

func TestProblemListEndpoint(t *testing.T) {
	stub := &stubStatusService{response: dto.ProblemListResponse{
		ProblemList: []dto.ProblemStatus{{SubmissionID: 7, Location: "loc-1"}},
	}}
	app := fiber.New()
	NewStatusHandler(stub, zerolog.Nop()).Register(app.Group("/api/v1/status"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/status/problems?course_id=c1&student_id=s1", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "c1", stub.courseID)
	require.Equal(t, "s1", stub.student)

	envelope := decodeEnvelope(t, resp)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	problems, ok := data["problem_list"].([]interface{})
	require.True(t, ok)
	require.Len(t, problems, 1)
}

func TestProblemListEndpointReportsMissingCourse(t *testing.T) {
	stub := &stubStatusService{err: service.NewMissingKeyError("course_id")}
	app := fiber.New()
	NewStatusHandler(stub, zerolog.Nop()).Register(app.Group("/api/v1/status"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/status/problems", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.Equal(t, "missing required key course_id", envelope.Message)
}
