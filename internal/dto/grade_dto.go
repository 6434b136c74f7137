package dto

// GradeIngestRequest is the grade mapping posted by an external grading
// worker. All seven keys are required; pointer fields distinguish "absent"
// from zero values so validation can name the missing key.
type GradeIngestRequest struct {
	Feedback     *string  `json:"feedback"`
	Status       *string  `json:"status"`
	GraderID     *string  `json:"grader_id"`
	GraderType   *string  `json:"grader_type"`
	Confidence   *float64 `json:"confidence"`
	Score        *float64 `json:"score"`
	SubmissionID *uint    `json:"submission_id"`
}

// MissingKey returns the first absent required key in contract order, or ""
// when all keys are present.
func (r GradeIngestRequest) MissingKey() string {
	switch {
	case r.Feedback == nil:
		return "feedback"
	case r.Status == nil:
		return "status"
	case r.GraderID == nil:
		return "grader_id"
	case r.GraderType == nil:
		return "grader_type"
	case r.Confidence == nil:
		return "confidence"
	case r.Score == nil:
		return "score"
	case r.SubmissionID == nil:
		return "submission_id"
	}
	return ""
}

// GradeReceipt echoes the external queue identity pair on successful ingest so
// the transport can acknowledge the result back to the submitter.
type GradeReceipt struct {
	SubmissionID  string `json:"submission_id"`
	SubmissionKey string `json:"submission_key"`
}
