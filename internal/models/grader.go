package models

import "time"

// GraderType categorises the entity that produced a grade record.
type GraderType string

const (
	// GraderTypeML is automated machine scoring.
	GraderTypeML GraderType = "ML"
	// GraderTypeIN is instructor review.
	GraderTypeIN GraderType = "IN"
	// GraderTypePE is peer review.
	GraderTypePE GraderType = "PE"
)

// Valid reports whether the grader type belongs to the closed set.
func (t GraderType) Valid() bool {
	switch t {
	case GraderTypeML, GraderTypeIN, GraderTypePE:
		return true
	}
	return false
}

// Terminal reports whether one successful grade of this type finalises a
// submission on its own. Peer grades finalise only through the quorum count.
func (t GraderType) Terminal() bool {
	switch t {
	case GraderTypeML, GraderTypeIN:
		return true
	case GraderTypePE:
		return false
	}
	return false
}

// GraderStatus is the outcome code of one grading attempt.
type GraderStatus string

const (
	// GraderStatusSuccess indicates the grading attempt produced a usable score.
	GraderStatusSuccess GraderStatus = "success"
	// GraderStatusFailure indicates the grading attempt failed; the record is
	// kept but the submission does not advance.
	GraderStatusFailure GraderStatus = "failure"
)

// Valid reports whether the status belongs to the closed set.
func (s GraderStatus) Valid() bool {
	switch s {
	case GraderStatusSuccess, GraderStatusFailure:
		return true
	}
	return false
}

// Grader is one grading attempt against a submission. Records are append-only:
// once created they are never mutated or deleted, and multiple records per
// submission are expected for peer review.
type Grader struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	SubmissionID uint         `gorm:"not null;index" json:"submission_id"`
	Score        float64      `json:"score"`
	Feedback     string       `gorm:"type:text" json:"feedback"`
	StatusCode   GraderStatus `gorm:"size:16;not null" json:"status_code"`
	GraderID     string       `gorm:"size:255;not null" json:"grader_id"`
	GraderType   GraderType   `gorm:"size:4;not null" json:"grader_type"`
	Confidence   float64      `json:"confidence"`
	CreatedAt    time.Time    `json:"created_at"`
}

// IsSuccessful reports whether the attempt counts toward completion.
func (g Grader) IsSuccessful() bool {
	return g.StatusCode == GraderStatusSuccess
}
