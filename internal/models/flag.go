package models

import (
	"time"

	"gorm.io/datatypes"
)

// FlagStatus tracks the moderation lifecycle of a flagged submission.
type FlagStatus string

const (
	// FlagStatusOpen means the flag awaits moderator review.
	FlagStatusOpen FlagStatus = "open"
	// FlagStatusResolved means a moderator acted on the flag.
	FlagStatusResolved FlagStatus = "resolved"
	// FlagStatusDismissed means a moderator rejected the flag as unfounded.
	FlagStatusDismissed FlagStatus = "dismissed"
)

// SubmissionFlag is a report that a peer-graded submission is abusive or
// off-topic. Flags are raised by the peer-review workflow and resolved by
// moderators.
type SubmissionFlag struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SubmissionID uint           `gorm:"not null;index" json:"submission_id"`
	CourseID     string         `gorm:"size:255;not null;index" json:"course_id"`
	StudentID    string         `gorm:"size:255;not null;index" json:"student_id"`
	RaisedBy     string         `gorm:"size:255;not null" json:"raised_by"`
	Reason       string         `gorm:"type:text" json:"reason"`
	Status       FlagStatus     `gorm:"size:16;not null;default:open" json:"status"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Submission   Submission     `gorm:"constraint:OnUpdate:CASCADE" json:"submission,omitempty"`
}

// PeerBan excludes a student from peer grading in a course. The row is the
// durable contract consulted by peer work distribution before handing out
// grading assignments.
type PeerBan struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  string    `gorm:"size:255;not null;uniqueIndex:idx_peer_ban_course_student" json:"course_id"`
	StudentID string    `gorm:"size:255;not null;uniqueIndex:idx_peer_ban_course_student" json:"student_id"`
	BannedBy  string    `gorm:"size:255" json:"banned_by"`
	Reason    string    `gorm:"type:text" json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
