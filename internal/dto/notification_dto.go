package dto

import "time"

// NotificationQuery is the polling request for grading events after a
// client-supplied watermark.
type NotificationQuery struct {
	CourseID       string `query:"course_id"`
	StudentID      string `query:"student_id"`
	UserIsStaff    *bool  `query:"user_is_staff"`
	LastTimeViewed string `query:"last_time_viewed"`
}

// CombinedNotificationsResponse summarizes grading events since the watermark.
// Flag counts are populated only for staff callers.
type CombinedNotificationsResponse struct {
	NewGradesReceived  int64     `json:"new_grades_received"`
	NewFlagsRaised     int64     `json:"new_flags_raised"`
	OverallNeedToCheck bool      `json:"overall_need_to_check"`
	CheckedAt          time.Time `json:"checked_at"`
}
