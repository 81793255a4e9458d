package progress

import "time"

// Record is a student's watch state for a single video. Identity is the
// (StudentID, VideoID) pair; records are created on first write, overwritten
// on every subsequent write, and never deleted.
type Record struct {
	StudentID       string    `json:"student_id" db:"student_id"`
	VideoID         string    `json:"video_id" db:"video_id"`
	WatchedDuration int       `json:"watched_duration" db:"watched_duration"` // seconds
	Completed       bool      `json:"completed" db:"completed"`
	LastWatchedAt   time.Time `json:"last_watched_at" db:"last_watched_at"` // UTC
}

// Threshold returns the watched position (in seconds) at which a video of the
// given duration counts as completed: 90% of the duration, but never less
// than 10 seconds.
func Threshold(durationSeconds int) int {
	t := durationSeconds * 9 / 10
	if t < 10 {
		return 10
	}
	return t
}

// IsCompleted applies the completion rule for a known duration. Callers with
// an unknown duration (0) must decide completion from the terminal playback
// event instead.
func IsCompleted(positionSeconds, durationSeconds int) bool {
	return durationSeconds > 0 && positionSeconds >= Threshold(durationSeconds)
}

// AdminRow is one row of the cross-entity progress report.
type AdminRow struct {
	StudentID       string    `json:"student_id" db:"student_id"`
	StudentName     string    `json:"student_name" db:"student_name"`
	StudentEmail    string    `json:"student_email" db:"student_email"`
	Classrooms      string    `json:"classrooms" db:"classrooms"` // comma-joined names
	VideoTitle      string    `json:"video_title" db:"video_title"`
	CategoryName    string    `json:"category_name" db:"category_name"`
	WatchedDuration int       `json:"watched_duration" db:"watched_duration"`
	VideoDuration   int       `json:"video_duration" db:"video_duration"`
	PercentViewed   int       `json:"percent_viewed" db:"percent_viewed"`
	Completed       bool      `json:"completed" db:"completed"`
	LastWatchedAt   time.Time `json:"last_watched_at" db:"last_watched_at"`
}

// AdminFilter applies an AND operation on available fields.
// Search does a case-insensitive match on student name/email or video title.
type AdminFilter struct {
	Search      string `query:"q"`
	CategoryID  string `query:"category"`
	ClassroomID string `query:"classroom"`
	Completed   *bool  `query:"completed"`
	// SupervisorID restricts to students enrolled in classrooms overseen by
	// the given supervisor.
	SupervisorID string `query:"-"`
}

// Stats summarizes a student's standing across the videos they can access.
type Stats struct {
	TotalVideos     int `json:"total_videos"`
	CompletedVideos int `json:"completed_videos"`
	WatchedSeconds  int `json:"watched_seconds"`
	PercentComplete int `json:"percent_complete"`
}
