// internal/elearning/domain.go
package elearning

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrResourceNotFound = errors.New("resource not found")

// Video is a teaching video reference. Delivery of the content itself
// happens outside this service; only metadata is tracked here.
type Video struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	VideoURL    string    `db:"video_url" json:"video_url,omitempty"`
	HSKLevel    string    `db:"hsk_level" json:"hsk_level,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Audio is a listening exercise or exam audio file.
type Audio struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	FilePath    string    `db:"file_path" json:"file_path,omitempty"`
	HSKLevel    string    `db:"hsk_level" json:"hsk_level,omitempty"`
	ExamCode    string    `db:"exam_code" json:"exam_code,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ExamPaper is a past paper available for study.
type ExamPaper struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	FilePath  string    `db:"file_path" json:"file_path,omitempty"`
	HSKLevel  string    `db:"hsk_level" json:"hsk_level,omitempty"`
	ExamCode  string    `db:"exam_code" json:"exam_code,omitempty"`
	Year      int       `db:"year" json:"year,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MarkingScheme is the answer key paired with an exam paper.
type MarkingScheme struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	FilePath  string    `db:"file_path" json:"file_path,omitempty"`
	HSKLevel  string    `db:"hsk_level" json:"hsk_level,omitempty"`
	ExamCode  string    `db:"exam_code" json:"exam_code,omitempty"`
	Year      int       `db:"year" json:"year,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Announcement is a notice shown on the portal dashboard.
type Announcement struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProgressEntry records a student viewing or downloading a resource.
type ProgressEntry struct {
	ID           int64     `db:"id" json:"id"`
	StudentID    uuid.UUID `db:"student_id" json:"student_id"`
	ResourceType string    `db:"resource_type" json:"resource_type"`
	ResourceID   uuid.UUID `db:"resource_id" json:"resource_id"`
	Action       string    `db:"action" json:"action"`
	AccessedAt   time.Time `db:"accessed_at" json:"accessed_at"`
}

// Dashboard aggregates the portal landing page data.
type Dashboard struct {
	VideosCount         int              `json:"videos_count"`
	AudiosCount         int              `json:"audios_count"`
	ExamPapersCount     int              `json:"exam_papers_count"`
	MarkingSchemesCount int              `json:"marking_schemes_count"`
	Announcements       []*Announcement  `json:"announcements"`
	RecentlyViewed      []*ProgressEntry `json:"recently_viewed,omitempty"`
}

// Filter narrows resource listings. Zero values mean "no constraint";
// which fields apply depends on the resource type.
type Filter struct {
	Level    string
	ExamCode string
	Search   string
	Year     int
}
