// internal/elearning/service.go
package elearning

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the e-learning portal service.
type Service interface {
	Dashboard(ctx context.Context, studentID *uuid.UUID) (*Dashboard, error)

	ListVideos(ctx context.Context, f Filter) ([]*Video, error)
	GetVideo(ctx context.Context, id uuid.UUID) (*Video, error)
	AddVideo(ctx context.Context, v Video) (*Video, error)

	ListAudios(ctx context.Context, f Filter) ([]*Audio, error)
	GetAudio(ctx context.Context, id uuid.UUID) (*Audio, error)
	AddAudio(ctx context.Context, a Audio) (*Audio, error)

	ListExamPapers(ctx context.Context, f Filter) ([]*ExamPaper, error)
	AddExamPaper(ctx context.Context, p ExamPaper) (*ExamPaper, error)

	ListMarkingSchemes(ctx context.Context, f Filter) ([]*MarkingScheme, error)
	AddMarkingScheme(ctx context.Context, m MarkingScheme) (*MarkingScheme, error)

	Deactivate(ctx context.Context, resourceType string, id uuid.UUID) error

	LogProgress(ctx context.Context, studentID uuid.UUID, resourceType string, resourceID uuid.UUID, action string)

	ListAnnouncements(ctx context.Context) ([]*Announcement, error)
	CreateAnnouncement(ctx context.Context, title, body string) (*Announcement, error)
}
