// internal/elearning/implementation.go
package elearning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var dialect = goqu.Dialect("postgres")

// resourceTables maps the resource type names used in progress entries
// and the deactivate endpoint to their tables.
var resourceTables = map[string]string{
	"video":          "videos",
	"audio":          "audios",
	"exam_paper":     "exam_papers",
	"marking_scheme": "marking_schemes",
}

// service implements the Service interface.
type service struct {
	db *sqlx.DB
}

// NewService creates a new e-learning service instance.
func NewService(db *sqlx.DB) Service {
	return &service{db: db}
}

// buildListQuery assembles the filtered listing for a resource table.
// Only filters whose fields are set contribute WHERE clauses, so each
// resource type applies just the filters its columns support.
func buildListQuery(table string, f Filter, withExamCode, withYear bool) (string, []any, error) {
	ds := dialect.From(table).Where(goqu.Ex{"is_active": true})
	if f.Level != "" {
		ds = ds.Where(goqu.Ex{"hsk_level": f.Level})
	}
	if f.Search != "" {
		ds = ds.Where(goqu.I("title").ILike("%" + f.Search + "%"))
	}
	if withExamCode && f.ExamCode != "" {
		ds = ds.Where(goqu.I("exam_code").ILike("%" + f.ExamCode + "%"))
	}
	if withYear && f.Year != 0 {
		ds = ds.Where(goqu.Ex{"year": f.Year})
	}
	return ds.Order(goqu.I("created_at").Desc()).Prepared(true).ToSQL()
}

// Dashboard aggregates resource counts, active announcements and the
// student's recently viewed resources.
func (s *service) Dashboard(ctx context.Context, studentID *uuid.UUID) (*Dashboard, error) {
	dash := &Dashboard{}

	counts := map[string]*int{
		"videos":          &dash.VideosCount,
		"audios":          &dash.AudiosCount,
		"exam_papers":     &dash.ExamPapersCount,
		"marking_schemes": &dash.MarkingSchemesCount,
	}
	for table, dst := range counts {
		query, args, err := dialect.From(table).
			Select(goqu.COUNT("*")).
			Where(goqu.Ex{"is_active": true}).
			Prepared(true).ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build count query: %w", err)
		}
		if err := s.db.GetContext(ctx, dst, query, args...); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
	}

	announcements, err := s.recentAnnouncements(ctx, 5)
	if err != nil {
		return nil, err
	}
	dash.Announcements = announcements

	if studentID != nil {
		err := s.db.SelectContext(ctx, &dash.RecentlyViewed, `
			SELECT id, student_id, resource_type, resource_id, action, accessed_at
			FROM student_progress
			WHERE student_id = $1
			ORDER BY accessed_at DESC
			LIMIT 5
		`, *studentID)
		if err != nil {
			return nil, fmt.Errorf("recent progress: %w", err)
		}
	}

	return dash, nil
}

func (s *service) ListVideos(ctx context.Context, f Filter) ([]*Video, error) {
	query, args, err := buildListQuery("videos", f, false, false)
	if err != nil {
		return nil, fmt.Errorf("build videos query: %w", err)
	}
	var videos []*Video
	if err := s.db.SelectContext(ctx, &videos, query, args...); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

func (s *service) GetVideo(ctx context.Context, id uuid.UUID) (*Video, error) {
	video := &Video{}
	err := s.db.GetContext(ctx, video, `SELECT * FROM videos WHERE id = $1 AND is_active`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

func (s *service) AddVideo(ctx context.Context, v Video) (*Video, error) {
	if v.Title == "" {
		return nil, errors.New("title is required")
	}
	v.ID = uuid.New()
	v.IsActive = true
	v.CreatedAt = time.Now().UTC()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO videos (id, title, description, video_url, hsk_level, is_active, created_at)
		VALUES (:id, :title, :description, :video_url, :hsk_level, :is_active, :created_at)
	`, v)
	if err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}
	return &v, nil
}

func (s *service) ListAudios(ctx context.Context, f Filter) ([]*Audio, error) {
	query, args, err := buildListQuery("audios", f, true, false)
	if err != nil {
		return nil, fmt.Errorf("build audios query: %w", err)
	}
	var audios []*Audio
	if err := s.db.SelectContext(ctx, &audios, query, args...); err != nil {
		return nil, fmt.Errorf("list audios: %w", err)
	}
	return audios, nil
}

func (s *service) GetAudio(ctx context.Context, id uuid.UUID) (*Audio, error) {
	audio := &Audio{}
	err := s.db.GetContext(ctx, audio, `SELECT * FROM audios WHERE id = $1 AND is_active`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("get audio: %w", err)
	}
	return audio, nil
}

func (s *service) AddAudio(ctx context.Context, a Audio) (*Audio, error) {
	if a.Title == "" {
		return nil, errors.New("title is required")
	}
	a.ID = uuid.New()
	a.IsActive = true
	a.CreatedAt = time.Now().UTC()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO audios (id, title, description, file_path, hsk_level, exam_code, is_active, created_at)
		VALUES (:id, :title, :description, :file_path, :hsk_level, :exam_code, :is_active, :created_at)
	`, a)
	if err != nil {
		return nil, fmt.Errorf("insert audio: %w", err)
	}
	return &a, nil
}

func (s *service) ListExamPapers(ctx context.Context, f Filter) ([]*ExamPaper, error) {
	query, args, err := buildListQuery("exam_papers", f, true, true)
	if err != nil {
		return nil, fmt.Errorf("build exam papers query: %w", err)
	}
	var papers []*ExamPaper
	if err := s.db.SelectContext(ctx, &papers, query, args...); err != nil {
		return nil, fmt.Errorf("list exam papers: %w", err)
	}
	return papers, nil
}

func (s *service) AddExamPaper(ctx context.Context, p ExamPaper) (*ExamPaper, error) {
	if p.Title == "" {
		return nil, errors.New("title is required")
	}
	p.ID = uuid.New()
	p.IsActive = true
	p.CreatedAt = time.Now().UTC()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO exam_papers (id, title, file_path, hsk_level, exam_code, year, is_active, created_at)
		VALUES (:id, :title, :file_path, :hsk_level, :exam_code, :year, :is_active, :created_at)
	`, p)
	if err != nil {
		return nil, fmt.Errorf("insert exam paper: %w", err)
	}
	return &p, nil
}

func (s *service) ListMarkingSchemes(ctx context.Context, f Filter) ([]*MarkingScheme, error) {
	query, args, err := buildListQuery("marking_schemes", f, true, true)
	if err != nil {
		return nil, fmt.Errorf("build marking schemes query: %w", err)
	}
	var schemes []*MarkingScheme
	if err := s.db.SelectContext(ctx, &schemes, query, args...); err != nil {
		return nil, fmt.Errorf("list marking schemes: %w", err)
	}
	return schemes, nil
}

func (s *service) AddMarkingScheme(ctx context.Context, m MarkingScheme) (*MarkingScheme, error) {
	if m.Title == "" {
		return nil, errors.New("title is required")
	}
	m.ID = uuid.New()
	m.IsActive = true
	m.CreatedAt = time.Now().UTC()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO marking_schemes (id, title, file_path, hsk_level, exam_code, year, is_active, created_at)
		VALUES (:id, :title, :file_path, :hsk_level, :exam_code, :year, :is_active, :created_at)
	`, m)
	if err != nil {
		return nil, fmt.Errorf("insert marking scheme: %w", err)
	}
	return &m, nil
}

// Deactivate hides a resource from listings without deleting it.
func (s *service) Deactivate(ctx context.Context, resourceType string, id uuid.UUID) error {
	table, ok := resourceTables[resourceType]
	if !ok {
		return fmt.Errorf("unknown resource type %q", resourceType)
	}
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET is_active = FALSE WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("deactivate %s: %w", resourceType, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate %s: %w", resourceType, err)
	}
	if affected == 0 {
		return ErrResourceNotFound
	}
	return nil
}

// LogProgress records a resource view. Best-effort: failures are
// logged and never surfaced to the student.
func (s *service) LogProgress(ctx context.Context, studentID uuid.UUID, resourceType string, resourceID uuid.UUID, action string) {
	if action == "" {
		action = "view"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO student_progress (student_id, resource_type, resource_id, action, accessed_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, studentID, resourceType, resourceID, action)
	if err != nil {
		log.Printf("failed to log progress for student %s: %v", studentID, err)
	}
}

func (s *service) ListAnnouncements(ctx context.Context) ([]*Announcement, error) {
	return s.recentAnnouncements(ctx, 0)
}

func (s *service) recentAnnouncements(ctx context.Context, limit int) ([]*Announcement, error) {
	ds := dialect.From("announcements").
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.I("created_at").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build announcements query: %w", err)
	}
	var announcements []*Announcement
	if err := s.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return announcements, nil
}

func (s *service) CreateAnnouncement(ctx context.Context, title, body string) (*Announcement, error) {
	if title == "" {
		return nil, errors.New("title is required")
	}
	announcement := &Announcement{
		ID:        uuid.New(),
		Title:     title,
		Body:      body,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO announcements (id, title, body, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, announcement.ID, announcement.Title, announcement.Body, announcement.IsActive, announcement.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert announcement: %w", err)
	}
	return announcement, nil
}
