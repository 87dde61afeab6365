// internal/elearning/implementation_test.go
package elearning

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfmark/internal/store"
)

func TestBuildListQueryFilters(t *testing.T) {
	tests := []struct {
		name         string
		filter       Filter
		withExamCode bool
		withYear     bool
		wantContains []string
		wantArgs     []any
	}{
		{
			name:         "no filters",
			filter:       Filter{},
			wantContains: []string{`FROM "videos"`, `"is_active" IS TRUE`},
		},
		{
			name:         "level filter",
			filter:       Filter{Level: "HSK3"},
			wantContains: []string{`"hsk_level" = $1`},
			wantArgs:     []any{"HSK3"},
		},
		{
			name:         "search filter",
			filter:       Filter{Search: "grammar"},
			wantContains: []string{`"title" ILIKE $1`},
			wantArgs:     []any{"%grammar%"},
		},
		{
			name:         "exam code ignored without support",
			filter:       Filter{ExamCode: "H31"},
			wantContains: []string{`FROM "videos"`},
		},
		{
			name:         "exam code applied when supported",
			filter:       Filter{ExamCode: "H31"},
			withExamCode: true,
			wantContains: []string{`"exam_code" ILIKE $1`},
			wantArgs:     []any{"%H31%"},
		},
		{
			name:         "year applied when supported",
			filter:       Filter{Year: 2023},
			withYear:     true,
			wantContains: []string{`"year" = $1`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildListQuery("videos", tt.filter, tt.withExamCode, tt.withYear)
			require.NoError(t, err)
			for _, fragment := range tt.wantContains {
				assert.Contains(t, query, fragment)
			}
			assert.Contains(t, query, `ORDER BY "created_at" DESC`)
			if tt.wantArgs != nil {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestBuildListQueryCombinedFilters(t *testing.T) {
	query, args, err := buildListQuery("exam_papers", Filter{
		Level:    "HSK4",
		ExamCode: "H41",
		Year:     2022,
		Search:   "listening",
	}, true, true)
	require.NoError(t, err)

	assert.Contains(t, query, `"hsk_level" =`)
	assert.Contains(t, query, `"title" ILIKE`)
	assert.Contains(t, query, `"exam_code" ILIKE`)
	assert.Contains(t, query, `"year" =`)
	assert.Len(t, args, 4)
}

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}

	ctx := context.Background()
	db, err := store.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, store.Migrate(ctx, db))
	for _, table := range store.DataTables {
		_, err := db.ExecContext(ctx, "TRUNCATE "+table+" CASCADE")
		require.NoError(t, err)
	}
	return sqlx.NewDb(db, "postgres")
}

func TestVideoLifecycle(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	created, err := svc.AddVideo(ctx, Video{
		Title:    "HSK3 Listening Practice",
		VideoURL: "https://videos.test/hsk3-listening",
		HSKLevel: "HSK3",
	})
	require.NoError(t, err)
	require.True(t, created.IsActive)

	got, err := svc.GetVideo(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "HSK3 Listening Practice", got.Title)

	videos, err := svc.ListVideos(ctx, Filter{Level: "HSK3"})
	require.NoError(t, err)
	assert.Len(t, videos, 1)

	videos, err = svc.ListVideos(ctx, Filter{Level: "HSK6"})
	require.NoError(t, err)
	assert.Empty(t, videos)

	require.NoError(t, svc.Deactivate(ctx, "video", created.ID))

	_, err = svc.GetVideo(ctx, created.ID)
	assert.ErrorIs(t, err, ErrResourceNotFound)

	videos, err = svc.ListVideos(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, videos, "deactivated resources drop out of listings")
}

func TestDeactivateUnknownType(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	err := svc.Deactivate(context.Background(), "hologram", uuid.New())
	assert.Error(t, err)
}

func TestDashboardCountsAndAnnouncements(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.AddVideo(ctx, Video{Title: "Video One"})
	require.NoError(t, err)
	_, err = svc.AddExamPaper(ctx, ExamPaper{Title: "HSK4 2022 Paper", ExamCode: "H41", Year: 2022})
	require.NoError(t, err)
	_, err = svc.CreateAnnouncement(ctx, "Library closed Friday", "Stocktaking day.")
	require.NoError(t, err)

	dash, err := svc.Dashboard(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.VideosCount)
	assert.Equal(t, 1, dash.ExamPapersCount)
	assert.Equal(t, 0, dash.AudiosCount)
	require.Len(t, dash.Announcements, 1)
	assert.Equal(t, "Library closed Friday", dash.Announcements[0].Title)
	assert.Empty(t, dash.RecentlyViewed)
}

func TestProgressShowsInDashboard(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	studentID := uuid.New()
	_, err := db.Exec(`INSERT INTO students (id, name, email) VALUES ($1, 'Learner', $2)`,
		studentID, studentID.String()+"@students.test")
	require.NoError(t, err)

	video, err := svc.AddVideo(ctx, Video{Title: "Watched Video"})
	require.NoError(t, err)

	svc.LogProgress(ctx, studentID, "video", video.ID, "")

	dash, err := svc.Dashboard(ctx, &studentID)
	require.NoError(t, err)
	require.Len(t, dash.RecentlyViewed, 1)
	assert.Equal(t, "video", dash.RecentlyViewed[0].ResourceType)
	assert.Equal(t, "view", dash.RecentlyViewed[0].Action)
}
