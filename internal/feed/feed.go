package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/metrics"
	"github.com/AmbiraDev/ambira-backend/internal/models"
	"gorm.io/gorm"
)

// chunkSize mirrors the 10-value limit document databases place on IN
// queries; keeping it bounds the per-query plan size on Postgres too.
const chunkSize = 10

// DefaultPageSize is used when the client does not ask for a size
const DefaultPageSize = 20

// MaxPageSize caps client-requested page sizes
const MaxPageSize = 50

// ErrCursorNotFound is returned when the pagination cursor no longer resolves
// to a session (deleted since the previous page was served).
var ErrCursorNotFound = errors.New("feed cursor not found")

// Page is one page of feed results. NextCursor is the ID of the last
// included session and is only meaningful when HasMore is true.
type Page struct {
	Sessions   []models.Session `json:"sessions"`
	NextCursor string           `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

// Repository assembles session feeds. The home feed partitions the follow
// list into chunks, issues one query per chunk, merges and re-sorts the
// results, and pages with an ID cursor.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a feed repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// cursorPoint is the sort position a cursor session occupied
type cursorPoint struct {
	createdAt time.Time
	id        string
}

// resolveCursor looks up the cursor session to find where the previous page
// ended. An empty cursor means "start at the head".
func (r *Repository) resolveCursor(ctx context.Context, cursor string) (*cursorPoint, error) {
	if cursor == "" {
		return nil, nil
	}

	var s models.Session
	err := r.db.WithContext(ctx).Select("id", "created_at").First(&s, "id = ?", cursor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCursorNotFound
		}
		return nil, fmt.Errorf("failed to resolve feed cursor: %w", err)
	}

	return &cursorPoint{createdAt: s.CreatedAt, id: s.ID}, nil
}

// afterCursor applies "strictly after the cursor position" in the feed's
// (created_at DESC, id DESC) sort order.
func afterCursor(q *gorm.DB, cp *cursorPoint) *gorm.DB {
	if cp == nil {
		return q
	}
	return q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cp.createdAt, cp.createdAt, cp.id)
}

// HomeFeed returns sessions from the given authors (the viewer's follow list
// plus the viewer), visibility-gated for a follower: everyone and followers
// sessions are included, private ones only for the viewer.
//
// Any failed chunk query fails the whole page fetch.
func (r *Repository) HomeFeed(ctx context.Context, viewerID string, authorIDs []string, pageSize int, cursor string) (*Page, error) {
	start := time.Now()
	defer func() {
		metrics.Get().FeedPageDuration.WithLabelValues("home").Observe(time.Since(start).Seconds())
	}()

	pageSize = clampPageSize(pageSize)

	cp, err := r.resolveCursor(ctx, cursor)
	if err != nil {
		return nil, err
	}

	m := metrics.Get()
	var merged []models.Session
	for i, chunk := range chunkIDs(authorIDs, chunkSize) {
		var sessions []models.Session
		q := r.db.WithContext(ctx).
			Preload("User").
			Preload("Project").
			Where("user_id IN ?", chunk).
			Where("(visibility IN ? OR user_id = ?)",
				[]models.SessionVisibility{models.VisibilityEveryone, models.VisibilityFollowers}, viewerID)
		q = afterCursor(q, cp)

		err := q.Order("created_at DESC, id DESC").Limit(pageSize + 1).Find(&sessions).Error
		if err != nil {
			m.FeedChunksTotal.WithLabelValues("home", "error").Inc()
			return nil, fmt.Errorf("failed to fetch feed chunk %d: %w", i, err)
		}
		m.FeedChunksTotal.WithLabelValues("home", "success").Inc()

		merged = append(merged, sessions...)
	}

	return pageFromMerged(merged, pageSize), nil
}

// GlobalFeed returns the discover feed: everyone-visibility sessions from
// all users, newest first.
func (r *Repository) GlobalFeed(ctx context.Context, pageSize int, cursor string) (*Page, error) {
	start := time.Now()
	defer func() {
		metrics.Get().FeedPageDuration.WithLabelValues("global").Observe(time.Since(start).Seconds())
	}()

	pageSize = clampPageSize(pageSize)

	cp, err := r.resolveCursor(ctx, cursor)
	if err != nil {
		return nil, err
	}

	var sessions []models.Session
	q := r.db.WithContext(ctx).
		Preload("User").
		Preload("Project").
		Where("visibility = ?", models.VisibilityEveryone)
	q = afterCursor(q, cp)

	if err := q.Order("created_at DESC, id DESC").Limit(pageSize + 1).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch global feed: %w", err)
	}

	return pageFromMerged(sessions, pageSize), nil
}

// GroupFeed returns sessions shared to a group. Private sessions stay
// owner-only even when tagged to a group.
func (r *Repository) GroupFeed(ctx context.Context, viewerID, groupID string, pageSize int, cursor string) (*Page, error) {
	start := time.Now()
	defer func() {
		metrics.Get().FeedPageDuration.WithLabelValues("group").Observe(time.Since(start).Seconds())
	}()

	pageSize = clampPageSize(pageSize)

	cp, err := r.resolveCursor(ctx, cursor)
	if err != nil {
		return nil, err
	}

	var sessions []models.Session
	q := r.db.WithContext(ctx).
		Preload("User").
		Preload("Project").
		Where("? = ANY(group_ids)", groupID).
		Where("(visibility <> ? OR user_id = ?)", models.VisibilityPrivate, viewerID)
	q = afterCursor(q, cp)

	if err := q.Order("created_at DESC, id DESC").Limit(pageSize + 1).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch group feed: %w", err)
	}

	return pageFromMerged(sessions, pageSize), nil
}

// NewCount returns how many home-feed sessions were created after since,
// replacing the client-side "last viewed feed time" marker.
func (r *Repository) NewCount(ctx context.Context, viewerID string, authorIDs []string, since time.Time) (int64, error) {
	var total int64
	for i, chunk := range chunkIDs(authorIDs, chunkSize) {
		var count int64
		err := r.db.WithContext(ctx).Model(&models.Session{}).
			Where("user_id IN ?", chunk).
			Where("(visibility IN ? OR user_id = ?)",
				[]models.SessionVisibility{models.VisibilityEveryone, models.VisibilityFollowers}, viewerID).
			Where("created_at > ?", since).
			Count(&count).Error
		if err != nil {
			return 0, fmt.Errorf("failed to count feed chunk %d: %w", i, err)
		}
		total += count
	}
	return total, nil
}

// chunkIDs partitions ids into groups of at most size
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// pageFromMerged sorts the concatenated chunk results newest-first and
// truncates to the page size, using the extra row to detect another page.
func pageFromMerged(merged []models.Session, pageSize int) *Page {
	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].CreatedAt.After(merged[j].CreatedAt)
		}
		return merged[i].ID > merged[j].ID
	})

	page := &Page{}
	if len(merged) > pageSize {
		page.HasMore = true
		merged = merged[:pageSize]
	}
	page.Sessions = merged
	if page.HasMore && len(merged) > 0 {
		page.NextCursor = merged[len(merged)-1].ID
	}
	return page
}

func clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return DefaultPageSize
	}
	if pageSize > MaxPageSize {
		return MaxPageSize
	}
	return pageSize
}
