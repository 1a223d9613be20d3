package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestChunkIDs(t *testing.T) {
	t.Run("empty input returns no chunks", func(t *testing.T) {
		assert.Nil(t, chunkIDs(nil, 10))
		assert.Nil(t, chunkIDs([]string{}, 10))
	})

	t.Run("fewer ids than chunk size gives one chunk", func(t *testing.T) {
		chunks := chunkIDs([]string{"a", "b", "c"}, 10)
		assert.Len(t, chunks, 1)
		assert.Equal(t, []string{"a", "b", "c"}, chunks[0])
	})

	t.Run("exact multiple splits evenly", func(t *testing.T) {
		ids := make([]string, 20)
		for i := range ids {
			ids[i] = fmt.Sprintf("user-%d", i)
		}
		chunks := chunkIDs(ids, 10)
		assert.Len(t, chunks, 2)
		assert.Len(t, chunks[0], 10)
		assert.Len(t, chunks[1], 10)
	})

	t.Run("remainder lands in a short final chunk", func(t *testing.T) {
		ids := make([]string, 23)
		for i := range ids {
			ids[i] = fmt.Sprintf("user-%d", i)
		}
		chunks := chunkIDs(ids, 10)
		assert.Len(t, chunks, 3)
		assert.Len(t, chunks[2], 3)
		assert.Equal(t, "user-22", chunks[2][2])
	})

	t.Run("chunks preserve order", func(t *testing.T) {
		chunks := chunkIDs([]string{"a", "b", "c", "d", "e"}, 2)
		assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, chunks)
	})
}

func sessionAt(id string, at time.Time) models.Session {
	return models.Session{ID: id, CreatedAt: at}
}

func TestPageFromMerged(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty merge gives empty page", func(t *testing.T) {
		page := pageFromMerged(nil, 20)
		assert.Empty(t, page.Sessions)
		assert.False(t, page.HasMore)
		assert.Empty(t, page.NextCursor)
	})

	t.Run("sorts newest first across chunks", func(t *testing.T) {
		merged := []models.Session{
			sessionAt("old", base.Add(-2*time.Hour)),
			sessionAt("newest", base),
			sessionAt("middle", base.Add(-time.Hour)),
		}
		page := pageFromMerged(merged, 20)
		assert.Equal(t, "newest", page.Sessions[0].ID)
		assert.Equal(t, "middle", page.Sessions[1].ID)
		assert.Equal(t, "old", page.Sessions[2].ID)
		assert.False(t, page.HasMore)
	})

	t.Run("ties on created_at break by id descending", func(t *testing.T) {
		merged := []models.Session{
			sessionAt("aaa", base),
			sessionAt("zzz", base),
			sessionAt("mmm", base),
		}
		page := pageFromMerged(merged, 20)
		assert.Equal(t, "zzz", page.Sessions[0].ID)
		assert.Equal(t, "mmm", page.Sessions[1].ID)
		assert.Equal(t, "aaa", page.Sessions[2].ID)
	})

	t.Run("truncates to page size and reports more", func(t *testing.T) {
		var merged []models.Session
		for i := 0; i < 7; i++ {
			merged = append(merged, sessionAt(fmt.Sprintf("s-%d", i), base.Add(-time.Duration(i)*time.Minute)))
		}
		page := pageFromMerged(merged, 5)
		assert.Len(t, page.Sessions, 5)
		assert.True(t, page.HasMore)
		assert.Equal(t, "s-4", page.NextCursor)
	})

	t.Run("exactly page size means no next page", func(t *testing.T) {
		var merged []models.Session
		for i := 0; i < 5; i++ {
			merged = append(merged, sessionAt(fmt.Sprintf("s-%d", i), base.Add(-time.Duration(i)*time.Minute)))
		}
		page := pageFromMerged(merged, 5)
		assert.Len(t, page.Sessions, 5)
		assert.False(t, page.HasMore)
		assert.Empty(t, page.NextCursor)
	})

	t.Run("next cursor is the last included session", func(t *testing.T) {
		merged := []models.Session{
			sessionAt("first", base),
			sessionAt("second", base.Add(-time.Minute)),
			sessionAt("third", base.Add(-2*time.Minute)),
		}
		page := pageFromMerged(merged, 2)
		assert.True(t, page.HasMore)
		assert.Equal(t, "second", page.NextCursor)
	})
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, clampPageSize(0))
	assert.Equal(t, DefaultPageSize, clampPageSize(-5))
	assert.Equal(t, 1, clampPageSize(1))
	assert.Equal(t, 35, clampPageSize(35))
	assert.Equal(t, MaxPageSize, clampPageSize(MaxPageSize))
	assert.Equal(t, MaxPageSize, clampPageSize(500))
}
