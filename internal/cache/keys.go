package cache

import "fmt"

// Cache key builders. Keys are namespaced per feature so invalidation can
// target one surface without flushing the rest.

// ProfileKey caches a user's public profile
func ProfileKey(userID string) string {
	return fmt.Sprintf("ambira:profile:%s", userID)
}

// FeedPageKey caches one page of a user's home feed
func FeedPageKey(userID, cursor string, pageSize int) string {
	if cursor == "" {
		cursor = "head"
	}
	return fmt.Sprintf("ambira:feed:home:%s:%s:%d", userID, cursor, pageSize)
}

// FeedPattern matches every cached feed page for a user
func FeedPattern(userID string) string {
	return fmt.Sprintf("ambira:feed:home:%s:*", userID)
}

// GlobalFeedKey caches one page of the discover feed
func GlobalFeedKey(cursor string, pageSize int) string {
	if cursor == "" {
		cursor = "head"
	}
	return fmt.Sprintf("ambira:feed:global:%s:%d", cursor, pageSize)
}

// GlobalFeedPattern matches every cached discover feed page
func GlobalFeedPattern() string {
	return "ambira:feed:global:*"
}

// StreakKey caches a user's computed streaks
func StreakKey(userID string) string {
	return fmt.Sprintf("ambira:streak:%s", userID)
}
