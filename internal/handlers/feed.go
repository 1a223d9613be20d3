package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/cache"
	"github.com/AmbiraDev/ambira-backend/internal/feed"
	"github.com/AmbiraDev/ambira-backend/internal/logger"
	"github.com/AmbiraDev/ambira-backend/internal/metrics"
	"github.com/AmbiraDev/ambira-backend/internal/util"
	"github.com/gin-gonic/gin"
)

// feedCacheTTL keeps cached pages short-lived; mutations also invalidate
const feedCacheTTL = 60 * time.Second

// GetHomeFeed returns the authenticated user's home feed: sessions from
// followed users plus their own, newest first, cursor-paginated
// GET /api/v1/feed?page_size=&cursor=
func (h *Handlers) GetHomeFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	pageSize := util.ParsePageSize(c.DefaultQuery("page_size", "20"), feed.DefaultPageSize, feed.MaxPageSize)
	cursor := c.Query("cursor")

	cacheKey := cache.FeedPageKey(userID, cursor, pageSize)
	if h.redis != nil {
		var cached feed.Page
		if err := h.redis.GetJSON(c.Request.Context(), cacheKey, &cached); err == nil {
			metrics.Get().CacheHitsTotal.WithLabelValues("feed").Inc()
			c.JSON(http.StatusOK, cached)
			return
		} else if !cache.IsNil(err) {
			logger.WarnWithFields("feed cache read failed", err)
		}
		metrics.Get().CacheMissesTotal.WithLabelValues("feed").Inc()
	}

	authorIDs, err := followingIDs(userID)
	if err != nil {
		util.RespondInternalError(c, "Failed to load follow list")
		return
	}

	page, err := h.feed.HomeFeed(c.Request.Context(), userID, authorIDs, pageSize, cursor)
	if err != nil {
		if errors.Is(err, feed.ErrCursorNotFound) {
			util.RespondValidationError(c, "cursor", "Cursor no longer exists; restart from the first page")
			return
		}
		logger.ErrorWithFields("Home feed fetch failed", err)
		util.RespondInternalError(c, "Failed to load feed")
		return
	}

	if h.redis != nil {
		if err := h.redis.SetJSON(c.Request.Context(), cacheKey, page, feedCacheTTL); err != nil {
			logger.WarnWithFields("feed cache write failed", err)
		}
	}

	c.JSON(http.StatusOK, page)
}

// GetGlobalFeed returns the public discover feed
// GET /api/v1/feed/global?page_size=&cursor=
func (h *Handlers) GetGlobalFeed(c *gin.Context) {
	pageSize := util.ParsePageSize(c.DefaultQuery("page_size", "20"), feed.DefaultPageSize, feed.MaxPageSize)
	cursor := c.Query("cursor")

	cacheKey := cache.GlobalFeedKey(cursor, pageSize)
	if h.redis != nil {
		var cached feed.Page
		if err := h.redis.GetJSON(c.Request.Context(), cacheKey, &cached); err == nil {
			metrics.Get().CacheHitsTotal.WithLabelValues("feed").Inc()
			c.JSON(http.StatusOK, cached)
			return
		} else if !cache.IsNil(err) {
			logger.WarnWithFields("global feed cache read failed", err)
		}
		metrics.Get().CacheMissesTotal.WithLabelValues("feed").Inc()
	}

	page, err := h.feed.GlobalFeed(c.Request.Context(), pageSize, cursor)
	if err != nil {
		if errors.Is(err, feed.ErrCursorNotFound) {
			util.RespondValidationError(c, "cursor", "Cursor no longer exists; restart from the first page")
			return
		}
		logger.ErrorWithFields("Global feed fetch failed", err)
		util.RespondInternalError(c, "Failed to load feed")
		return
	}

	if h.redis != nil {
		if err := h.redis.SetJSON(c.Request.Context(), cacheKey, page, feedCacheTTL); err != nil {
			logger.WarnWithFields("global feed cache write failed", err)
		}
	}

	c.JSON(http.StatusOK, page)
}

// GetGroupFeed returns sessions shared to a group, members only
// GET /api/v1/groups/:id/feed?page_size=&cursor=
func (h *Handlers) GetGroupFeed(c *gin.Context) {
	groupID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if !isGroupMember(groupID, userID) {
		util.RespondForbidden(c, "Join the group to see its feed")
		return
	}

	pageSize := util.ParsePageSize(c.DefaultQuery("page_size", "20"), feed.DefaultPageSize, feed.MaxPageSize)
	cursor := c.Query("cursor")

	page, err := h.feed.GroupFeed(c.Request.Context(), userID, groupID, pageSize, cursor)
	if err != nil {
		if errors.Is(err, feed.ErrCursorNotFound) {
			util.RespondValidationError(c, "cursor", "Cursor no longer exists; restart from the first page")
			return
		}
		logger.ErrorWithFields("Group feed fetch failed", err)
		util.RespondInternalError(c, "Failed to load feed")
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetFeedNewCount reports how many home-feed sessions arrived after the
// client's last look, for the "N new sessions" banner
// GET /api/v1/feed/new-count?since=RFC3339
func (h *Handlers) GetFeedNewCount(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	sinceStr := c.Query("since")
	if sinceStr == "" {
		util.RespondValidationError(c, "since", "required RFC3339 timestamp")
		return
	}
	since, err := time.Parse(time.RFC3339, sinceStr)
	if err != nil {
		util.RespondValidationError(c, "since", "must be an RFC3339 timestamp")
		return
	}

	authorIDs, err := followingIDs(userID)
	if err != nil {
		util.RespondInternalError(c, "Failed to load follow list")
		return
	}

	count, err := h.feed.NewCount(c.Request.Context(), userID, authorIDs, since)
	if err != nil {
		logger.ErrorWithFields("Feed new-count failed", err)
		util.RespondInternalError(c, "Failed to count new sessions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"new_count": count})
}
