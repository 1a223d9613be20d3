package handlers

import (
	"context"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/analytics"
	"github.com/AmbiraDev/ambira-backend/internal/auth"
	"github.com/AmbiraDev/ambira-backend/internal/cache"
	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/email"
	"github.com/AmbiraDev/ambira-backend/internal/feed"
	"github.com/AmbiraDev/ambira-backend/internal/logger"
	"github.com/AmbiraDev/ambira-backend/internal/models"
	"github.com/AmbiraDev/ambira-backend/internal/storage"
	"github.com/AmbiraDev/ambira-backend/internal/streaks"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth      *auth.Service
	feed      *feed.Repository
	streaks   *streaks.Service
	analytics *analytics.Service
	uploader  storage.ImageUploader
	email     *email.Service
	redis     *cache.RedisClient
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService *auth.Service, feedRepo *feed.Repository, streakService *streaks.Service, analyticsService *analytics.Service) *Handlers {
	return &Handlers{
		auth:      authService,
		feed:      feedRepo,
		streaks:   streakService,
		analytics: analyticsService,
	}
}

// SetUploader sets the S3 image uploader
func (h *Handlers) SetUploader(uploader storage.ImageUploader) {
	h.uploader = uploader
}

// SetEmailService sets the SES email service
func (h *Handlers) SetEmailService(emailService *email.Service) {
	h.email = emailService
}

// SetRedisClient sets the Redis cache client
func (h *Handlers) SetRedisClient(redis *cache.RedisClient) {
	h.redis = redis
}

// notify records an in-app notification. Self-notifications are dropped
// (an empty actorID marks a system notification, which always delivers)
// and failures only log; notifications never fail the triggering request.
func (h *Handlers) notify(userID, actorID string, notifType models.NotificationType, targetID, message string) {
	if actorID != "" && userID == actorID {
		return
	}
	n := models.Notification{
		UserID:   userID,
		Type:     notifType,
		ActorID:  actorID,
		TargetID: targetID,
		Message:  message,
	}
	if err := database.DB.Create(&n).Error; err != nil {
		logger.WarnWithFields("Failed to create notification for user "+userID, err)
	}
}

// invalidateFeedCaches drops cached feed pages for everyone who follows the
// author, plus the author's own feed and the global feed.
func (h *Handlers) invalidateFeedCaches(authorID string) {
	if h.redis == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var followerIDs []string
		if err := database.DB.Model(&models.Follow{}).Where("followee_id = ?", authorID).Pluck("follower_id", &followerIDs).Error; err != nil {
			logger.WarnWithFields("failed to list followers for cache invalidation", err)
			return
		}
		for _, id := range append(followerIDs, authorID) {
			if err := h.redis.DelPattern(ctx, cache.FeedPattern(id)); err != nil {
				logger.WarnWithFields("failed to invalidate feed cache", err)
			}
		}
		if err := h.redis.DelPattern(ctx, cache.GlobalFeedPattern()); err != nil {
			logger.WarnWithFields("failed to invalidate global feed cache", err)
		}
	}()
}
