package handlers

import (
	"net/http"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/logger"
	"github.com/AmbiraDev/ambira-backend/internal/models"
	"github.com/AmbiraDev/ambira-backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxSessionDuration rejects obviously bogus manual logs (24h)
const maxSessionDuration = 24 * 60 * 60

type createSessionRequest struct {
	ProjectID   string   `json:"project_id" binding:"required"`
	Title       string   `json:"title" binding:"required,min=1,max=120"`
	Description string   `json:"description" binding:"max=2000"`
	Duration    int      `json:"duration" binding:"required,min=1"`
	Visibility  string   `json:"visibility"`
	GroupIDs    []string `json:"group_ids"`
}

// CreateSession logs a finished session directly, without a live timer
// POST /api/v1/sessions
func (h *Handlers) CreateSession(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	session, apiDone := h.buildSession(c, userID, req)
	if apiDone {
		return
	}

	if err := database.DB.Create(session).Error; err != nil {
		util.RespondInternalError(c, "Failed to create session")
		return
	}

	h.afterSessionLogged(c, session)

	if err := database.DB.Preload("User").Preload("Project").First(session, "id = ?", session.ID).Error; err != nil {
		logger.WarnWithFields("Failed to reload session "+session.ID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// buildSession validates the request into a Session. The second return is
// true when an error response was already written.
func (h *Handlers) buildSession(c *gin.Context, userID string, req createSessionRequest) (*models.Session, bool) {
	if req.Duration > maxSessionDuration {
		util.RespondValidationError(c, "duration", "session cannot exceed 24 hours")
		return nil, true
	}

	visibility := models.SessionVisibility(req.Visibility)
	if req.Visibility == "" {
		visibility = models.VisibilityEveryone
	}
	if !visibility.Valid() {
		util.RespondValidationError(c, "visibility", "must be everyone, followers or private")
		return nil, true
	}

	var project models.Project
	if err := database.DB.Where("id = ? AND user_id = ?", req.ProjectID, userID).First(&project).Error; err != nil {
		util.RespondValidationError(c, "project_id", "Project not found")
		return nil, true
	}

	// Sessions may only be shared to groups the user belongs to
	for _, groupID := range req.GroupIDs {
		if !isGroupMember(groupID, userID) {
			util.RespondValidationError(c, "group_ids", "Not a member of group "+groupID)
			return nil, true
		}
	}

	return &models.Session{
		UserID:      userID,
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		Visibility:  visibility,
		GroupIDs:    models.StringArray(req.GroupIDs),
	}, false
}

// afterSessionLogged runs the bookkeeping every new session needs: counter
// caches, activity preferences, challenge progress, cache invalidation.
func (h *Handlers) afterSessionLogged(c *gin.Context, session *models.Session) {
	if err := database.DB.Model(&models.User{}).Where("id = ?", session.UserID).
		UpdateColumn("session_count", gorm.Expr("session_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment session count for "+session.UserID, err)
	}

	h.recordProjectUse(session.UserID, session.ProjectID)
	h.updateChallengeProgress(session)
	h.streaks.Invalidate(c.Request.Context(), session.UserID)
	h.invalidateFeedCaches(session.UserID)
}

// recordProjectUse upserts the per-user activity preference row
func (h *Handlers) recordProjectUse(userID, projectID string) {
	now := time.Now()
	err := database.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "project_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"use_count":    gorm.Expr("activity_preferences.use_count + 1"),
			"last_used_at": now,
			"updated_at":   now,
		}),
	}).Create(&models.ActivityPreference{
		UserID:     userID,
		ProjectID:  projectID,
		UseCount:   1,
		LastUsedAt: &now,
	}).Error
	if err != nil {
		logger.WarnWithFields("Failed to record project use for "+userID, err)
	}
}

// updateChallengeProgress advances every active challenge the user joined
func (h *Handlers) updateChallengeProgress(session *models.Session) {
	now := time.Now()

	var participants []models.ChallengeParticipant
	err := database.DB.
		Preload("Challenge").
		Joins("JOIN challenges ON challenges.id = challenge_participants.challenge_id").
		Where("challenge_participants.user_id = ?", session.UserID).
		Where("challenges.start_at <= ? AND challenges.end_at > ?", now, now).
		Where("challenge_participants.completed_at IS NULL").
		Find(&participants).Error
	if err != nil {
		logger.WarnWithFields("Failed to load challenge participation for "+session.UserID, err)
		return
	}

	for i := range participants {
		p := &participants[i]

		var delta int
		switch p.Challenge.Type {
		case models.ChallengeTotalHours:
			delta = session.Duration
		case models.ChallengeSessionCount:
			delta = 1
		default:
			// streak_days progress is derived from the streak service on read
			continue
		}

		p.Progress += delta
		if p.GoalReached() {
			p.CompletedAt = &now
			h.notify(p.UserID, "", models.NotificationChallengeComplete, p.ChallengeID,
				"You completed the challenge "+p.Challenge.Name)
		}

		if err := database.DB.Model(p).Select("progress", "completed_at").Updates(p).Error; err != nil {
			logger.WarnWithFields("Failed to update challenge progress for "+p.ID, err)
		}
	}
}

// GetSession returns one session if the viewer may see it
// GET /api/v1/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	sessionID := c.Param("id")
	viewerID, _ := c.Get("user_id")
	viewerIDStr, _ := viewerID.(string)

	var session models.Session
	err := database.DB.Preload("User").Preload("Project").First(&session, "id = ?", sessionID).Error
	if err != nil {
		util.HandleDBError(c, err, "session")
		return
	}

	if !session.VisibleTo(viewerIDStr, isFollowing(viewerIDStr, session.UserID)) {
		// 404 rather than 403 so private session IDs are not confirmable
		util.RespondNotFound(c, "session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// UpdateSession edits the owner's session fields
// PATCH /api/v1/sessions/:id
func (h *Handlers) UpdateSession(c *gin.Context) {
	sessionID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var session models.Session
	if err := database.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		util.HandleDBError(c, err, "session")
		return
	}
	if session.UserID != userID {
		util.RespondForbidden(c, "You can only edit your own sessions")
		return
	}

	var req struct {
		Title       *string   `json:"title,omitempty" binding:"omitempty,min=1,max=120"`
		Description *string   `json:"description,omitempty" binding:"omitempty,max=2000"`
		Visibility  *string   `json:"visibility,omitempty"`
		GroupIDs    *[]string `json:"group_ids,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Visibility != nil {
		v := models.SessionVisibility(*req.Visibility)
		if !v.Valid() {
			util.RespondValidationError(c, "visibility", "must be everyone, followers or private")
			return
		}
		updates["visibility"] = v
	}
	if req.GroupIDs != nil {
		for _, groupID := range *req.GroupIDs {
			if !isGroupMember(groupID, userID) {
				util.RespondValidationError(c, "group_ids", "Not a member of group "+groupID)
				return
			}
		}
		updates["group_ids"] = models.StringArray(*req.GroupIDs)
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "No fields to update")
		return
	}

	if err := database.DB.Model(&session).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update session")
		return
	}

	h.invalidateFeedCaches(userID)

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// DeleteSession soft-deletes the owner's session
// DELETE /api/v1/sessions/:id
func (h *Handlers) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var session models.Session
	if err := database.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		util.HandleDBError(c, err, "session")
		return
	}
	if session.UserID != userID {
		util.RespondForbidden(c, "You can only delete your own sessions")
		return
	}

	if err := database.DB.Delete(&session).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete session")
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ? AND session_count > 0", userID).
		UpdateColumn("session_count", gorm.Expr("session_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement session count for "+userID, err)
	}

	h.streaks.Invalidate(c.Request.Context(), userID)
	h.invalidateFeedCaches(userID)

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

// UploadSessionImage attaches an uploaded image to the owner's session
// POST /api/v1/sessions/:id/images
func (h *Handlers) UploadSessionImage(c *gin.Context) {
	sessionID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if h.uploader == nil {
		util.RespondServiceUnavailable(c, "image uploads")
		return
	}

	var session models.Session
	if err := database.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		util.HandleDBError(c, err, "session")
		return
	}
	if session.UserID != userID {
		util.RespondForbidden(c, "You can only add images to your own sessions")
		return
	}
	if len(session.Images) >= 4 {
		util.RespondValidationError(c, "image", "sessions can have at most 4 images")
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		util.RespondBadRequest(c, "Missing image file")
		return
	}
	defer file.Close()

	result, err := h.uploader.UploadSessionImage(c.Request.Context(), file, header, userID)
	if err != nil {
		logger.ErrorWithFields("Session image upload failed", err)
		util.RespondInternalError(c, "Failed to upload image")
		return
	}

	session.Images = append(session.Images, result.URL)
	if err := database.DB.Model(&session).Update("images", session.Images).Error; err != nil {
		util.RespondInternalError(c, "Failed to save image")
		return
	}

	c.JSON(http.StatusOK, gin.H{"images": session.Images})
}
