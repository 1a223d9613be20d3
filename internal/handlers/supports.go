package handlers

import (
	"net/http"

	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/logger"
	"github.com/AmbiraDev/ambira-backend/internal/models"
	"github.com/AmbiraDev/ambira-backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SupportSession adds the authenticated user's support to a session.
// Idempotent: supporting twice returns the current state.
// POST /api/v1/sessions/:id/support
func (h *Handlers) SupportSession(c *gin.Context) {
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

	if !session.VisibleTo(userID, isFollowing(userID, session.UserID)) {
		util.RespondNotFound(c, "session")
		return
	}

	var existing models.Support
	err := database.DB.Where("session_id = ? AND user_id = ?", sessionID, userID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"supported": true, "support_count": session.SupportCount})
		return
	}

	support := models.Support{SessionID: sessionID, UserID: userID}
	if err := database.DB.Create(&support).Error; err != nil {
		util.RespondInternalError(c, "Failed to support session")
		return
	}

	if err := database.DB.Model(&session).
		UpdateColumn("support_count", gorm.Expr("support_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment support count for "+sessionID, err)
	}

	h.notify(session.UserID, userID, models.NotificationSupport, sessionID, "supported your session")

	c.JSON(http.StatusCreated, gin.H{"supported": true, "support_count": session.SupportCount + 1})
}

// UnsupportSession removes the user's support
// DELETE /api/v1/sessions/:id/support
func (h *Handlers) UnsupportSession(c *gin.Context) {
	sessionID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.Where("session_id = ? AND user_id = ?", sessionID, userID).Delete(&models.Support{})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to remove support")
		return
	}

	if result.RowsAffected > 0 {
		if err := database.DB.Model(&models.Session{}).Where("id = ? AND support_count > 0", sessionID).
			UpdateColumn("support_count", gorm.Expr("support_count - 1")).Error; err != nil {
			logger.WarnWithFields("Failed to decrement support count for "+sessionID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"supported": false})
}

// GetSupporters lists users who supported a session
// GET /api/v1/sessions/:id/supporters
func (h *Handlers) GetSupporters(c *gin.Context) {
	sessionID := c.Param("id")
	viewerID, _ := c.Get("user_id")
	viewerIDStr, _ := viewerID.(string)

	var session models.Session
	if err := database.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		util.HandleDBError(c, err, "session")
		return
	}

	if !session.VisibleTo(viewerIDStr, isFollowing(viewerIDStr, session.UserID)) {
		util.RespondNotFound(c, "session")
		return
	}

	limit := util.ParsePageSize(c.DefaultQuery("limit", "20"), 20, 100)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if offset < 0 {
		offset = 0
	}

	var supports []models.Support
	err := database.DB.
		Preload("User").
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&supports).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to get supporters")
		return
	}

	users := make([]map[string]interface{}, 0, len(supports))
	for i := range supports {
		users = append(users, supports[i].User.PublicProfile())
	}

	c.JSON(http.StatusOK, gin.H{"supporters": users, "support_count": session.SupportCount})
}
