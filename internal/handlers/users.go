package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/analytics"
	"github.com/AmbiraDev/ambira-backend/internal/cache"
	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/logger"
	"github.com/AmbiraDev/ambira-backend/internal/models"
	"github.com/AmbiraDev/ambira-backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"
)

// GetUser returns a user's public profile
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	userID := c.Param("id")
	viewerID, _ := c.Get("user_id")
	viewerIDStr, _ := viewerID.(string)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		util.HandleDBError(c, err, "user")
		return
	}

	if !canViewProfile(&user, viewerIDStr) {
		// Private profiles still show the minimal card
		c.JSON(http.StatusOK, gin.H{
			"user": gin.H{
				"id":                 user.ID,
				"username":           user.Username,
				"name":               user.Name,
				"profile_visibility": user.ProfileVisibility,
			},
			"is_following": isFollowing(viewerIDStr, user.ID),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         user.PublicProfile(),
		"is_following": isFollowing(viewerIDStr, user.ID),
	})
}

// UpdateProfile updates the authenticated user's own profile fields
// PATCH /api/v1/users/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name              *string `json:"name,omitempty" binding:"omitempty,min=1,max=50"`
		Bio               *string `json:"bio,omitempty" binding:"omitempty,max=500"`
		Location          *string `json:"location,omitempty" binding:"omitempty,max=100"`
		ProfileVisibility *string `json:"profile_visibility,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.ProfileVisibility != nil {
		v := models.ProfileVisibility(*req.ProfileVisibility)
		if v != models.ProfileVisibilityEveryone && v != models.ProfileVisibilityPrivate {
			util.RespondValidationError(c, "profile_visibility", "must be everyone or private")
			return
		}
		updates["profile_visibility"] = v
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "No fields to update")
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update profile")
		return
	}

	if h.redis != nil {
		if err := h.redis.Del(c.Request.Context(), cache.ProfileKey(user.ID)); err != nil {
			logger.WarnWithFields("failed to invalidate profile cache", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangeUsername updates the authenticated user's username if available
// PUT /api/v1/users/me/username
func (h *Handlers) ChangeUsername(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Username string `json:"username" binding:"required,min=3,max=30,alphanum"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	username := strings.ToLower(req.Username)
	if username == strings.ToLower(user.Username) {
		c.JSON(http.StatusOK, gin.H{"user": user})
		return
	}

	var count int64
	database.DB.Model(&models.User{}).Where("LOWER(username) = ?", username).Count(&count)
	if count > 0 {
		util.RespondConflict(c, "username")
		return
	}

	if err := database.DB.Model(user).Update("username", req.Username).Error; err != nil {
		util.RespondInternalError(c, "Failed to change username")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UploadProfilePicture stores a new avatar in S3 and updates the profile
// POST /api/v1/users/me/profile-picture
func (h *Handlers) UploadProfilePicture(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if h.uploader == nil {
		util.RespondServiceUnavailable(c, "image uploads")
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		util.RespondBadRequest(c, "Missing image file")
		return
	}
	defer file.Close()

	result, err := h.uploader.UploadProfilePicture(c.Request.Context(), file, header, user.ID)
	if err != nil {
		logger.ErrorWithFields("Profile picture upload failed", err)
		util.RespondInternalError(c, "Failed to upload image")
		return
	}

	if err := database.DB.Model(user).Update("profile_picture_url", result.URL).Error; err != nil {
		util.RespondInternalError(c, "Failed to save profile picture")
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile_picture_url": result.URL})
}

// SearchUsers searches by username or name, prefix-weighted
// GET /api/v1/users/search?q=
func (h *Handlers) SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		util.RespondBadRequest(c, "Missing search query")
		return
	}
	limit := util.ParsePageSize(c.DefaultQuery("limit", "20"), 20, 50)

	var users []models.User
	pattern := "%" + strings.ToLower(query) + "%"
	prefix := strings.ToLower(query) + "%"
	err := database.DB.
		Where("LOWER(username) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "CASE WHEN LOWER(username) LIKE ? THEN 0 ELSE 1 END, followers_count DESC",
			Vars: []interface{}{prefix},
		}}).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		util.RespondInternalError(c, "Search failed")
		return
	}

	results := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		results = append(results, users[i].PublicProfile())
	}

	c.JSON(http.StatusOK, gin.H{"users": results})
}

// GetUserSessions lists a user's sessions, visibility-gated for the viewer
// GET /api/v1/users/:id/sessions
func (h *Handlers) GetUserSessions(c *gin.Context) {
	userID := c.Param("id")
	viewerID, _ := c.Get("user_id")
	viewerIDStr, _ := viewerID.(string)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		util.HandleDBError(c, err, "user")
		return
	}

	if !canViewProfile(&user, viewerIDStr) {
		util.RespondForbidden(c, "This profile is private")
		return
	}

	limit := util.ParsePageSize(c.DefaultQuery("limit", "20"), 20, 50)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if offset < 0 {
		offset = 0
	}

	query := database.DB.
		Preload("Project").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)

	if viewerIDStr != userID {
		if isFollowing(viewerIDStr, userID) {
			query = query.Where("visibility IN ?", []models.SessionVisibility{models.VisibilityEveryone, models.VisibilityFollowers})
		} else {
			query = query.Where("visibility = ?", models.VisibilityEveryone)
		}
	}

	var sessions []models.Session
	if err := query.Find(&sessions).Error; err != nil {
		util.RespondInternalError(c, "Failed to get sessions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetUserStats returns aggregated productivity stats for a user
// GET /api/v1/users/:id/stats?period=week
func (h *Handlers) GetUserStats(c *gin.Context) {
	userID := c.Param("id")
	viewerID, _ := c.Get("user_id")
	viewerIDStr, _ := viewerID.(string)

	period := analytics.Period(c.DefaultQuery("period", string(analytics.PeriodWeek)))
	if !period.Valid() {
		util.RespondValidationError(c, "period", "must be week, month, year or all")
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		util.HandleDBError(c, err, "user")
		return
	}

	if !canViewProfile(&user, viewerIDStr) {
		util.RespondForbidden(c, "This profile is private")
		return
	}

	stats, err := h.analytics.StatsForUser(c.Request.Context(), userID, period, time.Now())
	if err != nil {
		logger.ErrorWithFields("Failed to compute user stats", err)
		util.RespondInternalError(c, "Failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GetUserStreak returns a user's current and longest day streaks
// GET /api/v1/users/:id/streak
func (h *Handlers) GetUserStreak(c *gin.Context) {
	userID := c.Param("id")
	viewerID, _ := c.Get("user_id")
	viewerIDStr, _ := viewerID.(string)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		util.HandleDBError(c, err, "user")
		return
	}

	if !canViewProfile(&user, viewerIDStr) {
		util.RespondForbidden(c, "This profile is private")
		return
	}

	streak, err := h.streaks.ForUser(c.Request.Context(), userID, time.Now())
	if err != nil {
		logger.ErrorWithFields("Failed to compute streak", err)
		util.RespondInternalError(c, "Failed to compute streak")
		return
	}

	c.JSON(http.StatusOK, gin.H{"streak": streak})
}

// DeleteAccount soft-deletes the authenticated user's account
// DELETE /api/v1/users/me
func (h *Handlers) DeleteAccount(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := database.DB.Delete(user).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete account")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
