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

// FollowUser creates a follow edge from the authenticated user
// POST /api/v1/users/:id/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	followeeID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if followeeID == userID {
		util.RespondBadRequest(c, "Cannot follow yourself")
		return
	}

	var followee models.User
	if err := database.DB.First(&followee, "id = ?", followeeID).Error; err != nil {
		util.HandleDBError(c, err, "user")
		return
	}

	// Idempotent: following twice is not an error
	var existing models.Follow
	err := database.DB.Where("follower_id = ? AND followee_id = ?", userID, followeeID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"following": true})
		return
	}

	follow := models.Follow{FollowerID: userID, FolloweeID: followeeID}
	if err := database.DB.Create(&follow).Error; err != nil {
		util.RespondInternalError(c, "Failed to follow user")
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", followeeID).
		UpdateColumn("followers_count", gorm.Expr("followers_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment followers count for "+followeeID, err)
	}
	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment following count for "+userID, err)
	}

	h.notify(followeeID, userID, models.NotificationFollow, userID, "started following you")

	c.JSON(http.StatusCreated, gin.H{"following": true})
}

// UnfollowUser removes the follow edge
// DELETE /api/v1/users/:id/follow
func (h *Handlers) UnfollowUser(c *gin.Context) {
	followeeID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.Where("follower_id = ? AND followee_id = ?", userID, followeeID).Delete(&models.Follow{})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to unfollow user")
		return
	}

	// Only adjust counters when an edge was actually removed
	if result.RowsAffected > 0 {
		if err := database.DB.Model(&models.User{}).Where("id = ? AND followers_count > 0", followeeID).
			UpdateColumn("followers_count", gorm.Expr("followers_count - 1")).Error; err != nil {
			logger.WarnWithFields("Failed to decrement followers count for "+followeeID, err)
		}
		if err := database.DB.Model(&models.User{}).Where("id = ? AND following_count > 0", userID).
			UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error; err != nil {
			logger.WarnWithFields("Failed to decrement following count for "+userID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"following": false})
}

// GetFollowers lists the users following :id
// GET /api/v1/users/:id/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	userID := c.Param("id")
	limit := util.ParsePageSize(c.DefaultQuery("limit", "20"), 20, 100)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if offset < 0 {
		offset = 0
	}

	var follows []models.Follow
	err := database.DB.
		Preload("Follower").
		Where("followee_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to get followers")
		return
	}

	users := make([]map[string]interface{}, 0, len(follows))
	for i := range follows {
		users = append(users, follows[i].Follower.PublicProfile())
	}

	c.JSON(http.StatusOK, gin.H{"followers": users})
}

// GetFollowing lists the users :id follows
// GET /api/v1/users/:id/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	userID := c.Param("id")
	limit := util.ParsePageSize(c.DefaultQuery("limit", "20"), 20, 100)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if offset < 0 {
		offset = 0
	}

	var follows []models.Follow
	err := database.DB.
		Preload("Followee").
		Where("follower_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to get following")
		return
	}

	users := make([]map[string]interface{}, 0, len(follows))
	for i := range follows {
		users = append(users, follows[i].Followee.PublicProfile())
	}

	c.JSON(http.StatusOK, gin.H{"following": users})
}
