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
)

// CreateComment creates a comment on a session
// POST /api/v1/sessions/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	sessionID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content  string  `json:"content" binding:"required,min=1,max=2000"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
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

	var parent *models.Comment
	if req.ParentID != nil && *req.ParentID != "" {
		var parentComment models.Comment
		if err := database.DB.First(&parentComment, "id = ? AND session_id = ?", *req.ParentID, sessionID).Error; err != nil {
			util.RespondValidationError(c, "parent_id", "Parent comment not found")
			return
		}
		// One level of nesting: replying to a reply attaches to its parent
		if parentComment.ParentID != nil {
			req.ParentID = parentComment.ParentID
			if err := database.DB.First(&parentComment, "id = ?", *req.ParentID).Error; err != nil {
				util.RespondValidationError(c, "parent_id", "Parent comment not found")
				return
			}
		}
		parent = &parentComment
	}

	comment := models.Comment{
		SessionID: sessionID,
		UserID:    userID,
		Content:   req.Content,
		ParentID:  req.ParentID,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to create comment")
		return
	}

	if err := database.DB.Model(&session).
		UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment comment count for session "+sessionID, err)
	}
	if parent != nil {
		if err := database.DB.Model(parent).
			UpdateColumn("reply_count", gorm.Expr("reply_count + 1")).Error; err != nil {
			logger.WarnWithFields("Failed to increment reply count for comment "+parent.ID, err)
		}
	}

	if parent != nil {
		h.notify(parent.UserID, userID, models.NotificationReply, comment.ID, "replied to your comment")
	}
	h.notify(session.UserID, userID, models.NotificationComment, comment.ID, "commented on your session")

	if err := database.DB.Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		logger.WarnWithFields("Failed to reload comment "+comment.ID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetComments lists top-level comments for a session, oldest first, with
// their replies preloaded
// GET /api/v1/sessions/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
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

	var comments []models.Comment
	err := database.DB.
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_deleted = false").Order("created_at ASC").Preload("User")
		}).
		Where("session_id = ? AND parent_id IS NULL AND is_deleted = false", sessionID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to get comments")
		return
	}

	var total int64
	if err := database.DB.Model(&models.Comment{}).
		Where("session_id = ? AND is_deleted = false", sessionID).
		Count(&total).Error; err != nil {
		logger.WarnWithFields("Failed to count comments for session "+sessionID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"meta": gin.H{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

// UpdateComment edits the author's own comment
// PATCH /api/v1/comments/:id
func (h *Handlers) UpdateComment(c *gin.Context) {
	commentID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ? AND is_deleted = false", commentID).Error; err != nil {
		util.HandleDBError(c, err, "comment")
		return
	}
	if comment.UserID != userID {
		util.RespondForbidden(c, "You can only edit your own comments")
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"content":   req.Content,
		"is_edited": true,
		"edited_at": now,
	}
	if err := database.DB.Model(&comment).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

// DeleteComment soft-deletes a comment. The author or the session owner
// may remove it; replies stay attached under "comment removed".
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	commentID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.Preload("Session").First(&comment, "id = ? AND is_deleted = false", commentID).Error; err != nil {
		util.HandleDBError(c, err, "comment")
		return
	}
	if comment.UserID != userID && comment.Session.UserID != userID {
		util.RespondForbidden(c, "You cannot delete this comment")
		return
	}

	if err := database.DB.Model(&comment).Update("is_deleted", true).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete comment")
		return
	}

	if err := database.DB.Model(&models.Session{}).
		Where("id = ? AND comment_count > 0", comment.SessionID).
		UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement comment count for session "+comment.SessionID, err)
	}
	if comment.ParentID != nil {
		if err := database.DB.Model(&models.Comment{}).
			Where("id = ? AND reply_count > 0", *comment.ParentID).
			UpdateColumn("reply_count", gorm.Expr("reply_count - 1")).Error; err != nil {
			logger.WarnWithFields("Failed to decrement reply count for comment "+*comment.ParentID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}

// LikeComment adds the user's like to a comment, idempotently
// POST /api/v1/comments/:id/like
func (h *Handlers) LikeComment(c *gin.Context) {
	commentID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ? AND is_deleted = false", commentID).Error; err != nil {
		util.HandleDBError(c, err, "comment")
		return
	}

	var existing models.CommentLike
	err := database.DB.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"liked": true, "like_count": comment.LikeCount})
		return
	}

	like := models.CommentLike{CommentID: commentID, UserID: userID}
	if err := database.DB.Create(&like).Error; err != nil {
		util.RespondInternalError(c, "Failed to like comment")
		return
	}

	if err := database.DB.Model(&comment).
		UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment like count for comment "+commentID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"liked": true, "like_count": comment.LikeCount + 1})
}

// UnlikeComment removes the user's like
// DELETE /api/v1/comments/:id/like
func (h *Handlers) UnlikeComment(c *gin.Context) {
	commentID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to unlike comment")
		return
	}

	if result.RowsAffected > 0 {
		if err := database.DB.Model(&models.Comment{}).Where("id = ? AND like_count > 0", commentID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
			logger.WarnWithFields("Failed to decrement like count for comment "+commentID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"liked": false})
}
