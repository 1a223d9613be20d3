package handlers

import (
	"net/http"
	"strings"

	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/logger"
	"github.com/AmbiraDev/ambira-backend/internal/models"
	"github.com/AmbiraDev/ambira-backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateGroup creates a group with the caller as its first admin
// POST /api/v1/groups
func (h *Handlers) CreateGroup(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name           string `json:"name" binding:"required,min=1,max=80"`
		Description    string `json:"description" binding:"max=2000"`
		Category       string `json:"category" binding:"max=64"`
		Type           string `json:"type" binding:"max=64"`
		PrivacySetting string `json:"privacy_setting"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	privacy := models.GroupPrivacy(req.PrivacySetting)
	if req.PrivacySetting == "" {
		privacy = models.GroupPrivacyPublic
	}
	switch privacy {
	case models.GroupPrivacyPublic, models.GroupPrivacyApproval, models.GroupPrivacyInvite:
	default:
		util.RespondValidationError(c, "privacy_setting", "must be public, approval or invite")
		return
	}

	group := models.Group{
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		Type:           req.Type,
		PrivacySetting: privacy,
		CreatorID:      userID,
		MemberCount:    1,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		member := models.GroupMember{
			GroupID: group.ID,
			UserID:  userID,
			Role:    models.GroupRoleAdmin,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to create group")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// GetGroup returns one group
// GET /api/v1/groups/:id
func (h *Handlers) GetGroup(c *gin.Context) {
	groupID := c.Param("id")
	viewerID, _ := c.Get("user_id")
	viewerIDStr, _ := viewerID.(string)

	var group models.Group
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		util.HandleDBError(c, err, "group")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"group":     group,
		"is_member": viewerIDStr != "" && isGroupMember(groupID, viewerIDStr),
		"role":      groupRole(groupID, viewerIDStr),
	})
}

// ListGroups lists groups, newest first, optionally filtered by category
// or a name search
// GET /api/v1/groups?category=&q=
func (h *Handlers) ListGroups(c *gin.Context) {
	limit := util.ParsePageSize(c.DefaultQuery("limit", "20"), 20, 50)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if offset < 0 {
		offset = 0
	}

	query := database.DB.Model(&models.Group{}).Order("member_count DESC, created_at DESC")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var groups []models.Group
	if err := query.Limit(limit).Offset(offset).Find(&groups).Error; err != nil {
		util.RespondInternalError(c, "Failed to list groups")
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// UpdateGroup edits group settings, admin only
// PATCH /api/v1/groups/:id
func (h *Handlers) UpdateGroup(c *gin.Context) {
	groupID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var group models.Group
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		util.HandleDBError(c, err, "group")
		return
	}
	if groupRole(groupID, userID) != models.GroupRoleAdmin {
		util.RespondForbidden(c, "Only group admins can edit the group")
		return
	}

	var req struct {
		Name           *string `json:"name,omitempty" binding:"omitempty,min=1,max=80"`
		Description    *string `json:"description,omitempty" binding:"omitempty,max=2000"`
		Category       *string `json:"category,omitempty" binding:"omitempty,max=64"`
		PrivacySetting *string `json:"privacy_setting,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.PrivacySetting != nil {
		privacy := models.GroupPrivacy(*req.PrivacySetting)
		switch privacy {
		case models.GroupPrivacyPublic, models.GroupPrivacyApproval, models.GroupPrivacyInvite:
		default:
			util.RespondValidationError(c, "privacy_setting", "must be public, approval or invite")
			return
		}
		updates["privacy_setting"] = privacy
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "No fields to update")
		return
	}

	if err := database.DB.Model(&group).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update group")
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": group})
}

// DeleteGroup soft-deletes a group, admin only
// DELETE /api/v1/groups/:id
func (h *Handlers) DeleteGroup(c *gin.Context) {
	groupID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var group models.Group
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		util.HandleDBError(c, err, "group")
		return
	}
	if groupRole(groupID, userID) != models.GroupRoleAdmin {
		util.RespondForbidden(c, "Only group admins can delete the group")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&group).Error
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to delete group")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Group deleted"})
}

// JoinGroup adds the caller as a member. Invite-only groups reject direct
// joins; approval groups are joined directly for now.
// POST /api/v1/groups/:id/join
func (h *Handlers) JoinGroup(c *gin.Context) {
	groupID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var group models.Group
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		util.HandleDBError(c, err, "group")
		return
	}

	if group.PrivacySetting == models.GroupPrivacyInvite {
		util.RespondForbidden(c, "This group is invite only")
		return
	}

	if isGroupMember(groupID, userID) {
		c.JSON(http.StatusOK, gin.H{"member": true})
		return
	}

	member := models.GroupMember{GroupID: groupID, UserID: userID, Role: models.GroupRoleMember}
	if err := database.DB.Create(&member).Error; err != nil {
		util.RespondInternalError(c, "Failed to join group")
		return
	}

	if err := database.DB.Model(&group).
		UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment member count for group "+groupID, err)
	}

	h.notify(group.CreatorID, userID, models.NotificationGroupJoin, groupID, "joined your group "+group.Name)

	c.JSON(http.StatusCreated, gin.H{"member": true})
}

// LeaveGroup removes the caller's membership. The last admin cannot leave
// without promoting a replacement.
// POST /api/v1/groups/:id/leave
func (h *Handlers) LeaveGroup(c *gin.Context) {
	groupID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var member models.GroupMember
	if err := database.DB.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error; err != nil {
		util.HandleDBError(c, err, "membership")
		return
	}

	if member.Role == models.GroupRoleAdmin {
		var adminCount int64
		database.DB.Model(&models.GroupMember{}).
			Where("group_id = ? AND role = ?", groupID, models.GroupRoleAdmin).
			Count(&adminCount)
		var memberCount int64
		database.DB.Model(&models.GroupMember{}).Where("group_id = ?", groupID).Count(&memberCount)
		if adminCount == 1 && memberCount > 1 {
			util.RespondBadRequest(c, "Promote another admin before leaving")
			return
		}
	}

	if err := database.DB.Delete(&member).Error; err != nil {
		util.RespondInternalError(c, "Failed to leave group")
		return
	}

	if err := database.DB.Model(&models.Group{}).Where("id = ? AND member_count > 0", groupID).
		UpdateColumn("member_count", gorm.Expr("member_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement member count for group "+groupID, err)
	}

	c.JSON(http.StatusOK, gin.H{"member": false})
}

// GetGroupMembers lists members, admins first
// GET /api/v1/groups/:id/members
func (h *Handlers) GetGroupMembers(c *gin.Context) {
	groupID := c.Param("id")
	limit := util.ParsePageSize(c.DefaultQuery("limit", "50"), 50, 100)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if offset < 0 {
		offset = 0
	}

	var group models.Group
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		util.HandleDBError(c, err, "group")
		return
	}

	var members []models.GroupMember
	err := database.DB.
		Preload("User").
		Where("group_id = ?", groupID).
		Order("role ASC, created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&members).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to get members")
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members, "member_count": group.MemberCount})
}

// PromoteGroupAdmin gives a member the admin role, admin only
// POST /api/v1/groups/:id/members/:userId/promote
func (h *Handlers) PromoteGroupAdmin(c *gin.Context) {
	groupID := c.Param("id")
	targetID := c.Param("userId")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if groupRole(groupID, userID) != models.GroupRoleAdmin {
		util.RespondForbidden(c, "Only group admins can promote members")
		return
	}

	var member models.GroupMember
	if err := database.DB.Where("group_id = ? AND user_id = ?", groupID, targetID).First(&member).Error; err != nil {
		util.HandleDBError(c, err, "membership")
		return
	}

	if member.Role == models.GroupRoleAdmin {
		c.JSON(http.StatusOK, gin.H{"member": member})
		return
	}

	if err := database.DB.Model(&member).Update("role", models.GroupRoleAdmin).Error; err != nil {
		util.RespondInternalError(c, "Failed to promote member")
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": member})
}
