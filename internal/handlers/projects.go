package handlers

import (
	"net/http"

	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/models"
	"github.com/AmbiraDev/ambira-backend/internal/util"
	"github.com/gin-gonic/gin"
)

// CreateProject creates a new activity category for the caller
// POST /api/v1/projects
func (h *Handlers) CreateProject(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required,min=1,max=80"`
		Description string `json:"description" binding:"max=500"`
		Color       string `json:"color" binding:"max=16"`
		Icon        string `json:"icon" binding:"max=32"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	project := models.Project{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
	}
	if err := database.DB.Create(&project).Error; err != nil {
		util.RespondInternalError(c, "Failed to create project")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// ListProjects lists the caller's projects, most used first. Archived
// projects are excluded unless ?archived=true.
// GET /api/v1/projects
func (h *Handlers) ListProjects(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	query := database.DB.Model(&models.Project{}).Where("projects.user_id = ?", userID)
	if c.Query("archived") == "true" {
		query = query.Where("is_archived = true")
	} else {
		query = query.Where("is_archived = false")
	}

	var projects []models.Project
	err := query.
		Joins("LEFT JOIN activity_preferences ON activity_preferences.project_id = projects.id AND activity_preferences.user_id = ?", userID).
		Order("COALESCE(activity_preferences.use_count, 0) DESC, projects.created_at ASC").
		Find(&projects).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to list projects")
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// UpdateProject edits the caller's project
// PATCH /api/v1/projects/:id
func (h *Handlers) UpdateProject(c *gin.Context) {
	projectID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var project models.Project
	if err := database.DB.Where("id = ? AND user_id = ?", projectID, userID).First(&project).Error; err != nil {
		util.HandleDBError(c, err, "project")
		return
	}

	var req struct {
		Name        *string `json:"name,omitempty" binding:"omitempty,min=1,max=80"`
		Description *string `json:"description,omitempty" binding:"omitempty,max=500"`
		Color       *string `json:"color,omitempty" binding:"omitempty,max=16"`
		Icon        *string `json:"icon,omitempty" binding:"omitempty,max=32"`
		IsArchived  *bool   `json:"is_archived,omitempty"`
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
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if req.IsArchived != nil {
		updates["is_archived"] = *req.IsArchived
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "No fields to update")
		return
	}

	if err := database.DB.Model(&project).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update project")
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// DeleteProject soft-deletes the caller's project. Logged sessions keep
// their project reference for history.
// DELETE /api/v1/projects/:id
func (h *Handlers) DeleteProject(c *gin.Context) {
	projectID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var project models.Project
	if err := database.DB.Where("id = ? AND user_id = ?", projectID, userID).First(&project).Error; err != nil {
		util.HandleDBError(c, err, "project")
		return
	}

	if err := database.DB.Delete(&project).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete project")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

// GetActivityPreferences returns the caller's quick-pick ordering data
// GET /api/v1/projects/preferences
func (h *Handlers) GetActivityPreferences(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var prefs []models.ActivityPreference
	err := database.DB.
		Preload("Project").
		Where("user_id = ?", userID).
		Order("use_count DESC, last_used_at DESC").
		Find(&prefs).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to get preferences")
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}
