package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/models"
	"github.com/AmbiraDev/ambira-backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StartTimer begins a live session. A user can only run one timer at a
// time; starting while one exists is a conflict.
// POST /api/v1/timer/start
func (h *Handlers) StartTimer(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		ProjectID string `json:"project_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var project models.Project
	if err := database.DB.Where("id = ? AND user_id = ?", req.ProjectID, userID).First(&project).Error; err != nil {
		util.RespondValidationError(c, "project_id", "Project not found")
		return
	}

	var existing models.ActiveSession
	err := database.DB.Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		util.RespondConflict(c, "active session")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondInternalError(c, "Failed to check active session")
		return
	}

	active := models.ActiveSession{
		UserID:    userID,
		ProjectID: req.ProjectID,
		StartTime: time.Now(),
		Status:    models.ActiveSessionRunning,
	}
	if err := database.DB.Create(&active).Error; err != nil {
		// Unique index on user_id catches the race between check and create
		util.RespondConflict(c, "active session")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"active_session": active})
}

// GetTimer returns the current live session and its elapsed seconds
// GET /api/v1/timer
func (h *Handlers) GetTimer(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var active models.ActiveSession
	if err := database.DB.Preload("Project").Where("user_id = ?", userID).First(&active).Error; err != nil {
		util.HandleDBError(c, err, "active session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active_session": active,
		"elapsed":        active.Elapsed(time.Now()),
	})
}

// PauseTimer pauses the running timer
// POST /api/v1/timer/pause
func (h *Handlers) PauseTimer(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var active models.ActiveSession
	if err := database.DB.Where("user_id = ?", userID).First(&active).Error; err != nil {
		util.HandleDBError(c, err, "active session")
		return
	}

	if active.Status == models.ActiveSessionPaused {
		c.JSON(http.StatusOK, gin.H{"active_session": active})
		return
	}

	now := time.Now()
	active.Status = models.ActiveSessionPaused
	active.LastPausedAt = &now
	if err := database.DB.Model(&active).Select("status", "last_paused_at").Updates(&active).Error; err != nil {
		util.RespondInternalError(c, "Failed to pause timer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"active_session": active})
}

// ResumeTimer resumes a paused timer, folding the pause into the
// accumulated paused duration
// POST /api/v1/timer/resume
func (h *Handlers) ResumeTimer(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var active models.ActiveSession
	if err := database.DB.Where("user_id = ?", userID).First(&active).Error; err != nil {
		util.HandleDBError(c, err, "active session")
		return
	}

	if active.Status != models.ActiveSessionPaused {
		c.JSON(http.StatusOK, gin.H{"active_session": active})
		return
	}

	if active.LastPausedAt != nil {
		active.PausedDuration += int(time.Since(*active.LastPausedAt).Seconds())
	}
	active.Status = models.ActiveSessionRunning
	active.LastPausedAt = nil

	err := database.DB.Model(&active).
		Select("status", "paused_duration", "last_paused_at").
		Updates(map[string]interface{}{
			"status":          active.Status,
			"paused_duration": active.PausedDuration,
			"last_paused_at":  nil,
		}).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to resume timer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"active_session": active})
}

// FinishTimer converts the live session into a logged Session and removes
// the timer
// POST /api/v1/timer/finish
func (h *Handlers) FinishTimer(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Title       string   `json:"title" binding:"required,min=1,max=120"`
		Description string   `json:"description" binding:"max=2000"`
		Visibility  string   `json:"visibility"`
		GroupIDs    []string `json:"group_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var active models.ActiveSession
	if err := database.DB.Where("user_id = ?", userID).First(&active).Error; err != nil {
		util.HandleDBError(c, err, "active session")
		return
	}

	duration := active.Elapsed(time.Now())
	if duration < 1 {
		duration = 1
	}
	// A timer left running for days logs at the cap instead of failing
	if duration > maxSessionDuration {
		duration = maxSessionDuration
	}

	session, apiDone := h.buildSession(c, userID, createSessionRequest{
		ProjectID:   active.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Duration:    duration,
		Visibility:  req.Visibility,
		GroupIDs:    req.GroupIDs,
	})
	if apiDone {
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		return tx.Delete(&active).Error
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to finish session")
		return
	}

	h.afterSessionLogged(c, session)

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// DiscardTimer abandons the live session without logging anything
// DELETE /api/v1/timer
func (h *Handlers) DiscardTimer(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.Where("user_id = ?", userID).Delete(&models.ActiveSession{})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to discard timer")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "active session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Timer discarded"})
}
