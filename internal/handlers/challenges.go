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

// CreateChallenge creates a time-boxed challenge. Admin only.
// POST /api/v1/challenges
func (h *Handlers) CreateChallenge(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name        string    `json:"name" binding:"required,min=1,max=120"`
		Description string    `json:"description" binding:"max=2000"`
		Type        string    `json:"type" binding:"required"`
		Goal        int       `json:"goal" binding:"required,min=1"`
		StartAt     time.Time `json:"start_at" binding:"required"`
		EndAt       time.Time `json:"end_at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	challengeType := models.ChallengeType(req.Type)
	switch challengeType {
	case models.ChallengeTotalHours, models.ChallengeSessionCount, models.ChallengeStreakDays:
	default:
		util.RespondValidationError(c, "type", "must be total_hours, session_count or streak_days")
		return
	}
	if !req.EndAt.After(req.StartAt) {
		util.RespondValidationError(c, "end_at", "must be after start_at")
		return
	}

	challenge := models.Challenge{
		Name:        req.Name,
		Description: req.Description,
		Type:        challengeType,
		Goal:        req.Goal,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		CreatorID:   userID,
	}
	if err := database.DB.Create(&challenge).Error; err != nil {
		util.RespondInternalError(c, "Failed to create challenge")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"challenge": challenge})
}

// ListChallenges lists active challenges; ?filter=joined restricts to the
// caller's, ?filter=upcoming shows ones not yet started
// GET /api/v1/challenges
func (h *Handlers) ListChallenges(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := util.ParsePageSize(c.DefaultQuery("limit", "20"), 20, 50)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if offset < 0 {
		offset = 0
	}
	now := time.Now()

	query := database.DB.Model(&models.Challenge{})
	switch c.Query("filter") {
	case "joined":
		query = query.
			Joins("JOIN challenge_participants ON challenge_participants.challenge_id = challenges.id").
			Where("challenge_participants.user_id = ?", userID)
	case "upcoming":
		query = query.Where("start_at > ?", now)
	default:
		query = query.Where("start_at <= ? AND end_at > ?", now, now)
	}

	var challenges []models.Challenge
	err := query.Order("end_at ASC").Limit(limit).Offset(offset).Find(&challenges).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to list challenges")
		return
	}

	c.JSON(http.StatusOK, gin.H{"challenges": challenges})
}

// GetChallenge returns one challenge with the caller's participation
// GET /api/v1/challenges/:id
func (h *Handlers) GetChallenge(c *gin.Context) {
	challengeID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var challenge models.Challenge
	if err := database.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		util.HandleDBError(c, err, "challenge")
		return
	}

	resp := gin.H{
		"challenge": challenge,
		"is_active": challenge.IsActive(time.Now()),
	}

	var participant models.ChallengeParticipant
	err := database.DB.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&participant).Error
	if err == nil {
		resp["participation"] = participant
	}

	c.JSON(http.StatusOK, resp)
}

// JoinChallenge enrolls the caller, idempotently
// POST /api/v1/challenges/:id/join
func (h *Handlers) JoinChallenge(c *gin.Context) {
	challengeID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var challenge models.Challenge
	if err := database.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		util.HandleDBError(c, err, "challenge")
		return
	}

	if time.Now().After(challenge.EndAt) {
		util.RespondBadRequest(c, "Challenge has ended")
		return
	}

	var existing models.ChallengeParticipant
	err := database.DB.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"participation": existing})
		return
	}

	participant := models.ChallengeParticipant{ChallengeID: challengeID, UserID: userID}
	if err := database.DB.Create(&participant).Error; err != nil {
		util.RespondInternalError(c, "Failed to join challenge")
		return
	}

	if err := database.DB.Model(&challenge).
		UpdateColumn("participant_count", gorm.Expr("participant_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment participant count for "+challengeID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"participation": participant})
}

// LeaveChallenge removes the caller's participation
// POST /api/v1/challenges/:id/leave
func (h *Handlers) LeaveChallenge(c *gin.Context) {
	challengeID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		Delete(&models.ChallengeParticipant{})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to leave challenge")
		return
	}

	if result.RowsAffected > 0 {
		if err := database.DB.Model(&models.Challenge{}).
			Where("id = ? AND participant_count > 0", challengeID).
			UpdateColumn("participant_count", gorm.Expr("participant_count - 1")).Error; err != nil {
			logger.WarnWithFields("Failed to decrement participant count for "+challengeID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left challenge"})
}

// GetChallengeLeaderboard ranks participants by progress
// GET /api/v1/challenges/:id/leaderboard
func (h *Handlers) GetChallengeLeaderboard(c *gin.Context) {
	challengeID := c.Param("id")
	limit := util.ParsePageSize(c.DefaultQuery("limit", "50"), 50, 100)

	var challenge models.Challenge
	if err := database.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		util.HandleDBError(c, err, "challenge")
		return
	}

	var participants []models.ChallengeParticipant
	err := database.DB.
		Preload("User").
		Where("challenge_id = ?", challengeID).
		Order("progress DESC, created_at ASC").
		Limit(limit).
		Find(&participants).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load leaderboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challenge":   challenge,
		"leaderboard": participants,
	})
}
