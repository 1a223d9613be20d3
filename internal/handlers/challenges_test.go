package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/models"
)

// testUserAuthMiddleware fakes authentication from the X-User-ID header and
// loads the full user row, so admin checks see the is_admin flag
func testUserAuthMiddleware(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		c.Abort()
		return
	}
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		c.Abort()
		return
	}
	c.Set("user_id", user.ID)
	c.Set("user", &user)
	c.Next()
}

// ChallengeTestSuite covers challenge creation and enrollment
type ChallengeTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers

	admin  *models.User
	member *models.User
}

func (suite *ChallengeTestSuite) SetupSuite() {
	suite.db = setupTestDB(suite.T())
	suite.handlers = newTestHandlers(suite.db)

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	api := suite.router.Group("/api/v1")

	challenges := api.Group("/challenges")
	challenges.Use(testUserAuthMiddleware)
	challenges.POST("", suite.handlers.AdminMiddleware(), suite.handlers.CreateChallenge)
	challenges.GET("", suite.handlers.ListChallenges)
	challenges.POST("/:id/join", suite.handlers.JoinChallenge)
}

func (suite *ChallengeTestSuite) TearDownSuite() {
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		sqlDB.Close()
	}
}

func (suite *ChallengeTestSuite) SetupTest() {
	suite.db.Exec("TRUNCATE TABLE challenge_participants, challenges RESTART IDENTITY CASCADE")
	suite.db.Exec("TRUNCATE TABLE users RESTART IDENTITY CASCADE")

	testID := fmt.Sprintf("%d", time.Now().UnixNano())

	suite.admin = &models.User{
		Email:    "admin_" + testID + "@test.com",
		Username: "admin_" + testID,
		Name:     "Admin",
		IsAdmin:  true,
	}
	require.NoError(suite.T(), suite.db.Create(suite.admin).Error)

	suite.member = &models.User{
		Email:    "member_" + testID + "@test.com",
		Username: "member_" + testID,
		Name:     "Member",
	}
	require.NoError(suite.T(), suite.db.Create(suite.member).Error)
}

func (suite *ChallengeTestSuite) request(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *ChallengeTestSuite) challengeBody() gin.H {
	now := time.Now()
	return gin.H{
		"name":     "March focus sprint",
		"type":     "total_hours",
		"goal":     20,
		"start_at": now.Add(-time.Hour).Format(time.RFC3339),
		"end_at":   now.Add(7 * 24 * time.Hour).Format(time.RFC3339),
	}
}

func (suite *ChallengeTestSuite) TestAdminCanCreateChallenge() {
	w := suite.request("POST", "/api/v1/challenges", suite.admin.ID, suite.challengeBody())
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var challenge models.Challenge
	require.NoError(suite.T(), suite.db.First(&challenge).Error)
	assert.Equal(suite.T(), "March focus sprint", challenge.Name)
	assert.Equal(suite.T(), suite.admin.ID, challenge.CreatorID)
}

func (suite *ChallengeTestSuite) TestCreateChallengeRequiresAdmin() {
	w := suite.request("POST", "/api/v1/challenges", suite.member.ID, suite.challengeBody())
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	var count int64
	suite.db.Model(&models.Challenge{}).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

func (suite *ChallengeTestSuite) TestCreateChallengeRejectsInvertedWindow() {
	body := suite.challengeBody()
	body["end_at"] = time.Now().Add(-2 * time.Hour).Format(time.RFC3339)

	w := suite.request("POST", "/api/v1/challenges", suite.admin.ID, body)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *ChallengeTestSuite) TestCreateChallengeRejectsUnknownType() {
	body := suite.challengeBody()
	body["type"] = "pomodoros"

	w := suite.request("POST", "/api/v1/challenges", suite.admin.ID, body)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *ChallengeTestSuite) TestMemberCanJoinChallenge() {
	w := suite.request("POST", "/api/v1/challenges", suite.admin.ID, suite.challengeBody())
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var challenge models.Challenge
	require.NoError(suite.T(), suite.db.First(&challenge).Error)

	w = suite.request("POST", "/api/v1/challenges/"+challenge.ID+"/join", suite.member.ID, nil)
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	require.NoError(suite.T(), suite.db.First(&challenge, "id = ?", challenge.ID).Error)
	assert.Equal(suite.T(), 1, challenge.ParticipantCount)
}

func TestChallengeTestSuite(t *testing.T) {
	suite.Run(t, new(ChallengeTestSuite))
}
