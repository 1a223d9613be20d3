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

	"github.com/AmbiraDev/ambira-backend/internal/models"
)

// SessionTestSuite covers session CRUD, supports and comments
type SessionTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers

	owner    *models.User
	follower *models.User
	stranger *models.User
	project  *models.Project
}

func (suite *SessionTestSuite) SetupSuite() {
	suite.db = setupTestDB(suite.T())
	suite.handlers = newTestHandlers(suite.db)

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	api := suite.router.Group("/api/v1")

	sessions := api.Group("/sessions")
	sessions.POST("", testAuthMiddleware, suite.handlers.CreateSession)
	sessions.GET("/:id", testOptionalAuthMiddleware, suite.handlers.GetSession)
	sessions.PATCH("/:id", testAuthMiddleware, suite.handlers.UpdateSession)
	sessions.DELETE("/:id", testAuthMiddleware, suite.handlers.DeleteSession)
	sessions.POST("/:id/support", testAuthMiddleware, suite.handlers.SupportSession)
	sessions.DELETE("/:id/support", testAuthMiddleware, suite.handlers.UnsupportSession)
	sessions.GET("/:id/supporters", testOptionalAuthMiddleware, suite.handlers.GetSupporters)
	sessions.POST("/:id/comments", testAuthMiddleware, suite.handlers.CreateComment)
	sessions.GET("/:id/comments", testOptionalAuthMiddleware, suite.handlers.GetComments)

	comments := api.Group("/comments")
	comments.DELETE("/:id", testAuthMiddleware, suite.handlers.DeleteComment)
}

func (suite *SessionTestSuite) TearDownSuite() {
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		sqlDB.Close()
	}
}

func (suite *SessionTestSuite) SetupTest() {
	suite.db.Exec("TRUNCATE TABLE activity_preferences, challenge_participants, challenges, comment_likes, comments, supports, notifications, sessions, active_sessions, group_members, groups, projects, follows RESTART IDENTITY CASCADE")
	suite.db.Exec("TRUNCATE TABLE users RESTART IDENTITY CASCADE")

	testID := fmt.Sprintf("%d", time.Now().UnixNano())
	suite.owner = suite.createUser("owner_" + testID)
	suite.follower = suite.createUser("follower_" + testID)
	suite.stranger = suite.createUser("stranger_" + testID)

	require.NoError(suite.T(), suite.db.Create(&models.Follow{
		FollowerID: suite.follower.ID,
		FolloweeID: suite.owner.ID,
	}).Error)

	suite.project = &models.Project{UserID: suite.owner.ID, Name: "Deep Work"}
	require.NoError(suite.T(), suite.db.Create(suite.project).Error)
}

func (suite *SessionTestSuite) createUser(username string) *models.User {
	u := &models.User{
		Email:    username + "@test.com",
		Username: username,
		Name:     "Test " + username,
	}
	require.NoError(suite.T(), suite.db.Create(u).Error)
	return u
}

func (suite *SessionTestSuite) createSession(visibility models.SessionVisibility) *models.Session {
	s := &models.Session{
		UserID:     suite.owner.ID,
		ProjectID:  suite.project.ID,
		Title:      "Morning focus",
		Duration:   3600,
		Visibility: visibility,
	}
	require.NoError(suite.T(), suite.db.Create(s).Error)
	return s
}

func (suite *SessionTestSuite) request(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
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

func (suite *SessionTestSuite) TestCreateSession() {
	w := suite.request("POST", "/api/v1/sessions", suite.owner.ID, gin.H{
		"project_id": suite.project.ID,
		"title":      "Morning focus",
		"duration":   5400,
		"visibility": "everyone",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Session models.Session `json:"session"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(suite.T(), suite.owner.ID, resp.Session.UserID)
	assert.Equal(suite.T(), 5400, resp.Session.Duration)

	var owner models.User
	require.NoError(suite.T(), suite.db.First(&owner, "id = ?", suite.owner.ID).Error)
	assert.Equal(suite.T(), 1, owner.SessionCount)

	var pref models.ActivityPreference
	require.NoError(suite.T(), suite.db.Where("user_id = ? AND project_id = ?", suite.owner.ID, suite.project.ID).First(&pref).Error)
	assert.Equal(suite.T(), 1, pref.UseCount)
}

func (suite *SessionTestSuite) TestCreateSessionRejectsLongDuration() {
	w := suite.request("POST", "/api/v1/sessions", suite.owner.ID, gin.H{
		"project_id": suite.project.ID,
		"title":      "Marathon",
		"duration":   25 * 3600,
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *SessionTestSuite) TestCreateSessionRejectsForeignProject() {
	theirProject := &models.Project{UserID: suite.stranger.ID, Name: "Not yours"}
	require.NoError(suite.T(), suite.db.Create(theirProject).Error)

	w := suite.request("POST", "/api/v1/sessions", suite.owner.ID, gin.H{
		"project_id": theirProject.ID,
		"title":      "Sneaky",
		"duration":   600,
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *SessionTestSuite) TestCreateSessionRequiresAuth() {
	w := suite.request("POST", "/api/v1/sessions", "", gin.H{
		"project_id": suite.project.ID,
		"title":      "Anonymous",
		"duration":   600,
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *SessionTestSuite) TestGetSessionVisibility() {
	private := suite.createSession(models.VisibilityPrivate)
	followersOnly := suite.createSession(models.VisibilityFollowers)

	// Owner sees their private session
	w := suite.request("GET", "/api/v1/sessions/"+private.ID, suite.owner.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	// Everyone else gets 404, not 403
	w = suite.request("GET", "/api/v1/sessions/"+private.ID, suite.follower.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	// Followers-only is visible to a follower but not a stranger
	w = suite.request("GET", "/api/v1/sessions/"+followersOnly.ID, suite.follower.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("GET", "/api/v1/sessions/"+followersOnly.ID, suite.stranger.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	// Unauthenticated viewers only see everyone-visibility sessions
	w = suite.request("GET", "/api/v1/sessions/"+followersOnly.ID, "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	public := suite.createSession(models.VisibilityEveryone)
	w = suite.request("GET", "/api/v1/sessions/"+public.ID, "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *SessionTestSuite) TestSupportSessionIsIdempotent() {
	session := suite.createSession(models.VisibilityEveryone)

	w := suite.request("POST", "/api/v1/sessions/"+session.ID+"/support", suite.follower.ID, nil)
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	// Supporting again changes nothing
	w = suite.request("POST", "/api/v1/sessions/"+session.ID+"/support", suite.follower.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var fresh models.Session
	require.NoError(suite.T(), suite.db.First(&fresh, "id = ?", session.ID).Error)
	assert.Equal(suite.T(), 1, fresh.SupportCount)

	// The owner got exactly one notification
	var count int64
	suite.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", suite.owner.ID, models.NotificationSupport).
		Count(&count)
	assert.Equal(suite.T(), int64(1), count)
}

func (suite *SessionTestSuite) TestUnsupportSession() {
	session := suite.createSession(models.VisibilityEveryone)

	suite.request("POST", "/api/v1/sessions/"+session.ID+"/support", suite.follower.ID, nil)
	w := suite.request("DELETE", "/api/v1/sessions/"+session.ID+"/support", suite.follower.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var fresh models.Session
	require.NoError(suite.T(), suite.db.First(&fresh, "id = ?", session.ID).Error)
	assert.Equal(suite.T(), 0, fresh.SupportCount)

	// Removing a support that does not exist never goes negative
	w = suite.request("DELETE", "/api/v1/sessions/"+session.ID+"/support", suite.follower.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	require.NoError(suite.T(), suite.db.First(&fresh, "id = ?", session.ID).Error)
	assert.Equal(suite.T(), 0, fresh.SupportCount)
}

func (suite *SessionTestSuite) TestSupportInvisibleSessionIs404() {
	private := suite.createSession(models.VisibilityPrivate)

	w := suite.request("POST", "/api/v1/sessions/"+private.ID+"/support", suite.stranger.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *SessionTestSuite) TestCreateComment() {
	session := suite.createSession(models.VisibilityEveryone)

	w := suite.request("POST", "/api/v1/sessions/"+session.ID+"/comments", suite.follower.ID, gin.H{
		"content": "Nice streak!",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var fresh models.Session
	require.NoError(suite.T(), suite.db.First(&fresh, "id = ?", session.ID).Error)
	assert.Equal(suite.T(), 1, fresh.CommentCount)
}

func (suite *SessionTestSuite) TestReplyToReplyAttachesToTopLevel() {
	session := suite.createSession(models.VisibilityEveryone)

	top := &models.Comment{SessionID: session.ID, UserID: suite.owner.ID, Content: "top"}
	require.NoError(suite.T(), suite.db.Create(top).Error)
	reply := &models.Comment{SessionID: session.ID, UserID: suite.follower.ID, Content: "reply", ParentID: &top.ID}
	require.NoError(suite.T(), suite.db.Create(reply).Error)

	w := suite.request("POST", "/api/v1/sessions/"+session.ID+"/comments", suite.stranger.ID, gin.H{
		"content":   "reply to the reply",
		"parent_id": reply.ID,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Comment models.Comment `json:"comment"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(suite.T(), resp.Comment.ParentID)
	assert.Equal(suite.T(), top.ID, *resp.Comment.ParentID)

	var freshTop models.Comment
	require.NoError(suite.T(), suite.db.First(&freshTop, "id = ?", top.ID).Error)
	assert.Equal(suite.T(), 1, freshTop.ReplyCount)
}

func (suite *SessionTestSuite) TestSessionOwnerCanDeleteComments() {
	session := suite.createSession(models.VisibilityEveryone)
	comment := &models.Comment{SessionID: session.ID, UserID: suite.follower.ID, Content: "rude"}
	require.NoError(suite.T(), suite.db.Create(comment).Error)
	require.NoError(suite.T(), suite.db.Model(session).UpdateColumn("comment_count", 1).Error)

	w := suite.request("DELETE", "/api/v1/comments/"+comment.ID, suite.owner.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var fresh models.Comment
	require.NoError(suite.T(), suite.db.First(&fresh, "id = ?", comment.ID).Error)
	assert.True(suite.T(), fresh.IsDeleted)

	var freshSession models.Session
	require.NoError(suite.T(), suite.db.First(&freshSession, "id = ?", session.ID).Error)
	assert.Equal(suite.T(), 0, freshSession.CommentCount)
}

func (suite *SessionTestSuite) TestStrangerCannotDeleteComment() {
	session := suite.createSession(models.VisibilityEveryone)
	comment := &models.Comment{SessionID: session.ID, UserID: suite.follower.ID, Content: "fine"}
	require.NoError(suite.T(), suite.db.Create(comment).Error)

	w := suite.request("DELETE", "/api/v1/comments/"+comment.ID, suite.stranger.ID, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *SessionTestSuite) TestUpdateSessionForbiddenForNonOwner() {
	session := suite.createSession(models.VisibilityEveryone)

	w := suite.request("PATCH", "/api/v1/sessions/"+session.ID, suite.stranger.ID, gin.H{
		"title": "hijacked",
	})
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *SessionTestSuite) TestDeleteSessionDecrementsCount() {
	session := suite.createSession(models.VisibilityEveryone)
	require.NoError(suite.T(), suite.db.Model(&models.User{}).Where("id = ?", suite.owner.ID).
		UpdateColumn("session_count", 1).Error)

	w := suite.request("DELETE", "/api/v1/sessions/"+session.ID, suite.owner.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var owner models.User
	require.NoError(suite.T(), suite.db.First(&owner, "id = ?", suite.owner.ID).Error)
	assert.Equal(suite.T(), 0, owner.SessionCount)

	// Soft deleted: gone from default queries
	var count int64
	suite.db.Model(&models.Session{}).Where("id = ?", session.ID).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

func (suite *SessionTestSuite) TestChallengeProgressAdvances() {
	challenge := &models.Challenge{
		Name:    "March focus",
		Type:    models.ChallengeTotalHours,
		Goal:    1,
		StartAt: time.Now().Add(-24 * time.Hour),
		EndAt:   time.Now().Add(24 * time.Hour),
	}
	require.NoError(suite.T(), suite.db.Create(challenge).Error)
	require.NoError(suite.T(), suite.db.Create(&models.ChallengeParticipant{
		ChallengeID: challenge.ID,
		UserID:      suite.owner.ID,
	}).Error)

	w := suite.request("POST", "/api/v1/sessions", suite.owner.ID, gin.H{
		"project_id": suite.project.ID,
		"title":      "One hour",
		"duration":   3600,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var p models.ChallengeParticipant
	require.NoError(suite.T(), suite.db.Where("challenge_id = ? AND user_id = ?", challenge.ID, suite.owner.ID).First(&p).Error)
	assert.Equal(suite.T(), 3600, p.Progress)
	assert.NotNil(suite.T(), p.CompletedAt)
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}
