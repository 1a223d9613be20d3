package auth

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AmbiraDev/ambira-backend/internal/config"
	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/models"
)

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService *Service
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (suite *AuthServiceTestSuite) SetupSuite() {
	host := getEnvOrDefault("POSTGRES_HOST", "localhost")
	port := getEnvOrDefault("POSTGRES_PORT", "5432")
	user := getEnvOrDefault("POSTGRES_USER", "postgres")
	password := getEnvOrDefault("POSTGRES_PASSWORD", "")
	dbname := getEnvOrDefault("POSTGRES_DB", "ambira_test")

	testDSN := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable", host, port, user, dbname)
	if password != "" {
		testDSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbname)
	}

	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		suite.T().Skipf("Skipping auth tests: database not available (%v)", err)
		return
	}

	database.DB = db

	require.NoError(suite.T(), db.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
	))

	suite.db = db
	suite.authService = NewService([]byte("test-secret-key"), (&config.Config{APIBaseURL: "http://localhost:8686"}).GoogleOAuth())
}

func (suite *AuthServiceTestSuite) TearDownSuite() {
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		sqlDB.Close()
	}
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db.Exec("TRUNCATE TABLE password_resets RESTART IDENTITY CASCADE")
	suite.db.Exec("TRUNCATE TABLE users RESTART IDENTITY CASCADE")
}

func (suite *AuthServiceTestSuite) register(username string) *AuthResponse {
	resp, err := suite.authService.RegisterNativeUser(RegisterRequest{
		Email:    username + "@test.com",
		Username: username,
		Name:     "Test " + username,
		Password: "supersecret123",
	})
	require.NoError(suite.T(), err)
	return resp
}

func (suite *AuthServiceTestSuite) TestRegisterNativeUser() {
	resp := suite.register("newuser")

	assert.NotEmpty(suite.T(), resp.Token)
	assert.Equal(suite.T(), "newuser", resp.User.Username)
	assert.Nil(suite.T(), resp.User.GoogleID)

	// Password is stored hashed, never verbatim
	var stored models.User
	require.NoError(suite.T(), suite.db.First(&stored, "id = ?", resp.User.ID).Error)
	require.NotNil(suite.T(), stored.PasswordHash)
	assert.NotEqual(suite.T(), "supersecret123", *stored.PasswordHash)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	suite.register("firstuser")

	_, err := suite.authService.RegisterNativeUser(RegisterRequest{
		Email:    "firstuser@test.com",
		Username: "otheruser",
		Name:     "Other",
		Password: "supersecret123",
	})
	assert.Error(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestLoginNativeUser() {
	suite.register("loginuser")

	resp, err := suite.authService.LoginNativeUser(LoginRequest{
		Email:    "loginuser@test.com",
		Password: "supersecret123",
	})
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), resp.Token)
	assert.Equal(suite.T(), "loginuser", resp.User.Username)
}

func (suite *AuthServiceTestSuite) TestLoginWrongPassword() {
	suite.register("loginuser")

	_, err := suite.authService.LoginNativeUser(LoginRequest{
		Email:    "loginuser@test.com",
		Password: "not-the-password",
	})
	assert.Error(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestLoginErrorSentinels() {
	suite.register("loginuser")

	_, wrongPassword := suite.authService.LoginNativeUser(LoginRequest{
		Email:    "loginuser@test.com",
		Password: "not-the-password",
	})
	_, unknownEmail := suite.authService.LoginNativeUser(LoginRequest{
		Email:    "nobody@test.com",
		Password: "supersecret123",
	})

	assert.ErrorIs(suite.T(), wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(suite.T(), unknownEmail, ErrUserNotFound)
}

func (suite *AuthServiceTestSuite) TestValidateToken() {
	resp := suite.register("tokenuser")

	user, err := suite.authService.ValidateToken(resp.Token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), resp.User.ID, user.ID)
}

func (suite *AuthServiceTestSuite) TestValidateGarbageToken() {
	_, err := suite.authService.ValidateToken("not.a.jwt")
	assert.Error(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestValidateTokenWrongSecret() {
	resp := suite.register("tokenuser")

	other := NewService([]byte("a-different-secret"), nil)
	_, err := other.ValidateToken(resp.Token)
	assert.Error(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestPasswordResetFlow() {
	resp := suite.register("resetuser")

	reset, err := suite.authService.RequestPasswordReset("resetuser@test.com")
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), reset)
	assert.True(suite.T(), reset.ExpiresAt.After(time.Now()))

	require.NoError(suite.T(), suite.authService.ResetPassword(reset.Token, "brandnewpassword"))

	// Old password no longer works, the new one does
	_, err = suite.authService.LoginNativeUser(LoginRequest{
		Email:    "resetuser@test.com",
		Password: "supersecret123",
	})
	assert.Error(suite.T(), err)

	login, err := suite.authService.LoginNativeUser(LoginRequest{
		Email:    "resetuser@test.com",
		Password: "brandnewpassword",
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), resp.User.ID, login.User.ID)

	// Tokens are single use
	assert.Error(suite.T(), suite.authService.ResetPassword(reset.Token, "anotherpassword"))
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
