package feed

import (
	"context"
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

	"github.com/AmbiraDev/ambira-backend/internal/models"
)

// FeedRepositoryTestSuite exercises the chunked home feed against Postgres
type FeedRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo *Repository

	viewer  *models.User
	authors []*models.User
}

func getEnvOrDefaultFeed(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (suite *FeedRepositoryTestSuite) SetupSuite() {
	host := getEnvOrDefaultFeed("POSTGRES_HOST", "localhost")
	port := getEnvOrDefaultFeed("POSTGRES_PORT", "5432")
	user := getEnvOrDefaultFeed("POSTGRES_USER", "postgres")
	password := getEnvOrDefaultFeed("POSTGRES_PASSWORD", "")
	dbname := getEnvOrDefaultFeed("POSTGRES_DB", "ambira_test")

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable", host, port, user, dbname)
	if password != "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbname)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		suite.T().Skipf("Skipping feed tests: database not available (%v)", err)
		return
	}

	require.NoError(suite.T(), db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Session{},
		&models.Follow{},
	))

	suite.db = db
	suite.repo = NewRepository(db)
}

func (suite *FeedRepositoryTestSuite) TearDownSuite() {
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		sqlDB.Close()
	}
}

func (suite *FeedRepositoryTestSuite) SetupTest() {
	suite.db.Exec("TRUNCATE TABLE sessions, follows, projects RESTART IDENTITY CASCADE")
	suite.db.Exec("TRUNCATE TABLE users RESTART IDENTITY CASCADE")

	testID := fmt.Sprintf("%d", time.Now().UnixNano())
	suite.viewer = suite.createUser("viewer_" + testID)

	// Enough authors that the follow list spans more than one chunk
	suite.authors = nil
	for i := 0; i < 12; i++ {
		author := suite.createUser(fmt.Sprintf("author%d_%s", i, testID))
		suite.authors = append(suite.authors, author)
		require.NoError(suite.T(), suite.db.Create(&models.Follow{
			FollowerID: suite.viewer.ID,
			FolloweeID: author.ID,
		}).Error)
	}
}

func (suite *FeedRepositoryTestSuite) createUser(username string) *models.User {
	u := &models.User{
		Email:    username + "@test.com",
		Username: username,
		Name:     username,
	}
	require.NoError(suite.T(), suite.db.Create(u).Error)
	return u
}

func (suite *FeedRepositoryTestSuite) createSession(author *models.User, visibility models.SessionVisibility, createdAt time.Time) *models.Session {
	project := &models.Project{UserID: author.ID, Name: "Work"}
	require.NoError(suite.T(), suite.db.Create(project).Error)

	s := &models.Session{
		UserID:     author.ID,
		ProjectID:  project.ID,
		Title:      "Session",
		Duration:   1800,
		Visibility: visibility,
		CreatedAt:  createdAt,
	}
	require.NoError(suite.T(), suite.db.Create(s).Error)
	return s
}

func (suite *FeedRepositoryTestSuite) authorIDs() []string {
	ids := make([]string, 0, len(suite.authors)+1)
	for _, a := range suite.authors {
		ids = append(ids, a.ID)
	}
	return append(ids, suite.viewer.ID)
}

func (suite *FeedRepositoryTestSuite) TestHomeFeedMergesChunks() {
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	// One session per author, spread across both chunks
	for i, author := range suite.authors {
		suite.createSession(author, models.VisibilityEveryone, base.Add(time.Duration(i)*time.Minute))
	}

	page, err := suite.repo.HomeFeed(context.Background(), suite.viewer.ID, suite.authorIDs(), 20, "")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), page.Sessions, 12)
	assert.False(suite.T(), page.HasMore)

	// Newest first across all chunks
	for i := 1; i < len(page.Sessions); i++ {
		assert.False(suite.T(), page.Sessions[i-1].CreatedAt.Before(page.Sessions[i].CreatedAt))
	}
}

func (suite *FeedRepositoryTestSuite) TestHomeFeedVisibility() {
	now := time.Now().Truncate(time.Second)
	author := suite.authors[0]

	visible := suite.createSession(author, models.VisibilityEveryone, now.Add(-3*time.Minute))
	followersOnly := suite.createSession(author, models.VisibilityFollowers, now.Add(-2*time.Minute))
	suite.createSession(author, models.VisibilityPrivate, now.Add(-time.Minute))
	ownPrivate := suite.createSession(suite.viewer, models.VisibilityPrivate, now)

	page, err := suite.repo.HomeFeed(context.Background(), suite.viewer.ID, suite.authorIDs(), 20, "")
	require.NoError(suite.T(), err)

	ids := make([]string, 0, len(page.Sessions))
	for _, s := range page.Sessions {
		ids = append(ids, s.ID)
	}
	assert.Contains(suite.T(), ids, visible.ID)
	assert.Contains(suite.T(), ids, followersOnly.ID)
	assert.Contains(suite.T(), ids, ownPrivate.ID)
	assert.Len(suite.T(), ids, 3)
}

func (suite *FeedRepositoryTestSuite) TestHomeFeedPagination() {
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	author := suite.authors[0]

	var all []*models.Session
	for i := 0; i < 7; i++ {
		all = append(all, suite.createSession(author, models.VisibilityEveryone, base.Add(time.Duration(i)*time.Minute)))
	}

	first, err := suite.repo.HomeFeed(context.Background(), suite.viewer.ID, suite.authorIDs(), 3, "")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), first.Sessions, 3)
	require.True(suite.T(), first.HasMore)
	require.NotEmpty(suite.T(), first.NextCursor)

	second, err := suite.repo.HomeFeed(context.Background(), suite.viewer.ID, suite.authorIDs(), 3, first.NextCursor)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), second.Sessions, 3)

	third, err := suite.repo.HomeFeed(context.Background(), suite.viewer.ID, suite.authorIDs(), 3, second.NextCursor)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), third.Sessions, 1)
	assert.False(suite.T(), third.HasMore)

	// No session appears on two pages
	seen := map[string]bool{}
	for _, page := range []*Page{first, second, third} {
		for _, s := range page.Sessions {
			assert.False(suite.T(), seen[s.ID], "session %s repeated across pages", s.ID)
			seen[s.ID] = true
		}
	}
	assert.Len(suite.T(), seen, 7)
}

func (suite *FeedRepositoryTestSuite) TestHomeFeedUnknownCursor() {
	_, err := suite.repo.HomeFeed(context.Background(), suite.viewer.ID, suite.authorIDs(), 20,
		"00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(suite.T(), err, ErrCursorNotFound)
}

func (suite *FeedRepositoryTestSuite) TestGlobalFeedOnlyPublic() {
	now := time.Now().Truncate(time.Second)
	author := suite.authors[0]

	visible := suite.createSession(author, models.VisibilityEveryone, now.Add(-2*time.Minute))
	suite.createSession(author, models.VisibilityFollowers, now.Add(-time.Minute))
	suite.createSession(author, models.VisibilityPrivate, now)

	page, err := suite.repo.GlobalFeed(context.Background(), 20, "")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), page.Sessions, 1)
	assert.Equal(suite.T(), visible.ID, page.Sessions[0].ID)
}

func (suite *FeedRepositoryTestSuite) TestNewCount() {
	now := time.Now().Truncate(time.Second)
	author := suite.authors[0]

	suite.createSession(author, models.VisibilityEveryone, now.Add(-2*time.Hour))
	suite.createSession(author, models.VisibilityEveryone, now.Add(-10*time.Minute))
	suite.createSession(suite.authors[11], models.VisibilityEveryone, now.Add(-5*time.Minute))

	count, err := suite.repo.NewCount(context.Background(), suite.viewer.ID, suite.authorIDs(), now.Add(-30*time.Minute))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), count)
}

func TestFeedRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(FeedRepositoryTestSuite))
}
