package database

import (
	"fmt"
	"os"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "ambira")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	// Enable UUID extension for PostgreSQL
	if err := DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		// Non-fatal: gen_random_uuid is built in on Postgres >= 13
		fmt.Fprintf(os.Stderr, "warning: could not create uuid-ossp extension: %v\n", err)
	}

	err := DB.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
		&models.Project{},
		&models.ActivityPreference{},
		&models.Session{},
		&models.ActiveSession{},
		&models.Group{},
		&models.GroupMember{},
		&models.Follow{},
		&models.Support{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Challenge{},
		&models.ChallengeParticipant{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createIndexes creates performance indexes
func createIndexes() error {
	// User lookup indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")

	// Session indexes for feed queries: per-user timeline and discover feed
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_user_created ON sessions (user_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_visibility_created ON sessions (visibility, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_group_ids ON sessions USING GIN (group_ids)")

	// Follow edge indexes
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_follows_unique ON follows (follower_id, followee_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows (followee_id)")

	// Support indexes
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_supports_unique ON supports (session_id, user_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_supports_user ON supports (user_id)")

	// Comment indexes for efficient retrieval
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_session_created ON comments (session_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments (parent_id) WHERE parent_id IS NOT NULL")
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_comment_likes_unique ON comment_likes (comment_id, user_id)")

	// Group membership indexes
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_group_members_unique ON group_members (group_id, user_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members (user_id)")

	// Activity preference quick-pick ordering
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_activity_preferences_unique ON activity_preferences (user_id, project_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_activity_preferences_use ON activity_preferences (user_id, use_count DESC)")

	// Challenge indexes
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_challenge_participants_unique ON challenge_participants (challenge_id, user_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_challenges_window ON challenges (start_at, end_at)")

	// Notification indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications (user_id) WHERE read = false")

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
