package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/analytics"
	"github.com/AmbiraDev/ambira-backend/internal/auth"
	"github.com/AmbiraDev/ambira-backend/internal/cache"
	"github.com/AmbiraDev/ambira-backend/internal/config"
	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/email"
	"github.com/AmbiraDev/ambira-backend/internal/feed"
	"github.com/AmbiraDev/ambira-backend/internal/handlers"
	"github.com/AmbiraDev/ambira-backend/internal/logger"
	"github.com/AmbiraDev/ambira-backend/internal/metrics"
	"github.com/AmbiraDev/ambira-backend/internal/middleware"
	"github.com/AmbiraDev/ambira-backend/internal/storage"
	"github.com/AmbiraDev/ambira-backend/internal/streaks"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// No .env in production; system environment is enough
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Log.Info("Ambira backend starting",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	metrics.Initialize()

	// Redis is optional; without it the API serves uncached
	var redisClient *cache.RedisClient
	if cfg.RedisHost != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.WarnWithFields("Redis unavailable, continuing without cache", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	authService := auth.NewService([]byte(cfg.JWTSecret), cfg.GoogleOAuth())
	feedRepo := feed.NewRepository(database.DB)
	streakService := streaks.NewService(database.DB, redisClient)
	analyticsService := analytics.NewService(database.DB)

	h := handlers.NewHandlers(authService, feedRepo, streakService, analyticsService)
	if redisClient != nil {
		h.SetRedisClient(redisClient)
	}

	// S3 is optional; without it image upload endpoints return 503
	if cfg.S3Bucket != "" {
		uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.S3Bucket, cfg.CDNBaseURL)
		if err != nil {
			logger.WarnWithFields("S3 unavailable, image uploads disabled", err)
		} else {
			if err := uploader.CheckBucketAccess(context.Background()); err != nil {
				logger.WarnWithFields("S3 bucket access check failed", err)
			}
			h.SetUploader(uploader)
		}
	}

	// SES is optional; without it transactional email is skipped
	if cfg.SESFrom != "" {
		emailService, err := email.NewService(cfg.AWSRegion, cfg.SESFrom, cfg.SESFromName, cfg.AppBaseURL)
		if err != nil {
			logger.WarnWithFields("SES unavailable, email disabled", err)
		} else {
			h.SetEmailService(emailService)
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.AppBaseURL}
	if !cfg.IsProduction() {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"
		if err := database.Health(); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "down"
		}
		c.JSON(status, gin.H{
			"status":    dbStatus,
			"timestamp": time.Now().UTC(),
			"service":   "ambira-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	registerRoutes(r, h)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.FatalWithFields("Server forced to shutdown", err)
	}

	logger.Log.Info("Server exited")
}

func registerRoutes(r *gin.Engine, h *handlers.Handlers) {
	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit())

	// Authentication routes (public)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", middleware.RateLimitAuth(), h.Register)
		authGroup.POST("/login", middleware.RateLimitAuth(), h.Login)
		authGroup.GET("/google", h.GoogleOAuth)
		authGroup.GET("/google/callback", h.GoogleCallback)
		authGroup.POST("/password-reset", middleware.RateLimitAuth(), h.RequestPasswordReset)
		authGroup.POST("/password-reset/confirm", middleware.RateLimitAuth(), h.ConfirmPasswordReset)
		authGroup.GET("/me", h.AuthMiddleware(), h.Me)
	}

	// User routes
	users := api.Group("/users")
	{
		users.GET("/search", h.OptionalAuthMiddleware(), h.SearchUsers)

		users.PATCH("/me", h.AuthMiddleware(), h.UpdateProfile)
		users.DELETE("/me", h.AuthMiddleware(), h.DeleteAccount)
		users.PUT("/me/username", h.AuthMiddleware(), h.ChangeUsername)
		users.POST("/me/profile-picture", h.AuthMiddleware(), middleware.RateLimitUpload(), h.UploadProfilePicture)

		users.GET("/:id", h.OptionalAuthMiddleware(), h.GetUser)
		users.GET("/:id/sessions", h.OptionalAuthMiddleware(), h.GetUserSessions)
		users.GET("/:id/stats", h.OptionalAuthMiddleware(), h.GetUserStats)
		users.GET("/:id/streak", h.OptionalAuthMiddleware(), h.GetUserStreak)
		users.GET("/:id/followers", h.OptionalAuthMiddleware(), h.GetFollowers)
		users.GET("/:id/following", h.OptionalAuthMiddleware(), h.GetFollowing)
		users.POST("/:id/follow", h.AuthMiddleware(), h.FollowUser)
		users.DELETE("/:id/follow", h.AuthMiddleware(), h.UnfollowUser)
	}

	// Session routes
	sessions := api.Group("/sessions")
	{
		sessions.POST("", h.AuthMiddleware(), h.CreateSession)
		sessions.GET("/:id", h.OptionalAuthMiddleware(), h.GetSession)
		sessions.PATCH("/:id", h.AuthMiddleware(), h.UpdateSession)
		sessions.DELETE("/:id", h.AuthMiddleware(), h.DeleteSession)
		sessions.POST("/:id/images", h.AuthMiddleware(), middleware.RateLimitUpload(), h.UploadSessionImage)

		sessions.POST("/:id/support", h.AuthMiddleware(), h.SupportSession)
		sessions.DELETE("/:id/support", h.AuthMiddleware(), h.UnsupportSession)
		sessions.GET("/:id/supporters", h.OptionalAuthMiddleware(), h.GetSupporters)

		sessions.POST("/:id/comments", h.AuthMiddleware(), h.CreateComment)
		sessions.GET("/:id/comments", h.OptionalAuthMiddleware(), h.GetComments)
	}

	// Comment routes
	comments := api.Group("/comments")
	{
		comments.Use(h.AuthMiddleware())
		comments.PATCH("/:id", h.UpdateComment)
		comments.DELETE("/:id", h.DeleteComment)
		comments.POST("/:id/like", h.LikeComment)
		comments.DELETE("/:id/like", h.UnlikeComment)
	}

	// Feed routes
	feedGroup := api.Group("/feed")
	{
		feedGroup.GET("", h.AuthMiddleware(), h.GetHomeFeed)
		feedGroup.GET("/global", h.OptionalAuthMiddleware(), h.GetGlobalFeed)
		feedGroup.GET("/new-count", h.AuthMiddleware(), h.GetFeedNewCount)
	}

	// Timer routes
	timer := api.Group("/timer")
	{
		timer.Use(h.AuthMiddleware())
		timer.GET("", h.GetTimer)
		timer.POST("/start", h.StartTimer)
		timer.POST("/pause", h.PauseTimer)
		timer.POST("/resume", h.ResumeTimer)
		timer.POST("/finish", h.FinishTimer)
		timer.DELETE("", h.DiscardTimer)
	}

	// Project routes
	projects := api.Group("/projects")
	{
		projects.Use(h.AuthMiddleware())
		projects.POST("", h.CreateProject)
		projects.GET("", h.ListProjects)
		projects.GET("/preferences", h.GetActivityPreferences)
		projects.PATCH("/:id", h.UpdateProject)
		projects.DELETE("/:id", h.DeleteProject)
	}

	// Group routes
	groups := api.Group("/groups")
	{
		groups.GET("", h.OptionalAuthMiddleware(), h.ListGroups)
		groups.GET("/:id", h.OptionalAuthMiddleware(), h.GetGroup)
		groups.GET("/:id/members", h.OptionalAuthMiddleware(), h.GetGroupMembers)

		groups.POST("", h.AuthMiddleware(), h.CreateGroup)
		groups.PATCH("/:id", h.AuthMiddleware(), h.UpdateGroup)
		groups.DELETE("/:id", h.AuthMiddleware(), h.DeleteGroup)
		groups.POST("/:id/join", h.AuthMiddleware(), h.JoinGroup)
		groups.POST("/:id/leave", h.AuthMiddleware(), h.LeaveGroup)
		groups.GET("/:id/feed", h.AuthMiddleware(), h.GetGroupFeed)
		groups.POST("/:id/members/:userId/promote", h.AuthMiddleware(), h.PromoteGroupAdmin)
	}

	// Challenge routes; creation is admin-only, promotion via cmd/promote-admin
	challenges := api.Group("/challenges")
	{
		challenges.Use(h.AuthMiddleware())
		challenges.POST("", h.AdminMiddleware(), h.CreateChallenge)
		challenges.GET("", h.ListChallenges)
		challenges.GET("/:id", h.GetChallenge)
		challenges.POST("/:id/join", h.JoinChallenge)
		challenges.POST("/:id/leave", h.LeaveChallenge)
		challenges.GET("/:id/leaderboard", h.GetChallengeLeaderboard)
	}

	// Notification routes
	notifications := api.Group("/notifications")
	{
		notifications.Use(h.AuthMiddleware())
		notifications.GET("", h.GetNotifications)
		notifications.GET("/unread-count", h.GetUnreadNotificationCount)
		notifications.POST("/:id/read", h.MarkNotificationRead)
		notifications.POST("/read-all", h.MarkAllNotificationsRead)
	}
}
