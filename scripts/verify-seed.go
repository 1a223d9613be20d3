package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	fmt.Println("Verifying seed data...")
	fmt.Println()

	var userCount, sessionCount, commentCount, groupCount, challengeCount, followCount int64
	database.DB.Model(&models.User{}).Count(&userCount)
	database.DB.Model(&models.Session{}).Count(&sessionCount)
	database.DB.Model(&models.Comment{}).Where("is_deleted = false").Count(&commentCount)
	database.DB.Model(&models.Group{}).Count(&groupCount)
	database.DB.Model(&models.Challenge{}).Count(&challengeCount)
	database.DB.Model(&models.Follow{}).Count(&followCount)

	fmt.Println("Record counts:")
	fmt.Printf("  Users:      %d\n", userCount)
	fmt.Printf("  Sessions:   %d\n", sessionCount)
	fmt.Printf("  Comments:   %d\n", commentCount)
	fmt.Printf("  Groups:     %d\n", groupCount)
	fmt.Printf("  Challenges: %d\n", challengeCount)
	fmt.Printf("  Follows:    %d\n", followCount)
	fmt.Println()

	// Counter caches must agree with the underlying tables
	var staleFollowers int64
	database.DB.Raw(`
		SELECT COUNT(*) FROM users u
		WHERE u.followers_count <> (SELECT COUNT(*) FROM follows f WHERE f.followee_id = u.id)
	`).Scan(&staleFollowers)

	var staleSupports int64
	database.DB.Raw(`
		SELECT COUNT(*) FROM sessions s
		WHERE s.deleted_at IS NULL
		  AND s.support_count <> (SELECT COUNT(*) FROM supports sp WHERE sp.session_id = s.id)
	`).Scan(&staleSupports)

	var staleComments int64
	database.DB.Raw(`
		SELECT COUNT(*) FROM sessions s
		WHERE s.deleted_at IS NULL
		  AND s.comment_count <> (SELECT COUNT(*) FROM comments c WHERE c.session_id = s.id AND c.is_deleted = false)
	`).Scan(&staleComments)

	fmt.Println("Counter cache consistency:")
	fmt.Printf("  Users with stale followers_count:   %d\n", staleFollowers)
	fmt.Printf("  Sessions with stale support_count:  %d\n", staleSupports)
	fmt.Printf("  Sessions with stale comment_count:  %d\n", staleComments)
	fmt.Println()

	var users []models.User
	database.DB.Order("followers_count DESC").Limit(3).Find(&users)
	fmt.Println("Sample users:")
	for _, u := range users {
		fmt.Printf("  - %s (@%s) - %d sessions, %d followers\n", u.Name, u.Username, u.SessionCount, u.FollowersCount)
	}
	fmt.Println()

	var sessions []models.Session
	database.DB.Preload("User").Preload("Project").Order("created_at DESC").Limit(3).Find(&sessions)
	fmt.Println("Sample sessions:")
	for _, s := range sessions {
		fmt.Printf("  - %q by @%s (%s, %s)\n", s.Title, s.User.Username, s.Project.Name, s.FormattedDuration())
	}
	fmt.Println()

	if staleFollowers+staleSupports+staleComments > 0 {
		log.Fatal("Seed verification failed: counter caches out of sync")
	}
	fmt.Println("Seed data looks consistent.")
}
