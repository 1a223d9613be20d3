package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GoogleUserInfo represents Google OAuth user response
type GoogleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// HandleGoogleCallback processes Google OAuth callback
func (s *Service) HandleGoogleCallback(code string) (*AuthResponse, error) {
	userInfo, err := s.getGoogleUserInfo(code)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google user info: %w", err)
	}

	return s.findOrCreateGoogleUser(userInfo)
}

// getGoogleUserInfo exchanges the authorization code and fetches the profile
func (s *Service) getGoogleUserInfo(code string) (*GoogleUserInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	token, err := s.googleConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	client := s.googleConfig.Client(ctx, token)
	resp, err := client.Get("https://openidconnect.googleapis.com/v1/userinfo")
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("userinfo request returned %d: %s", resp.StatusCode, body)
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}

	if info.Email == "" {
		return nil, errors.New("google account has no email")
	}

	return &info, nil
}

// findOrCreateGoogleUser implements email-based account unification:
// an existing account with the same email gets the Google ID linked
// rather than a duplicate account created.
func (s *Service) findOrCreateGoogleUser(info *GoogleUserInfo) (*AuthResponse, error) {
	// Already linked
	var user models.User
	err := database.DB.Where("google_id = ?", info.Sub).First(&user).Error
	if err == nil {
		return s.touchAndRespond(&user)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Same email, different auth method - link the Google ID
	err = database.DB.Where("LOWER(email) = LOWER(?)", info.Email).First(&user).Error
	if err == nil {
		user.GoogleID = &info.Sub
		if user.ProfilePictureURL == "" {
			user.ProfilePictureURL = info.Picture
		}
		if err := database.DB.Save(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to link google account: %w", err)
		}
		return s.touchAndRespond(&user)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	user = models.User{
		ID:                uuid.New().String(),
		Email:             info.Email,
		Username:          s.usernameFromEmail(info.Email),
		Name:              info.Name,
		GoogleID:          &info.Sub,
		ProfilePictureURL: info.Picture,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.generateAuthResponse(&user)
}

func (s *Service) touchAndRespond(user *models.User) (*AuthResponse, error) {
	now := time.Now()
	user.LastActiveAt = &now
	database.DB.Save(user)
	return s.generateAuthResponse(user)
}

// usernameFromEmail derives a unique username from the email local part
func (s *Service) usernameFromEmail(email string) string {
	base := strings.ToLower(strings.Split(email, "@")[0])
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, base)
	if base == "" {
		base = "user"
	}

	username := base
	for i := 0; i < 10; i++ {
		var count int64
		database.DB.Model(&models.User{}).Where("LOWER(username) = ?", username).Count(&count)
		if count == 0 {
			return username
		}
		username = fmt.Sprintf("%s%s", base, uuid.New().String()[:4])
	}
	return fmt.Sprintf("%s%d", base, time.Now().UnixNano()%100000)
}
