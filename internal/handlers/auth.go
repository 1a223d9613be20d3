package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/auth"
	"github.com/AmbiraDev/ambira-backend/internal/logger"
	"github.com/AmbiraDev/ambira-backend/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Register creates a new account with email/password
// POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.RegisterNativeUser(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			util.RespondConflict(c, "email")
		case errors.Is(err, auth.ErrUsernameExists):
			util.RespondConflict(c, "username")
		default:
			logger.ErrorWithFields("Registration failed", err)
			util.RespondInternalError(c, "Failed to create account")
		}
		return
	}

	if h.email != nil {
		go func(email, name string) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := h.email.SendWelcomeEmail(ctx, email, name); err != nil {
				logger.WarnWithFields("failed to send welcome email", err)
			}
		}(resp.User.Email, resp.User.Name)
	}

	c.JSON(http.StatusCreated, resp)
}

// Login authenticates with email/password
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.LoginNativeUser(req)
	if err != nil {
		// Same response for unknown email and wrong password
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidCredentials) {
			util.RespondUnauthorized(c, "Invalid email or password")
			return
		}
		logger.ErrorWithFields("Login failed", err)
		util.RespondInternalError(c, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GoogleOAuth redirects to Google's consent screen
// GET /api/v1/auth/google
func (h *Handlers) GoogleOAuth(c *gin.Context) {
	state := uuid.New().String()
	// State round-trips through a short-lived cookie for CSRF protection
	c.SetCookie("oauth_state", state, 600, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, h.auth.GetGoogleOAuthURL(state))
}

// GoogleCallback handles the OAuth redirect from Google
// GET /api/v1/auth/google/callback
func (h *Handlers) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	cookieState, err := c.Cookie("oauth_state")
	if err != nil || state == "" || state != cookieState {
		util.RespondBadRequest(c, "Invalid OAuth state")
		return
	}

	code := c.Query("code")
	if code == "" {
		util.RespondBadRequest(c, "Missing authorization code")
		return
	}

	resp, err := h.auth.HandleGoogleCallback(code)
	if err != nil {
		logger.ErrorWithFields("Google OAuth callback failed", err)
		util.RespondUnauthorized(c, "Google authentication failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user's own account
// GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// RequestPasswordReset sends a password reset email when the account exists.
// Always returns 200 so the endpoint cannot be used to probe for accounts.
// POST /api/v1/auth/password-reset
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	token, err := h.auth.RequestPasswordReset(req.Email)
	if err != nil {
		logger.ErrorWithFields("Failed to create password reset token", err)
		util.RespondInternalError(c, "Failed to process request")
		return
	}

	if token != nil && h.email != nil {
		go func(email, tokenStr string) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := h.email.SendPasswordResetEmail(ctx, email, tokenStr); err != nil {
				logger.WarnWithFields("failed to send password reset email", err)
			}
		}(req.Email, token.Token)
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a reset link has been sent"})
}

// ConfirmPasswordReset sets a new password from a reset token
// POST /api/v1/auth/password-reset/confirm
func (h *Handlers) ConfirmPasswordReset(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.ResetPassword(req.Token, req.Password); err != nil {
		util.RespondBadRequest(c, "Invalid or expired reset token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// AuthMiddleware validates the Bearer token and loads the user into context
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			util.RespondUnauthorized(c, "Missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			util.RespondUnauthorized(c, "Invalid authorization header")
			c.Abort()
			return
		}

		user, err := h.auth.ValidateToken(parts[1])
		if err != nil {
			util.RespondUnauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// OptionalAuthMiddleware loads the user when a valid token is present but
// lets anonymous requests through. Public feeds and profiles use it to
// personalize visibility without requiring login.
func (h *Handlers) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				if user, err := h.auth.ValidateToken(parts[1]); err == nil {
					c.Set("user_id", user.ID)
					c.Set("user", user)
				}
			}
		}
		c.Next()
	}
}

// AdminMiddleware requires the authenticated user to be an admin
func (h *Handlers) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			c.Abort()
			return
		}
		if !user.IsAdmin {
			util.RespondForbidden(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
