package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2/google"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("APP_BASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8686", cfg.Port)
	assert.Equal(t, "http://localhost:8686", cfg.APIBaseURL)
	assert.Equal(t, "http://localhost:3000", cfg.AppBaseURL)
	assert.False(t, cfg.IsProduction())
}

func TestGoogleOAuth(t *testing.T) {
	cfg := &Config{
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
		APIBaseURL:         "https://api.ambira.app",
	}

	oauth := cfg.GoogleOAuth()

	assert.Equal(t, "client-id", oauth.ClientID)
	assert.Equal(t, "client-secret", oauth.ClientSecret)
	assert.Equal(t, "https://api.ambira.app/api/v1/auth/google/callback", oauth.RedirectURL)
	assert.Equal(t, google.Endpoint, oauth.Endpoint)
	assert.Contains(t, oauth.Scopes, "email")
}
