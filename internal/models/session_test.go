package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionVisibilityValid(t *testing.T) {
	assert.True(t, VisibilityEveryone.Valid())
	assert.True(t, VisibilityFollowers.Valid())
	assert.True(t, VisibilityPrivate.Valid())
	assert.False(t, SessionVisibility("").Valid())
	assert.False(t, SessionVisibility("public").Valid())
}

func TestSessionVisibleTo(t *testing.T) {
	session := &Session{UserID: "owner", Visibility: VisibilityEveryone}

	t.Run("owner always sees their session", func(t *testing.T) {
		session.Visibility = VisibilityPrivate
		assert.True(t, session.VisibleTo("owner", false))
	})

	t.Run("everyone visibility is public", func(t *testing.T) {
		session.Visibility = VisibilityEveryone
		assert.True(t, session.VisibleTo("stranger", false))
		assert.True(t, session.VisibleTo("", false))
	})

	t.Run("followers visibility needs the follow edge", func(t *testing.T) {
		session.Visibility = VisibilityFollowers
		assert.True(t, session.VisibleTo("follower", true))
		assert.False(t, session.VisibleTo("stranger", false))
		assert.False(t, session.VisibleTo("", false))
	})

	t.Run("private hides from everyone else", func(t *testing.T) {
		session.Visibility = VisibilityPrivate
		assert.False(t, session.VisibleTo("follower", true))
		assert.False(t, session.VisibleTo("stranger", false))
	})
}

func TestSessionFormattedDuration(t *testing.T) {
	cases := []struct {
		seconds  int
		expected string
	}{
		{0, "0s"},
		{30, "30s"},
		{59, "59s"},
		{60, "1m"},
		{2700, "45m"},
		{3600, "1h 0m"},
		{8100, "2h 15m"},
		{86400, "24h 0m"},
	}
	for _, tc := range cases {
		s := &Session{Duration: tc.seconds}
		assert.Equal(t, tc.expected, s.FormattedDuration(), "duration %d", tc.seconds)
	}
}
