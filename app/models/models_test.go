package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	user, err := CreateUser("Alice", "alice@example.com")
	require.NoError(t, err)

	assert.NotEmpty(t, user.UUID)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestCreateUser_InvalidEmail(t *testing.T) {
	_, err := CreateUser("Alice", "not-an-email")
	assert.Error(t, err)

	_, err = CreateUser("Alice", "")
	assert.Error(t, err)
}

func TestCreatePoll(t *testing.T) {
	desc := "vote for the party playlist"
	poll, err := CreatePoll(3, "Friday Party", &desc, true)
	require.NoError(t, err)

	assert.NotEmpty(t, poll.UUID)
	assert.Equal(t, uint(3), poll.UserID)
	assert.Equal(t, "Friday Party", poll.Title)
	require.NotNil(t, poll.Description)
	assert.Equal(t, desc, *poll.Description)
	assert.True(t, poll.AllowMultipleOptions)
}

func TestCreatePoll_EmptyTitle(t *testing.T) {
	_, err := CreatePoll(3, "", nil, false)
	assert.Error(t, err)
}

func TestLinkedAccount_TokenValid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	tests := []struct {
		name      string
		expiresAt *time.Time
		valid     bool
	}{
		{"Expiry in the future", &future, true},
		{"Expiry in the past", &past, false},
		{"Expiry exactly now", &now, false},
		{"No expiry stored", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &LinkedAccount{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.valid, a.TokenValid(now))
		})
	}
}
