package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/trackvote/trackvote/app/repository"
	"github.com/trackvote/trackvote/internal/pkg/spotify"
)

// ExpiryMargin is subtracted from the provider's expires_in so a token is
// never presented to the API after its real expiry.
const ExpiryMargin = 60 * time.Second

// DefaultProvider is the provider name stored on linked accounts
const DefaultProvider = "spotify"

// ErrNoLinkedAccount signals that the user has no stored credential for the
// provider. Fatal for the calling operation; there is no silent skip.
var ErrNoLinkedAccount = errors.New("no linked account for user")

// Refresher exchanges a refresh token for a fresh token pair
type Refresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*spotify.TokenResponse, error)
}

// Manager hands out valid provider access tokens, refreshing and persisting
// them transparently when expired. Both the interactive API and the sync
// worker go through it.
type Manager struct {
	provider  string
	accounts  repository.LinkedAccountRepository
	refresher Refresher

	now func() time.Time
}

// NewManager creates a token manager for the default provider
func NewManager(accounts repository.LinkedAccountRepository, refresher Refresher) *Manager {
	return &Manager{
		provider:  DefaultProvider,
		accounts:  accounts,
		refresher: refresher,
		now:       time.Now,
	}
}

// AccessToken returns a valid access token for the user's linked account.
// If the stored token is still valid it is returned without any network call.
// Otherwise the refresh token is exchanged and the new pair persisted before
// the new access token is returned.
//
// Two callers racing on the same expired account may both refresh; the second
// write simply supersedes the first (last-write-wins, no per-account lock).
func (m *Manager) AccessToken(ctx context.Context, userID uint) (string, error) {
	account, err := m.accounts.GetByUserAndProvider(userID, m.provider)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("user %d: %w", userID, ErrNoLinkedAccount)
		}
		return "", fmt.Errorf("failed to load linked account for user %d: %w", userID, err)
	}

	if account.TokenValid(m.now()) {
		return account.AccessToken, nil
	}

	token, err := m.refresher.RefreshAccessToken(ctx, account.RefreshToken)
	if err != nil {
		// Surfaced as-is; the outer retry policy decides what to do
		return "", err
	}

	// The provider is not guaranteed to rotate the refresh token
	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = account.RefreshToken
	}

	expiresAt := m.now().Add(time.Duration(token.ExpiresIn)*time.Second - ExpiryMargin)
	if err := m.accounts.UpdateTokens(account.ID, token.AccessToken, refreshToken, expiresAt); err != nil {
		return "", fmt.Errorf("failed to persist refreshed tokens for account %d: %w", account.ID, err)
	}

	log.Infof("[Tokens] Refreshed %s token for user %d (expires %s)", m.provider, userID, expiresAt.Format(time.RFC3339))
	return token.AccessToken, nil
}
