package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/trackvote/trackvote/app/models"
)

// linkedAccountRepository implements the LinkedAccountRepository interface
type linkedAccountRepository struct {
	db *gorm.DB
}

// NewLinkedAccountRepository creates a new linked account repository instance
func NewLinkedAccountRepository(db *gorm.DB) LinkedAccountRepository {
	return &linkedAccountRepository{db: db}
}

// Create persists a new linked account
func (r *linkedAccountRepository) Create(account *models.LinkedAccount) error {
	return r.db.Create(account).Error
}

// GetByUserAndProvider retrieves the user's credential for the given provider
func (r *linkedAccountRepository) GetByUserAndProvider(userID uint, provider string) (*models.LinkedAccount, error) {
	var account models.LinkedAccount
	err := r.db.Where("user_id = ? AND provider = ?", userID, provider).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByProviderAndProviderUserID retrieves a credential by its provider identity
func (r *linkedAccountRepository) GetByProviderAndProviderUserID(provider, providerUserID string) (*models.LinkedAccount, error) {
	var account models.LinkedAccount
	err := r.db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateTokens replaces the stored token pair and expiry in place. Concurrent
// refreshes of the same account are last-write-wins.
func (r *linkedAccountRepository) UpdateTokens(id uint, accessToken, refreshToken string, expiresAt time.Time) error {
	return r.db.Model(&models.LinkedAccount{}).Where("id = ?", id).Updates(map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_at":    expiresAt,
	}).Error
}
