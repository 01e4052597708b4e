package models

import "time"

// LinkedAccount stores an external OAuth credential pair linked to a user.
// Exactly one row exists per (provider, provider_user_id). The token fields
// are mutated in place whenever the access token is refreshed.
type LinkedAccount struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"index" json:"user_id"`
	Provider       string     `gorm:"index:provider_uid,unique;type:varchar(50)" json:"provider"`
	ProviderUserID string     `gorm:"index:provider_uid,unique;type:varchar(191)" json:"provider_user_id"`
	AccessToken    string     `gorm:"type:text" json:"-"`
	RefreshToken   string     `gorm:"type:text" json:"-"`
	ExpiresAt      *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TokenValid reports whether the stored access token can still be presented
// to the provider at time now.
func (a *LinkedAccount) TokenValid(now time.Time) bool {
	return a.ExpiresAt != nil && now.Before(*a.ExpiresAt)
}
