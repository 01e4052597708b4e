package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// User is an application account. Accounts are created through the Spotify
// login flow only; there is no password authentication.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UUID        string     `gorm:"uniqueIndex;type:varchar(36)" json:"uuid"`
	Name        string     `gorm:"type:varchar(150)" json:"name" validate:"max=150"`
	Email       string     `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	AvatarURL   string     `gorm:"type:varchar(255);default:null" json:"avatar_url" validate:"max=255"`
	LastLoginAt *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(name string, email string) (*User, error) {
	u := &User{
		UUID:  uuid.New().String(),
		Name:  name,
		Email: email,
	}

	err := u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}
