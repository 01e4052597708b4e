package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Poll is a titled set of voteable tracks backed by one Spotify playlist.
// Immutable after creation; its songs are created in bulk alongside it.
type Poll struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UUID                 string    `gorm:"uniqueIndex;type:varchar(36)" json:"uuid"`
	UserID               uint      `gorm:"index" json:"user_id"`
	SpotifyPlaylistID    string    `gorm:"type:varchar(64)" json:"spotify_playlist_id"`
	Title                string    `gorm:"type:varchar(200)" json:"title" validate:"required,min=1,max=200"`
	Description          *string   `gorm:"type:text;default:null" json:"description,omitempty"`
	AllowMultipleOptions bool      `gorm:"default:false" json:"allow_multiple_options"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Songs []PollSong `gorm:"foreignKey:PollID" json:"songs,omitempty"`
}

func (p *Poll) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

func CreatePoll(userID uint, title string, description *string, allowMultipleOptions bool) (*Poll, error) {
	p := &Poll{
		UUID:                 uuid.New().String(),
		UserID:               userID,
		Title:                title,
		Description:          description,
		AllowMultipleOptions: allowMultipleOptions,
	}

	err := p.Validate()
	if err != nil {
		return nil, err
	}

	return p, nil
}
