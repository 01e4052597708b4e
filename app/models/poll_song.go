package models

import "time"

// PollSong is one voteable track within a poll. Songs are owned exclusively
// by their poll and are never mutated after creation.
type PollSong struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UUID           string    `gorm:"uniqueIndex;type:varchar(36)" json:"uuid"`
	PollID         uint      `gorm:"index" json:"poll_id"`
	SpotifyTrackID string    `gorm:"type:varchar(64)" json:"spotify_track_id"`
	Title          string    `gorm:"type:varchar(200)" json:"title"`
	Artist         string    `gorm:"type:varchar(200)" json:"artist"`
	Album          string    `gorm:"type:varchar(200)" json:"album"`
	AlbumImageURL  string    `gorm:"type:varchar(255)" json:"album_image_url"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
