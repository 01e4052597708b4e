package models

import "time"

// SongVote is one user's vote for a poll song. Votes are append-only;
// "one vote per user" for single-choice polls is enforced at vote time,
// not by a database constraint.
type SongVote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PollSongID uint      `gorm:"index" json:"poll_song_id"`
	UserID     uint      `gorm:"index" json:"user_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
