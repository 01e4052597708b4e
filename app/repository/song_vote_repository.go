package repository

import (
	"gorm.io/gorm"

	"github.com/trackvote/trackvote/app/models"
)

// songVoteRepository implements the SongVoteRepository interface
type songVoteRepository struct {
	db *gorm.DB
}

// NewSongVoteRepository creates a new song vote repository instance
func NewSongVoteRepository(db *gorm.DB) SongVoteRepository {
	return &songVoteRepository{db: db}
}

// Create appends a vote row
func (r *songVoteRepository) Create(vote *models.SongVote) error {
	return r.db.Create(vote).Error
}

// HasUserVoted reports whether the user has any vote in the given poll
func (r *songVoteRepository) HasUserVoted(userID, pollID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.SongVote{}).
		Joins("JOIN poll_songs ON poll_songs.id = song_votes.poll_song_id").
		Where("song_votes.user_id = ? AND poll_songs.poll_id = ?", userID, pollID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByPollID returns the number of vote rows across the whole poll
func (r *songVoteRepository) CountByPollID(pollID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.SongVote{}).
		Joins("JOIN poll_songs ON poll_songs.id = song_votes.poll_song_id").
		Where("poll_songs.poll_id = ?", pollID).
		Count(&count).Error
	return count, err
}
