package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/trackvote/trackvote/app/models"
)

// pollSongRepository implements the PollSongRepository interface
type pollSongRepository struct {
	db *gorm.DB
}

// NewPollSongRepository creates a new poll song repository instance
func NewPollSongRepository(db *gorm.DB) PollSongRepository {
	return &pollSongRepository{db: db}
}

// GetByPollID retrieves all songs of a poll in creation order
func (r *pollSongRepository) GetByPollID(pollID uint) ([]models.PollSong, error) {
	var songs []models.PollSong
	err := r.db.Where("poll_id = ?", pollID).Order("id ASC").Find(&songs).Error
	return songs, err
}

// AggregateVotes counts votes per song via LEFT JOIN so songs without votes
// appear with a count of 0. Ordering is vote count descending with song ID
// ascending as the tiebreak, which keeps repeated calls deterministic while
// votes are unchanged.
func (r *pollSongRepository) AggregateVotes(pollID uint, limit, offset int) (*VoteAggregation, error) {
	var rows []SongVoteCount

	err := r.db.Model(&models.PollSong{}).
		Select("poll_songs.id AS song_id, poll_songs.uuid AS song_uuid, poll_songs.spotify_track_id, "+
			"poll_songs.title, poll_songs.artist, poll_songs.album, poll_songs.album_image_url, "+
			"COUNT(song_votes.id) AS vote_count").
		Joins("LEFT JOIN song_votes ON song_votes.poll_song_id = poll_songs.id").
		Where("poll_songs.poll_id = ?", pollID).
		Group("poll_songs.id, poll_songs.uuid, poll_songs.spotify_track_id, " +
			"poll_songs.title, poll_songs.artist, poll_songs.album, poll_songs.album_image_url").
		Order("vote_count DESC, poll_songs.id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate votes for poll %d: %w", pollID, err)
	}

	var totalSongs int64
	if err := r.db.Model(&models.PollSong{}).Where("poll_id = ?", pollID).Count(&totalSongs).Error; err != nil {
		return nil, fmt.Errorf("failed to count songs for poll %d: %w", pollID, err)
	}

	// Total vote rows across the whole poll, not distinct voters
	var totalVotes int64
	err = r.db.Model(&models.SongVote{}).
		Joins("JOIN poll_songs ON poll_songs.id = song_votes.poll_song_id").
		Where("poll_songs.poll_id = ?", pollID).
		Count(&totalVotes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count votes for poll %d: %w", pollID, err)
	}

	return &VoteAggregation{
		Songs:      rows,
		TotalVotes: totalVotes,
		Total:      totalSongs,
		Limit:      limit,
		Offset:     offset,
	}, nil
}
