package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/trackvote/trackvote/app/models"
)

// PollRepository defines the interface for poll-related database operations
type PollRepository interface {
	// Create persists a poll together with its songs in one transaction.
	Create(poll *models.Poll, songs []models.PollSong) error
	GetByID(id uint) (*models.Poll, error)
	GetByUUID(uuid string) (*models.Poll, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Poll, error)
	Count() (int64, error)
	Delete(id uint) error
}

// PollSongRepository defines the interface for poll song database operations
type PollSongRepository interface {
	GetByPollID(pollID uint) ([]models.PollSong, error)
	// AggregateVotes returns per-song vote counts for a poll, ordered by
	// count descending (song creation order breaks ties), including songs
	// with zero votes.
	AggregateVotes(pollID uint, limit, offset int) (*VoteAggregation, error)
}

// SongVoteRepository defines the interface for vote database operations
type SongVoteRepository interface {
	Create(vote *models.SongVote) error
	HasUserVoted(userID, pollID uint) (bool, error)
	CountByPollID(pollID uint) (int64, error)
}

// LinkedAccountRepository defines the interface for OAuth credential storage
type LinkedAccountRepository interface {
	Create(account *models.LinkedAccount) error
	GetByUserAndProvider(userID uint, provider string) (*models.LinkedAccount, error)
	GetByProviderAndProviderUserID(provider, providerUserID string) (*models.LinkedAccount, error)
	UpdateTokens(id uint, accessToken, refreshToken string, expiresAt time.Time) error
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
}

// SongVoteCount is one row of a vote aggregation
type SongVoteCount struct {
	SongID         uint   `json:"song_id"`
	SongUUID       string `json:"song_uuid"`
	SpotifyTrackID string `json:"spotify_track_id"`
	Title          string `json:"title"`
	Artist         string `json:"artist"`
	Album          string `json:"album"`
	AlbumImageURL  string `json:"album_image_url"`
	VoteCount      int64  `json:"vote_count"`
}

// VoteAggregation is the result of aggregating votes for one poll
type VoteAggregation struct {
	Songs      []SongVoteCount `json:"songs"`
	TotalVotes int64           `json:"total_votes"`
	Total      int64           `json:"total"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

// TrackIDs returns the Spotify track ids in aggregated order (highest-voted first)
func (a *VoteAggregation) TrackIDs() []string {
	ids := make([]string, 0, len(a.Songs))
	for _, s := range a.Songs {
		ids = append(ids, s.SpotifyTrackID)
	}
	return ids
}

// Repositories struct holds all repository instances
type Repositories struct {
	Poll          PollRepository
	PollSong      PollSongRepository
	SongVote      SongVoteRepository
	LinkedAccount LinkedAccountRepository
	User          UserRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Poll:          NewPollRepository(db),
		PollSong:      NewPollSongRepository(db),
		SongVote:      NewSongVoteRepository(db),
		LinkedAccount: NewLinkedAccountRepository(db),
		User:          NewUserRepository(db),
	}
}
