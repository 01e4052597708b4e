package jobqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/trackvote/trackvote/app/models"
	"github.com/trackvote/trackvote/app/repository"
	"github.com/trackvote/trackvote/internal/pkg/tokens"
)

// aggregationPageSize bounds how many poll songs a single resync reads;
// polls are far smaller in practice.
const aggregationPageSize = 100

type pollFinder interface {
	GetByID(id uint) (*models.Poll, error)
}

type voteAggregator interface {
	AggregateVotes(pollID uint, limit, offset int) (*repository.VoteAggregation, error)
}

type tokenSource interface {
	AccessToken(ctx context.Context, userID uint) (string, error)
}

type trackReplacer interface {
	ReplaceTracks(ctx context.Context, accessToken, playlistID string, trackIDs []string) error
}

// PlaylistProcessor turns a poll's accumulated votes into a playlist mutation:
// it loads the poll, aggregates votes, obtains the owner's access token and
// replaces the playlist's track list in vote order.
type PlaylistProcessor struct {
	polls    pollFinder
	songs    voteAggregator
	tokens   tokenSource
	playlist trackReplacer
}

// NewPlaylistProcessor creates a processor over the given collaborators
func NewPlaylistProcessor(polls pollFinder, songs voteAggregator, tokens tokenSource, playlist trackReplacer) *PlaylistProcessor {
	return &PlaylistProcessor{
		polls:    polls,
		songs:    songs,
		tokens:   tokens,
		playlist: playlist,
	}
}

// Process handles one resync job. Errors wrapped with Permanent are dropped
// by the queue without retry; everything else is retried per the backoff
// policy.
func (p *PlaylistProcessor) Process(ctx context.Context, job *Job) error {
	poll, err := p.polls.GetByID(job.PollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Poll was deleted while the job waited; nothing left to sync
			return Permanent(fmt.Errorf("poll %d no longer exists: %w", job.PollID, err))
		}
		return fmt.Errorf("failed to load poll %d: %w", job.PollID, err)
	}

	agg, err := p.songs.AggregateVotes(poll.ID, aggregationPageSize, 0)
	if err != nil {
		return fmt.Errorf("failed to aggregate votes for poll %d: %w", poll.ID, err)
	}

	token, err := p.tokens.AccessToken(ctx, poll.UserID)
	if err != nil {
		if errors.Is(err, tokens.ErrNoLinkedAccount) {
			return Permanent(err)
		}
		return err
	}

	if err := p.playlist.ReplaceTracks(ctx, token, poll.SpotifyPlaylistID, agg.TrackIDs()); err != nil {
		return err
	}

	log.Infof("[SyncQueue] Playlist %s resynced for poll %d (%d tracks, %d votes)",
		poll.SpotifyPlaylistID, poll.ID, len(agg.Songs), agg.TotalVotes)
	return nil
}
