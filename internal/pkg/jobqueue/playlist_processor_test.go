package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/trackvote/trackvote/app/models"
	"github.com/trackvote/trackvote/app/repository"
	"github.com/trackvote/trackvote/internal/pkg/spotify"
	"github.com/trackvote/trackvote/internal/pkg/tokens"
)

type fakePollFinder struct {
	poll *models.Poll
	err  error
}

func (f *fakePollFinder) GetByID(id uint) (*models.Poll, error) {
	return f.poll, f.err
}

type fakeVoteAggregator struct {
	agg *repository.VoteAggregation
	err error

	gotPollID uint
	gotLimit  int
}

func (f *fakeVoteAggregator) AggregateVotes(pollID uint, limit, offset int) (*repository.VoteAggregation, error) {
	f.gotPollID = pollID
	f.gotLimit = limit
	return f.agg, f.err
}

type fakeTokenSource struct {
	token string
	err   error
}

func (f *fakeTokenSource) AccessToken(ctx context.Context, userID uint) (string, error) {
	return f.token, f.err
}

type fakeTrackReplacer struct {
	err error

	gotToken      string
	gotPlaylistID string
	gotTrackIDs   []string
	calls         int
}

func (f *fakeTrackReplacer) ReplaceTracks(ctx context.Context, accessToken, playlistID string, trackIDs []string) error {
	f.calls++
	f.gotToken = accessToken
	f.gotPlaylistID = playlistID
	f.gotTrackIDs = trackIDs
	return f.err
}

func testPoll() *models.Poll {
	return &models.Poll{
		ID:                7,
		UUID:              "poll-uuid",
		UserID:            3,
		SpotifyPlaylistID: "playlist-abc",
		Title:             "Friday Party",
	}
}

func testAggregation() *repository.VoteAggregation {
	return &repository.VoteAggregation{
		Songs: []repository.SongVoteCount{
			{SongID: 2, SpotifyTrackID: "track-b", VoteCount: 3},
			{SongID: 3, SpotifyTrackID: "track-c", VoteCount: 1},
			{SongID: 1, SpotifyTrackID: "track-a", VoteCount: 0},
		},
		TotalVotes: 4,
		Total:      3,
	}
}

func TestPlaylistProcessor_Process(t *testing.T) {
	polls := &fakePollFinder{poll: testPoll()}
	songs := &fakeVoteAggregator{agg: testAggregation()}
	tokenSrc := &fakeTokenSource{token: "access-token"}
	playlist := &fakeTrackReplacer{}

	p := NewPlaylistProcessor(polls, songs, tokenSrc, playlist)
	err := p.Process(context.Background(), &Job{ID: "j1", PollID: 7})
	require.NoError(t, err)

	assert.Equal(t, uint(7), songs.gotPollID)
	assert.Equal(t, aggregationPageSize, songs.gotLimit)
	assert.Equal(t, 1, playlist.calls)
	assert.Equal(t, "access-token", playlist.gotToken)
	assert.Equal(t, "playlist-abc", playlist.gotPlaylistID)
	// Vote order is preserved all the way to the playlist mutation
	assert.Equal(t, []string{"track-b", "track-c", "track-a"}, playlist.gotTrackIDs)
}

func TestPlaylistProcessor_Process_PollDeleted(t *testing.T) {
	polls := &fakePollFinder{err: gorm.ErrRecordNotFound}
	playlist := &fakeTrackReplacer{}

	p := NewPlaylistProcessor(polls, &fakeVoteAggregator{}, &fakeTokenSource{}, playlist)
	err := p.Process(context.Background(), &Job{ID: "j1", PollID: 404})

	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 0, playlist.calls)
}

func TestPlaylistProcessor_Process_NoLinkedAccount(t *testing.T) {
	polls := &fakePollFinder{poll: testPoll()}
	songs := &fakeVoteAggregator{agg: testAggregation()}
	tokenSrc := &fakeTokenSource{err: fmt.Errorf("user 3: %w", tokens.ErrNoLinkedAccount)}
	playlist := &fakeTrackReplacer{}

	p := NewPlaylistProcessor(polls, songs, tokenSrc, playlist)
	err := p.Process(context.Background(), &Job{ID: "j1", PollID: 7})

	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, tokens.ErrNoLinkedAccount)
	assert.Equal(t, 0, playlist.calls)
}

func TestPlaylistProcessor_Process_UpstreamFailureIsRetryable(t *testing.T) {
	polls := &fakePollFinder{poll: testPoll()}
	songs := &fakeVoteAggregator{agg: testAggregation()}
	tokenSrc := &fakeTokenSource{token: "access-token"}
	playlist := &fakeTrackReplacer{err: &spotify.APIError{StatusCode: 500, Status: "500 Internal Server Error", Body: "oops"}}

	p := NewPlaylistProcessor(polls, songs, tokenSrc, playlist)
	err := p.Process(context.Background(), &Job{ID: "j1", PollID: 7})

	require.Error(t, err)
	assert.False(t, IsPermanent(err))

	var apiErr *spotify.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestPlaylistProcessor_Process_AggregationFailureIsRetryable(t *testing.T) {
	polls := &fakePollFinder{poll: testPoll()}
	songs := &fakeVoteAggregator{err: errors.New("db gone away")}

	p := NewPlaylistProcessor(polls, songs, &fakeTokenSource{}, &fakeTrackReplacer{})
	err := p.Process(context.Background(), &Job{ID: "j1", PollID: 7})

	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}
