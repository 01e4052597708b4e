package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trackvote/trackvote/app/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.LinkedAccount{},
		&models.Poll{},
		&models.PollSong{},
		&models.SongVote{},
	))

	return db
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user, err := models.CreateUser("Tester", "tester@example.com")
	require.NoError(t, err)
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPollWithSongs(t *testing.T, db *gorm.DB, userID uint) (*models.Poll, []models.PollSong) {
	t.Helper()

	repo := NewPollRepository(db)
	poll, err := models.CreatePoll(userID, "Friday Party", nil, false)
	require.NoError(t, err)
	poll.SpotifyPlaylistID = "playlist-abc"

	songs := []models.PollSong{
		{UUID: uuid.New().String(), SpotifyTrackID: "track-a", Title: "Song A"},
		{UUID: uuid.New().String(), SpotifyTrackID: "track-b", Title: "Song B"},
		{UUID: uuid.New().String(), SpotifyTrackID: "track-c", Title: "Song C"},
	}

	require.NoError(t, repo.Create(poll, songs))

	stored, err := repo.GetByUUID(poll.UUID)
	require.NoError(t, err)
	require.Len(t, stored.Songs, 3)
	return stored, stored.Songs
}

func vote(t *testing.T, db *gorm.DB, songID, userID uint) {
	t.Helper()
	require.NoError(t, NewSongVoteRepository(db).Create(&models.SongVote{
		PollSongID: songID,
		UserID:     userID,
	}))
}

func TestPollRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)

	poll, songs := seedPollWithSongs(t, db, user.ID)

	assert.NotZero(t, poll.ID)
	assert.Equal(t, "playlist-abc", poll.SpotifyPlaylistID)
	for _, s := range songs {
		assert.Equal(t, poll.ID, s.PollID)
	}

	repo := NewPollRepository(db)
	byUUID, err := repo.GetByUUID(poll.UUID)
	require.NoError(t, err)
	assert.Equal(t, poll.ID, byUUID.ID)
	assert.Len(t, byUUID.Songs, 3)

	_, err = repo.GetByUUID("missing-uuid")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAggregateVotes(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	poll, songs := seedPollWithSongs(t, db, user.ID)

	// B gets 3 votes, C gets 1, A gets none
	songA, songB, songC := songs[0], songs[1], songs[2]
	vote(t, db, songB.ID, 10)
	vote(t, db, songB.ID, 11)
	vote(t, db, songB.ID, 12)
	vote(t, db, songC.ID, 10)

	agg, err := NewPollSongRepository(db).AggregateVotes(poll.ID, 25, 0)
	require.NoError(t, err)

	require.Len(t, agg.Songs, 3)
	assert.Equal(t, int64(4), agg.TotalVotes)
	assert.Equal(t, int64(3), agg.Total)

	// Ordered by vote count descending; zero-vote songs still present
	assert.Equal(t, songB.ID, agg.Songs[0].SongID)
	assert.Equal(t, int64(3), agg.Songs[0].VoteCount)
	assert.Equal(t, songC.ID, agg.Songs[1].SongID)
	assert.Equal(t, int64(1), agg.Songs[1].VoteCount)
	assert.Equal(t, songA.ID, agg.Songs[2].SongID)
	assert.Equal(t, int64(0), agg.Songs[2].VoteCount)

	assert.Equal(t, []string{"track-b", "track-c", "track-a"}, agg.TrackIDs())
}

func TestAggregateVotes_TiebreakIsDeterministic(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	poll, songs := seedPollWithSongs(t, db, user.ID)

	// All songs tied at zero votes: creation order wins
	agg, err := NewPollSongRepository(db).AggregateVotes(poll.ID, 25, 0)
	require.NoError(t, err)
	require.Len(t, agg.Songs, 3)
	assert.Equal(t, songs[0].ID, agg.Songs[0].SongID)
	assert.Equal(t, songs[1].ID, agg.Songs[1].SongID)
	assert.Equal(t, songs[2].ID, agg.Songs[2].SongID)
}

func TestAggregateVotes_Pagination(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	poll, songs := seedPollWithSongs(t, db, user.ID)

	vote(t, db, songs[1].ID, 10)

	repo := NewPollSongRepository(db)

	page1, err := repo.AggregateVotes(poll.ID, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page1.Songs, 2)
	assert.Equal(t, int64(3), page1.Total)
	assert.Equal(t, int64(1), page1.TotalVotes)

	page2, err := repo.AggregateVotes(poll.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2.Songs, 1)
	// Counts cover the whole poll, not the page
	assert.Equal(t, int64(3), page2.Total)
	assert.Equal(t, int64(1), page2.TotalVotes)
}

func TestAggregateVotes_EmptyPoll(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)

	repo := NewPollRepository(db)
	poll, err := models.CreatePoll(user.ID, "Empty", nil, false)
	require.NoError(t, err)
	require.NoError(t, repo.Create(poll, nil))

	agg, err := NewPollSongRepository(db).AggregateVotes(poll.ID, 25, 0)
	require.NoError(t, err)
	assert.Empty(t, agg.Songs)
	assert.Equal(t, int64(0), agg.TotalVotes)
	assert.Equal(t, int64(0), agg.Total)
}

func TestSongVoteRepository_HasUserVoted(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	poll, songs := seedPollWithSongs(t, db, user.ID)

	repo := NewSongVoteRepository(db)

	voted, err := repo.HasUserVoted(42, poll.ID)
	require.NoError(t, err)
	assert.False(t, voted)

	vote(t, db, songs[0].ID, 42)

	voted, err = repo.HasUserVoted(42, poll.ID)
	require.NoError(t, err)
	assert.True(t, voted)

	// Votes in another poll do not count
	otherPoll, _ := seedPollWithSongs(t, db, user.ID)
	voted, err = repo.HasUserVoted(42, otherPoll.ID)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestLinkedAccountRepository_UpdateTokens(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)

	repo := NewLinkedAccountRepository(db)
	exp := time.Now().Add(-time.Minute).Round(time.Second)
	account := &models.LinkedAccount{
		UserID:         user.ID,
		Provider:       "spotify",
		ProviderUserID: "spotify-user",
		AccessToken:    "old-access",
		RefreshToken:   "old-refresh",
		ExpiresAt:      &exp,
	}
	require.NoError(t, repo.Create(account))

	newExp := time.Now().Add(59 * time.Minute).Round(time.Second)
	require.NoError(t, repo.UpdateTokens(account.ID, "new-access", "new-refresh", newExp))

	stored, err := repo.GetByUserAndProvider(user.ID, "spotify")
	require.NoError(t, err)
	assert.Equal(t, "new-access", stored.AccessToken)
	assert.Equal(t, "new-refresh", stored.RefreshToken)
	require.NotNil(t, stored.ExpiresAt)
	assert.WithinDuration(t, newExp, *stored.ExpiresAt, time.Second)

	_, err = repo.GetByUserAndProvider(user.ID, "deezer")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
