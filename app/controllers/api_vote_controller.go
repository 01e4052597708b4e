package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/trackvote/trackvote/app/models"
	"github.com/trackvote/trackvote/app/repository"
	"github.com/trackvote/trackvote/internal/pkg/jobqueue"
	"github.com/trackvote/trackvote/internal/pkg/usercontext"
)

// VoteRequest is the payload for casting a vote
type VoteRequest struct {
	SongUUID string `json:"song_uuid"`
}

// HandleAPIVote records a vote for one song of a poll and schedules a
// debounced playlist resync. Polls that disallow multiple votes reject a
// second vote from the same user with 409.
func HandleAPIVote(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	var req VoteRequest
	if err := c.BodyParser(&req); err != nil || req.SongUUID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "song_uuid is required"})
	}

	repos := repository.GetGlobalRepositories()
	poll, err := repos.Poll.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Poll not found"})
		}
		return handleServiceError(c, err)
	}

	var song *models.PollSong
	songs, err := repos.PollSong.GetByPollID(poll.ID)
	if err != nil {
		return handleServiceError(c, err)
	}
	for i := range songs {
		if songs[i].UUID == req.SongUUID {
			song = &songs[i]
			break
		}
	}
	if song == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Song not found in poll"})
	}

	if !poll.AllowMultipleOptions {
		voted, err := repos.SongVote.HasUserVoted(userCtx.UserID, poll.ID)
		if err != nil {
			return handleServiceError(c, err)
		}
		if voted {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_voted", "message": "You already voted in this poll"})
		}
	}

	vote := &models.SongVote{
		PollSongID: song.ID,
		UserID:     userCtx.UserID,
	}
	if err := repos.SongVote.Create(vote); err != nil {
		return handleServiceError(c, err)
	}

	// Resync is best effort; a lost enqueue is repaired by the next vote
	if err := jobqueue.GetManager().ScheduleResync(poll.ID); err != nil {
		log.Errorf("[API Vote] Failed to schedule sync for poll %d: %v", poll.ID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"poll_uuid": poll.UUID,
		"song_uuid": song.UUID,
	})
}
