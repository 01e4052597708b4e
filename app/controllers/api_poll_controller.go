package controllers

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trackvote/trackvote/app/models"
	"github.com/trackvote/trackvote/app/repository"
	"github.com/trackvote/trackvote/internal/pkg/jobqueue"
	"github.com/trackvote/trackvote/internal/pkg/usercontext"
)

// CreatePollSongRequest is one track to add to a new poll
type CreatePollSongRequest struct {
	SpotifyTrackID string `json:"spotify_track_id" validate:"required,max=64"`
	Title          string `json:"title" validate:"required,max=200"`
	Artist         string `json:"artist" validate:"max=200"`
	Album          string `json:"album" validate:"max=200"`
	AlbumImageURL  string `json:"album_image_url" validate:"max=255"`
}

// CreatePollRequest is the payload for creating a poll
type CreatePollRequest struct {
	Title                string                  `json:"title" validate:"required,min=1,max=200"`
	Description          *string                 `json:"description,omitempty"`
	AllowMultipleOptions bool                    `json:"allow_multiple_options"`
	Songs                []CreatePollSongRequest `json:"songs" validate:"required,min=1,max=100,dive"`
}

// HandleAPICreatePoll creates a poll with its songs and the backing Spotify
// playlist, then schedules the first playlist sync.
func HandleAPICreatePoll(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	var req CreatePollRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validator.New().Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	ctx := c.UserContext()
	token, err := getTokenManager().AccessToken(ctx, userCtx.UserID)
	if err != nil {
		return handleServiceError(c, err)
	}

	client := getSpotifyClient()
	profile, err := client.GetProfile(ctx, token)
	if err != nil {
		return handleServiceError(c, err)
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	playlistID, err := client.CreatePlaylist(ctx, token, profile.ID, req.Title, description)
	if err != nil {
		return handleServiceError(c, err)
	}

	poll, err := models.CreatePoll(userCtx.UserID, req.Title, req.Description, req.AllowMultipleOptions)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	poll.SpotifyPlaylistID = playlistID

	songs := make([]models.PollSong, 0, len(req.Songs))
	for _, s := range req.Songs {
		songs = append(songs, models.PollSong{
			UUID:           uuid.New().String(),
			SpotifyTrackID: s.SpotifyTrackID,
			Title:          s.Title,
			Artist:         s.Artist,
			Album:          s.Album,
			AlbumImageURL:  s.AlbumImageURL,
		})
	}

	if err := repository.GetGlobalRepositories().Poll.Create(poll, songs); err != nil {
		return handleServiceError(c, err)
	}

	// Populate the playlist with the initial song order right away
	if err := jobqueue.GetManager().ScheduleResync(poll.ID); err != nil {
		log.Errorf("[API Poll] Failed to schedule initial sync for poll %d: %v", poll.ID, err)
	}

	log.Infof("[API Poll] User %d created poll %s with %d songs", userCtx.UserID, poll.UUID, len(songs))
	return c.Status(fiber.StatusCreated).JSON(poll)
}

// HandleAPIGetPoll returns one poll with its songs
func HandleAPIGetPoll(c *fiber.Ctx) error {
	pollUUID := c.Params("uuid")

	poll, err := repository.GetGlobalRepositories().Poll.GetByUUID(pollUUID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(poll)
}

// HandleAPIGetPollResults returns the paginated vote tally for a poll,
// highest-voted first. Songs without votes are included with a zero count.
func HandleAPIGetPollResults(c *fiber.Ctx) error {
	pollUUID := c.Params("uuid")

	repos := repository.GetGlobalRepositories()
	poll, err := repos.Poll.GetByUUID(pollUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Poll not found"})
		}
		return handleServiceError(c, err)
	}

	limit, _ := strconv.Atoi(c.Query("limit", "25"))
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	agg, err := repos.PollSong.AggregateVotes(poll.ID, limit, offset)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"poll_uuid":   poll.UUID,
		"songs":       agg.Songs,
		"total_votes": agg.TotalVotes,
		"total":       agg.Total,
		"limit":       agg.Limit,
		"offset":      agg.Offset,
	})
}
