package controllers

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/trackvote/trackvote/app/models"
	"github.com/trackvote/trackvote/app/repository"
	"github.com/trackvote/trackvote/internal/pkg/spotify"
	"github.com/trackvote/trackvote/internal/pkg/tokens"
	"github.com/trackvote/trackvote/internal/pkg/usercontext"
)

var (
	spotifyClientOnce sync.Once
	spotifyClient     *spotify.Client
	tokenManagerOnce  sync.Once
	tokenManager      *tokens.Manager
)

// getSpotifyClient returns the shared Spotify client used by controllers
func getSpotifyClient() *spotify.Client {
	spotifyClientOnce.Do(func() {
		spotifyClient = spotify.NewClient(spotify.NewConfigFromEnv())
	})
	return spotifyClient
}

// getTokenManager returns the shared token manager used by controllers
func getTokenManager() *tokens.Manager {
	tokenManagerOnce.Do(func() {
		tokenManager = tokens.NewManager(repository.GetGlobalRepositories().LinkedAccount, getSpotifyClient())
	})
	return tokenManager
}

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(usercontext.KeyFromProtected); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}

// handleServiceError translates the shared error taxonomy into a JSON response.
// Record-not-found maps to 404, a missing linked account to 401, and upstream
// Spotify failures to 502 so the caller can tell them apart from our own 500s.
func handleServiceError(c *fiber.Ctx, err error) error {
	var apiErr *spotify.APIError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Resource not found"})
	case errors.Is(err, tokens.ErrNoLinkedAccount):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "no_linked_account", "message": "No linked Spotify account"})
	case errors.As(err, &apiErr):
		log.Errorf("[API] Spotify request failed: %v", apiErr)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error", "message": "Spotify request failed"})
	default:
		log.Errorf("[API] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Something went wrong"})
	}
}

func getUserAccount(userID uint) (*models.User, error) {
	return repository.GetGlobalRepositories().User.GetByID(userID)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
