package controllers

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/trackvote/trackvote/internal/pkg/cache"
	"github.com/trackvote/trackvote/internal/pkg/usercontext"
)

// searchCacheTTL bounds how long a track search result is served from Redis
// before Spotify is asked again
const searchCacheTTL = 24 * time.Hour

// HandleAPISearchTracks performs a track search on behalf of the logged-in
// user. Results are cached in Redis per (query, limit, offset) so repeated
// typeahead lookups do not burn Spotify rate limits.
func HandleAPISearchTracks(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Query parameter 'q' is required"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "25"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	cacheKey := fmt.Sprintf("spotify:search:%s:%d:%d", url.QueryEscape(strings.ToLower(query)), limit, offset)
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	token, err := getTokenManager().AccessToken(c.UserContext(), userCtx.UserID)
	if err != nil {
		return handleServiceError(c, err)
	}

	result, err := getSpotifyClient().SearchTracks(c.UserContext(), token, query, limit, offset)
	if err != nil {
		return handleServiceError(c, err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return handleServiceError(c, err)
	}
	if err := cache.Set(cacheKey, string(payload), searchCacheTTL); err != nil {
		log.Errorf("[API Search] Failed to cache search result: %v", err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}
