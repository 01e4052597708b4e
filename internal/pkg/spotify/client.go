package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trackvote/trackvote/internal/pkg/env"
)

const (
	defaultSpotifyAuthURL    = "https://accounts.spotify.com/authorize"
	defaultSpotifyTokenURL   = "https://accounts.spotify.com/api/token"
	defaultSpotifyAPIBaseURL = "https://api.spotify.com/v1"
)

// Config holds the Spotify application credentials and endpoint URLs.
// It is passed explicitly into the client; nothing here is read ambiently
// at call time.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthURL    string
	TokenURL   string
	APIBaseURL string
}

// NewConfigFromEnv builds a Config from environment variables, with the
// endpoint URLs overridable for tests.
func NewConfigFromEnv() Config {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	redirectURI := strings.TrimSpace(env.GetEnv("SPOTIFY_REDIRECT_URI", ""))
	if redirectURI == "" && base != "" {
		redirectURI = base + "/auth/spotify/callback"
	}

	return Config{
		ClientID:     strings.TrimSpace(env.GetEnv("SPOTIFY_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("SPOTIFY_CLIENT_SECRET", "")),
		RedirectURI:  redirectURI,
		AuthURL:      strings.TrimSpace(env.GetEnv("SPOTIFY_AUTHORIZE_URL", defaultSpotifyAuthURL)),
		TokenURL:     strings.TrimSpace(env.GetEnv("SPOTIFY_TOKEN_URL", defaultSpotifyTokenURL)),
		APIBaseURL:   strings.TrimSpace(env.GetEnv("SPOTIFY_API_BASE_URL", defaultSpotifyAPIBaseURL)),
	}
}

// Client is a thin wrapper around the Spotify Web API. Every call takes a
// caller-supplied access token; the client performs no token management and
// no caching of its own.
type Client struct {
	cfg Config

	HTTPClient *http.Client
}

// NewClient creates a Spotify client for the given config
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Image is one album art resource
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist is a track artist
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album is a track album
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Track is one search result track
type Track struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []Artist `json:"artists"`
	Album   Album    `json:"album"`
}

// SearchResult is a paginated track search response
type SearchResult struct {
	Tracks []Track `json:"tracks"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Profile is the authenticated user's Spotify profile
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// SearchTracks queries the search endpoint for tracks
func (c *Client) SearchTracks(ctx context.Context, accessToken, query string, limit, offset int) (*SearchResult, error) {
	if limit <= 0 {
		limit = 25
	}
	if limit > 50 {
		limit = 50
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "track")
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	var raw struct {
		Tracks struct {
			Limit  int     `json:"limit"`
			Offset int     `json:"offset"`
			Total  int     `json:"total"`
			Items  []Track `json:"items"`
		} `json:"tracks"`
	}

	if err := c.doJSON(ctx, http.MethodGet, "/search?"+q.Encode(), accessToken, nil, &raw); err != nil {
		return nil, err
	}

	return &SearchResult{
		Tracks: raw.Tracks.Items,
		Total:  raw.Tracks.Total,
		Limit:  raw.Tracks.Limit,
		Offset: raw.Tracks.Offset,
	}, nil
}

// CreatePlaylist creates an empty public playlist for the given Spotify user
// and returns its playlist ID
func (c *Client) CreatePlaylist(ctx context.Context, accessToken, ownerSpotifyID, name, description string) (string, error) {
	payload := map[string]interface{}{
		"name":        name,
		"description": description,
		"public":      true,
	}

	var raw struct {
		ID string `json:"id"`
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(ownerSpotifyID))
	if err := c.doJSON(ctx, http.MethodPost, endpoint, accessToken, payload, &raw); err != nil {
		return "", err
	}
	if raw.ID == "" {
		return "", fmt.Errorf("spotify playlist create returned empty id")
	}
	return raw.ID, nil
}

// ReplaceTracks replaces the playlist's entire track list with the given
// tracks, in order. The provider discards anything not listed.
func (c *Client) ReplaceTracks(ctx context.Context, accessToken, playlistID string, trackIDs []string) error {
	uris := make([]string, 0, len(trackIDs))
	for _, id := range trackIDs {
		uris = append(uris, "spotify:track:"+id)
	}

	payload := map[string]interface{}{
		"uris": uris,
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return c.doJSON(ctx, http.MethodPut, endpoint, accessToken, payload, nil)
}

// GetProfile retrieves the profile of the token's user
func (c *Client) GetProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var profile Profile
	if err := c.doJSON(ctx, http.MethodGet, "/me", accessToken, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// doJSON performs a bearer-authenticated request against the API base URL.
// Any non-2xx response is mapped to *APIError with status and body.
func (c *Client) doJSON(ctx context.Context, method, endpoint, accessToken string, payload, result interface{}) error {
	apiURL := strings.TrimRight(c.cfg.APIBaseURL, "/") + endpoint

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode spotify response: %w", err)
		}
	}

	return nil
}
