// YouTube Data API v3 [VideoService] implementation
//
// Talks to https://www.googleapis.com/youtube/v3 directly. Playlist
// mutation requires an OAuth client; read-only listing also works with an
// API key. Every request passes through a shared rate limiter so one run
// stays inside the request-quota budget.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/desertthunder/subsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultYouTubeBaseURL string = "https://www.googleapis.com/youtube/v3"

const pageSize = 50

// YouTubeService implements the VideoService interface for YouTube.
type YouTubeService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewYouTubeService creates a new YouTube service instance.
//
// The client should already carry OAuth credentials (see [OAuthClient]);
// apiKey may be empty in that case. A nil client falls back to
// [http.DefaultClient], a zero rps disables rate limiting.
func NewYouTubeService(baseURL, apiKey string, client *http.Client, rps float64) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYouTubeBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &YouTubeService{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: client,
		limiter:    limiter,
	}
}

// OAuthClient builds an [http.Client] that authenticates requests with a
// stored OAuth token, refreshing it as needed.
func OAuthClient(ctx context.Context, cfg shared.YouTubeConfig) (*http.Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: youtube client credentials", shared.ErrMissingConfig)
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{"https://www.googleapis.com/auth/youtube"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}

	data, err := os.ReadFile(cfg.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return conf.Client(ctx, &token), nil
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// doRequest performs one API call and decodes the response into result.
// Non-2xx responses are returned as *APIError with the platform's code and
// first error reason.
func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any) error {
	if y.limiter != nil {
		if err := y.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	if query == nil {
		query = url.Values{}
	}
	if y.apiKey != "" {
		query.Set("key", y.apiKey)
	}

	apiURL := y.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// decodeAPIError maps the platform's error envelope onto *APIError.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Code: resp.StatusCode}

	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Errors  []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		if envelope.Error.Code != 0 {
			apiErr.Code = envelope.Error.Code
		}
		apiErr.Message = envelope.Error.Message
		if len(envelope.Error.Errors) > 0 {
			apiErr.Reason = envelope.Error.Errors[0].Reason
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("status %d", resp.StatusCode)
	}

	return apiErr
}

// subscriptionResponse mirrors /subscriptions list payloads.
type subscriptionResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title      string `json:"title"`
			ResourceID struct {
				ChannelID string `json:"channelId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

// ListSubscriptions retrieves one page of the authenticated user's
// subscriptions, ordered alphabetically for stable pagination.
func (y *YouTubeService) ListSubscriptions(ctx context.Context, pageToken string) (*SubscriptionPage, error) {
	query := url.Values{
		"part":       {"snippet"},
		"mine":       {"true"},
		"maxResults": {fmt.Sprint(pageSize)},
		"order":      {"alphabetical"},
		"fields":     {"nextPageToken,items(snippet(title,resourceId(channelId)))"},
	}
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	var resp subscriptionResponse
	if err := y.doRequest(ctx, http.MethodGet, "/subscriptions", query, nil, &resp); err != nil {
		return nil, err
	}

	page := &SubscriptionPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		page.Items = append(page.Items, Subscription{
			ChannelID: item.Snippet.ResourceID.ChannelID,
			Title:     item.Snippet.Title,
		})
	}

	return page, nil
}

// channelResponse mirrors /channels list payloads.
type channelResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// ResolveUsername translates a legacy username into a channel ID. Exactly
// one match is required.
func (y *YouTubeService) ResolveUsername(ctx context.Context, name string) (string, error) {
	query := url.Values{
		"part":        {"id"},
		"forUsername": {name},
		"maxResults":  {"1"},
	}

	var resp channelResponse
	if err := y.doRequest(ctx, http.MethodGet, "/channels", query, nil, &resp); err != nil {
		return "", err
	}

	switch {
	case len(resp.Items) == 0:
		return "", fmt.Errorf("%w: %s", shared.ErrUserNotFound, name)
	case len(resp.Items) > 1:
		return "", fmt.Errorf("%w: %s", shared.ErrAmbiguousUser, name)
	case resp.Items[0].ID == "":
		return "", fmt.Errorf("%w: %s has no id", shared.ErrUserNotFound, name)
	}

	return resp.Items[0].ID, nil
}

// UploadsCollectionID looks up a channel's canonical uploads playlist.
func (y *YouTubeService) UploadsCollectionID(ctx context.Context, channelID string) (string, error) {
	query := url.Values{
		"part": {"contentDetails"},
		"id":   {channelID},
	}

	var resp channelResponse
	if err := y.doRequest(ctx, http.MethodGet, "/channels", query, nil, &resp); err != nil {
		return "", err
	}

	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: %s", shared.ErrChannelNotFound, channelID)
	}

	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// playlistItemResponse mirrors /playlistItems list payloads.
type playlistItemResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID      string `json:"id"`
		Snippet struct {
			PublishedAt time.Time `json:"publishedAt"`
			ResourceID  struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
		ContentDetails struct {
			VideoID          string    `json:"videoId"`
			VideoPublishedAt time.Time `json:"videoPublishedAt"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (r *playlistItemResponse) page() *ItemPage {
	page := &ItemPage{NextPageToken: r.NextPageToken}
	for _, item := range r.Items {
		videoID := item.ContentDetails.VideoID
		if videoID == "" {
			videoID = item.Snippet.ResourceID.VideoID
		}
		page.Items = append(page.Items, PlaylistItem{
			ItemID:      item.ID,
			VideoID:     videoID,
			PublishedAt: item.ContentDetails.VideoPublishedAt,
			AddedAt:     item.Snippet.PublishedAt,
		})
	}
	return page
}

// ListCollectionItems pages through an uploads collection.
func (y *YouTubeService) ListCollectionItems(ctx context.Context, collectionID, pageToken string) (*ItemPage, error) {
	query := url.Values{
		"part":       {"contentDetails"},
		"playlistId": {collectionID},
		"maxResults": {fmt.Sprint(pageSize)},
	}
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	var resp playlistItemResponse
	if err := y.doRequest(ctx, http.MethodGet, "/playlistItems", query, nil, &resp); err != nil {
		return nil, err
	}

	return resp.page(), nil
}

// ListPlaylistItems pages through a playlist with optional date filters.
func (y *YouTubeService) ListPlaylistItems(ctx context.Context, playlistID, pageToken string, filters ItemFilters) (*ItemPage, error) {
	query := url.Values{
		"part":       {"snippet,contentDetails"},
		"playlistId": {playlistID},
		"maxResults": {fmt.Sprint(pageSize)},
		"order":      {"date"},
	}
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}
	if !filters.PublishedAfter.IsZero() {
		query.Set("publishedAfter", shared.FormatTimestamp(filters.PublishedAfter))
	}
	if !filters.PublishedBefore.IsZero() {
		query.Set("publishedBefore", shared.FormatTimestamp(filters.PublishedBefore))
	}

	var resp playlistItemResponse
	if err := y.doRequest(ctx, http.MethodGet, "/playlistItems", query, nil, &resp); err != nil {
		return nil, err
	}

	return resp.page(), nil
}

// InsertPlaylistItem adds a video to a playlist.
func (y *YouTubeService) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) (string, error) {
	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": playlistID,
			"resourceId": map[string]string{
				"kind":    "youtube#video",
				"videoId": videoID,
			},
		},
	}

	var resp struct {
		ID string `json:"id"`
	}
	query := url.Values{"part": {"snippet"}}
	if err := y.doRequest(ctx, http.MethodPost, "/playlistItems", query, body, &resp); err != nil {
		return "", err
	}

	return resp.ID, nil
}

// DeletePlaylistItem removes a playlist item by its opaque handle.
func (y *YouTubeService) DeletePlaylistItem(ctx context.Context, itemID string) error {
	query := url.Values{"id": {itemID}}
	return y.doRequest(ctx, http.MethodDelete, "/playlistItems", query, nil, nil)
}

// LookupVideo reports whether a video still exists.
func (y *YouTubeService) LookupVideo(ctx context.Context, videoID string) (bool, error) {
	query := url.Values{
		"part": {"id"},
		"id":   {videoID},
	}

	var resp struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := y.doRequest(ctx, http.MethodGet, "/videos", query, nil, &resp); err != nil {
		return false, err
	}

	return len(resp.Items) > 0, nil
}

// ValidatePlaylist reports whether a playlist exists.
func (y *YouTubeService) ValidatePlaylist(ctx context.Context, playlistID string) (bool, error) {
	query := url.Values{
		"part": {"id"},
		"id":   {playlistID},
	}

	var resp struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := y.doRequest(ctx, http.MethodGet, "/playlists", query, nil, &resp); err != nil {
		return false, err
	}

	return len(resp.Items) > 0, nil
}
