// package services defines interface VideoService for interacting with the
// video platform HTTP API
package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// VideoService is the abstract capability set the sync engine needs from
// the video platform. All list operations are page-token based; an empty
// NextPageToken marks the end of pages.
type VideoService interface {
	// ListSubscriptions returns one page of the authenticated user's
	// channel subscriptions.
	ListSubscriptions(ctx context.Context, pageToken string) (*SubscriptionPage, error)

	// ResolveUsername translates a legacy username into a channel ID.
	// Returns shared.ErrUserNotFound-style sentinels for zero matches and
	// shared.ErrAmbiguousUser for multiple matches.
	ResolveUsername(ctx context.Context, name string) (string, error)

	// UploadsCollectionID returns the channel's canonical uploads-playlist
	// identifier, the low-quota substitute for a full search.
	UploadsCollectionID(ctx context.Context, channelID string) (string, error)

	// ListCollectionItems pages through an uploads collection.
	ListCollectionItems(ctx context.Context, collectionID, pageToken string) (*ItemPage, error)

	// ListPlaylistItems pages through a playlist, optionally filtered.
	ListPlaylistItems(ctx context.Context, playlistID, pageToken string, filters ItemFilters) (*ItemPage, error)

	// InsertPlaylistItem adds a video to a playlist and returns the new
	// item's opaque handle. Failures carry an *APIError when the platform
	// returned an HTTP-style status.
	InsertPlaylistItem(ctx context.Context, playlistID, videoID string) (string, error)

	// DeletePlaylistItem removes a playlist item by its opaque handle.
	DeletePlaylistItem(ctx context.Context, itemID string) error

	// LookupVideo reports whether a video still exists.
	LookupVideo(ctx context.Context, videoID string) (bool, error)

	// ValidatePlaylist reports whether a playlist exists.
	ValidatePlaylist(ctx context.Context, playlistID string) (bool, error)

	// Name returns the name of the service (e.g., "YouTube")
	Name() string
}

// Subscription is one channel from the user's subscription list.
type Subscription struct {
	ChannelID string
	Title     string
}

// SubscriptionPage is one page of subscriptions.
type SubscriptionPage struct {
	Items         []Subscription
	NextPageToken string
}

// PlaylistItem is an entry in a playlist as the platform sees it. ItemID
// is the deletable handle; VideoID identifies the underlying video.
// PublishedAt is the video's publish time, AddedAt the insertion time into
// the playlist.
type PlaylistItem struct {
	ItemID      string
	VideoID     string
	PublishedAt time.Time
	AddedAt     time.Time
}

// ItemPage is one page of playlist items.
type ItemPage struct {
	Items         []PlaylistItem
	NextPageToken string
}

// ItemFilters narrows playlist-item listings. Zero values are omitted.
// PublishedBefore filters on the item's added-at time server-side; callers
// that care about the video publish date still filter client-side.
type ItemFilters struct {
	PublishedAfter  time.Time
	PublishedBefore time.Time
}

// APIError is an HTTP-style failure from the video platform, carrying the
// status code and the platform's first error reason for classification.
type APIError struct {
	Code    int
	Reason  string
	Message string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// AsAPIError unwraps err into an *APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a 404-coded platform error.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == 404
}

// IsConflict reports whether err is a 409-coded platform error, the code
// returned when a video already exists in the destination playlist.
func IsConflict(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == 409
}

// IsOperationUnsupported reports whether err is the 400-coded failure the
// platform returns for protected playlists (watch-later, history).
func IsOperationUnsupported(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == 400 && apiErr.Reason == "playlistOperationUnsupported"
}
