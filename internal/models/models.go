// package models defines the data model for the playlist sync service
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/subsync/internal/shared"
)

// TrackedRow is one row of the tracking table: a destination playlist, the
// sources feeding it, and its sync checkpoint.
//
// LastSync, once set, is monotonically non-decreasing across successful
// runs; the engine only advances it when the row's error count is zero.
type TrackedRow struct {
	Position       int       // 1-based position, the row's identity
	PlaylistID     string    // destination playlist
	Sources        []string  // raw source tokens, in configured order
	LastSync       time.Time // zero value means the row has never synced
	FrequencyHours float64   // 0 means the row is always due
	RetentionDays  int       // 0 disables retention pruning
}

// Validate checks the row's data before persistence.
func (r *TrackedRow) Validate() error {
	if r.PlaylistID == "" {
		return fmt.Errorf("%w: playlist id required", shared.ErrInvalidInput)
	}
	if r.FrequencyHours < 0 {
		return fmt.Errorf("%w: frequency hours cannot be negative", shared.ErrInvalidInput)
	}
	if r.RetentionDays < 0 {
		return fmt.Errorf("%w: retention days cannot be negative", shared.ErrInvalidInput)
	}
	return nil
}

// VideoCandidate is a video discovered by the fetcher, pending insertion.
// It exists only within one row's processing.
type VideoCandidate struct {
	VideoID     string
	PublishedAt time.Time
}

// TokenKind classifies a raw source token. Classification is a pure
// predicate over the token's shape; no kind is ever persisted.
type TokenKind int

const (
	// TokenUsername is the fallback kind: anything that is not the
	// subscription marker and does not look like a playlist or channel ID.
	TokenUsername TokenKind = iota
	// TokenAllSubscriptions is the literal marker expanding to every
	// channel the authenticated user is subscribed to.
	TokenAllSubscriptions
	// TokenPlaylist matches a playlist-ID shape ("PL" prefix).
	TokenPlaylist
	// TokenChannel matches a channel-ID shape ("UC" prefix).
	TokenChannel
)

// subscriptionMarker is the literal token users write to track all of
// their subscriptions.
const subscriptionMarker = "ALL"

// idShapeMinLen guards against a channel named "PLxyz" being taken for a
// playlist ID; real IDs are well past this length.
const idShapeMinLen = 10

// ClassifyToken maps a raw source token to exactly one TokenKind.
func ClassifyToken(token string) TokenKind {
	switch {
	case token == subscriptionMarker:
		return TokenAllSubscriptions
	case strings.HasPrefix(token, "PL") && len(token) > idShapeMinLen:
		return TokenPlaylist
	case strings.HasPrefix(token, "UC") && len(token) > idShapeMinLen:
		return TokenChannel
	default:
		return TokenUsername
	}
}

// String returns the kind's name for logs.
func (k TokenKind) String() string {
	switch k {
	case TokenAllSubscriptions:
		return "subscriptions"
	case TokenPlaylist:
		return "playlist"
	case TokenChannel:
		return "channel"
	default:
		return "username"
	}
}
