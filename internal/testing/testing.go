// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/subsync/internal/services"
	"github.com/desertthunder/subsync/internal/shared"
)

// NewTestDB creates an in-memory SQLite database with migrations applied
// and closes it when the test finishes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// MockVideoService is a test double for [services.VideoService]. Unset
// function fields return empty results.
type MockVideoService struct {
	ListSubscriptionsFn  func(ctx context.Context, pageToken string) (*services.SubscriptionPage, error)
	ResolveUsernameFn    func(ctx context.Context, name string) (string, error)
	UploadsCollectionFn  func(ctx context.Context, channelID string) (string, error)
	ListCollectionFn     func(ctx context.Context, collectionID, pageToken string) (*services.ItemPage, error)
	ListPlaylistItemsFn  func(ctx context.Context, playlistID, pageToken string, filters services.ItemFilters) (*services.ItemPage, error)
	InsertPlaylistItemFn func(ctx context.Context, playlistID, videoID string) (string, error)
	DeletePlaylistItemFn func(ctx context.Context, itemID string) error
	LookupVideoFn        func(ctx context.Context, videoID string) (bool, error)
	ValidatePlaylistFn   func(ctx context.Context, playlistID string) (bool, error)
}

func (m *MockVideoService) ListSubscriptions(ctx context.Context, pageToken string) (*services.SubscriptionPage, error) {
	if m.ListSubscriptionsFn != nil {
		return m.ListSubscriptionsFn(ctx, pageToken)
	}
	return &services.SubscriptionPage{}, nil
}

func (m *MockVideoService) ResolveUsername(ctx context.Context, name string) (string, error) {
	if m.ResolveUsernameFn != nil {
		return m.ResolveUsernameFn(ctx, name)
	}
	return "", errors.New("not configured")
}

func (m *MockVideoService) UploadsCollectionID(ctx context.Context, channelID string) (string, error) {
	if m.UploadsCollectionFn != nil {
		return m.UploadsCollectionFn(ctx, channelID)
	}
	return "UU" + channelID[2:], nil
}

func (m *MockVideoService) ListCollectionItems(ctx context.Context, collectionID, pageToken string) (*services.ItemPage, error) {
	if m.ListCollectionFn != nil {
		return m.ListCollectionFn(ctx, collectionID, pageToken)
	}
	return &services.ItemPage{}, nil
}

func (m *MockVideoService) ListPlaylistItems(ctx context.Context, playlistID, pageToken string, filters services.ItemFilters) (*services.ItemPage, error) {
	if m.ListPlaylistItemsFn != nil {
		return m.ListPlaylistItemsFn(ctx, playlistID, pageToken, filters)
	}
	return &services.ItemPage{}, nil
}

func (m *MockVideoService) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) (string, error) {
	if m.InsertPlaylistItemFn != nil {
		return m.InsertPlaylistItemFn(ctx, playlistID, videoID)
	}
	return "item-" + videoID, nil
}

func (m *MockVideoService) DeletePlaylistItem(ctx context.Context, itemID string) error {
	if m.DeletePlaylistItemFn != nil {
		return m.DeletePlaylistItemFn(ctx, itemID)
	}
	return nil
}

func (m *MockVideoService) LookupVideo(ctx context.Context, videoID string) (bool, error) {
	if m.LookupVideoFn != nil {
		return m.LookupVideoFn(ctx, videoID)
	}
	return true, nil
}

func (m *MockVideoService) ValidatePlaylist(ctx context.Context, playlistID string) (bool, error) {
	if m.ValidatePlaylistFn != nil {
		return m.ValidatePlaylistFn(ctx, playlistID)
	}
	return true, nil
}

func (m *MockVideoService) Name() string { return "mock" }
