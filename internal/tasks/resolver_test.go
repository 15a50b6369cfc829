package tasks

import (
	"context"
	"io"
	"testing"

	"github.com/desertthunder/subsync/internal/services"
	"github.com/desertthunder/subsync/internal/shared"
)

func TestResolveSources(t *testing.T) {
	t.Run("channel and playlist shapes pass through", func(t *testing.T) {
		engine := newTestEngine(t, &fakeTable{}, &fakeVideo{}, Options{})

		channels, playlists := engine.resolveSources(context.Background(), []string{
			"UCchannel123456", "PLplaylist12345",
		})

		if len(channels) != 1 || channels[0] != "UCchannel123456" {
			t.Errorf("unexpected channels: %v", channels)
		}
		if len(playlists) != 1 || playlists[0] != "PLplaylist12345" {
			t.Errorf("unexpected playlists: %v", playlists)
		}
		if engine.tracker.HasErrors() {
			t.Error("expected no errors")
		}
	})

	t.Run("short prefixed tokens resolve as usernames", func(t *testing.T) {
		video := &fakeVideo{usernames: map[string]string{"PLinko": "UCresolved12345"}}
		engine := newTestEngine(t, &fakeTable{}, video, Options{})

		channels, playlists := engine.resolveSources(context.Background(), []string{"PLinko"})

		if len(playlists) != 0 {
			t.Errorf("expected no playlists, got %v", playlists)
		}
		if len(channels) != 1 || channels[0] != "UCresolved12345" {
			t.Errorf("unexpected channels: %v", channels)
		}
	})

	t.Run("marker token expands to all subscriptions", func(t *testing.T) {
		video := &fakeVideo{subPages: []services.SubscriptionPage{
			{Items: []services.Subscription{{ChannelID: "UCone"}, {ChannelID: "UCtwo"}}},
			{Items: []services.Subscription{{ChannelID: "UCthree"}}},
		}}
		engine := newTestEngine(t, &fakeTable{}, video, Options{})

		channels, _ := engine.resolveSources(context.Background(), []string{"ALL"})

		if len(channels) != 3 {
			t.Errorf("expected 3 subscribed channels, got %v", channels)
		}
		if engine.tracker.HasErrors() {
			t.Error("expected no errors")
		}
	})

	t.Run("subscription listing failure counts once", func(t *testing.T) {
		video := &fakeVideo{subErr: &services.APIError{Code: 500, Message: "boom"}}
		engine := newTestEngine(t, &fakeTable{}, video, Options{})

		channels, _ := engine.resolveSources(context.Background(), []string{"ALL"})

		if len(channels) != 0 {
			t.Errorf("expected no channels, got %v", channels)
		}
		if got := engine.tracker.PlaylistErrorCount(); got != 1 {
			t.Errorf("expected exactly one error, got %d", got)
		}
	})

	t.Run("empty subscription list is an error", func(t *testing.T) {
		engine := newTestEngine(t, &fakeTable{}, &fakeVideo{}, Options{})

		engine.resolveSources(context.Background(), []string{"ALL"})

		if got := engine.tracker.PlaylistErrorCount(); got != 1 {
			t.Errorf("expected exactly one error, got %d", got)
		}
	})

	t.Run("username resolution failures keep other tokens", func(t *testing.T) {
		video := &fakeVideo{
			usernames: map[string]string{"good": "UCgood123456789"},
			usernameErrs: map[string]error{
				"missing":   shared.ErrUserNotFound,
				"ambiguous": shared.ErrAmbiguousUser,
			},
		}
		engine := newTestEngine(t, &fakeTable{}, video, Options{})

		channels, _ := engine.resolveSources(context.Background(), []string{"missing", "ambiguous", "good"})

		if len(channels) != 1 || channels[0] != "UCgood123456789" {
			t.Errorf("expected only the resolvable token, got %v", channels)
		}
		if got := engine.tracker.PlaylistErrorCount(); got != 2 {
			t.Errorf("expected two errors, got %d", got)
		}
	})

	t.Run("subscription pagination is capped", func(t *testing.T) {
		// Every page returns a next-page token pointing at itself.
		video := &cyclingSubs{}
		engine := newTestEngine(t, &fakeTable{}, video, Options{SubscriptionPageCap: 5})

		channels, _ := engine.resolveSources(context.Background(), []string{"ALL"})

		if len(channels) != 5 {
			t.Errorf("expected pagination capped at 5 pages, got %d channels", len(channels))
		}
	})
}

// cyclingSubs simulates the upstream defect where the subscriptions
// endpoint hands back a next-page token that never terminates.
type cyclingSubs struct {
	fakeVideo
}

func (c *cyclingSubs) ListSubscriptions(ctx context.Context, pageToken string) (*services.SubscriptionPage, error) {
	return &services.SubscriptionPage{
		Items:         []services.Subscription{{ChannelID: "UCloop"}},
		NextPageToken: "again",
	}, nil
}

func TestEngineDefaults(t *testing.T) {
	engine := NewEngine(&fakeTable{}, &fakeVideo{}, nil, shared.NewLogger(io.Discard), Options{})

	if engine.opts.MaxVideos != DefaultMaxVideos {
		t.Errorf("expected default max videos %d, got %d", DefaultMaxVideos, engine.opts.MaxVideos)
	}
	if engine.opts.SubscriptionPageCap != DefaultSubscriptionPageCap {
		t.Errorf("expected default page cap %d, got %d", DefaultSubscriptionPageCap, engine.opts.SubscriptionPageCap)
	}
	if engine.Tracker() == nil {
		t.Error("expected tracker to be wired")
	}
}
