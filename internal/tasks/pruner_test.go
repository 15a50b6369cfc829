package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/subsync/internal/services"
)

func TestPrune(t *testing.T) {
	cutoff := baseTime.Add(-7 * 24 * time.Hour)

	t.Run("deletes expired items and duplicate survivors", func(t *testing.T) {
		video := &fakeVideo{playlists: map[string][]services.ItemPage{
			"PLdest123456789": {{Items: []services.PlaylistItem{
				{ItemID: "item-old", VideoID: "old", PublishedAt: cutoff.Add(-time.Hour)},
				{ItemID: "item-keep-a", VideoID: "keep", PublishedAt: cutoff.Add(time.Hour)},
				{ItemID: "item-keep-b", VideoID: "keep", PublishedAt: cutoff.Add(2 * time.Hour)},
				{ItemID: "item-other", VideoID: "other", PublishedAt: baseTime.Add(-time.Hour)},
			}}},
		}}
		engine := newTestEngine(t, &fakeTable{}, video, Options{})

		engine.prune(context.Background(), "PLdest123456789", cutoff)

		if engine.tracker.HasErrors() {
			t.Fatalf("expected no errors, got %d", engine.tracker.PlaylistErrorCount())
		}
		if len(video.deleted) != 2 {
			t.Fatalf("expected 2 deletions, got %v", video.deleted)
		}
		if video.deleted[0] != "item-old" {
			t.Errorf("expected expired item deleted first, got %v", video.deleted)
		}
		if video.deleted[1] != "item-keep-b" {
			t.Errorf("expected the later duplicate deleted, got %v", video.deleted)
		}
	})

	t.Run("item exactly at the cutoff survives", func(t *testing.T) {
		video := &fakeVideo{playlists: map[string][]services.ItemPage{
			"PLdest123456789": {{Items: []services.PlaylistItem{
				{ItemID: "item-edge", VideoID: "edge", PublishedAt: cutoff},
			}}},
		}}
		engine := newTestEngine(t, &fakeTable{}, video, Options{})

		engine.prune(context.Background(), "PLdest123456789", cutoff)

		if len(video.deleted) != 0 {
			t.Errorf("expected no deletions, got %v", video.deleted)
		}
	})

	t.Run("duplicate pass still runs after a failed deletion", func(t *testing.T) {
		video := &fakeVideo{
			playlists: map[string][]services.ItemPage{
				"PLdest123456789": {{Items: []services.PlaylistItem{
					{ItemID: "item-keep-a", VideoID: "keep", PublishedAt: cutoff.Add(time.Hour)},
					{ItemID: "item-keep-b", VideoID: "keep", PublishedAt: cutoff.Add(2 * time.Hour)},
					{ItemID: "item-old", VideoID: "old", PublishedAt: cutoff.Add(-time.Hour)},
				}}},
			},
			deleteErrs: map[string]error{"item-old": &services.APIError{Code: 500, Message: "boom"}},
		}
		engine := newTestEngine(t, &fakeTable{}, video, Options{})

		engine.prune(context.Background(), "PLdest123456789", cutoff)

		if got := engine.tracker.PlaylistErrorCount(); got != 1 {
			t.Errorf("expected one error from the failed deletion, got %d", got)
		}
		if len(video.deleted) != 1 || video.deleted[0] != "item-keep-b" {
			t.Errorf("expected the duplicate still removed, got %v", video.deleted)
		}
	})

	t.Run("listing failure records an error", func(t *testing.T) {
		video := &fakeVideo{playlistErrs: map[string]error{
			"PLdest123456789": &services.APIError{Code: 500, Message: "boom"},
		}}
		engine := newTestEngine(t, &fakeTable{}, video, Options{})

		engine.prune(context.Background(), "PLdest123456789", cutoff)

		if got := engine.tracker.PlaylistErrorCount(); got != 1 {
			t.Errorf("expected one error, got %d", got)
		}
	})
}
