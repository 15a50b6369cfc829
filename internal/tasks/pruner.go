package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/subsync/internal/services"
)

// prune removes destination-playlist items older than the retention
// cutoff, then removes duplicate entries of the same video. The duplicate
// pass runs even when the retention pass failed partway; a stuck deletion
// should not let duplicates pile up run after run.
func (e *Engine) prune(ctx context.Context, playlistID string, cutoff time.Time) {
	survivors := e.pruneExpired(ctx, playlistID, cutoff)
	e.pruneDuplicates(ctx, survivors)
}

// pruneExpired deletes items whose video publish date is before the
// cutoff and returns the surviving items in listing order. The first
// failed deletion stops the pass; items already listed but not yet judged
// are still returned as survivors for the duplicate pass.
func (e *Engine) pruneExpired(ctx context.Context, playlistID string, cutoff time.Time) []services.PlaylistItem {
	var survivors []services.PlaylistItem
	pageToken := ""
	for {
		page, err := e.video.ListPlaylistItems(ctx, playlistID, pageToken, services.ItemFilters{PublishedBefore: cutoff})
		if err != nil {
			e.tracker.AddError(fmt.Sprintf("Problem deleting existing videos from playlist %s: %v", playlistID, err))
			return survivors
		}

		for _, item := range page.Items {
			if item.PublishedAt.Before(cutoff) {
				e.logf("Del: | %s", item.VideoID)
				if err := e.video.DeletePlaylistItem(ctx, item.ItemID); err != nil {
					e.tracker.AddError(fmt.Sprintf("Problem deleting existing videos from playlist %s: %v", playlistID, err))
					return survivors
				}
				continue
			}
			survivors = append(survivors, item)
		}

		if page.NextPageToken == "" {
			return survivors
		}
		pageToken = page.NextPageToken
	}
}

// pruneDuplicates deletes all but the first occurrence of each video
// among the survivors. The first failed deletion stops the pass.
func (e *Engine) pruneDuplicates(ctx context.Context, items []services.PlaylistItem) {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if !seen[item.VideoID] {
			seen[item.VideoID] = true
			continue
		}
		e.logf("Del duplicate: | %s", item.VideoID)
		if err := e.video.DeletePlaylistItem(ctx, item.ItemID); err != nil {
			e.tracker.AddError(fmt.Sprintf("Problem deleting duplicate videos: %v", err))
			return
		}
	}
}
