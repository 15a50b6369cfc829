package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/subsync/internal/models"
	"github.com/desertthunder/subsync/internal/services"
	"github.com/desertthunder/subsync/internal/shared"
)

// channelVideos returns a channel's videos published at or after the
// checkpoint, oldest first. The uploads collection lists newest first, so
// the walk stops at the first page contributing nothing and the collected
// slice is reversed at the end.
//
// A missing uploads collection (channel with no videos yet) is not an
// error; the channel simply contributes nothing this run.
func (e *Engine) channelVideos(ctx context.Context, channelID string, checkpoint time.Time) []models.VideoCandidate {
	collectionID, err := e.video.UploadsCollectionID(ctx, channelID)
	if err != nil {
		if errors.Is(err, shared.ErrChannelNotFound) {
			e.tracker.AddError(fmt.Sprintf("Cannot find channel with id %s", channelID))
		} else {
			e.tracker.AddError(fmt.Sprintf("Cannot lookup uploads for channel %s: %v", channelID, err))
		}
		return nil
	}

	var videos []models.VideoCandidate
	pageToken := ""
	for {
		page, err := e.video.ListCollectionItems(ctx, collectionID, pageToken)
		if err != nil {
			if services.IsNotFound(err) {
				e.logf("Channel %s has no uploads", channelID)
				return videos
			}
			e.tracker.AddError(fmt.Sprintf("Cannot list uploads for channel %s: %v", channelID, err))
			return videos
		}

		matched := 0
		for _, item := range page.Items {
			if !item.PublishedAt.Before(checkpoint) {
				videos = append(videos, models.VideoCandidate{VideoID: item.VideoID, PublishedAt: item.PublishedAt})
				matched++
			}
		}

		// Items arrive newest first; a page with no matches means every
		// later page is older than the checkpoint too.
		if matched == 0 || page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	slices.Reverse(videos)
	return videos
}

// playlistVideos returns a source playlist's videos published strictly
// after the checkpoint. Unlike channels, playlist order is arbitrary, so
// every page is walked. When the listing comes back empty the playlist is
// validated so a deleted source surfaces as an error instead of silently
// contributing nothing forever.
func (e *Engine) playlistVideos(ctx context.Context, playlistID string, checkpoint time.Time) []models.VideoCandidate {
	var videos []models.VideoCandidate
	pageToken := ""
	listed := 0
	for {
		page, err := e.video.ListPlaylistItems(ctx, playlistID, pageToken, services.ItemFilters{})
		if err != nil {
			e.logf("Cannot list source playlist %s: %v", playlistID, err)
			break
		}

		listed += len(page.Items)
		for _, item := range page.Items {
			if item.PublishedAt.After(checkpoint) {
				videos = append(videos, models.VideoCandidate{VideoID: item.VideoID, PublishedAt: item.PublishedAt})
			}
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	if listed == 0 {
		exists, err := e.video.ValidatePlaylist(ctx, playlistID)
		if err != nil {
			e.tracker.AddError(fmt.Sprintf("Cannot validate source playlist %s: %v", playlistID, err))
		} else if !exists {
			e.tracker.AddError(fmt.Sprintf("Source playlist %s does not exist", playlistID))
		}
	}

	return videos
}
