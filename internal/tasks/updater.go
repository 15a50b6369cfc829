package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/subsync/internal/models"
	"github.com/desertthunder/subsync/internal/services"
	"github.com/desertthunder/subsync/internal/shared"
)

// insertOutcome classifies one insertion attempt. Counting happens over
// the collected outcomes, never with running counters shared across calls.
type insertOutcome int

const (
	outcomeInserted  insertOutcome = iota // video added to the playlist
	outcomeDuplicate                      // already present, not an error
	outcomeGone                           // video deleted upstream, not an error
	outcomeFailed                         // recorded on the tracker
)

// addVideos inserts the candidates into the destination playlist one at a
// time and returns how many landed. A candidate count at or past the
// per-run cap aborts the whole batch with a single error; a runaway
// backlog inserting hundreds of videos is always a misconfigured row.
func (e *Engine) addVideos(ctx context.Context, playlistID string, videos []models.VideoCandidate) int {
	if len(videos) == 0 {
		e.logf("No new videos yet.")
		return 0
	}
	if len(videos) >= e.opts.MaxVideos {
		err := fmt.Errorf(
			"%w: attempted to add %d videos to playlist %s, the limit is %d. Add them manually or raise the limit.",
			shared.ErrQuotaExceeded, len(videos), playlistID, e.opts.MaxVideos,
		)
		e.tracker.AddError(err.Error())
		return 0
	}

	outcomes := make([]insertOutcome, 0, len(videos))
	for _, video := range videos {
		outcomes = append(outcomes, e.insertVideo(ctx, playlistID, video))
	}

	added, failed := 0, 0
	for _, outcome := range outcomes {
		switch outcome {
		case outcomeInserted:
			added++
		case outcomeFailed:
			failed++
		}
	}

	e.logf("Added %d video(s) to playlist %s. Error for %d video(s).", added, playlistID, failed)
	return added
}

// insertVideo attempts one insertion and classifies the result.
//
// A 404 is ambiguous: the video may have been deleted between discovery
// and insertion, or the platform misfired. The follow-up lookup
// disambiguates; only a 404 for a video that still exists counts as a
// failure. A 409 means the video is already in the playlist, which the
// sync converges on naturally and is worth a log line but not an error.
func (e *Engine) insertVideo(ctx context.Context, playlistID string, video models.VideoCandidate) insertOutcome {
	_, err := e.video.InsertPlaylistItem(ctx, playlistID, video.VideoID)
	if err == nil {
		return outcomeInserted
	}

	switch {
	case services.IsNotFound(err):
		exists, lookupErr := e.video.LookupVideo(ctx, video.VideoID)
		if lookupErr != nil {
			e.tracker.AddError(fmt.Sprintf("Cannot lookup video %s after failed insert: %v", video.VideoID, lookupErr))
			return outcomeFailed
		}
		if !exists {
			e.logf("Video %s was deleted before it could be added", video.VideoID)
			return outcomeGone
		}
		e.tracker.AddError(fmt.Sprintf("Cannot add video %s to playlist %s: %v", video.VideoID, playlistID, err))
		return outcomeFailed
	case services.IsConflict(err):
		e.logf("Video %s is already in playlist %s", video.VideoID, playlistID)
		return outcomeDuplicate
	case services.IsOperationUnsupported(err):
		e.tracker.AddError(fmt.Sprintf(
			"Cannot add video %s: playlist %s does not support additions. Watch-later and history playlists cannot be sync targets.",
			video.VideoID, playlistID,
		))
		return outcomeFailed
	default:
		e.tracker.AddError(fmt.Sprintf("Cannot add video %s to playlist %s: %v", video.VideoID, playlistID, err))
		return outcomeFailed
	}
}
