package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/subsync/internal/models"
	"github.com/desertthunder/subsync/internal/shared"
)

// resolveSources expands a row's raw source tokens into channel IDs and
// playlist IDs, in token order. Tokens that cannot be resolved record an
// error and contribute nothing; the remaining tokens still resolve.
func (e *Engine) resolveSources(ctx context.Context, tokens []string) (channelIDs, playlistIDs []string) {
	for _, token := range tokens {
		switch models.ClassifyToken(token) {
		case models.TokenAllSubscriptions:
			ids, ok := e.subscribedChannels(ctx)
			if ok && len(ids) == 0 {
				e.tracker.AddError("Could not find any subscriptions")
			}
			channelIDs = append(channelIDs, ids...)
		case models.TokenPlaylist:
			playlistIDs = append(playlistIDs, token)
		case models.TokenChannel:
			channelIDs = append(channelIDs, token)
		default:
			id, err := e.video.ResolveUsername(ctx, token)
			if err != nil {
				switch {
				case errors.Is(err, shared.ErrUserNotFound):
					e.tracker.AddError(fmt.Sprintf("No user with name %s", token))
				case errors.Is(err, shared.ErrAmbiguousUser):
					e.tracker.AddError(fmt.Sprintf("Multiple users with name %s", token))
				default:
					e.tracker.AddError(fmt.Sprintf("Cannot search for channel with name %s: %v", token, err))
				}
				continue
			}
			channelIDs = append(channelIDs, id)
		}
	}
	return channelIDs, playlistIDs
}

// subscribedChannels pages through the user's subscriptions. Pagination is
// capped because the platform has returned cycling next-page tokens; the
// cap keeps a bad token from looping forever. ok is false when listing
// failed partway, so the caller can tell an error from an empty list.
func (e *Engine) subscribedChannels(ctx context.Context) (ids []string, ok bool) {
	pageToken := ""
	for page := 0; page < e.opts.SubscriptionPageCap; page++ {
		result, err := e.video.ListSubscriptions(ctx, pageToken)
		if err != nil {
			e.tracker.AddError(fmt.Sprintf("Couldn't get subscriptions: %v", err))
			return ids, false
		}
		for _, sub := range result.Items {
			ids = append(ids, sub.ChannelID)
		}
		pageToken = result.NextPageToken
		if pageToken == "" {
			break
		}
	}

	e.logf("Acquired %d subscriptions", len(ids))
	return ids, true
}
