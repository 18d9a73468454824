package feed

import (
	"context"

	"ai-podcaster/internal/db"
	"ai-podcaster/internal/pipeline"
)

// Publisher derives a user's feed document from the episode ledger.
type Publisher struct {
	BaseURL string
}

func (p Publisher) Publish(ctx context.Context, userID string) (pipeline.FeedDocument, error) {
	user, err := db.GetUserByID(userID)
	if err != nil {
		return pipeline.FeedDocument{}, pipeline.Failf(pipeline.ErrFeedRenderFailed, "unknown user %s: %v", userID, err)
	}

	episodes, err := db.GetEpisodesByUserID(ctx, userID)
	if err != nil {
		return pipeline.FeedDocument{}, pipeline.Failf(pipeline.ErrFeedRenderFailed, "failed to list episodes: %v", err)
	}

	xml, err := GenerateRSS(user, episodes, p.BaseURL)
	if err != nil {
		return pipeline.FeedDocument{}, pipeline.Failf(pipeline.ErrFeedRenderFailed, "failed to render feed: %v", err)
	}

	return pipeline.FeedDocument{
		URL: p.BaseURL + "/rss/" + user.RSSUUID,
		XML: xml,
	}, nil
}
