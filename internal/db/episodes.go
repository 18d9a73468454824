package db

import (
	"context"

	"ai-podcaster/internal/models"
)

// InsertEpisode appends one episode record. The single INSERT is the
// commit point that makes an episode visible: either the full record
// lands or nothing does.
func InsertEpisode(ctx context.Context, e *models.Episode) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO episodes (id, user_id, intent, language, title, summary, audio_path, audio_url, audio_size_bytes, duration_sec, published_at, raw_meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.UserID, e.Intent, e.Language, e.Title, e.Summary, e.AudioPath, e.AudioURL, e.AudioSizeBytes, e.DurationSec, e.PublishedAt, e.Meta)
	return err
}

// GetEpisodesByUserID returns the user's episodes, most recent first.
func GetEpisodesByUserID(ctx context.Context, userID string) ([]models.Episode, error) {
	var episodes []models.Episode
	err := DB.SelectContext(ctx, &episodes, `
		SELECT * FROM episodes
		WHERE user_id = $1
		ORDER BY published_at DESC`, userID)
	return episodes, err
}

// Ledger adapts the episode queries to the pipeline's ledger interface.
type Ledger struct{}

func (Ledger) Append(ctx context.Context, episode *models.Episode) error {
	return InsertEpisode(ctx, episode)
}

func (Ledger) ListByUser(ctx context.Context, userID string) ([]models.Episode, error) {
	return GetEpisodesByUserID(ctx, userID)
}
