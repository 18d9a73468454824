package pipeline

import (
	"context"

	"ai-podcaster/internal/models"
)

// ScriptGenerator produces a structured script from the user's request.
type ScriptGenerator interface {
	Generate(ctx context.Context, intent models.Intent, message, language string) (*models.Script, error)
}

// SpeechSynthesizer turns a script into a single audio artifact.
// Voices are assigned to speaker tags in first-appearance order and the
// mapping stays stable across the whole script.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, script *models.Script, language string, voices []string) (*models.AudioArtifact, error)
}

// ArtifactStore persists audio bytes under a path derived from
// (userID, episodeID), so re-stores of the same episode overwrite.
type ArtifactStore interface {
	Store(ctx context.Context, artifact *models.AudioArtifact, userID, episodeID string) (models.StoredAudio, error)
}

// EpisodeLedger owns the append-only per-user episode collection.
// Append is the single commit point that makes an episode visible.
type EpisodeLedger interface {
	Append(ctx context.Context, episode *models.Episode) error
	ListByUser(ctx context.Context, userID string) ([]models.Episode, error)
}

// FeedDocument is the rendered syndication view of a user's episodes.
type FeedDocument struct {
	URL string
	XML string
}

// FeedPublisher derives the feed document from the ledger's current
// episode list. It holds no feed state of its own.
type FeedPublisher interface {
	Publish(ctx context.Context, userID string) (FeedDocument, error)
}

// variant is the per-intent pipeline policy. The orchestration is
// identical across intents; only these parameters differ.
type variant struct {
	voices            []string
	targetDurationSec int
}

var variants = map[models.Intent]variant{
	models.IntentWellness: {voices: []string{"alloy"}, targetDurationSec: 600},
	models.IntentBriefing: {voices: []string{"onyx"}, targetDurationSec: 180},
	models.IntentDialogue: {voices: []string{"nova", "echo"}, targetDurationSec: 240},
}
