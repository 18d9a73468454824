package pipeline

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-podcaster/internal/models"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Result is the uniform outcome of a pipeline run.
type Result struct {
	Status  string
	FeedURL string
	Episode *models.Episode
	ErrKind ErrorKind
	Err     error
}

// Manager sequences the four pipeline stages and publishes the feed.
// Runs for the same user are serialized (a second request while one is
// in flight is rejected with UserBusy); runs for different users share
// no mutable state and proceed in parallel.
type Manager struct {
	generator ScriptGenerator
	synth     SpeechSynthesizer
	store     ArtifactStore
	ledger    EpisodeLedger
	publisher FeedPublisher

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewManager(gen ScriptGenerator, synth SpeechSynthesizer, store ArtifactStore, ledger EpisodeLedger, publisher FeedPublisher) *Manager {
	return &Manager{
		generator: gen,
		synth:     synth,
		store:     store,
		ledger:    ledger,
		publisher: publisher,
		inFlight:  make(map[string]bool),
	}
}

// Run drives a generation request through generate, synthesize, store,
// append and publish. A failure at any stage is terminal: partial
// artifacts are discarded, nothing is written downstream, and the
// failing stage's error kind is returned. The manager never retries
// across stage boundaries.
func (m *Manager) Run(ctx context.Context, req models.GenerationRequest) Result {
	if !models.KnownIntent(req.Intent) {
		return errResult(Failf(ErrInvalidIntent, "unknown intent %q", req.Intent))
	}
	if !models.SupportedLanguages[req.Language] {
		return errResult(Failf(ErrUnsupportedLanguage, "unsupported language %q", req.Language))
	}
	if strings.TrimSpace(req.Message) == "" {
		return errResult(Failf(ErrGenerationEmpty, "empty message"))
	}

	if !m.acquire(req.UserID) {
		return errResult(Failf(ErrUserBusy, "a run is already in flight for user %s", req.UserID))
	}
	defer m.release(req.UserID)

	v := variants[req.Intent]
	episodeID := uuid.NewString()
	log.Printf("pipeline %s: run %s started for user %s", req.Intent, episodeID, req.UserID)

	script, err := m.generator.Generate(ctx, req.Intent, req.Message, req.Language)
	if err != nil {
		return errResult(tagged(err, ErrGenerationEmpty))
	}
	if err := ctx.Err(); err != nil {
		return errResult(Wrap(ErrCanceled, err))
	}

	artifact, err := m.synth.Synthesize(ctx, script, req.Language, v.voices)
	if err != nil {
		return errResult(tagged(err, ErrSynthesisTimeout))
	}
	if err := ctx.Err(); err != nil {
		// Already-synthesized audio is discarded, never stored.
		return errResult(Wrap(ErrCanceled, err))
	}

	stored, err := m.store.Store(ctx, artifact, req.UserID, episodeID)
	if err != nil {
		return errResult(tagged(err, ErrStorageUnavailable))
	}
	if err := ctx.Err(); err != nil {
		// Stored audio without a ledger record is an acceptable orphan;
		// it never becomes visible through the feed.
		return errResult(Wrap(ErrCanceled, err))
	}

	episode := &models.Episode{
		ID:             episodeID,
		UserID:         req.UserID,
		Intent:         string(req.Intent),
		Language:       req.Language,
		Title:          script.Title,
		Summary:        script.Summary,
		AudioPath:      stored.Path,
		AudioURL:       stored.URL,
		AudioSizeBytes: stored.SizeBytes,
		DurationSec:    artifact.DurationSec,
		PublishedAt:    time.Now().UTC(),
		Meta: models.MetaMap{
			"speakers":            strings.Join(script.Speakers(), ","),
			"voices":              strings.Join(v.voices, ","),
			"target_duration_sec": strconv.Itoa(v.targetDurationSec),
		},
	}

	if err := m.ledger.Append(ctx, episode); err != nil {
		return errResult(tagged(err, ErrLedgerWriteFailed))
	}

	doc, err := m.publisher.Publish(ctx, req.UserID)
	if err != nil {
		return errResult(tagged(err, ErrFeedRenderFailed))
	}

	log.Printf("pipeline %s: run %s published for user %s (%ds audio)", req.Intent, episodeID, req.UserID, episode.DurationSec)
	return Result{Status: StatusOK, FeedURL: doc.URL, Episode: episode}
}

// GetFeed re-derives the user's feed document. Read-only, no side
// effects.
func (m *Manager) GetFeed(ctx context.Context, userID string) (FeedDocument, error) {
	doc, err := m.publisher.Publish(ctx, userID)
	if err != nil {
		return FeedDocument{}, tagged(err, ErrFeedRenderFailed)
	}
	return doc, nil
}

// acquire marks the user as having a run in flight. Returns false if
// one already is.
func (m *Manager) acquire(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight[userID] {
		return false
	}
	m.inFlight[userID] = true
	return true
}

func (m *Manager) release(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, userID)
}

// tagged keeps a stage's own error kind, falling back to the stage
// default for untagged errors. Caller-initiated cancellation is never
// reported as a stage failure.
func tagged(err error, fallback ErrorKind) error {
	if KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(ErrCanceled, err)
	}
	return Wrap(fallback, err)
}

func errResult(err error) Result {
	return Result{Status: StatusError, ErrKind: KindOf(err), Err: err}
}
