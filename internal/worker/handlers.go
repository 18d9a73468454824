package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"ai-podcaster/internal/models"
	"ai-podcaster/internal/pipeline"
	"ai-podcaster/pkg/tasks"
)

// PipelineRunner runs one generation request end to end.
// It's implemented by pipeline.Manager, and can be mocked for testing.
type PipelineRunner interface {
	Run(ctx context.Context, req models.GenerationRequest) pipeline.Result
}

// Notifier reports a run's outcome back to the requesting chat.
type Notifier interface {
	Notify(chatID int64, text string)
}

type TaskHandler struct {
	runner   PipelineRunner
	notifier Notifier
}

func NewTaskHandler(runner PipelineRunner, notifier Notifier) *TaskHandler {
	return &TaskHandler{runner: runner, notifier: notifier}
}

func (h *TaskHandler) HandleGeneratePodcastTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.GeneratePodcastPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Generating %s episode for user %s", p.Intent, p.UserID)

	result := h.runner.Run(ctx, models.GenerationRequest{
		UserID:   p.UserID,
		Intent:   models.Intent(p.Intent),
		Message:  p.Message,
		Language: p.Language,
	})

	if result.Status != pipeline.StatusOK {
		log.Printf("Generation failed for user %s: %s: %v", p.UserID, result.ErrKind, result.Err)
		h.notify(p.ChatID, failureMessage(result.ErrKind))
		// Terminal for the request: nothing for asynq to retry.
		return nil
	}

	log.Printf("Episode %s published for user %s", result.Episode.ID, p.UserID)
	h.notify(p.ChatID, fmt.Sprintf("Your episode \"%s\" is ready! Feed: %s", result.Episode.Title, result.FeedURL))
	return nil
}

func (h *TaskHandler) notify(chatID int64, text string) {
	if h.notifier == nil || chatID == 0 {
		return
	}
	h.notifier.Notify(chatID, text)
}

func failureMessage(kind pipeline.ErrorKind) string {
	switch kind {
	case pipeline.ErrUserBusy:
		return "An episode is already being generated for you. Please wait for it to finish."
	case pipeline.ErrGenerationRefused:
		return "That topic was rejected by the content policy. Try a different request."
	case pipeline.ErrGenerationEmpty:
		return "Nothing usable could be generated from that message. Try rephrasing it."
	default:
		return fmt.Sprintf("Episode generation failed (%s). Please try again later.", kind)
	}
}
