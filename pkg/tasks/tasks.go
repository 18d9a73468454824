package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeGeneratePodcast = "podcast:generate"
)

// GeneratePodcastPayload carries one generation request from the bot
// adapter to the worker. ChatID is where the outcome is reported.
type GeneratePodcastPayload struct {
	UserID   string
	ChatID   int64
	Intent   string
	Message  string
	Language string
}

// NewGeneratePodcastTask builds a generation task. MaxRetry is zero:
// every pipeline failure is terminal for the request, and any retrying
// happens inside the failing stage, not by re-running the pipeline.
func NewGeneratePodcastTask(p GeneratePodcastPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGeneratePodcast, payload, asynq.MaxRetry(0)), nil
}
