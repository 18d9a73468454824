package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"ai-podcaster/internal/models"
	"ai-podcaster/internal/pipeline"
	"ai-podcaster/pkg/tasks"
)

// PipelineService is the generation core as both adapters see it.
// It's implemented by pipeline.Manager, and can be mocked for testing.
type PipelineService interface {
	Run(ctx context.Context, req models.GenerationRequest) pipeline.Result
	GetFeed(ctx context.Context, userID string) (pipeline.FeedDocument, error)
}

type Handlers struct {
	pipeline         PipelineService
	asynqClient      tasks.TaskEnqueuer
	audioStoragePath string
}

func New(p PipelineService, asynqClient tasks.TaskEnqueuer, audioStoragePath string) *Handlers {
	return &Handlers{
		pipeline:         p,
		asynqClient:      asynqClient,
		audioStoragePath: audioStoragePath,
	}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
