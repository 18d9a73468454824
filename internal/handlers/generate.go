package handlers

import (
	"encoding/json"
	"net/http"

	"ai-podcaster/internal/middleware"
	"ai-podcaster/internal/models"
	"ai-podcaster/internal/pipeline"
)

type generateRequest struct {
	Intent  string `json:"intent"`
	Message string `json:"message"`
	Lang    string `json:"lang"`
}

type generateResponse struct {
	Status    string `json:"status"`
	RSSURL    string `json:"rss_url,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Message   string `json:"message"`
}

// PostGenerate runs the generation pipeline synchronously for the
// authenticated user and returns the feed URL on success.
func (h *Handlers) PostGenerate(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(middleware.UserContextKey).(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if body.Lang == "" {
		body.Lang = "fr"
	}

	result := h.pipeline.Run(r.Context(), models.GenerationRequest{
		UserID:   user.ID,
		Intent:   models.Intent(body.Intent),
		Message:  body.Message,
		Language: body.Lang,
	})

	if result.Status != pipeline.StatusOK {
		writeJSON(w, statusForKind(result.ErrKind), generateResponse{
			Status:    pipeline.StatusError,
			ErrorKind: string(result.ErrKind),
			Message:   result.Err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Status:  pipeline.StatusOK,
		RSSURL:  result.FeedURL,
		Message: "Episode published",
	})
}

// GetFeedDocument returns the authenticated user's feed document.
func (h *Handlers) GetFeedDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(middleware.UserContextKey).(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	doc, err := h.pipeline.GetFeed(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to render feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(doc.XML))
}

func statusForKind(kind pipeline.ErrorKind) int {
	switch kind {
	case pipeline.ErrInvalidIntent, pipeline.ErrUnsupportedLanguage, pipeline.ErrGenerationEmpty, pipeline.ErrGenerationRefused:
		return http.StatusUnprocessableEntity
	case pipeline.ErrUserBusy:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
