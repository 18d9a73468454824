package handlers

import (
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"ai-podcaster/internal/db"
	"ai-podcaster/internal/feed"
)

// GetRSSFeed serves a user's feed by its public RSS UUID. The document
// is re-derived from the episode ledger on every request.
func (h *Handlers) GetRSSFeed(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	uuid := vars["uuid"]

	user, err := db.GetUserByRSSUUID(uuid)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	episodes, err := db.GetEpisodesByUserID(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error getting episodes: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rss, err := feed.GenerateRSS(user, episodes, feed.BaseURL(r))
	if err != nil {
		log.Printf("Error generating RSS: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(rss))
}

func (h *Handlers) ServeAudioFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userID"]
	filename := vars["filename"]

	if strings.Contains(userID, "..") || strings.Contains(filename, "..") {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	filePath := filepath.Join(h.audioStoragePath, userID, filename)
	http.ServeFile(w, r, filePath)
}
