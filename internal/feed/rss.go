package feed

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/eduncan911/podcast"

	"ai-podcaster/internal/models"
)

// feedLanguage mirrors the most recent episode's language, matching the
// default request language for feeds with no episodes yet.
func feedLanguage(episodes []models.Episode) string {
	for _, e := range episodes {
		if e.Language != "" {
			return e.Language
		}
	}
	return "fr"
}

// BaseURL resolves the public base URL for feed and enclosure links,
// preferring the BASE_URL env over what the request advertises.
func BaseURL(r *http.Request) string {
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		return baseURL
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "https"
		if r.Header.Get("X-Forwarded-Proto") != "" {
			scheme = r.Header.Get("X-Forwarded-Proto")
		}
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GenerateRSS renders the user's feed document from their episode list.
// The feed is purely derived: it is rebuilt from the ledger on every
// call and an empty episode list yields a valid empty feed.
func GenerateRSS(user *models.User, episodes []models.Episode, baseURL string) (string, error) {
	now := time.Now()
	p := podcast.New(
		fmt.Sprintf("%s's Podcast", user.TelegramUsername),
		fmt.Sprintf("%s/rss/%s", baseURL, user.RSSUUID),
		"Personal podcast episodes generated on request.",
		&now, &now,
	)
	p.Language = feedLanguage(episodes)
	p.AddCategory("Education", nil)

	for i := range episodes {
		episode := &episodes[i]
		description := episode.Summary
		if description == "" {
			description = episode.Title
		}
		pubDate := episode.PublishedAt
		item := podcast.Item{
			Title:       episode.Title,
			Description: description,
			PubDate:     &pubDate,
		}
		item.AddEnclosure(episode.AudioURL, podcast.MP3, episode.AudioSizeBytes)
		item.AddDuration(int64(episode.DurationSec))
		if _, err := p.AddItem(item); err != nil {
			return "", err
		}
	}

	return p.String(), nil
}
