package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-podcaster/internal/db"
	"ai-podcaster/internal/models"
	"ai-podcaster/internal/test"
)

var episodeColumns = []string{
	"id", "user_id", "intent", "language", "title", "summary",
	"audio_path", "audio_url", "audio_size_bytes", "duration_sec",
	"published_at", "raw_meta",
}

func sampleEpisode() *models.Episode {
	return &models.Episode{
		ID:             "ep-1",
		UserID:         "user-1",
		Intent:         "briefing",
		Language:       "en",
		Title:          "Morning brief",
		Summary:        "Three headlines",
		AudioPath:      "user-1/ep-1.mp3",
		AudioURL:       "http://example.com/audio/user-1/ep-1.mp3",
		AudioSizeBytes: 4096,
		DurationSec:    180,
		PublishedAt:    time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		Meta:           models.MetaMap{"model": "gpt-4o-mini"},
	}
}

func TestInsertEpisode(t *testing.T) {
	_, mock := test.NewMockDB(t)
	e := sampleEpisode()

	mock.ExpectExec("INSERT INTO episodes").
		WithArgs(e.ID, e.UserID, e.Intent, e.Language, e.Title, e.Summary,
			e.AudioPath, e.AudioURL, e.AudioSizeBytes, e.DurationSec,
			e.PublishedAt, []byte(`{"model":"gpt-4o-mini"}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := db.InsertEpisode(context.Background(), e)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEpisodesByUserID(t *testing.T) {
	_, mock := test.NewMockDB(t)

	older := time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(episodeColumns).
		AddRow("ep-2", "user-1", "wellness", "fr", "Calme", "Respiration", "user-1/ep-2.mp3",
			"http://example.com/audio/user-1/ep-2.mp3", int64(2048), 600, newer, []byte(`{}`)).
		AddRow("ep-1", "user-1", "briefing", "en", "Brief", "News", "user-1/ep-1.mp3",
			"http://example.com/audio/user-1/ep-1.mp3", int64(4096), 180, older, []byte(`{}`))

	mock.ExpectQuery("SELECT \\* FROM episodes").
		WithArgs("user-1").
		WillReturnRows(rows)

	episodes, err := db.GetEpisodesByUserID(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, episodes, 2)
	assert.Equal(t, "ep-2", episodes[0].ID)
	assert.Equal(t, "ep-1", episodes[1].ID)
	assert.Equal(t, 600, episodes[0].DurationSec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEpisodesByUserIDEmpty(t *testing.T) {
	_, mock := test.NewMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM episodes").
		WithArgs("user-9").
		WillReturnRows(sqlmock.NewRows(episodeColumns))

	episodes, err := db.GetEpisodesByUserID(context.Background(), "user-9")

	require.NoError(t, err)
	assert.Empty(t, episodes)
}

func TestLedgerRoundTrip(t *testing.T) {
	_, mock := test.NewMockDB(t)
	e := sampleEpisode()

	mock.ExpectExec("INSERT INTO episodes").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT \\* FROM episodes").
		WithArgs(e.UserID).
		WillReturnRows(sqlmock.NewRows(episodeColumns).
			AddRow(e.ID, e.UserID, e.Intent, e.Language, e.Title, e.Summary,
				e.AudioPath, e.AudioURL, e.AudioSizeBytes, e.DurationSec,
				e.PublishedAt, []byte(`{"model":"gpt-4o-mini"}`)))

	ledger := db.Ledger{}
	require.NoError(t, ledger.Append(context.Background(), e))

	episodes, err := ledger.ListByUser(context.Background(), e.UserID)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, e.Title, episodes[0].Title)
	assert.Equal(t, "gpt-4o-mini", episodes[0].Meta["model"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUser(t *testing.T) {
	_, mock := test.NewMockDB(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "telegram_id", "telegram_username", "rss_uuid", "created_at", "updated_at"}).
		AddRow("user-1", int64(12345), "testuser", "feed-uuid-1", now, now)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(int64(12345), "testuser").
		WillReturnRows(rows)

	user, err := db.UpsertUser(12345, "testuser")

	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "feed-uuid-1", user.RSSUUID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
