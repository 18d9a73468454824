package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-podcaster/internal/models"
	"ai-podcaster/internal/pipeline"
)

// chatServer fakes the chat completions endpoint, returning content as
// the single choice's message.
func chatServer(t *testing.T, calls *int32, content string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"finish_reason": "stop", "message": map[string]string{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func scriptJSON(t *testing.T, segments []models.Segment) string {
	payload := map[string]interface{}{
		"title":    "Test episode",
		"summary":  "A test summary",
		"segments": segments,
	}
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(b)
}

func TestGenerateBriefing(t *testing.T) {
	var calls int32
	srv := chatServer(t, &calls, scriptJSON(t, []models.Segment{
		{Speaker: "host", Text: "Today we talk about Go."},
		{Speaker: "narrator", Text: "It compiles fast."},
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, time.Second)
	script, err := c.Generate(context.Background(), models.IntentBriefing, "tell me about Go", "en")

	require.NoError(t, err)
	assert.Equal(t, "Test episode", script.Title)
	assert.Equal(t, "A test summary", script.Summary)
	require.Len(t, script.Segments, 2)
	// Single-speaker intents always collapse to one speaker tag.
	assert.Equal(t, []string{"host"}, script.Speakers())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateDialogueKeepsSpeakers(t *testing.T) {
	var calls int32
	srv := chatServer(t, &calls, scriptJSON(t, []models.Segment{
		{Speaker: "speaker_1", Text: "What is a goroutine?"},
		{Speaker: "speaker_2", Text: "A lightweight thread."},
		{Speaker: "speaker_1", Text: "Neat."},
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, time.Second)
	script, err := c.Generate(context.Background(), models.IntentDialogue, "goroutines", "en")

	require.NoError(t, err)
	assert.Equal(t, []string{"speaker_1", "speaker_2"}, script.Speakers())
}

func TestGenerateDialogueSingleSpeakerFails(t *testing.T) {
	var calls int32
	srv := chatServer(t, &calls, scriptJSON(t, []models.Segment{
		{Speaker: "speaker_1", Text: "Talking to myself."},
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, time.Second)
	_, err := c.Generate(context.Background(), models.IntentDialogue, "monologue", "en")

	require.Error(t, err)
	assert.Equal(t, pipeline.ErrGenerationEmpty, pipeline.KindOf(err))
}

func TestGenerateEmptyMessage(t *testing.T) {
	var calls int32
	srv := chatServer(t, &calls, "unused")
	defer srv.Close()

	c := New("test-key", srv.URL, time.Second)
	_, err := c.Generate(context.Background(), models.IntentBriefing, "   ", "en")

	require.Error(t, err)
	assert.Equal(t, pipeline.ErrGenerationEmpty, pipeline.KindOf(err))
	assert.Zero(t, atomic.LoadInt32(&calls), "empty message must be rejected before any upstream call")
}

func TestGenerateUnsupportedLanguage(t *testing.T) {
	var calls int32
	srv := chatServer(t, &calls, "unused")
	defer srv.Close()

	c := New("test-key", srv.URL, time.Second)
	_, err := c.Generate(context.Background(), models.IntentBriefing, "hello", "de")

	require.Error(t, err)
	assert.Equal(t, pipeline.ErrUnsupportedLanguage, pipeline.KindOf(err))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestGenerateRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"finish_reason": "stop", "message": map[string]string{"content": "", "refusal": "cannot help with that"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, time.Second)
	_, err := c.Generate(context.Background(), models.IntentBriefing, "something disallowed", "en")

	require.Error(t, err)
	assert.Equal(t, pipeline.ErrGenerationRefused, pipeline.KindOf(err))
}

func TestGenerateEmptyModelOutput(t *testing.T) {
	var calls int32
	srv := chatServer(t, &calls, scriptJSON(t, []models.Segment{{Speaker: "host", Text: "   "}}))
	defer srv.Close()

	c := New("test-key", srv.URL, time.Second)
	_, err := c.Generate(context.Background(), models.IntentBriefing, "hello", "en")

	require.Error(t, err)
	assert.Equal(t, pipeline.ErrGenerationEmpty, pipeline.KindOf(err))
}

func TestGenerateTimeoutRetriesOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, 20*time.Millisecond)
	_, err := c.Generate(context.Background(), models.IntentBriefing, "hello", "en")

	require.Error(t, err)
	assert.Equal(t, pipeline.ErrGenerationTimeout, pipeline.KindOf(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "timeouts are retried exactly once")
}

func TestGenerateFencedJSON(t *testing.T) {
	var calls int32
	fenced := "```json\n" + scriptJSON(t, []models.Segment{{Speaker: "host", Text: "Hello."}}) + "\n```"
	srv := chatServer(t, &calls, fenced)
	defer srv.Close()

	c := New("test-key", srv.URL, time.Second)
	script, err := c.Generate(context.Background(), models.IntentWellness, "calm morning", "fr")

	require.NoError(t, err)
	require.Len(t, script.Segments, 1)
	assert.Equal(t, "Hello.", script.Segments[0].Text)
}
