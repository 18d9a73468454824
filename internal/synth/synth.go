package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"ai-podcaster/internal/models"
	"ai-podcaster/internal/pipeline"
)

const (
	defaultAPIURL  = "https://api.openai.com/v1/audio/speech"
	defaultModel   = "gpt-4o-mini-tts"
	defaultTimeout = 120 * time.Second

	// One retry with a fixed backoff, only on timeouts. Quota and voice
	// errors are never retried.
	retryBackoff = 2 * time.Second
)

// SupportedVoices are the voice profiles the TTS endpoint accepts.
var SupportedVoices = map[string]bool{
	"alloy":   true,
	"ash":     true,
	"coral":   true,
	"echo":    true,
	"fable":   true,
	"nova":    true,
	"onyx":    true,
	"sage":    true,
	"shimmer": true,
}

// Client synthesizes scripts through the OpenAI speech API, one call
// per segment, concatenated in script order.
type Client struct {
	apiKey     string
	apiURL     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

func New(apiKey, apiURL string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		model:      defaultModel,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize renders every segment and concatenates the MP3 streams,
// with a segment's pause rendered as silent frames after its speech.
// Speaker tags are mapped to voices in first-appearance order, so the
// same speaker keeps the same voice across the whole script. Duration
// is computed from the synthesized frames, not estimated from text.
func (c *Client) Synthesize(ctx context.Context, script *models.Script, language string, voices []string) (*models.AudioArtifact, error) {
	if script == nil || len(script.Segments) == 0 {
		return nil, fmt.Errorf("script has no segments")
	}
	if len(voices) == 0 {
		return nil, pipeline.Failf(pipeline.ErrUnsupportedVoice, "no voice profile configured")
	}
	for _, v := range voices {
		if !SupportedVoices[v] {
			return nil, pipeline.Failf(pipeline.ErrUnsupportedVoice, "unsupported voice %q", v)
		}
	}

	assigned := make(map[string]string)
	var buf bytes.Buffer
	for i, seg := range script.Segments {
		voice, ok := assigned[seg.Speaker]
		if !ok {
			voice = voices[len(assigned)%len(voices)]
			assigned[seg.Speaker] = voice
		}

		audio, err := c.speak(ctx, seg.Text, voice)
		if err != nil && pipeline.KindOf(err) == pipeline.ErrSynthesisTimeout {
			log.Printf("synth: segment %d timed out, retrying once", i)
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return nil, pipeline.Wrap(pipeline.ErrSynthesisTimeout, ctx.Err())
			}
			audio, err = c.speak(ctx, seg.Text, voice)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(audio)
		buf.Write(silentFrames(seg.PauseAfterSec))
	}

	audioBytes := buf.Bytes()
	durationSec := 0
	if d, err := mp3Duration(audioBytes); err == nil {
		durationSec = int(d.Seconds())
	} else {
		// Byte-rate estimate as a last resort for non-MPEG payloads.
		log.Printf("synth: frame walk failed (%v), estimating duration from size", err)
		durationSec = len(audioBytes) / 16000
	}
	if durationSec < 1 {
		durationSec = 1
	}

	return &models.AudioArtifact{
		Bytes:       audioBytes,
		DurationSec: durationSec,
		ContentType: "audio/mpeg",
	}, nil
}

// speak runs a single bounded TTS call for one segment.
func (c *Client) speak(ctx context.Context, text, voice string) ([]byte, error) {
	body, err := json.Marshal(speechRequest{
		Model:          c.model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal speech request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create speech request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, pipeline.Wrap(pipeline.ErrSynthesisTimeout, err)
		}
		return nil, fmt.Errorf("speech call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, pipeline.Failf(pipeline.ErrSynthesisQuotaExceeded, "speech quota exceeded: %s", respBody)
		case resp.StatusCode == http.StatusBadRequest && bytes.Contains(respBody, []byte("voice")):
			return nil, pipeline.Failf(pipeline.ErrUnsupportedVoice, "voice rejected: %s", respBody)
		default:
			return nil, fmt.Errorf("speech call returned status %d: %s", resp.StatusCode, respBody)
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech response: %w", err)
	}
	return audio, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
