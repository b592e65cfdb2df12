// Package speech synthesizes narration audio via the ElevenLabs REST API.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Synthesis parameters carried over from the tutorial voice profile.
const (
	modelID      = "eleven_turbo_v2_5"
	outputFormat = "mp3_22050_32"

	defaultBaseURL = "https://api.elevenlabs.io"
	requestTimeout = 90 * time.Second
)

// Prober reports the duration in seconds of an audio file.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// ElevenLabs converts narration text to mp3 clips on disk and implements
// tutorial.Synthesizer.
type ElevenLabs struct {
	apiKey     string
	voiceID    string
	dir        string
	baseURL    string
	httpClient *http.Client
	prober     Prober
	log        *slog.Logger
	seq        int
}

// NewElevenLabs returns a synthesizer writing clips into dir.
func NewElevenLabs(apiKey, voiceID, dir string, prober Prober, log *slog.Logger) *ElevenLabs {
	return &ElevenLabs{
		apiKey:     apiKey,
		voiceID:    voiceID,
		dir:        dir,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		prober:     prober,
		log:        log,
	}
}

// Synthesize implements tutorial.Synthesizer: it renders text to an mp3 file
// and probes its duration.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (string, float64, error) {
	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.1,
			SimilarityBoost: 1.0,
			Style:           0.5,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return "", 0, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", e.baseURL, e.voiceID, outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", 0, fmt.Errorf("elevenlabs: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	path := filepath.Join(e.dir, fmt.Sprintf("narration_%03d.mp3", e.seq))
	e.seq++

	f, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", 0, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", 0, err
	}

	dur, err := e.prober.Duration(ctx, path)
	if err != nil {
		return "", 0, fmt.Errorf("probing %s: %w", path, err)
	}

	e.log.Debug("narration clip written",
		slog.String("path", path),
		slog.Float64("duration", dur))
	return path, dur, nil
}
