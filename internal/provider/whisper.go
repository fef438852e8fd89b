package provider

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tkao/creatorlens/internal/domain"
)

// WhisperConfig holds configuration for the speech-to-text client.
type WhisperConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// WhisperSTT implements SpeechToText against an OpenAI-compatible audio
// transcription endpoint with verbose (segment-level) output.
type WhisperSTT struct {
	client   *resty.Client
	model    string
	endpoint string
}

// NewWhisperSTT creates a speech-to-text client.
func NewWhisperSTT(cfg *WhisperConfig) *WhisperSTT {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetTimeout(15 * time.Minute)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}

	return &WhisperSTT{
		client:   client,
		model:    model,
		endpoint: baseURL + "/audio/transcriptions",
	}
}

type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
	Segments []whisperSegment `json:"segments"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Transcribe sends the audio to the transcription API and returns ordered
// segments plus the concatenated full text. Empty transcription output is a
// permanent content failure.
func (s *WhisperSTT) Transcribe(ctx context.Context, audio io.Reader, videoID string) (*domain.Transcript, error) {
	var resp whisperResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetFileReader("file", videoID+".mp3", audio).
		SetFormData(map[string]string{
			"model":                     s.model,
			"response_format":           "verbose_json",
			"timestamp_granularities[]": "segment",
		}).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return nil, domain.Transient("transcription API unreachable", err)
	}

	if httpResp.StatusCode() != 200 {
		msg := ""
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		return nil, classifyStatus("transcription API", httpResp.StatusCode(), msg, nil)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return nil, domain.Permanent(fmt.Sprintf("audio for video %s produced no speech", videoID), nil)
	}

	transcript := &domain.Transcript{
		VideoID:  videoID,
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
		Segments: make([]domain.TranscriptSegment, 0, len(resp.Segments)),
	}
	for _, seg := range resp.Segments {
		transcript.Segments = append(transcript.Segments, domain.TranscriptSegment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	return transcript, nil
}
