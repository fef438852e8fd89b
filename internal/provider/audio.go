package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tkao/creatorlens/internal/domain"
)

// AudioResolverConfig holds configuration for the resolver service.
type AudioResolverConfig struct {
	BaseURL string
	Bitrate string
}

// HTTPAudioResolver fetches normalized audio from a resolver sidecar that
// wraps the platform download tooling. The sidecar extracts the audio track
// and re-encodes it to mono MP3 at the requested bitrate.
type HTTPAudioResolver struct {
	client  *resty.Client
	bitrate string
}

// NewHTTPAudioResolver creates a resolver client.
func NewHTTPAudioResolver(cfg *AudioResolverConfig) *HTTPAudioResolver {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	// Audio extraction of long videos can take a while
	client.SetTimeout(10 * time.Minute)

	bitrate := cfg.Bitrate
	if bitrate == "" {
		bitrate = "192k"
	}

	return &HTTPAudioResolver{client: client, bitrate: bitrate}
}

// Resolve returns a stream of the video's normalized audio. A 404/410 from
// the resolver means the source content is gone or unsupported and is
// reported as a permanent failure.
func (r *HTTPAudioResolver) Resolve(ctx context.Context, videoID string) (io.ReadCloser, int64, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"video_id": videoID,
			"format":   "mp3",
			"channels": "1",
			"bitrate":  r.bitrate,
		}).
		SetDoNotParseResponse(true).
		Get("/audio")

	if err != nil {
		return nil, 0, domain.Transient("audio resolver unreachable", err)
	}

	raw := resp.RawResponse
	if raw.StatusCode != http.StatusOK {
		raw.Body.Close()
		if raw.StatusCode == http.StatusNotFound || raw.StatusCode == http.StatusGone {
			return nil, 0, domain.Permanent(fmt.Sprintf("source audio unavailable for video %s", videoID), nil)
		}
		return nil, 0, classifyStatus("audio resolver", raw.StatusCode, "", nil)
	}

	return raw.Body, raw.ContentLength, nil
}
