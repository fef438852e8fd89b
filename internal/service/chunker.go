package service

import (
	"strings"

	"github.com/tkao/creatorlens/internal/domain"
)

// Chunker splits transcripts into fixed-size overlapping windows. Chunking is
// a pure function of the transcript text and the window parameters, so the
// same transcript always yields the same chunks.
type Chunker struct {
	window  int
	overlap int
}

// NewChunker creates a chunker. The overlap must be smaller than the window
// or the stride would not advance.
func NewChunker(window, overlap int) (*Chunker, error) {
	if window <= 0 {
		return nil, domain.Validationf("chunk window must be positive, got %d", window)
	}
	if overlap < 0 || overlap >= window {
		return nil, domain.Validationf("chunk overlap must be in [0, window), got %d", overlap)
	}
	return &Chunker{window: window, overlap: overlap}, nil
}

// Split produces the chunk sequence for a transcript. Each chunk carries a
// snapshot of the video's metadata and interpolated segment timestamps. A
// transcript no longer than one window yields a single chunk; otherwise
// windows advance by (window - overlap) and the final window is truncated at
// the text boundary.
func (c *Chunker) Split(transcript *domain.Transcript, video *domain.Video) []domain.Chunk {
	text := transcript.Text
	runes := []rune(text)
	length := len(runes)
	if length == 0 {
		return nil
	}

	offsets := computeSegmentOffsets(transcript)
	stride := c.window - c.overlap

	var chunks []domain.Chunk
	for start := 0; start < length; start += stride {
		end := start + c.window
		if end > length {
			end = length
		}

		chunk := domain.Chunk{
			VideoID:         video.ExternalID,
			ChannelID:       video.ChannelID,
			Sequence:        len(chunks),
			CharStart:       start,
			CharEnd:         end,
			Text:            string(runes[start:end]),
			Title:           video.Title,
			ViewCount:       video.ViewCount,
			LikeCount:       video.LikeCount,
			DurationSeconds: video.DurationSeconds,
			PublishedAtUnix: video.PublishedAt.Unix(),
		}
		chunk.TimeStart, chunk.TimeEnd = offsets.timeSpan(start, end)
		chunks = append(chunks, chunk)

		if end == length {
			break
		}
	}

	return chunks
}

// segmentOffset maps one transcript segment to its character span in the
// concatenated text.
type segmentOffset struct {
	charStart int
	charEnd   int
	timeStart float64
	timeEnd   float64
}

type segmentOffsets []segmentOffset

// computeSegmentOffsets locates each segment's text within the full
// transcript so chunk character spans can be mapped back to playback times.
// Segment text is searched in order from the previous match, which tolerates
// the whitespace differences between joined segments and the provider's full
// text field.
func computeSegmentOffsets(transcript *domain.Transcript) segmentOffsets {
	runes := []rune(transcript.Text)
	offsets := make(segmentOffsets, 0, len(transcript.Segments))

	cursor := 0
	for _, seg := range transcript.Segments {
		segText := []rune(strings.TrimSpace(seg.Text))
		if len(segText) == 0 {
			continue
		}

		idx := indexRunes(runes, segText, cursor)
		if idx < 0 {
			// Segment text not found verbatim; approximate by continuing
			// from the cursor.
			idx = cursor
		}

		offsets = append(offsets, segmentOffset{
			charStart: idx,
			charEnd:   idx + len(segText),
			timeStart: seg.Start,
			timeEnd:   seg.End,
		})
		cursor = idx + len(segText)
	}

	return offsets
}

// indexRunes finds needle in haystack at or after from.
func indexRunes(haystack, needle []rune, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// timeSpan returns the playback span covering the character range [start, end).
func (o segmentOffsets) timeSpan(start, end int) (float64, float64) {
	if len(o) == 0 {
		return 0, 0
	}

	timeStart := o[0].timeStart
	timeEnd := o[len(o)-1].timeEnd

	for _, seg := range o {
		if seg.charEnd > start {
			timeStart = seg.timeStart
			break
		}
	}
	for i := len(o) - 1; i >= 0; i-- {
		if o[i].charStart < end {
			timeEnd = o[i].timeEnd
			break
		}
	}

	if timeEnd < timeStart {
		timeEnd = timeStart
	}
	return timeStart, timeEnd
}
