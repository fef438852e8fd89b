package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkao/creatorlens/internal/domain"
)

func testVideo() *domain.Video {
	return &domain.Video{
		ExternalID:      "vid-1",
		ChannelID:       "chan-1",
		Title:           "Test Video",
		DurationSeconds: 300,
		ViewCount:       1000,
		LikeCount:       50,
		PublishedAt:     time.Unix(1700000000, 0),
	}
}

func TestChunkerWindowing(t *testing.T) {
	chunker, err := NewChunker(500, 50)
	require.NoError(t, err)

	text := strings.Repeat("a", 1200)
	chunks := chunker.Split(&domain.Transcript{Text: text}, testVideo())

	require.Len(t, chunks, 3)

	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 500, chunks[0].CharEnd)
	assert.Equal(t, 450, chunks[1].CharStart)
	assert.Equal(t, 950, chunks[1].CharEnd)
	assert.Equal(t, 900, chunks[2].CharStart)
	assert.Equal(t, 1200, chunks[2].CharEnd)

	for i, c := range chunks {
		assert.Equal(t, i, c.Sequence)
		assert.Equal(t, "vid-1", c.VideoID)
		assert.Equal(t, c.CharEnd-c.CharStart, len([]rune(c.Text)))
	}
}

func TestChunkerShortTranscriptSingleChunk(t *testing.T) {
	chunker, err := NewChunker(500, 50)
	require.NoError(t, err)

	text := strings.Repeat("b", 500)
	chunks := chunker.Split(&domain.Transcript{Text: text}, testVideo())

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 500, chunks[0].CharEnd)
}

func TestChunkerEmptyTranscript(t *testing.T) {
	chunker, err := NewChunker(500, 50)
	require.NoError(t, err)

	chunks := chunker.Split(&domain.Transcript{Text: ""}, testVideo())
	assert.Empty(t, chunks)
}

func TestChunkerOverlapContent(t *testing.T) {
	chunker, err := NewChunker(100, 20)
	require.NoError(t, err)

	var b strings.Builder
	for b.Len() < 250 {
		b.WriteString("0123456789")
	}
	text := b.String()[:250]

	chunks := chunker.Split(&domain.Transcript{Text: text}, testVideo())
	require.True(t, len(chunks) >= 2)

	// Consecutive chunks share exactly the overlap region.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		cur := chunks[i]
		assert.Equal(t, prev.CharEnd-20, cur.CharStart)
		tail := prev.Text[len(prev.Text)-20:]
		head := cur.Text[:20]
		assert.Equal(t, tail, head)
	}
}

func TestChunkerDeterministic(t *testing.T) {
	chunker, err := NewChunker(500, 50)
	require.NoError(t, err)

	transcript := &domain.Transcript{Text: strings.Repeat("determinism ", 200)}
	first := chunker.Split(transcript, testVideo())
	second := chunker.Split(transcript, testVideo())

	assert.Equal(t, first, second)
}

func TestChunkerMetadataSnapshot(t *testing.T) {
	chunker, err := NewChunker(500, 50)
	require.NoError(t, err)

	video := testVideo()
	chunks := chunker.Split(&domain.Transcript{Text: strings.Repeat("x", 600)}, video)
	require.NotEmpty(t, chunks)

	for _, c := range chunks {
		assert.Equal(t, video.Title, c.Title)
		assert.Equal(t, video.ViewCount, c.ViewCount)
		assert.Equal(t, video.LikeCount, c.LikeCount)
		assert.Equal(t, video.DurationSeconds, c.DurationSeconds)
		assert.Equal(t, video.PublishedAt.Unix(), c.PublishedAtUnix)
	}
}

func TestChunkerSegmentTimestamps(t *testing.T) {
	chunker, err := NewChunker(20, 5)
	require.NoError(t, err)

	transcript := &domain.Transcript{
		Text: "hello world this is a longer transcript text",
		Segments: []domain.TranscriptSegment{
			{Start: 0, End: 2.5, Text: "hello world"},
			{Start: 2.5, End: 5.0, Text: "this is a longer"},
			{Start: 5.0, End: 8.0, Text: "transcript text"},
		},
	}

	chunks := chunker.Split(transcript, testVideo())
	require.NotEmpty(t, chunks)

	// First chunk starts inside the first segment.
	assert.Equal(t, 0.0, chunks[0].TimeStart)
	// Last chunk ends at the final segment's end.
	assert.Equal(t, 8.0, chunks[len(chunks)-1].TimeEnd)
	// Times never run backwards.
	for _, c := range chunks {
		assert.GreaterOrEqual(t, c.TimeEnd, c.TimeStart)
	}
}

func TestNewChunkerRejectsBadConfig(t *testing.T) {
	_, err := NewChunker(0, 0)
	assert.Error(t, err)

	_, err = NewChunker(100, 100)
	assert.Error(t, err)

	_, err = NewChunker(100, -1)
	assert.Error(t, err)
}

func TestChunkKeyStable(t *testing.T) {
	c := domain.Chunk{VideoID: "vid-9", Sequence: 4}
	assert.Equal(t, "vid-9:4", c.Key())
}
