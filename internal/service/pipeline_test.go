package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/queue"
	"github.com/tkao/creatorlens/internal/storage"
)

type pipelineFixture struct {
	pipeline *Pipeline
	videos   *fakeVideoStore
	index    *fakeIndex
	blobs    *fakeBlobs
	resolver *fakeResolver
	stt      *fakeSTT
	embedder *fakeEmbedder
}

func newPipelineFixture(t *testing.T, videos ...*domain.Video) *pipelineFixture {
	t.Helper()

	chunker, err := NewChunker(500, 50)
	require.NoError(t, err)

	f := &pipelineFixture{
		videos:   newFakeVideoStore(videos...),
		index:    newFakeIndex(),
		blobs:    newFakeBlobs(),
		resolver: &fakeResolver{audio: []byte("fake-mp3-bytes")},
		stt: &fakeSTT{transcript: &domain.Transcript{
			Text:     strings.Repeat("spoken words here ", 70),
			Language: "en",
			Duration: 300,
			Segments: []domain.TranscriptSegment{
				{Start: 0, End: 300, Text: strings.TrimSpace(strings.Repeat("spoken words here ", 70))},
			},
		}},
		embedder: &fakeEmbedder{dim: 8},
	}

	f.pipeline = NewPipeline(PipelineDeps{
		Videos:   f.videos,
		Index:    f.index,
		Meta:     &fakeMeta{},
		Blobs:    f.blobs,
		Resolver: f.resolver,
		STT:      f.stt,
		Embedder: f.embedder,
		Chunker:  chunker,
		Locker:   queue.NewMemoryLocker(),
		Limiter:  NewProviderLimiter(1000, 1000),
		Retry:    RetryPolicy{Attempts: 1},
	})
	return f
}

func pendingVideo() *domain.Video {
	v := testVideo()
	v.Status = domain.VideoStatusPending
	return v
}

func TestProcessVideoFullRun(t *testing.T) {
	f := newPipelineFixture(t, pendingVideo())

	result, err := f.pipeline.ProcessVideo(context.Background(), "vid-1", false)
	require.NoError(t, err)

	assert.Equal(t, domain.VideoStatusIndexed, result.Status)
	assert.Greater(t, result.ChunkCount, 1)
	assert.False(t, result.NoOp)

	video, err := f.videos.GetByID(context.Background(), "vid-1")
	require.NoError(t, err)
	assert.Equal(t, domain.VideoStatusIndexed, video.Status)
	assert.Equal(t, result.ChunkCount, video.ChunkCount)
	assert.Equal(t, storage.AudioKey("vid-1"), video.AudioKey)
	assert.Equal(t, storage.TranscriptKey("vid-1"), video.TranscriptKey)
	assert.NotNil(t, video.IndexedAt)

	// Both artifacts are durable and the index holds every chunk.
	exists, _ := f.blobs.Exists(context.Background(), video.AudioKey)
	assert.True(t, exists)
	exists, _ = f.blobs.Exists(context.Background(), video.TranscriptKey)
	assert.True(t, exists)
	assert.Equal(t, result.ChunkCount, f.index.count())
}

func TestProcessVideoIndexedIsNoOp(t *testing.T) {
	indexed := pendingVideo()
	indexed.Status = domain.VideoStatusIndexed
	indexed.ChunkCount = 7
	f := newPipelineFixture(t, indexed)

	result, err := f.pipeline.ProcessVideo(context.Background(), "vid-1", false)
	require.NoError(t, err)

	assert.True(t, result.NoOp)
	assert.Equal(t, domain.VideoStatusIndexed, result.Status)
	assert.Equal(t, 7, result.ChunkCount)

	// No provider work happened.
	assert.Equal(t, 0, f.resolver.calls)
	assert.Equal(t, 0, f.stt.calls)
	assert.Equal(t, 0, f.embedder.calls)
}

func TestProcessVideoForceReprocesses(t *testing.T) {
	indexed := pendingVideo()
	indexed.Status = domain.VideoStatusIndexed
	indexed.ChunkCount = 7
	f := newPipelineFixture(t, indexed)

	result, err := f.pipeline.ProcessVideo(context.Background(), "vid-1", true)
	require.NoError(t, err)

	assert.False(t, result.NoOp)
	assert.Equal(t, domain.VideoStatusIndexed, result.Status)
	assert.Equal(t, 1, f.resolver.calls)
	assert.Equal(t, 1, f.stt.calls)

	// Stale points are cleared before reindexing.
	assert.Contains(t, f.index.deleted, "vid-1")
}

func TestProcessVideoUnknownVideo(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.ProcessVideo(context.Background(), "missing", false)
	require.Error(t, err)
	assert.True(t, domain.IsClass(err, domain.ErrClassNotFound))
}

func TestProcessVideoPermanentFailureRecordsReason(t *testing.T) {
	f := newPipelineFixture(t, pendingVideo())
	f.resolver.err = domain.Permanent("source audio unavailable for video vid-1", nil)

	_, err := f.pipeline.ProcessVideo(context.Background(), "vid-1", false)
	require.Error(t, err)
	assert.True(t, domain.IsClass(err, domain.ErrClassPermanent))

	video, getErr := f.videos.GetByID(context.Background(), "vid-1")
	require.NoError(t, getErr)
	assert.Equal(t, domain.VideoStatusFailed, video.Status)
	assert.Equal(t, "source audio unavailable for video vid-1", video.FailureReason)
}

func TestProcessVideoResumesFromTranscript(t *testing.T) {
	failed := pendingVideo()
	failed.Status = domain.VideoStatusFailed
	failed.AudioKey = storage.AudioKey("vid-1")
	failed.TranscriptKey = storage.TranscriptKey("vid-1")
	f := newPipelineFixture(t, failed)

	// Seed the durable artifacts a previous run left behind.
	transcript := `{"video_id":"vid-1","text":"` + strings.Repeat("word ", 150) + `","segments":[]}`
	require.NoError(t, f.blobs.Upload(context.Background(), failed.TranscriptKey,
		strings.NewReader(transcript), int64(len(transcript)), "application/json"))

	result, err := f.pipeline.ProcessVideo(context.Background(), "vid-1", false)
	require.NoError(t, err)

	assert.Equal(t, domain.VideoStatusIndexed, result.Status)
	// Download and transcription were skipped entirely.
	assert.Equal(t, 0, f.resolver.calls)
	assert.Equal(t, 0, f.stt.calls)
	assert.Greater(t, f.embedder.calls, 0)
}

func TestProcessVideoResumeFallsBackWhenArtifactMissing(t *testing.T) {
	failed := pendingVideo()
	failed.Status = domain.VideoStatusFailed
	failed.AudioKey = storage.AudioKey("vid-1")
	failed.TranscriptKey = storage.TranscriptKey("vid-1")
	f := newPipelineFixture(t, failed)

	// Keys are recorded but neither object survived; the run must start
	// from the beginning instead of trusting the keys.
	result, err := f.pipeline.ProcessVideo(context.Background(), "vid-1", false)
	require.NoError(t, err)

	assert.Equal(t, domain.VideoStatusIndexed, result.Status)
	assert.Equal(t, 1, f.resolver.calls)
	assert.Equal(t, 1, f.stt.calls)
}

func TestProcessVideoForceDiscardsArtifacts(t *testing.T) {
	indexed := pendingVideo()
	indexed.Status = domain.VideoStatusIndexed
	indexed.AudioKey = storage.AudioKey("vid-1")
	indexed.TranscriptKey = storage.TranscriptKey("vid-1")
	f := newPipelineFixture(t, indexed)

	require.NoError(t, f.blobs.Upload(context.Background(), indexed.AudioKey,
		strings.NewReader("stale audio"), 11, "audio/mpeg"))
	require.NoError(t, f.blobs.Upload(context.Background(), indexed.TranscriptKey,
		strings.NewReader("{}"), 2, "application/json"))

	_, err := f.pipeline.ProcessVideo(context.Background(), "vid-1", true)
	require.NoError(t, err)

	// Stale blobs were deleted before the run re-fetched everything.
	assert.Contains(t, f.blobs.deletes, storage.AudioKey("vid-1"))
	assert.Contains(t, f.blobs.deletes, storage.TranscriptKey("vid-1"))
	assert.Equal(t, 1, f.resolver.calls)
	assert.Equal(t, 1, f.stt.calls)
}

func TestProcessVideoSingleFlight(t *testing.T) {
	f := newPipelineFixture(t, pendingVideo())

	locker := queue.NewMemoryLocker()
	ok, err := locker.TryLock(context.Background(), "vid-1")
	require.NoError(t, err)
	require.True(t, ok)

	f.pipeline.locker = locker

	result, err := f.pipeline.ProcessVideo(context.Background(), "vid-1", false)
	require.NoError(t, err)
	assert.True(t, result.AlreadyProcessing)
	assert.Equal(t, 0, f.resolver.calls)
}

func TestProcessVideoIncompatibleIndex(t *testing.T) {
	f := newPipelineFixture(t, pendingVideo())
	f.pipeline.meta = &fakeMeta{err: domain.Permanent("index was built with other/model: reindex required", nil)}

	_, err := f.pipeline.ProcessVideo(context.Background(), "vid-1", false)
	require.Error(t, err)
	assert.True(t, domain.IsClass(err, domain.ErrClassPermanent))
}
