// Package service implements the processing pipeline and the analysis and
// generation features built on top of it.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/logger"
	"github.com/tkao/creatorlens/internal/provider"
	"github.com/tkao/creatorlens/internal/queue"
	"github.com/tkao/creatorlens/internal/repository"
	"github.com/tkao/creatorlens/internal/storage"
)

// VideoStore is the persistence surface the services need from the video
// repository.
type VideoStore interface {
	Upsert(ctx context.Context, video *domain.Video) error
	GetByID(ctx context.Context, externalID string) (*domain.Video, error)
	ListByChannel(ctx context.Context, channelID string, limit int) ([]domain.Video, error)
	ListIndexedByChannel(ctx context.Context, channelID string, limit int) ([]domain.Video, error)
	UpdateStatus(ctx context.Context, externalID string, status domain.VideoStatus) error
	MarkFailed(ctx context.Context, externalID, reason string) error
	MarkIndexed(ctx context.Context, externalID string, chunkCount int) error
	SetArtifactKeys(ctx context.Context, externalID, audioKey, transcriptKey string) error
	UpdateMetrics(ctx context.Context, externalID string, viewCount, likeCount int64) error
	ListChannels(ctx context.Context) ([]string, error)
	CountByStatus(ctx context.Context, channelID string) (map[domain.VideoStatus]int64, error)
}

// ChunkIndexer is the vector index surface the services need.
type ChunkIndexer interface {
	UpsertChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int, filters *repository.ChunkFilters) ([]domain.ScoredChunk, error)
	DeleteByVideo(ctx context.Context, videoID string) error
}

// IndexMetaStore guards embedder/index compatibility.
type IndexMetaStore interface {
	EnsureCompatible(ctx context.Context, provider, model string, dimension int) error
}

// embedBatchSize bounds the number of chunk texts per embedding request.
const embedBatchSize = 32

// ProcessResult describes the outcome of a process request.
type ProcessResult struct {
	VideoID           string             `json:"video_id"`
	Status            domain.VideoStatus `json:"status"`
	ChunkCount        int                `json:"chunk_count,omitempty"`
	NoOp              bool               `json:"no_op,omitempty"`
	AlreadyProcessing bool               `json:"already_processing,omitempty"`
}

// Pipeline runs the ingest, transcribe, and embed/index stages for one video
// at a time. All stage progress is persisted, so a crashed run resumes from
// the last durable artifact instead of starting over.
type Pipeline struct {
	videos   VideoStore
	index    ChunkIndexer
	meta     IndexMetaStore
	blobs    storage.ObjectStorage
	resolver provider.AudioResolver
	stt      provider.SpeechToText
	embedder provider.Embedder
	chunker  *Chunker
	locker   queue.Locker
	limiter  *ProviderLimiter
	retry    RetryPolicy
}

// PipelineDeps bundles the pipeline's collaborators.
type PipelineDeps struct {
	Videos   VideoStore
	Index    ChunkIndexer
	Meta     IndexMetaStore
	Blobs    storage.ObjectStorage
	Resolver provider.AudioResolver
	STT      provider.SpeechToText
	Embedder provider.Embedder
	Chunker  *Chunker
	Locker   queue.Locker
	Limiter  *ProviderLimiter
	Retry    RetryPolicy
}

// NewPipeline creates the pipeline service.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		videos:   deps.Videos,
		index:    deps.Index,
		meta:     deps.Meta,
		blobs:    deps.Blobs,
		resolver: deps.Resolver,
		stt:      deps.STT,
		embedder: deps.Embedder,
		chunker:  deps.Chunker,
		locker:   deps.Locker,
		limiter:  deps.Limiter,
		retry:    deps.Retry,
	}
}

// ProcessVideo runs the full pipeline for one video. An already indexed video
// is a no-op unless force is set; a video currently being processed by
// another worker is reported rather than processed twice. Stage failures mark
// the video failed with the classified reason and return the error.
func (p *Pipeline) ProcessVideo(ctx context.Context, videoID string, force bool) (*ProcessResult, error) {
	ctx = logger.WithField(ctx, logger.FieldVideoID, videoID)

	video, err := p.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if video.Status == domain.VideoStatusIndexed && !force {
		logger.CtxInfo(ctx, "video already indexed, skipping")
		return &ProcessResult{
			VideoID:    videoID,
			Status:     video.Status,
			ChunkCount: video.ChunkCount,
			NoOp:       true,
		}, nil
	}

	acquired, err := p.locker.TryLock(ctx, videoID)
	if err != nil {
		return nil, domain.Transient("failed to acquire video lock", err)
	}
	if !acquired {
		logger.CtxInfo(ctx, "video is already being processed")
		return &ProcessResult{
			VideoID:           videoID,
			Status:            video.Status,
			AlreadyProcessing: true,
		}, nil
	}
	defer p.locker.Unlock(context.WithoutCancel(ctx), videoID)

	start := time.Now()
	result, err := p.run(ctx, video, force)
	if err != nil {
		reason := domain.Reason(err)
		logger.CtxError(ctx, "pipeline failed: %s", reason)
		if markErr := p.videos.MarkFailed(ctx, videoID, reason); markErr != nil {
			logger.CtxError(ctx, "failed to record failure: %v", markErr)
		}
		return nil, err
	}

	logger.CtxInfo(ctx, "pipeline complete in %s, %d chunks indexed",
		time.Since(start).Round(time.Millisecond), result.ChunkCount)
	return result, nil
}

// run executes the stages the video still needs. A forced run restarts from
// scratch; a failed video resumes from its last durable artifact.
func (p *Pipeline) run(ctx context.Context, video *domain.Video, force bool) (*ProcessResult, error) {
	status := video.Status
	if force {
		status = domain.VideoStatusPending
		if err := p.index.DeleteByVideo(ctx, video.ExternalID); err != nil {
			return nil, err
		}
		p.removeArtifacts(ctx, video)
	} else if status == domain.VideoStatusFailed {
		status = p.resumeStatus(ctx, video)
	}

	if !status.AtLeast(domain.VideoStatusDownloaded) {
		if err := p.ingest(ctx, video); err != nil {
			return nil, err
		}
		status = domain.VideoStatusDownloaded
	}

	if !status.AtLeast(domain.VideoStatusTranscribed) {
		if err := p.transcribe(ctx, video); err != nil {
			return nil, err
		}
		status = domain.VideoStatusTranscribed
	}

	chunkCount, err := p.embedAndIndex(ctx, video)
	if err != nil {
		return nil, err
	}

	return &ProcessResult{
		VideoID:    video.ExternalID,
		Status:     domain.VideoStatusIndexed,
		ChunkCount: chunkCount,
	}, nil
}

// resumeStatus maps a failed video to the furthest stage whose durable
// artifact is actually in the blob store. A recorded key whose object is gone
// falls back to the earlier stage instead of failing mid-run.
func (p *Pipeline) resumeStatus(ctx context.Context, video *domain.Video) domain.VideoStatus {
	if video.TranscriptKey != "" {
		if ok, err := p.blobs.Exists(ctx, video.TranscriptKey); err == nil && ok {
			return domain.VideoStatusTranscribed
		}
	}
	if video.AudioKey != "" {
		if ok, err := p.blobs.Exists(ctx, video.AudioKey); err == nil && ok {
			return domain.VideoStatusDownloaded
		}
	}
	return domain.VideoStatusPending
}

// removeArtifacts discards a video's stored audio and transcript so a forced
// run re-fetches everything from the source.
func (p *Pipeline) removeArtifacts(ctx context.Context, video *domain.Video) {
	for _, key := range []string{video.AudioKey, video.TranscriptKey} {
		if key == "" {
			continue
		}
		if err := p.blobs.Delete(ctx, key); err != nil {
			logger.CtxWarn(ctx, "failed to delete artifact %s: %v", key, err)
		}
	}
	video.AudioKey = ""
	video.TranscriptKey = ""
}

// ingest resolves the video's audio and stores it as a blob.
func (p *Pipeline) ingest(ctx context.Context, video *domain.Video) error {
	ctx = logger.WithField(ctx, logger.FieldStage, "ingest")

	if err := p.videos.UpdateStatus(ctx, video.ExternalID, domain.VideoStatusDownloading); err != nil {
		return err
	}

	key := storage.AudioKey(video.ExternalID)
	err := p.retry.Do(ctx, "resolve audio", func(ctx context.Context) error {
		if err := p.limiter.Wait(ctx, "resolver"); err != nil {
			return err
		}
		audio, size, err := p.resolver.Resolve(ctx, video.ExternalID)
		if err != nil {
			return err
		}
		defer audio.Close()
		return p.blobs.Upload(ctx, key, audio, size, "audio/mpeg")
	})
	if err != nil {
		return err
	}

	if err := p.videos.SetArtifactKeys(ctx, video.ExternalID, key, ""); err != nil {
		return err
	}
	video.AudioKey = key
	logger.CtxInfo(ctx, "audio stored at %s", key)
	return p.videos.UpdateStatus(ctx, video.ExternalID, domain.VideoStatusDownloaded)
}

// transcribe runs speech-to-text over the stored audio and persists the
// transcript artifact.
func (p *Pipeline) transcribe(ctx context.Context, video *domain.Video) error {
	ctx = logger.WithField(ctx, logger.FieldStage, "transcribe")

	if err := p.videos.UpdateStatus(ctx, video.ExternalID, domain.VideoStatusTranscribing); err != nil {
		return err
	}

	audioKey := video.AudioKey
	if audioKey == "" {
		audioKey = storage.AudioKey(video.ExternalID)
	}

	var transcript *domain.Transcript
	err := p.retry.Do(ctx, "transcribe audio", func(ctx context.Context) error {
		if err := p.limiter.Wait(ctx, "stt"); err != nil {
			return err
		}
		audio, err := p.blobs.Download(ctx, audioKey)
		if err != nil {
			return err
		}
		defer audio.Close()
		transcript, err = p.stt.Transcribe(ctx, audio, video.ExternalID)
		return err
	})
	if err != nil {
		return err
	}

	data, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	key := storage.TranscriptKey(video.ExternalID)
	if err := p.blobs.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return err
	}

	if err := p.videos.SetArtifactKeys(ctx, video.ExternalID, "", key); err != nil {
		return err
	}
	video.TranscriptKey = key
	logger.CtxInfo(ctx, "transcript stored at %s (%d segments)", key, len(transcript.Segments))
	return p.videos.UpdateStatus(ctx, video.ExternalID, domain.VideoStatusTranscribed)
}

// embedAndIndex chunks the stored transcript, embeds the chunks, and writes
// them to the vector index. Existing points for the video are deleted first
// so a shorter transcript cannot leave stale chunks behind.
func (p *Pipeline) embedAndIndex(ctx context.Context, video *domain.Video) (int, error) {
	ctx = logger.WithField(ctx, logger.FieldStage, "index")

	if err := p.meta.EnsureCompatible(ctx, p.embedder.Provider(), p.embedder.Model(), p.embedder.Dimension()); err != nil {
		return 0, err
	}

	if err := p.videos.UpdateStatus(ctx, video.ExternalID, domain.VideoStatusEmbedding); err != nil {
		return 0, err
	}

	transcript, err := p.loadTranscript(ctx, video)
	if err != nil {
		return 0, err
	}

	chunks := p.chunker.Split(transcript, video)
	if len(chunks) == 0 {
		return 0, domain.Permanent(fmt.Sprintf("transcript for video %s is empty", video.ExternalID), nil)
	}

	if err := p.index.DeleteByVideo(ctx, video.ExternalID); err != nil {
		return 0, err
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Text
		}

		var vectors [][]float32
		err := p.retry.Do(ctx, "embed chunks", func(ctx context.Context) error {
			if err := p.limiter.Wait(ctx, "embedding"); err != nil {
				return err
			}
			var embedErr error
			vectors, embedErr = p.embedder.EmbedBatch(ctx, texts)
			return embedErr
		})
		if err != nil {
			return 0, err
		}

		if err := p.index.UpsertChunks(ctx, batch, vectors); err != nil {
			return 0, err
		}
	}

	if err := p.videos.MarkIndexed(ctx, video.ExternalID, len(chunks)); err != nil {
		return 0, err
	}
	logger.CtxInfo(ctx, "indexed %d chunks", len(chunks))
	return len(chunks), nil
}

func (p *Pipeline) loadTranscript(ctx context.Context, video *domain.Video) (*domain.Transcript, error) {
	key := video.TranscriptKey
	if key == "" {
		key = storage.TranscriptKey(video.ExternalID)
	}

	reader, err := p.blobs.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	var transcript domain.Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("failed to decode transcript %s: %w", key, err)
	}
	return &transcript, nil
}
