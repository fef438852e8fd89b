package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/repository"
)

// fakeVideoStore is an in-memory VideoStore for service tests.
type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[string]*domain.Video
}

func newFakeVideoStore(videos ...*domain.Video) *fakeVideoStore {
	s := &fakeVideoStore{videos: make(map[string]*domain.Video)}
	for _, v := range videos {
		copied := *v
		s.videos[v.ExternalID] = &copied
	}
	return s
}

func (s *fakeVideoStore) Upsert(_ context.Context, video *domain.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.videos[video.ExternalID]; ok {
		existing.Title = video.Title
		existing.DurationSeconds = video.DurationSeconds
		existing.ViewCount = video.ViewCount
		existing.LikeCount = video.LikeCount
		existing.PublishedAt = video.PublishedAt
		return nil
	}
	copied := *video
	s.videos[video.ExternalID] = &copied
	return nil
}

func (s *fakeVideoStore) GetByID(_ context.Context, externalID string) (*domain.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[externalID]
	if !ok {
		return nil, domain.NotFoundf("video %s not found", externalID)
	}
	copied := *v
	return &copied, nil
}

func (s *fakeVideoStore) list(channelID string, limit int, onlyIndexed bool) []domain.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Video
	for _, v := range s.videos {
		if v.ChannelID != channelID {
			continue
		}
		if onlyIndexed && v.Status != domain.VideoStatusIndexed {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ViewCount != out[j].ViewCount {
			return out[i].ViewCount > out[j].ViewCount
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *fakeVideoStore) ListByChannel(_ context.Context, channelID string, limit int) ([]domain.Video, error) {
	return s.list(channelID, limit, false), nil
}

func (s *fakeVideoStore) ListIndexedByChannel(_ context.Context, channelID string, limit int) ([]domain.Video, error) {
	return s.list(channelID, limit, true), nil
}

func (s *fakeVideoStore) UpdateStatus(_ context.Context, externalID string, status domain.VideoStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.videos[externalID]; ok {
		v.Status = status
		v.FailureReason = ""
	}
	return nil
}

func (s *fakeVideoStore) MarkFailed(_ context.Context, externalID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.videos[externalID]; ok {
		v.Status = domain.VideoStatusFailed
		v.FailureReason = reason
	}
	return nil
}

func (s *fakeVideoStore) MarkIndexed(_ context.Context, externalID string, chunkCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.videos[externalID]; ok {
		now := time.Now().UTC()
		v.Status = domain.VideoStatusIndexed
		v.FailureReason = ""
		v.ChunkCount = chunkCount
		v.IndexedAt = &now
	}
	return nil
}

func (s *fakeVideoStore) SetArtifactKeys(_ context.Context, externalID, audioKey, transcriptKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.videos[externalID]; ok {
		if audioKey != "" {
			v.AudioKey = audioKey
		}
		if transcriptKey != "" {
			v.TranscriptKey = transcriptKey
		}
	}
	return nil
}

func (s *fakeVideoStore) UpdateMetrics(_ context.Context, externalID string, viewCount, likeCount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.videos[externalID]; ok {
		v.ViewCount = viewCount
		v.LikeCount = likeCount
	}
	return nil
}

func (s *fakeVideoStore) ListChannels(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var channels []string
	for _, v := range s.videos {
		if !seen[v.ChannelID] {
			seen[v.ChannelID] = true
			channels = append(channels, v.ChannelID)
		}
	}
	sort.Strings(channels)
	return channels, nil
}

func (s *fakeVideoStore) CountByStatus(_ context.Context, channelID string) (map[domain.VideoStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[domain.VideoStatus]int64)
	for _, v := range s.videos {
		if v.ChannelID == channelID {
			counts[v.Status]++
		}
	}
	return counts, nil
}

// fakeIndex is an in-memory ChunkIndexer. Search returns preset results.
type fakeIndex struct {
	mu            sync.Mutex
	points        map[string]domain.Chunk
	searchResults []domain.ScoredChunk
	deleted       []string
}

func newFakeIndex(results ...domain.ScoredChunk) *fakeIndex {
	return &fakeIndex{
		points:        make(map[string]domain.Chunk),
		searchResults: results,
	}
}

func (f *fakeIndex) UpsertChunks(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range chunks {
		f.points[chunks[i].Key()] = chunks[i]
	}
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, topK int, filters *repository.ChunkFilters) ([]domain.ScoredChunk, error) {
	var out []domain.ScoredChunk
	for _, r := range f.searchResults {
		if filters != nil && filters.ChannelID != "" && r.ChannelID != filters.ChannelID {
			continue
		}
		out = append(out, r)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (f *fakeIndex) DeleteByVideo(_ context.Context, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, videoID)
	for key, chunk := range f.points {
		if chunk.VideoID == videoID {
			delete(f.points, key)
		}
	}
	return nil
}

func (f *fakeIndex) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.points)
}

// fakeMeta accepts every embedder configuration.
type fakeMeta struct {
	err error
}

func (f *fakeMeta) EnsureCompatible(context.Context, string, string, int) error {
	return f.err
}

// fakeEmbedder produces deterministic vectors.
type fakeEmbedder struct {
	dim   int
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, f.dim)
		for j := range vec {
			vec[j] = float32(len(text)%7) / 7
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) Provider() string { return "fake" }
func (f *fakeEmbedder) Model() string    { return "fake-embed-1" }
func (f *fakeEmbedder) Dimension() int   { return f.dim }

// fakeGenerator returns a canned response and records the prompts it saw.
type fakeGenerator struct {
	response      string
	err           error
	systemPrompts []string
	userPrompts   []string
}

func (f *fakeGenerator) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.systemPrompts = append(f.systemPrompts, systemPrompt)
	f.userPrompts = append(f.userPrompts, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGenerator) Model() string { return "fake-llm-1" }

// fakeBlobs is an in-memory object store that records deletions.
type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	deletes []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (f *fakeBlobs) Upload(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeBlobs) Download(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, domain.NotFoundf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobs) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

// fakeResolver serves preset audio bytes.
type fakeResolver struct {
	audio []byte
	err   error
	calls int
}

func (f *fakeResolver) Resolve(context.Context, string) (io.ReadCloser, int64, error) {
	f.calls++
	if f.err != nil {
		return nil, 0, f.err
	}
	return io.NopCloser(bytes.NewReader(f.audio)), int64(len(f.audio)), nil
}

// fakeSTT returns a preset transcript.
type fakeSTT struct {
	transcript *domain.Transcript
	err        error
	calls      int
}

func (f *fakeSTT) Transcribe(_ context.Context, _ io.Reader, videoID string) (*domain.Transcript, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	t := *f.transcript
	t.VideoID = videoID
	return &t, nil
}

// fakeScriptStore records created scripts.
type fakeScriptStore struct {
	created []*domain.GeneratedScript
}

func (f *fakeScriptStore) Create(_ context.Context, script *domain.GeneratedScript) error {
	f.created = append(f.created, script)
	return nil
}

// fakeEnqueuer records enqueued tasks.
type fakeEnqueuer struct {
	tasks []*domain.Task
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, task *domain.Task) (string, error) {
	if task.ID == "" {
		task.ID = fmt.Sprintf("task-%d", len(f.tasks)+1)
	}
	f.tasks = append(f.tasks, task)
	return task.ID, nil
}
