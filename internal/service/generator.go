package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/logger"
	"github.com/tkao/creatorlens/internal/prompts"
	"github.com/tkao/creatorlens/internal/provider"
	"github.com/tkao/creatorlens/internal/repository"
)

// groundingVideoLimit caps how many distinct source videos ground a script.
const groundingVideoLimit = 3

// ScriptStore persists generated scripts.
type ScriptStore interface {
	Create(ctx context.Context, script *domain.GeneratedScript) error
}

// ScriptRequest is a script generation request.
type ScriptRequest struct {
	ChannelID     string              `json:"channel_id"`
	Topic         string              `json:"topic"`
	Tone          string              `json:"tone"`
	TargetMinutes int                 `json:"target_minutes"`
	Format        domain.ScriptFormat `json:"format"`
}

// ScriptGenerator produces scripts grounded in the channel's indexed
// transcripts. Retrieval pulls the most similar chunks for the topic, keeps
// the best chunk per source video, and grounds the prompt in the top few
// videos so one video cannot dominate the voice sample.
type ScriptGenerator struct {
	analyzer  *Analyzer
	scripts   ScriptStore
	index     ChunkIndexer
	embedder  provider.Embedder
	generator provider.Generator
	limiter   *ProviderLimiter
	topK      int
}

// NewScriptGenerator creates the script generation service.
func NewScriptGenerator(analyzer *Analyzer, scripts ScriptStore, index ChunkIndexer, embedder provider.Embedder, generator provider.Generator, limiter *ProviderLimiter, topK int) *ScriptGenerator {
	if topK <= 0 {
		topK = 8
	}
	return &ScriptGenerator{
		analyzer:  analyzer,
		scripts:   scripts,
		index:     index,
		embedder:  embedder,
		generator: generator,
		limiter:   limiter,
		topK:      topK,
	}
}

// GenerateScript generates and persists a script for the request.
func (s *ScriptGenerator) GenerateScript(ctx context.Context, req *ScriptRequest) (*domain.GeneratedScript, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, domain.Validationf("topic is required")
	}
	if req.Format == "" {
		req.Format = domain.FormatStandard
	}
	if !req.Format.Valid() {
		return nil, domain.Validationf("unknown script format %q", req.Format)
	}
	if req.TargetMinutes <= 0 {
		req.TargetMinutes = 10
	}
	if req.Format == domain.FormatShort {
		req.TargetMinutes = 1
	}

	ctx = logger.WithField(ctx, logger.FieldChannelID, req.ChannelID)

	profile, err := s.analyzer.AnalyzeChannel(ctx, req.ChannelID, 0)
	if err != nil {
		return nil, err
	}

	excerpts, videoIDs, err := s.retrieve(ctx, req.ChannelID, req.Topic)
	if err != nil {
		return nil, err
	}

	userPrompt := prompts.ScriptUserPrompt(req.Topic, req.Tone, req.TargetMinutes, req.Format, profile, excerpts)

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, "llm"); err != nil {
			return nil, err
		}
	}
	raw, err := s.generator.Generate(ctx, prompts.ScriptSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	content, err := parseScriptContent(raw)
	if err != nil {
		return nil, err
	}

	script := &domain.GeneratedScript{
		ID:              uuid.NewString(),
		ChannelID:       req.ChannelID,
		Topic:           req.Topic,
		Tone:            req.Tone,
		TargetMinutes:   req.TargetMinutes,
		Format:          req.Format,
		ContextVideos:   len(videoIDs),
		ContextVideoIDs: videoIDs,
		Content:         content,
	}
	if err := s.scripts.Create(ctx, script); err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "generated script %s grounded in %d videos", script.ID, len(videoIDs))
	return script, nil
}

// retrieve finds the excerpts that ground the generation. Similarity search
// returns chunk-level hits; only the best chunk per video is kept, and the
// top few videos by that score become the grounding set.
func (s *ScriptGenerator) retrieve(ctx context.Context, channelID, topic string) ([]domain.ScoredChunk, domain.StringArray, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, "embedding"); err != nil {
			return nil, nil, err
		}
	}
	vector, err := s.embedder.Embed(ctx, topic)
	if err != nil {
		return nil, nil, err
	}

	hits, err := s.index.Search(ctx, vector, s.topK, &repository.ChunkFilters{ChannelID: channelID})
	if err != nil {
		return nil, nil, err
	}
	if len(hits) == 0 {
		return nil, nil, domain.InsufficientContextf("no indexed content for channel %s matches topic", channelID)
	}

	// Hits arrive ordered by similarity; the first hit per video is its best.
	seen := make(map[string]bool)
	var excerpts []domain.ScoredChunk
	var videoIDs domain.StringArray
	for _, hit := range hits {
		if seen[hit.VideoID] {
			continue
		}
		seen[hit.VideoID] = true
		excerpts = append(excerpts, hit)
		videoIDs = append(videoIDs, hit.VideoID)
		if len(excerpts) == groundingVideoLimit {
			break
		}
	}

	return excerpts, videoIDs, nil
}

// parseScriptContent decodes the generation output and rejects structurally
// incomplete scripts so a malformed response is retried upstream rather than
// persisted.
func parseScriptContent(raw string) (*domain.ScriptContent, error) {
	var content domain.ScriptContent
	if err := json.Unmarshal([]byte(provider.ExtractJSON(raw)), &content); err != nil {
		return nil, domain.Transient("script response was not valid JSON", err)
	}
	if content.Hook == "" || len(content.Body) == 0 {
		return nil, domain.Transient("script response missing hook or body", nil)
	}
	return &content, nil
}
