package service

import (
	"context"
	"time"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/logger"
	"github.com/tkao/creatorlens/internal/provider"
)

// TaskEnqueuer pushes work onto the processing queue.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, task *domain.Task) (string, error)
}

// SyncResult summarizes one channel sync.
type SyncResult struct {
	ChannelID string `json:"channel_id"`
	Fetched   int    `json:"fetched"`
	Enqueued  int    `json:"enqueued"`
}

// ChannelService syncs channel catalogs into the video table and keeps
// engagement metrics fresh.
type ChannelService struct {
	videos  VideoStore
	catalog provider.Catalog
	tasks   TaskEnqueuer
	limiter *ProviderLimiter
}

// NewChannelService creates the channel service.
func NewChannelService(videos VideoStore, catalog provider.Catalog, tasks TaskEnqueuer, limiter *ProviderLimiter) *ChannelService {
	return &ChannelService{videos: videos, catalog: catalog, tasks: tasks, limiter: limiter}
}

// SyncChannel fetches the channel's catalog, upserts every video, and
// enqueues processing for videos that are not yet indexed. Upserting by
// external id makes repeated syncs idempotent.
func (s *ChannelService) SyncChannel(ctx context.Context, channelID string, enqueue bool) (*SyncResult, error) {
	if channelID == "" {
		return nil, domain.Validationf("channel id is required")
	}
	ctx = logger.WithField(ctx, logger.FieldChannelID, channelID)

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, "catalog"); err != nil {
			return nil, err
		}
	}
	catalogVideos, err := s.catalog.ListVideos(ctx, channelID)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{ChannelID: channelID, Fetched: len(catalogVideos)}
	for _, cv := range catalogVideos {
		video := &domain.Video{
			ExternalID:      cv.ExternalID,
			ChannelID:       channelID,
			Title:           cv.Title,
			DurationSeconds: cv.DurationSeconds,
			ViewCount:       cv.ViewCount,
			LikeCount:       cv.LikeCount,
			PublishedAt:     cv.PublishedAt,
			Status:          domain.VideoStatusPending,
		}
		if err := s.videos.Upsert(ctx, video); err != nil {
			return nil, err
		}

		if !enqueue {
			continue
		}

		current, err := s.videos.GetByID(ctx, cv.ExternalID)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.VideoStatusIndexed {
			continue
		}

		if _, err := s.tasks.Enqueue(ctx, &domain.Task{
			Type:    domain.TaskProcessVideo,
			VideoID: cv.ExternalID,
		}); err != nil {
			return nil, err
		}
		result.Enqueued++
	}

	logger.CtxInfo(ctx, "synced channel: %d videos fetched, %d enqueued", result.Fetched, result.Enqueued)
	return result, nil
}

// RefreshMetrics re-reads view and like counts from the catalog for every
// tracked video of the channel. Status and artifacts are untouched; chunk
// metadata snapshots are refreshed on the next reindex, not here.
func (s *ChannelService) RefreshMetrics(ctx context.Context, channelID string) error {
	ctx = logger.WithField(ctx, logger.FieldChannelID, channelID)

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, "catalog"); err != nil {
			return err
		}
	}
	catalogVideos, err := s.catalog.ListVideos(ctx, channelID)
	if err != nil {
		return err
	}

	updated := 0
	for _, cv := range catalogVideos {
		if _, err := s.videos.GetByID(ctx, cv.ExternalID); err != nil {
			if domain.IsClass(err, domain.ErrClassNotFound) {
				continue
			}
			return err
		}
		if err := s.videos.UpdateMetrics(ctx, cv.ExternalID, cv.ViewCount, cv.LikeCount); err != nil {
			return err
		}
		updated++
	}

	logger.CtxInfo(ctx, "refreshed metrics for %d videos", updated)
	return nil
}

// ChannelStatus reports pipeline progress for a channel.
type ChannelStatus struct {
	ChannelID string                         `json:"channel_id"`
	Total     int64                          `json:"total"`
	ByStatus  map[domain.VideoStatus]int64   `json:"by_status"`
	Videos    []domain.Video                 `json:"videos,omitempty"`
	FetchedAt time.Time                      `json:"fetched_at"`
}

// Status returns per-status counts and optionally the video list.
func (s *ChannelService) Status(ctx context.Context, channelID string, includeVideos bool) (*ChannelStatus, error) {
	counts, err := s.videos.CountByStatus(ctx, channelID)
	if err != nil {
		return nil, err
	}

	status := &ChannelStatus{
		ChannelID: channelID,
		ByStatus:  counts,
		FetchedAt: time.Now().UTC(),
	}
	for _, c := range counts {
		status.Total += c
	}

	if includeVideos {
		videos, err := s.videos.ListByChannel(ctx, channelID, 0)
		if err != nil {
			return nil, err
		}
		status.Videos = videos
	}

	return status, nil
}
