package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tkao/creatorlens/internal/domain"
)

// VideoRepository persists video records and their pipeline status.
type VideoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a new VideoRepository
func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Upsert inserts the video or refreshes its catalog metadata if it already
// exists. Pipeline fields (status, keys, chunk count) are never touched here,
// so a catalog sync cannot reset processing progress.
func (r *VideoRepository) Upsert(ctx context.Context, video *domain.Video) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "duration_seconds", "view_count", "like_count", "published_at", "updated_at",
		}),
	}).Create(video).Error
}

// GetByID fetches a video by its external id.
func (r *VideoRepository) GetByID(ctx context.Context, externalID string) (*domain.Video, error) {
	var video domain.Video
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFoundf("video %s not found", externalID)
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// ListByChannel returns a channel's videos ordered by view count descending.
// Ties break on external id ascending so the ordering is stable.
func (r *VideoRepository) ListByChannel(ctx context.Context, channelID string, limit int) ([]domain.Video, error) {
	var videos []domain.Video
	q := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("view_count DESC").
		Order("external_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

// ListIndexedByChannel returns the channel's fully indexed videos, ordered by
// view count descending with external id as tiebreak.
func (r *VideoRepository) ListIndexedByChannel(ctx context.Context, channelID string, limit int) ([]domain.Video, error) {
	var videos []domain.Video
	q := r.db.WithContext(ctx).
		Where("channel_id = ? AND status = ?", channelID, domain.VideoStatusIndexed).
		Order("view_count DESC").
		Order("external_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

// UpdateStatus moves the video to a new status and clears any previous
// failure reason.
func (r *VideoRepository) UpdateStatus(ctx context.Context, externalID string, status domain.VideoStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Video{}).
		Where("external_id = ?", externalID).
		Updates(map[string]interface{}{
			"status":         status,
			"failure_reason": "",
		}).Error
}

// MarkFailed records a failure with its reason.
func (r *VideoRepository) MarkFailed(ctx context.Context, externalID, reason string) error {
	return r.db.WithContext(ctx).Model(&domain.Video{}).
		Where("external_id = ?", externalID).
		Updates(map[string]interface{}{
			"status":         domain.VideoStatusFailed,
			"failure_reason": reason,
		}).Error
}

// MarkIndexed completes the pipeline for a video, recording the chunk count
// and completion time.
func (r *VideoRepository) MarkIndexed(ctx context.Context, externalID string, chunkCount int) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.Video{}).
		Where("external_id = ?", externalID).
		Updates(map[string]interface{}{
			"status":         domain.VideoStatusIndexed,
			"failure_reason": "",
			"chunk_count":    chunkCount,
			"indexed_at":     &now,
		}).Error
}

// SetArtifactKeys records where the pipeline stored the video's blobs.
func (r *VideoRepository) SetArtifactKeys(ctx context.Context, externalID, audioKey, transcriptKey string) error {
	updates := map[string]interface{}{}
	if audioKey != "" {
		updates["audio_key"] = audioKey
	}
	if transcriptKey != "" {
		updates["transcript_key"] = transcriptKey
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.Video{}).
		Where("external_id = ?", externalID).
		Updates(updates).Error
}

// UpdateMetrics refreshes view and like counts from the catalog.
func (r *VideoRepository) UpdateMetrics(ctx context.Context, externalID string, viewCount, likeCount int64) error {
	return r.db.WithContext(ctx).Model(&domain.Video{}).
		Where("external_id = ?", externalID).
		Updates(map[string]interface{}{
			"view_count": viewCount,
			"like_count": likeCount,
		}).Error
}

// ListChannels returns the distinct channel ids with tracked videos.
func (r *VideoRepository) ListChannels(ctx context.Context) ([]string, error) {
	var channels []string
	err := r.db.WithContext(ctx).Model(&domain.Video{}).
		Distinct("channel_id").
		Order("channel_id ASC").
		Pluck("channel_id", &channels).Error
	if err != nil {
		return nil, err
	}
	return channels, nil
}

// CountByStatus returns the number of videos per status for a channel.
func (r *VideoRepository) CountByStatus(ctx context.Context, channelID string) (map[domain.VideoStatus]int64, error) {
	type row struct {
		Status domain.VideoStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.Video{}).
		Select("status, count(*) as count").
		Where("channel_id = ?", channelID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.VideoStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
