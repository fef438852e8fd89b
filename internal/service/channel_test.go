package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/provider"
)

type fakeCatalog struct {
	videos []provider.CatalogVideo
	err    error
}

func (f *fakeCatalog) ListVideos(context.Context, string) ([]provider.CatalogVideo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.videos, nil
}

func catalogVideos() []provider.CatalogVideo {
	base := time.Unix(1700000000, 0)
	return []provider.CatalogVideo{
		{ExternalID: "v1", Title: "First", DurationSeconds: 300, ViewCount: 100, LikeCount: 10, PublishedAt: base},
		{ExternalID: "v2", Title: "Second", DurationSeconds: 600, ViewCount: 200, LikeCount: 20, PublishedAt: base},
	}
}

func TestSyncChannelEnqueuesUnindexed(t *testing.T) {
	store := newFakeVideoStore()
	enqueuer := &fakeEnqueuer{}
	svc := NewChannelService(store, &fakeCatalog{videos: catalogVideos()}, enqueuer, nil)

	result, err := svc.SyncChannel(context.Background(), "chan-1", true)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.Enqueued)
	require.Len(t, enqueuer.tasks, 2)
	assert.Equal(t, domain.TaskProcessVideo, enqueuer.tasks[0].Type)
}

func TestSyncChannelSkipsIndexed(t *testing.T) {
	store := newFakeVideoStore(&domain.Video{
		ExternalID: "v1", ChannelID: "chan-1", Title: "Old Title", Status: domain.VideoStatusIndexed,
	})
	enqueuer := &fakeEnqueuer{}
	svc := NewChannelService(store, &fakeCatalog{videos: catalogVideos()}, enqueuer, nil)

	result, err := svc.SyncChannel(context.Background(), "chan-1", true)
	require.NoError(t, err)

	// Only the new video is enqueued; v1 is already indexed.
	assert.Equal(t, 1, result.Enqueued)
	require.Len(t, enqueuer.tasks, 1)
	assert.Equal(t, "v2", enqueuer.tasks[0].VideoID)
}

func TestSyncChannelRefreshesMetadataWithoutTouchingStatus(t *testing.T) {
	store := newFakeVideoStore(&domain.Video{
		ExternalID: "v1", ChannelID: "chan-1", Title: "Old Title",
		ViewCount: 1, LikeCount: 1, Status: domain.VideoStatusIndexed, ChunkCount: 9,
	})
	svc := NewChannelService(store, &fakeCatalog{videos: catalogVideos()}, &fakeEnqueuer{}, nil)

	_, err := svc.SyncChannel(context.Background(), "chan-1", false)
	require.NoError(t, err)

	video, err := store.GetByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "First", video.Title)
	assert.Equal(t, int64(100), video.ViewCount)
	assert.Equal(t, domain.VideoStatusIndexed, video.Status)
	assert.Equal(t, 9, video.ChunkCount)
}

func TestSyncChannelIdempotent(t *testing.T) {
	store := newFakeVideoStore()
	svc := NewChannelService(store, &fakeCatalog{videos: catalogVideos()}, &fakeEnqueuer{}, nil)

	_, err := svc.SyncChannel(context.Background(), "chan-1", false)
	require.NoError(t, err)
	_, err = svc.SyncChannel(context.Background(), "chan-1", false)
	require.NoError(t, err)

	videos, err := store.ListByChannel(context.Background(), "chan-1", 0)
	require.NoError(t, err)
	assert.Len(t, videos, 2)
}

func TestRefreshMetricsUpdatesKnownVideos(t *testing.T) {
	store := newFakeVideoStore(&domain.Video{
		ExternalID: "v1", ChannelID: "chan-1", Title: "First", ViewCount: 1, LikeCount: 0,
		Status: domain.VideoStatusIndexed,
	})
	svc := NewChannelService(store, &fakeCatalog{videos: catalogVideos()}, &fakeEnqueuer{}, nil)

	err := svc.RefreshMetrics(context.Background(), "chan-1")
	require.NoError(t, err)

	video, err := store.GetByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), video.ViewCount)
	assert.Equal(t, int64(10), video.LikeCount)
}

func TestSyncChannelRequiresChannelID(t *testing.T) {
	svc := NewChannelService(newFakeVideoStore(), &fakeCatalog{}, &fakeEnqueuer{}, nil)

	_, err := svc.SyncChannel(context.Background(), "", true)
	require.Error(t, err)
	assert.True(t, domain.IsClass(err, domain.ErrClassValidation))
}
