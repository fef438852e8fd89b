package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkao/creatorlens/internal/domain"
)

func analyzedVideos() []*domain.Video {
	base := time.Unix(1700000000, 0)
	return []*domain.Video{
		{ExternalID: "v1", ChannelID: "chan-1", Title: "How to Master Video Editing", DurationSeconds: 600, ViewCount: 50000, LikeCount: 2500, PublishedAt: base, Status: domain.VideoStatusIndexed},
		{ExternalID: "v2", ChannelID: "chan-1", Title: "How to Grow a Channel in 2025", DurationSeconds: 720, ViewCount: 40000, LikeCount: 1600, PublishedAt: base, Status: domain.VideoStatusIndexed},
		{ExternalID: "v3", ChannelID: "chan-1", Title: "How to Light a Home Studio", DurationSeconds: 480, ViewCount: 30000, LikeCount: 900, PublishedAt: base, Status: domain.VideoStatusIndexed},
		{ExternalID: "v4", ChannelID: "chan-1", Title: "5 Video Editing Mistakes Beginners Make", DurationSeconds: 540, ViewCount: 20000, LikeCount: 400, PublishedAt: base, Status: domain.VideoStatusIndexed},
		{ExternalID: "v5", ChannelID: "chan-1", Title: "Is Your Camera Holding You Back?", DurationSeconds: 660, ViewCount: 10000, LikeCount: 0, PublishedAt: base, Status: domain.VideoStatusIndexed},
	}
}

func TestAnalyzeChannelDeterministic(t *testing.T) {
	store := newFakeVideoStore(analyzedVideos()...)
	analyzer := NewAnalyzer(store, nil, nil)

	first, err := analyzer.AnalyzeChannel(context.Background(), "chan-1", 0)
	require.NoError(t, err)
	second, err := analyzer.AnalyzeChannel(context.Background(), "chan-1", 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyzeChannelTitlePatterns(t *testing.T) {
	store := newFakeVideoStore(analyzedVideos()...)
	analyzer := NewAnalyzer(store, nil, nil)

	profile, err := analyzer.AnalyzeChannel(context.Background(), "chan-1", 0)
	require.NoError(t, err)

	assert.Equal(t, 5, profile.VideosAnalyzed)
	assert.Equal(t, 3, profile.TitlePatterns.Patterns.HowTo)
	// v2 ("...in 2025") and v4 ("5 Video Editing...") both carry digits.
	assert.Equal(t, 2, profile.TitlePatterns.Patterns.NumberLed)
	assert.Equal(t, 1, profile.TitlePatterns.Patterns.QuestionLed)
	assert.Equal(t, 1, profile.TitlePatterns.Patterns.YearMentioned)

	// "editing" appears in two titles and is not a stop word.
	words := make(map[string]int)
	for _, kw := range profile.TitlePatterns.CommonKeywords {
		words[kw.Word] = kw.Count
	}
	assert.Equal(t, 2, words["editing"])

	// Stop words never surface as keywords.
	for _, kw := range profile.TitlePatterns.CommonKeywords {
		_, isStop := stopWords[kw.Word]
		assert.False(t, isStop, "stop word %q leaked into keywords", kw.Word)
	}

	// Samples are the top titles by view count.
	require.NotEmpty(t, profile.TitlePatterns.SampleTitles)
	assert.Equal(t, "How to Master Video Editing", profile.TitlePatterns.SampleTitles[0])
}

func TestAnalyzeChannelCountsEmbeddedDigits(t *testing.T) {
	videos := []*domain.Video{
		{ExternalID: "d1", ChannelID: "chan-4", Title: "Top 5 Tips for Better Audio", DurationSeconds: 300, ViewCount: 400, Status: domain.VideoStatusIndexed},
		{ExternalID: "d2", ChannelID: "chan-4", Title: "My Favorite 3 Lenses", DurationSeconds: 300, ViewCount: 300, Status: domain.VideoStatusIndexed},
		{ExternalID: "d3", ChannelID: "chan-4", Title: "10 Mistakes to Avoid", DurationSeconds: 300, ViewCount: 200, Status: domain.VideoStatusIndexed},
		{ExternalID: "d4", ChannelID: "chan-4", Title: "The Best Camera of 2025", DurationSeconds: 300, ViewCount: 100, Status: domain.VideoStatusIndexed},
		{ExternalID: "d5", ChannelID: "chan-4", Title: "No Digits Here", DurationSeconds: 300, ViewCount: 50, Status: domain.VideoStatusIndexed},
	}
	store := newFakeVideoStore(videos...)
	analyzer := NewAnalyzer(store, nil, nil)

	profile, err := analyzer.AnalyzeChannel(context.Background(), "chan-4", 0)
	require.NoError(t, err)

	// A digit anywhere in the title counts, not only a leading one.
	assert.Equal(t, 4, profile.TitlePatterns.Patterns.NumberLed)
}

func TestAnalyzeChannelHonorsTopN(t *testing.T) {
	store := newFakeVideoStore(analyzedVideos()...)
	analyzer := NewAnalyzer(store, nil, nil)

	profile, err := analyzer.AnalyzeChannel(context.Background(), "chan-1", 2)
	require.NoError(t, err)

	// Only the two most-viewed videos feed the profile.
	assert.Equal(t, 2, profile.VideosAnalyzed)
	assert.Equal(t, []string{
		"How to Master Video Editing",
		"How to Grow a Channel in 2025",
	}, profile.TitlePatterns.SampleTitles)
}

func TestAnalyzeChannelEngagementExcludesZeroViews(t *testing.T) {
	videos := []*domain.Video{
		{ExternalID: "a", ChannelID: "chan-2", Title: "A", DurationSeconds: 60, ViewCount: 1000, LikeCount: 100, Status: domain.VideoStatusIndexed},
		{ExternalID: "b", ChannelID: "chan-2", Title: "B", DurationSeconds: 60, ViewCount: 2000, LikeCount: 100, Status: domain.VideoStatusIndexed},
		{ExternalID: "c", ChannelID: "chan-2", Title: "C", DurationSeconds: 60, ViewCount: 0, LikeCount: 0, Status: domain.VideoStatusIndexed},
	}
	store := newFakeVideoStore(videos...)
	analyzer := NewAnalyzer(store, nil, nil)

	profile, err := analyzer.AnalyzeChannel(context.Background(), "chan-2", 0)
	require.NoError(t, err)

	// Mean of 10% and 5%; the zero-view video contributes nothing.
	assert.InDelta(t, 7.5, profile.Engagement.EngagementRate, 0.001)
	assert.Equal(t, 3, profile.Engagement.VideosAnalyzed)
}

func TestAnalyzeChannelDurations(t *testing.T) {
	store := newFakeVideoStore(analyzedVideos()...)
	analyzer := NewAnalyzer(store, nil, nil)

	profile, err := analyzer.AnalyzeChannel(context.Background(), "chan-1", 0)
	require.NoError(t, err)

	assert.Equal(t, 480, profile.Duration.MinSeconds)
	assert.Equal(t, 720, profile.Duration.MaxSeconds)
	assert.Equal(t, "8-12 minutes", profile.Duration.Range)
	assert.InDelta(t, 600, profile.Duration.AverageSeconds, 0.1)
}

func TestAnalyzeChannelNoIndexedVideos(t *testing.T) {
	store := newFakeVideoStore(&domain.Video{
		ExternalID: "p1", ChannelID: "chan-3", Title: "Pending", Status: domain.VideoStatusPending,
	})
	analyzer := NewAnalyzer(store, nil, nil)

	_, err := analyzer.AnalyzeChannel(context.Background(), "chan-3", 0)
	require.Error(t, err)
	assert.True(t, domain.IsClass(err, domain.ErrClassInsufficientContext))
}

func TestAnalyzeChannelThemesFromGenerator(t *testing.T) {
	store := newFakeVideoStore(analyzedVideos()...)
	gen := &fakeGenerator{response: `["video editing", "channel growth"]`}
	analyzer := NewAnalyzer(store, gen, nil)

	profile, err := analyzer.AnalyzeChannel(context.Background(), "chan-1", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"video editing", "channel growth"}, profile.ContentThemes)
}

func TestAnalyzeChannelToleratesThemeFailure(t *testing.T) {
	store := newFakeVideoStore(analyzedVideos()...)
	gen := &fakeGenerator{err: domain.Transient("llm down", nil)}
	analyzer := NewAnalyzer(store, gen, nil)

	profile, err := analyzer.AnalyzeChannel(context.Background(), "chan-1", 0)
	require.NoError(t, err)
	assert.Empty(t, profile.ContentThemes)
}

func TestBuildRecommendationsDeterministic(t *testing.T) {
	store := newFakeVideoStore(analyzedVideos()...)
	analyzer := NewAnalyzer(store, nil, nil)

	profile, err := analyzer.AnalyzeChannel(context.Background(), "chan-1", 0)
	require.NoError(t, err)
	require.NotEmpty(t, profile.Recommendations)

	again, err := analyzer.AnalyzeChannel(context.Background(), "chan-1", 0)
	require.NoError(t, err)
	assert.Equal(t, profile.Recommendations, again.Recommendations)

	// HowTo count is above the threshold, so the how-to rule must fire.
	assert.Contains(t, profile.Recommendations[0], "How-to")
}
