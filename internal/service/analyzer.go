package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/logger"
	"github.com/tkao/creatorlens/internal/prompts"
	"github.com/tkao/creatorlens/internal/provider"
)

// defaultAnalysisVideoLimit is how many top videos feed the pattern profile
// when the caller does not ask for a specific count.
const defaultAnalysisVideoLimit = 10

// topKeywordCount caps the keyword frequency table.
const topKeywordCount = 5

// sampleTitleCount caps the example titles carried in the profile.
const sampleTitleCount = 5

// stopWords are excluded from keyword extraction.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "from": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "be": {}, "been": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "i": {}, "you": {}, "he": {}, "she": {}, "it": {},
	"we": {}, "they": {}, "my": {}, "your": {}, "how": {}, "what": {},
	"why": {}, "when": {}, "vs": {},
}

var (
	wordPattern = regexp.MustCompile(`[a-z0-9]+`)
	// A digit anywhere marks a title as number-led, so "Top 5 Tips" counts
	// the same as "5 Tips".
	numberLedPattern = regexp.MustCompile(`\d`)
	yearPattern      = regexp.MustCompile(`\b20\d{2}\b`)
)

// Analyzer computes a channel's pattern profile from its top-performing
// indexed videos. Everything except the content themes step is a
// deterministic function of the video set.
type Analyzer struct {
	videos    VideoStore
	generator provider.Generator
	limiter   *ProviderLimiter
}

// NewAnalyzer creates the analyzer service. The generator may be nil, in
// which case content themes are omitted.
func NewAnalyzer(videos VideoStore, generator provider.Generator, limiter *ProviderLimiter) *Analyzer {
	return &Analyzer{videos: videos, generator: generator, limiter: limiter}
}

// AnalyzeChannel builds the pattern profile for a channel from its topN
// indexed videos by view count. A non-positive topN uses the default.
func (a *Analyzer) AnalyzeChannel(ctx context.Context, channelID string, topN int) (*domain.ChannelPatternProfile, error) {
	ctx = logger.WithField(ctx, logger.FieldChannelID, channelID)
	if topN <= 0 {
		topN = defaultAnalysisVideoLimit
	}

	videos, err := a.videos.ListIndexedByChannel(ctx, channelID, topN)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, domain.InsufficientContextf("channel %s has no indexed videos to analyze", channelID)
	}

	profile := &domain.ChannelPatternProfile{
		ChannelID:      channelID,
		VideosAnalyzed: len(videos),
		TitlePatterns:  analyzeTitles(videos),
		Duration:       analyzeDurations(videos),
		Engagement:     analyzeEngagement(videos),
	}
	profile.Recommendations = buildRecommendations(profile)

	// Themes come from the LLM and are the only non-deterministic part of
	// the profile. An unreachable generator degrades the profile instead of
	// failing the request.
	if a.generator != nil {
		themes, err := a.extractThemes(ctx, videos)
		if err != nil {
			logger.CtxWarn(ctx, "theme extraction failed, continuing without themes: %v", err)
		} else {
			profile.ContentThemes = themes
		}
	}

	return profile, nil
}

func analyzeTitles(videos []domain.Video) domain.TitlePatterns {
	counts := make(map[string]int)
	totalLength := 0
	var patterns domain.PatternCounts

	for _, v := range videos {
		title := v.Title
		totalLength += len([]rune(title))
		lower := strings.ToLower(title)

		for _, word := range wordPattern.FindAllString(lower, -1) {
			if _, skip := stopWords[word]; skip {
				continue
			}
			if len(word) < 3 {
				continue
			}
			counts[word]++
		}

		if strings.Contains(lower, "how to") {
			patterns.HowTo++
		}
		if numberLedPattern.MatchString(title) {
			patterns.NumberLed++
		}
		if strings.Contains(title, "?") {
			patterns.QuestionLed++
		}
		if yearPattern.MatchString(title) {
			patterns.YearMentioned++
		}
	}

	// Sort by count descending, word ascending, so the keyword table is
	// stable across runs.
	keywords := make([]domain.KeywordCount, 0, len(counts))
	for word, count := range counts {
		keywords = append(keywords, domain.KeywordCount{Word: word, Count: count})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return keywords[i].Word < keywords[j].Word
	})
	if len(keywords) > topKeywordCount {
		keywords = keywords[:topKeywordCount]
	}

	samples := make([]string, 0, sampleTitleCount)
	for i := 0; i < len(videos) && i < sampleTitleCount; i++ {
		samples = append(samples, videos[i].Title)
	}

	return domain.TitlePatterns{
		CommonKeywords: keywords,
		AverageLength:  round1(float64(totalLength) / float64(len(videos))),
		Patterns:       patterns,
		SampleTitles:   samples,
	}
}

func analyzeDurations(videos []domain.Video) domain.DurationPatterns {
	total := 0
	min := videos[0].DurationSeconds
	max := videos[0].DurationSeconds
	for _, v := range videos {
		total += v.DurationSeconds
		if v.DurationSeconds < min {
			min = v.DurationSeconds
		}
		if v.DurationSeconds > max {
			max = v.DurationSeconds
		}
	}

	avg := float64(total) / float64(len(videos))
	return domain.DurationPatterns{
		AverageSeconds: round1(avg),
		AverageMinutes: round1(avg / 60),
		MinSeconds:     min,
		MaxSeconds:     max,
		Range:          fmt.Sprintf("%d-%d minutes", min/60, (max+59)/60),
	}
}

func analyzeEngagement(videos []domain.Video) domain.EngagementPatterns {
	var totalViews, totalLikes int64
	var rateSum float64
	rated := 0

	for _, v := range videos {
		totalViews += v.ViewCount
		totalLikes += v.LikeCount
		if v.ViewCount > 0 {
			rateSum += v.EngagementRate()
			rated++
		}
	}

	rate := 0.0
	if rated > 0 {
		rate = round2(rateSum / float64(rated))
	}

	return domain.EngagementPatterns{
		AverageViews:   round1(float64(totalViews) / float64(len(videos))),
		AverageLikes:   round1(float64(totalLikes) / float64(len(videos))),
		EngagementRate: rate,
		VideosAnalyzed: len(videos),
	}
}

// buildRecommendations turns the measured patterns into short actionable
// guidance. Rules fire in a fixed order so the list is deterministic.
func buildRecommendations(p *domain.ChannelPatternProfile) []string {
	var recs []string

	tp := p.TitlePatterns
	if tp.Patterns.HowTo > 2 {
		recs = append(recs, "How-to titles perform well on this channel; lead with the outcome in the title.")
	}
	if tp.Patterns.NumberLed > 2 {
		recs = append(recs, "Number-led list titles are a proven format here; keep lists between 5 and 10 items.")
	}
	if tp.Patterns.QuestionLed > 2 {
		recs = append(recs, "Question titles drive clicks on this channel; pose the question the video answers.")
	}
	if tp.AverageLength > 0 && tp.AverageLength < 30 {
		recs = append(recs, "Top titles run short; consider adding a concrete benefit to reach 30-60 characters.")
	}
	if p.Duration.AverageMinutes >= 8 {
		recs = append(recs, fmt.Sprintf("Viewers stay for longer videos here; target %.0f minutes to match the channel average.", p.Duration.AverageMinutes))
	} else if p.Duration.AverageMinutes > 0 {
		recs = append(recs, "Top videos are short; keep new videos tight rather than padding length.")
	}
	if p.Engagement.EngagementRate >= 4 {
		recs = append(recs, "Engagement rate is strong; explicit like/comment prompts are paying off, keep them.")
	}
	if len(tp.CommonKeywords) > 0 {
		words := make([]string, 0, len(tp.CommonKeywords))
		for _, kw := range tp.CommonKeywords {
			words = append(words, kw.Word)
		}
		recs = append(recs, "Recurring winning topics: "+strings.Join(words, ", ")+".")
	}

	return recs
}

func (a *Analyzer) extractThemes(ctx context.Context, videos []domain.Video) ([]string, error) {
	titles := make([]string, len(videos))
	for i, v := range videos {
		titles[i] = v.Title
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, "llm"); err != nil {
			return nil, err
		}
	}

	raw, err := a.generator.Generate(ctx, prompts.ThemeSystemPrompt, prompts.ThemeUserPrompt(titles))
	if err != nil {
		return nil, err
	}

	var themes []string
	if err := json.Unmarshal([]byte(provider.ExtractJSON(raw)), &themes); err != nil {
		return nil, domain.Transient("theme response was not a JSON array", err)
	}
	return themes, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
