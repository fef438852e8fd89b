package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/logger"
	"github.com/tkao/creatorlens/internal/prompts"
	"github.com/tkao/creatorlens/internal/provider"
)

// defaultTitleCount is the number of candidates generated per request.
const defaultTitleCount = 5

// emotionalTriggers earn a bonus when present in a title.
var emotionalTriggers = []string{
	"secret", "amazing", "shocking", "ultimate", "best", "worst", "never", "always",
}

// TitleService generates candidate titles with the LLM and scores them with a
// deterministic rubric calibrated against the channel's measured patterns.
type TitleService struct {
	analyzer  *Analyzer
	generator provider.Generator
	limiter   *ProviderLimiter
}

// NewTitleService creates the title service.
func NewTitleService(analyzer *Analyzer, generator provider.Generator, limiter *ProviderLimiter) *TitleService {
	return &TitleService{analyzer: analyzer, generator: generator, limiter: limiter}
}

// GenerateTitles produces count scored title candidates for a topic, ordered
// by score descending.
func (s *TitleService) GenerateTitles(ctx context.Context, channelID, topic string, count int) ([]domain.TitleCandidate, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, domain.Validationf("topic is required")
	}
	if count <= 0 {
		count = defaultTitleCount
	}

	profile, err := s.analyzer.AnalyzeChannel(ctx, channelID, 0)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, "llm"); err != nil {
			return nil, err
		}
	}

	raw, err := s.generator.Generate(ctx, prompts.TitleSystemPrompt, prompts.TitleUserPrompt(topic, count, profile))
	if err != nil {
		return nil, err
	}

	var titles []string
	if err := json.Unmarshal([]byte(provider.ExtractJSON(raw)), &titles); err != nil {
		return nil, domain.Transient("title response was not a JSON array", err)
	}
	if len(titles) == 0 {
		return nil, domain.Transient("title generation returned no candidates", nil)
	}
	if len(titles) > count {
		titles = titles[:count]
	}

	candidates := make([]domain.TitleCandidate, len(titles))
	for i, title := range titles {
		candidates[i] = ScoreTitle(title, profile)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	logger.CtxInfo(ctx, "generated %d title candidates for channel %s", len(candidates), channelID)
	return candidates, nil
}

// ScoreTitle scores one title against the channel profile. The score is a
// deterministic function of the title text, the profile, and the current
// year; factors itemize every contribution and always sum to the pre-clamp
// total.
func ScoreTitle(title string, profile *domain.ChannelPatternProfile) domain.TitleCandidate {
	lower := strings.ToLower(title)
	length := len([]rune(title))

	factors := []domain.ScoreFactor{{Factor: "base", Points: 50}}

	switch {
	case length >= 30 && length <= 60:
		factors = append(factors, domain.ScoreFactor{Factor: "length in optimal 30-60 range", Points: 15})
	case (length >= 20 && length <= 29) || (length >= 61 && length <= 70):
		factors = append(factors, domain.ScoreFactor{Factor: "length near optimal range", Points: 5})
	default:
		factors = append(factors, domain.ScoreFactor{Factor: "length outside optimal range", Points: -5})
	}

	if profile != nil {
		keywordPoints := 0
		var matched []string
		for _, kw := range profile.TitlePatterns.CommonKeywords {
			if strings.Contains(lower, kw.Word) {
				keywordPoints += 5
				matched = append(matched, kw.Word)
			}
		}
		if keywordPoints > 25 {
			keywordPoints = 25
		}
		if keywordPoints > 0 {
			factors = append(factors, domain.ScoreFactor{
				Factor: "channel keywords: " + strings.Join(matched, ", "),
				Points: keywordPoints,
			})
		}

		counts := profile.TitlePatterns.Patterns
		if strings.Contains(lower, "how to") && counts.HowTo > 2 {
			factors = append(factors, domain.ScoreFactor{Factor: "how-to format matches channel", Points: 10})
		}
		if numberLedPattern.MatchString(title) && counts.NumberLed > 3 {
			factors = append(factors, domain.ScoreFactor{Factor: "number-led format matches channel", Points: 8})
		}
		if strings.Contains(title, "?") && counts.QuestionLed > 2 {
			factors = append(factors, domain.ScoreFactor{Factor: "question format matches channel", Points: 7})
		}
	}

	if strings.Contains(title, fmt.Sprintf("%d", time.Now().Year())) {
		factors = append(factors, domain.ScoreFactor{Factor: "mentions current year", Points: 5})
	}

	for _, trigger := range emotionalTriggers {
		if strings.Contains(lower, trigger) {
			factors = append(factors, domain.ScoreFactor{Factor: "emotional trigger: " + trigger, Points: 6})
			break
		}
	}

	total := 0
	for _, f := range factors {
		total += f.Points
	}

	score := total
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return domain.TitleCandidate{
		Title:        title,
		Score:        score,
		Grade:        grade(score),
		PredictedCTR: predictedCTR(score),
		Factors:      factors,
	}
}

func grade(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	default:
		return "D"
	}
}

func predictedCTR(score int) string {
	switch {
	case score >= 85:
		return "8-12%"
	case score >= 70:
		return "6-8%"
	case score >= 55:
		return "4-6%"
	default:
		return "2-4%"
	}
}
