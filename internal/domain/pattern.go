package domain

// KeywordCount is one entry in the channel keyword frequency table.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// PatternCounts holds structural title pattern counts across the analyzed
// video set. A title may match more than one category.
type PatternCounts struct {
	HowTo         int `json:"how_to"`
	NumberLed     int `json:"number_led"`
	QuestionLed   int `json:"question_led"`
	YearMentioned int `json:"year_mentioned"`
}

// TitlePatterns summarizes title-level statistics of the analyzed set.
type TitlePatterns struct {
	CommonKeywords []KeywordCount `json:"common_keywords"`
	AverageLength  float64        `json:"average_length"`
	Patterns       PatternCounts  `json:"patterns"`
	SampleTitles   []string       `json:"sample_titles"`
}

// DurationPatterns summarizes video duration statistics of the analyzed set.
type DurationPatterns struct {
	AverageSeconds float64 `json:"average_seconds"`
	AverageMinutes float64 `json:"average_minutes"`
	MinSeconds     int     `json:"min_seconds"`
	MaxSeconds     int     `json:"max_seconds"`
	Range          string  `json:"range"`
}

// EngagementPatterns summarizes engagement statistics of the analyzed set.
// EngagementRate is the mean of per-video likes/views percentages, excluding
// zero-view videos.
type EngagementPatterns struct {
	AverageViews   float64 `json:"average_views"`
	AverageLikes   float64 `json:"average_likes"`
	EngagementRate float64 `json:"engagement_rate"`
	VideosAnalyzed int     `json:"videos_analyzed"`
}

// ChannelPatternProfile aggregates statistics and qualitative themes across a
// channel's top-performing videos. It is recomputed per request; only the
// content themes step is non-deterministic.
type ChannelPatternProfile struct {
	ChannelID       string             `json:"channel_id"`
	VideosAnalyzed  int                `json:"videos_analyzed"`
	TitlePatterns   TitlePatterns      `json:"title_patterns"`
	Duration        DurationPatterns   `json:"duration_patterns"`
	Engagement      EngagementPatterns `json:"engagement_patterns"`
	ContentThemes   []string           `json:"content_themes"`
	Recommendations []string           `json:"recommendations"`
}
