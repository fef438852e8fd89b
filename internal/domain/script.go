package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ScriptFormat selects the structural template used for script generation.
type ScriptFormat string

const (
	FormatStandard ScriptFormat = "standard"
	FormatShort    ScriptFormat = "short"
	FormatTutorial ScriptFormat = "tutorial"
)

// Valid reports whether f is a known format.
func (f ScriptFormat) Valid() bool {
	switch f {
	case FormatStandard, FormatShort, FormatTutorial:
		return true
	}
	return false
}

// ScriptSection is one timestamped body section of a generated script.
type ScriptSection struct {
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
}

// ScriptContent is the structured generation result.
type ScriptContent struct {
	TitleSuggestion string          `json:"title_suggestion"`
	Hook            string          `json:"hook"`
	Introduction    string          `json:"introduction"`
	Body            []ScriptSection `json:"body"`
	Conclusion      string          `json:"conclusion"`
	VisualCues      []string        `json:"visual_cues"`
	RetentionPoints []string        `json:"estimated_retention_points"`
}

// StringArray stores a string slice as JSON text in the database.
type StringArray []string

// Value implements driver.Valuer.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// GeneratedScript is a persisted generation artifact with provenance: the
// distinct source videos whose chunks grounded the generation, so results are
// auditable given the same index snapshot.
type GeneratedScript struct {
	ID              string       `gorm:"type:text;primaryKey" json:"id"`
	ChannelID       string       `gorm:"type:text;not null;index:idx_scripts_channel" json:"channel_id"`
	Topic           string       `gorm:"type:text;not null" json:"topic"`
	Tone            string       `gorm:"type:text" json:"tone,omitempty"`
	TargetMinutes   int          `json:"target_minutes"`
	Format          ScriptFormat `gorm:"type:text" json:"format"`
	ContentJSON     string       `gorm:"type:text" json:"-"`
	ContextVideos   int          `json:"context_videos"`
	ContextVideoIDs StringArray  `gorm:"type:text" json:"context_video_ids"`
	CreatedAt       time.Time    `json:"created_at"`

	// Content is the decoded script; populated on read, not stored directly.
	Content *ScriptContent `gorm:"-" json:"script"`
}

// TableName returns the database table name for GeneratedScript.
func (GeneratedScript) TableName() string {
	return "generated_scripts"
}

// ScoreFactor is one itemized contribution to a title score.
type ScoreFactor struct {
	Factor string `json:"factor"`
	Points int    `json:"points"`
}

// TitleCandidate is a scored title suggestion. Factors always sum to the
// pre-clamp total so scores are auditable.
type TitleCandidate struct {
	Title        string        `json:"title"`
	Score        int           `json:"score"`
	Grade        string        `json:"grade"`
	PredictedCTR string        `json:"predicted_ctr"`
	Factors      []ScoreFactor `json:"factors"`
}
