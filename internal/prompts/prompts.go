// Package prompts builds the system and user prompts for script and title
// generation. Prompt text lives here rather than in the services so that
// tuning wording never touches pipeline logic.
package prompts

import (
	"fmt"
	"strings"

	"github.com/tkao/creatorlens/internal/domain"
)

// ScriptSystemPrompt instructs the model to write in the creator's voice and
// return strict JSON.
const ScriptSystemPrompt = `You are a scriptwriter for a video creator. You write in the creator's established voice, grounded in excerpts from their past videos. Respond with a single JSON object and nothing else. The JSON must have exactly these keys:
{
  "title_suggestion": "string",
  "hook": "string, the first 15 seconds",
  "introduction": "string",
  "body": [{"timestamp": "MM:SS", "content": "string"}],
  "conclusion": "string",
  "visual_cues": ["string"],
  "estimated_retention_points": ["string"]
}`

// TitleSystemPrompt instructs the model to return a JSON array of title strings.
const TitleSystemPrompt = `You are a video title writer. Given a topic and a summary of what has worked for this channel, respond with a JSON array of exactly the requested number of title strings and nothing else. Example: ["First Title", "Second Title"]`

// ThemeSystemPrompt asks for the dominant content themes of a channel.
const ThemeSystemPrompt = `You analyze video channels. Given a list of video titles, respond with a JSON array of 3 to 5 short theme strings describing the channel's dominant content themes, and nothing else.`

var formatInstructions = map[domain.ScriptFormat]string{
	domain.FormatStandard: "Write a standard long-form video script with a hook, introduction, 3 to 5 body sections with timestamps, and a conclusion with a call to action.",
	domain.FormatShort:    "Write a script for a vertical short under 60 seconds. The hook is the first 3 seconds. Keep body sections to one or two sentences each and end with a fast payoff.",
	domain.FormatTutorial: "Write a step-by-step tutorial script. Each body section is one concrete step with a timestamp. State prerequisites in the introduction and recap the steps in the conclusion.",
}

// ScriptUserPrompt assembles the grounded generation prompt from the request
// parameters, the channel's pattern profile, and the retrieved excerpts.
func ScriptUserPrompt(topic, tone string, targetMinutes int, format domain.ScriptFormat, profile *domain.ChannelPatternProfile, excerpts []domain.ScoredChunk) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Tone: %s\n", tone)
	fmt.Fprintf(&b, "Target length: %d minutes\n", targetMinutes)
	fmt.Fprintf(&b, "Format: %s\n\n", formatInstructions[format])

	if profile != nil {
		b.WriteString("Channel patterns:\n")
		fmt.Fprintf(&b, "- Average title length: %.0f characters\n", profile.TitlePatterns.AverageLength)
		if len(profile.TitlePatterns.CommonKeywords) > 0 {
			keywords := make([]string, 0, len(profile.TitlePatterns.CommonKeywords))
			for _, kw := range profile.TitlePatterns.CommonKeywords {
				keywords = append(keywords, kw.Word)
			}
			fmt.Fprintf(&b, "- Frequent title keywords: %s\n", strings.Join(keywords, ", "))
		}
		if len(profile.ContentThemes) > 0 {
			fmt.Fprintf(&b, "- Content themes: %s\n", strings.Join(profile.ContentThemes, ", "))
		}
		fmt.Fprintf(&b, "- Typical video length: %s\n\n", profile.Duration.Range)
	}

	if len(excerpts) > 0 {
		b.WriteString("Excerpts from the creator's past videos. Match this voice:\n\n")
		for _, ex := range excerpts {
			fmt.Fprintf(&b, "[from \"%s\"]\n%s\n\n", ex.Title, ex.Text)
		}
	}

	b.WriteString("Write the script as JSON.")
	return b.String()
}

// TitleUserPrompt assembles the title-generation prompt.
func TitleUserPrompt(topic string, count int, profile *domain.ChannelPatternProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Generate %d candidate titles.\n\n", count)

	if profile != nil {
		b.WriteString("What has worked on this channel:\n")
		fmt.Fprintf(&b, "- Average title length: %.0f characters\n", profile.TitlePatterns.AverageLength)
		if len(profile.TitlePatterns.CommonKeywords) > 0 {
			keywords := make([]string, 0, len(profile.TitlePatterns.CommonKeywords))
			for _, kw := range profile.TitlePatterns.CommonKeywords {
				keywords = append(keywords, fmt.Sprintf("%s (%d)", kw.Word, kw.Count))
			}
			fmt.Fprintf(&b, "- Frequent keywords with counts: %s\n", strings.Join(keywords, ", "))
		}
		fmt.Fprintf(&b, "- How-to titles: %d, number-led titles: %d, question titles: %d\n",
			profile.TitlePatterns.Patterns.HowTo,
			profile.TitlePatterns.Patterns.NumberLed,
			profile.TitlePatterns.Patterns.QuestionLed)
		if len(profile.TitlePatterns.SampleTitles) > 0 {
			b.WriteString("- Top performing titles:\n")
			for _, t := range profile.TitlePatterns.SampleTitles {
				fmt.Fprintf(&b, "  - %s\n", t)
			}
		}
	}

	b.WriteString("\nRespond with the JSON array only.")
	return b.String()
}

// ThemeUserPrompt assembles the theme-extraction prompt from video titles.
func ThemeUserPrompt(titles []string) string {
	var b strings.Builder
	b.WriteString("Video titles:\n")
	for _, t := range titles {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	b.WriteString("\nRespond with the JSON array of themes only.")
	return b.String()
}
