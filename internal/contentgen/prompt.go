package contentgen

import (
	"fmt"
	"strings"

	"github.com/finscholars/finscholars/internal/catalog"
	"github.com/finscholars/finscholars/internal/progression"
)

const systemPrompt = `You are an expert financial educator writing self-paced lessons for adult learners. Content must be accurate, practical and free of investment advice for specific securities.`

// levelGuidance is the depth expected at each level.
var levelGuidance = map[progression.Level]string{
	progression.LevelBasic:    "Focus on fundamental concepts, simple explanations, and everyday examples.",
	progression.LevelModerate: "Include more detailed explanations, technical terms with definitions, and practical applications.",
	progression.LevelAdvanced: "Provide in-depth analysis, technical concepts, market implications, and advanced strategies.",
}

func contentPrompt(topic string, level progression.Level, interests []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nLevel: %s\n", topic, level.DisplayName())
	if len(interests) > 0 {
		fmt.Fprintf(&b, "Learner interests: %s\n", strings.Join(interests, ", "))
	}
	fmt.Fprintf(&b, "\n%s\n", levelGuidance[level])
	b.WriteString(`
Write 3 to 5 sections. Each section body is clean HTML:
- <h2> and <h3> for headings, <p> for paragraphs
- <ul> and <li> for lists, <strong> for important terms
- include 2-3 real-world examples across the sections`)
	return b.String()
}

func quizPrompt(m *catalog.Module, level progression.Level, cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nLevel: %s\n\nContent:\n", m.Title, level.DisplayName())
	if lc, ok := m.Level(level); ok {
		for _, s := range lc.Sections {
			fmt.Fprintf(&b, "## %s\n%s\n\n", s.Title, s.Content)
		}
	}
	fmt.Fprintf(&b, `Write a quiz based only on the content above:
1. %d multiple-choice questions ("mcq") with 4 options each. correct_answer is the 0-based index of the right option.
2. %d free-text questions ("free_text") answered in a short paragraph, with a sample_answer and 3 to 5 short key_points a good answer mentions.
Use ids q1, q2, and so on. Leave key_points empty for mcq and options empty for free_text.`,
		cfg.MultipleChoice, cfg.FreeText)
	return b.String()
}
