package quiz

import (
	"fmt"
	"strings"
)

// Kind identifies how a question is answered and scored.
type Kind string

const (
	KindMultipleChoice Kind = "mcq"
	KindFreeText       Kind = "free_text"
)

// DisplayName returns a human-readable label for the question kind.
func (k Kind) DisplayName() string {
	switch k {
	case KindMultipleChoice:
		return "Multiple choice"
	case KindFreeText:
		return "Free text"
	default:
		return string(k)
	}
}

// Question is a single quiz item. Kind decides which of the variant fields
// are meaningful: Options/CorrectIndex/Explanation for multiple choice,
// SampleAnswer/KeyPoints for free text.
type Question struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"type"`
	Prompt string `json:"question"`

	Options      []string `json:"options,omitempty"`
	CorrectIndex int      `json:"correct_answer"`
	Explanation  string   `json:"explanation,omitempty"`

	SampleAnswer string   `json:"sample_answer,omitempty"`
	KeyPoints    []string `json:"key_points,omitempty"`
}

// NewMultipleChoice builds a multiple-choice question.
func NewMultipleChoice(id, prompt string, options []string, correctIndex int, explanation string) Question {
	return Question{
		ID:           id,
		Kind:         KindMultipleChoice,
		Prompt:       prompt,
		Options:      options,
		CorrectIndex: correctIndex,
		Explanation:  explanation,
	}
}

// NewFreeText builds an open-ended question scored by key point coverage.
func NewFreeText(id, prompt, sampleAnswer string, keyPoints []string) Question {
	return Question{
		ID:           id,
		Kind:         KindFreeText,
		Prompt:       prompt,
		SampleAnswer: sampleAnswer,
		KeyPoints:    keyPoints,
	}
}

// Validate checks the structural invariants of the question variant.
func (q Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("%w: question has no id", ErrInvalidQuiz)
	}
	switch q.Kind {
	case KindMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %q needs at least two options", ErrInvalidQuiz, q.ID)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("%w: question %q correct index %d out of range", ErrInvalidQuiz, q.ID, q.CorrectIndex)
		}
	case KindFreeText:
		if len(q.KeyPoints) == 0 {
			return fmt.Errorf("%w: free-text question %q has no key points", ErrInvalidQuiz, q.ID)
		}
		for _, kp := range q.KeyPoints {
			if kp == "" {
				return fmt.Errorf("%w: free-text question %q has an empty key point", ErrInvalidQuiz, q.ID)
			}
		}
	default:
		return fmt.Errorf("%w: question %q has unknown kind %q", ErrInvalidQuiz, q.ID, q.Kind)
	}
	return nil
}

// CorrectOption returns the text of the correct option for a multiple-choice
// question, or "" for other kinds.
func (q Question) CorrectOption() string {
	if q.Kind != KindMultipleChoice || q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// Quiz is an ordered, immutable sequence of questions for one module level.
type Quiz struct {
	ID        string     `json:"id"`
	ModuleID  string     `json:"module_id,omitempty"`
	Level     string     `json:"level,omitempty"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// Len returns the number of questions.
func (q *Quiz) Len() int {
	return len(q.Questions)
}

// Validate reports the first structural problem with the quiz.
func (q *Quiz) Validate() error {
	if q == nil || len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz has no questions", ErrInvalidQuiz)
	}
	seen := make(map[string]bool, len(q.Questions))
	for _, question := range q.Questions {
		if err := question.Validate(); err != nil {
			return err
		}
		if seen[question.ID] {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidQuiz, question.ID)
		}
		seen[question.ID] = true
	}
	return nil
}

// indexOf returns the position of the question with the given id, or -1.
func (q *Quiz) indexOf(id string) int {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return i
		}
	}
	return -1
}
