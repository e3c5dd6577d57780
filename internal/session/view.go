package session

import (
	"time"

	"github.com/finscholars/finscholars/internal/progression"
	"github.com/finscholars/finscholars/internal/quiz"
)

// QuestionView is a question as shown to the learner. The correct option is
// only present once the question has been answered.
type QuestionView struct {
	ID       string    `json:"id"`
	Index    int       `json:"index"`
	Kind     quiz.Kind `json:"type"`
	Prompt   string    `json:"question"`
	Options  []string  `json:"options,omitempty"`
	Answered bool      `json:"answered"`
}

// RecordView is a scored answer.
type RecordView struct {
	QuestionID       string   `json:"question_id"`
	Index            int      `json:"index"`
	Correct          bool     `json:"is_correct"`
	Credit           float64  `json:"credit"`
	Feedback         string   `json:"feedback"`
	MatchedKeyPoints []string `json:"matched_key_points,omitempty"`
	CorrectAnswer    *int     `json:"correct_answer,omitempty"`
	Explanation      string   `json:"explanation,omitempty"`
	SampleAnswer     string   `json:"sample_answer,omitempty"`
}

// View is the learner-facing state of an attempt.
type View struct {
	ID            string            `json:"id"`
	ModuleID      string            `json:"module_id"`
	Title         string            `json:"title"`
	Level         progression.Level `json:"level"`
	QuizID        string            `json:"quiz_id"`
	Status        quiz.Status       `json:"status"`
	Finalized     bool              `json:"finalized"`
	CurrentIndex  int               `json:"current_index"`
	Total         int               `json:"total"`
	AnsweredCount int               `json:"answered_count"`
	Current       QuestionView      `json:"current"`
	Records       []RecordView      `json:"records"`
	StartedAt     time.Time         `json:"started_at"`
}

// Unanswered returns how many questions still need an answer.
func (v *View) Unanswered() int {
	return v.Total - v.AnsweredCount
}

// view renders the state. Callers hold the state lock.
func (s *State) view() *View {
	a := s.attempt
	q := a.Quiz()
	cur := a.Current()
	v := &View{
		ID:            s.ID,
		ModuleID:      s.ModuleID,
		Title:         s.Title,
		Level:         s.Level,
		QuizID:        q.ID,
		Status:        a.Status(),
		Finalized:     a.Finalized(),
		CurrentIndex:  a.CurrentIndex(),
		Total:         q.Len(),
		AnsweredCount: a.AnsweredCount(),
		Current: QuestionView{
			ID:       cur.ID,
			Index:    a.CurrentIndex(),
			Kind:     cur.Kind,
			Prompt:   cur.Prompt,
			Options:  cur.Options,
			Answered: a.Answered(a.CurrentIndex()),
		},
		StartedAt: a.StartedAt(),
	}
	for _, r := range a.Records() {
		v.Records = append(v.Records, recordView(q.Questions[r.Index], r))
	}
	return v
}

func recordView(q quiz.Question, r quiz.AnswerRecord) RecordView {
	rv := RecordView{
		QuestionID:       r.QuestionID,
		Index:            r.Index,
		Correct:          r.Correct,
		Credit:           r.Credit,
		Feedback:         r.Feedback,
		MatchedKeyPoints: r.MatchedKeyPoints,
	}
	switch q.Kind {
	case quiz.KindMultipleChoice:
		idx := q.CorrectIndex
		rv.CorrectAnswer = &idx
		rv.Explanation = q.Explanation
	case quiz.KindFreeText:
		rv.SampleAnswer = q.SampleAnswer
	}
	return rv
}
