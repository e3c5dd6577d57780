package quiz

import (
	"fmt"
	"time"
)

// Status is the navigation state of an attempt.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Answer is a raw learner answer: either a selected option index or free
// text. The zero value means no answer.
type Answer struct {
	choice    int
	text      string
	hasChoice bool
	hasText   bool
}

// Choice builds an answer selecting the option at index i.
func Choice(i int) Answer {
	return Answer{choice: i, hasChoice: true}
}

// Text builds a free-text answer.
func Text(s string) Answer {
	return Answer{text: s, hasText: true}
}

// ChoiceIndex returns the selected option index, if the answer is a choice.
func (a Answer) ChoiceIndex() (int, bool) {
	return a.choice, a.hasChoice
}

// TextValue returns the free-text answer, if the answer is text.
func (a Answer) TextValue() (string, bool) {
	return a.text, a.hasText
}

// IsZero reports whether no answer was given.
func (a Answer) IsZero() bool {
	return !a.hasChoice && !a.hasText
}

// AnswerRecord is the immutable outcome of answering one question.
type AnswerRecord struct {
	QuestionID       string
	Index            int
	Answer           Answer
	Correct          bool
	Credit           float64
	MatchedKeyPoints []string
	Feedback         string
	AnsweredAt       time.Time
}

// Result is the finalized outcome of an attempt.
type Result struct {
	QuizID     string
	ModuleID   string
	Level      string
	Score      float64 // sum of per-question credit
	Percentage float64
	Passed     bool
	Correct    int // questions with full credit
	Total      int
}

// Attempt drives one learner's run through a quiz. It is not safe for
// concurrent use; callers that share an attempt must serialize access.
type Attempt struct {
	quiz      *Quiz
	index     int
	records   []*AnswerRecord // one slot per question, nil until answered
	status    Status
	finalized bool
	result    Result
	startedAt time.Time

	now func() time.Time
}

// StartAttempt begins an attempt at the first question with no answers.
func StartAttempt(q *Quiz) (*Attempt, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return &Attempt{
		quiz:      q,
		records:   make([]*AnswerRecord, len(q.Questions)),
		status:    StatusInProgress,
		startedAt: time.Now(),
		now:       time.Now,
	}, nil
}

// Quiz returns the quiz being attempted.
func (a *Attempt) Quiz() *Quiz { return a.quiz }

// CurrentIndex returns the zero-based index of the current question.
func (a *Attempt) CurrentIndex() int { return a.index }

// Current returns the question at the current index.
func (a *Attempt) Current() Question { return a.quiz.Questions[a.index] }

// Status returns the navigation state.
func (a *Attempt) Status() Status { return a.status }

// Finalized reports whether Finalize has succeeded.
func (a *Attempt) Finalized() bool { return a.finalized }

// StartedAt returns when the attempt began.
func (a *Attempt) StartedAt() time.Time { return a.startedAt }

// Answered reports whether the question at index i has a record.
func (a *Attempt) Answered(i int) bool {
	return i >= 0 && i < len(a.records) && a.records[i] != nil
}

// AnsweredCount returns the number of answered questions.
func (a *Attempt) AnsweredCount() int {
	n := 0
	for _, r := range a.records {
		if r != nil {
			n++
		}
	}
	return n
}

// Record returns the answer record for question i, if answered.
func (a *Attempt) Record(i int) (AnswerRecord, bool) {
	if !a.Answered(i) {
		return AnswerRecord{}, false
	}
	return *a.records[i], true
}

// Records returns the answered records in question order.
func (a *Attempt) Records() []AnswerRecord {
	out := make([]AnswerRecord, 0, len(a.records))
	for _, r := range a.records {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// SubmitAnswer scores the answer to the current question and stores the
// record. Only the current, unanswered question may be submitted; the
// attempt does not advance until Next is called.
func (a *Attempt) SubmitAnswer(questionID string, ans Answer) (AnswerRecord, error) {
	if a.finalized {
		return AnswerRecord{}, ErrAttemptFinalized
	}

	idx := a.quiz.indexOf(questionID)
	switch {
	case idx < 0:
		return AnswerRecord{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, questionID)
	case a.Answered(idx):
		return AnswerRecord{}, fmt.Errorf("%w: %q", ErrAlreadyAnswered, questionID)
	case idx != a.index:
		return AnswerRecord{}, fmt.Errorf("%w: got %q, current is %q", ErrOutOfOrder, questionID, a.Current().ID)
	}

	q := a.quiz.Questions[idx]
	rec := AnswerRecord{
		QuestionID: q.ID,
		Index:      idx,
		Answer:     ans,
		AnsweredAt: a.now(),
	}

	switch q.Kind {
	case KindMultipleChoice:
		choice, ok := ans.ChoiceIndex()
		if !ok || choice < 0 || choice >= len(q.Options) {
			return AnswerRecord{}, fmt.Errorf("%w: question %q expects an option between 0 and %d", ErrInvalidAnswer, q.ID, len(q.Options)-1)
		}
		rec.Correct, rec.Credit, rec.Feedback = scoreMultipleChoice(q, choice)
	case KindFreeText:
		text, ok := ans.TextValue()
		if !ok {
			return AnswerRecord{}, fmt.Errorf("%w: question %q expects a text answer", ErrInvalidAnswer, q.ID)
		}
		rec.MatchedKeyPoints, rec.Credit, rec.Feedback = scoreFreeText(q, text)
		rec.Correct = rec.Credit == CreditFull
	}

	a.records[idx] = &rec
	return rec, nil
}

// Next moves to the following question, or completes the attempt when the
// current question is the last one. The current question must be answered.
func (a *Attempt) Next() error {
	if a.status == StatusCompleted {
		return ErrAttemptCompleted
	}
	if !a.Answered(a.index) {
		return ErrNotAnswered
	}
	if a.index == len(a.quiz.Questions)-1 {
		a.status = StatusCompleted
		return nil
	}
	a.index++
	return nil
}

// Previous moves back one question, keeping all stored answers. It is
// allowed only when the question being left has been answered.
func (a *Attempt) Previous() error {
	if a.status == StatusCompleted {
		return ErrAttemptCompleted
	}
	if a.index == 0 {
		return ErrAtFirstQuestion
	}
	if !a.Answered(a.index) {
		return ErrNotAnswered
	}
	a.index--
	return nil
}

// Finalize computes the final score once every question is answered. The
// result is cached, so repeated calls return the same value.
func (a *Attempt) Finalize() (Result, error) {
	if a.finalized {
		return a.result, nil
	}
	if n := a.AnsweredCount(); n < len(a.records) {
		return Result{}, fmt.Errorf("%w: %d of %d answered", ErrIncompleteAttempt, n, len(a.records))
	}

	res := Result{
		QuizID:   a.quiz.ID,
		ModuleID: a.quiz.ModuleID,
		Level:    a.quiz.Level,
		Total:    len(a.records),
	}
	for _, r := range a.records {
		res.Score += r.Credit
		if r.Credit == CreditFull {
			res.Correct++
		}
	}
	res.Percentage = res.Score * 100 / float64(res.Total)
	res.Passed = IsPassing(res.Percentage)

	a.result = res
	a.finalized = true
	a.status = StatusCompleted
	return res, nil
}
