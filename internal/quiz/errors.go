package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuiz is returned when a quiz cannot be attempted, most
	// commonly because it has no questions.
	ErrInvalidQuiz = errors.New("invalid quiz")

	// ErrAlreadyAnswered is returned when a question that already has an
	// answer record is submitted again. The stored record is left unchanged.
	ErrAlreadyAnswered = errors.New("question already answered")

	// ErrOutOfOrder is returned when the submitted question is not the
	// current one. It matches ErrAlreadyAnswered under errors.Is.
	ErrOutOfOrder = fmt.Errorf("%w: question is not the current question", ErrAlreadyAnswered)

	// ErrUnknownQuestion is returned for a question id that is not in the quiz.
	ErrUnknownQuestion = fmt.Errorf("%w: unknown question", ErrOutOfOrder)

	ErrInvalidAnswer     = errors.New("invalid answer")
	ErrIncompleteAttempt = errors.New("attempt has unanswered questions")
	ErrNotAnswered       = errors.New("current question not answered")
	ErrAtFirstQuestion   = errors.New("already at the first question")
	ErrAttemptFinalized  = errors.New("attempt already finalized")
	ErrAttemptCompleted  = errors.New("attempt already completed")
)
