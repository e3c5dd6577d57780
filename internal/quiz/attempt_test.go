package quiz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mcqQuiz(n int) *Quiz {
	q := &Quiz{ID: "test-quiz", ModuleID: "investment-basics", Level: "basic"}
	for i := range n {
		q.Questions = append(q.Questions, NewMultipleChoice(
			fmt.Sprintf("q%d", i+1),
			fmt.Sprintf("Question %d?", i+1),
			[]string{"a", "b", "c", "d"},
			1,
			"because b",
		))
	}
	return q
}

// answerAll submits each choice in order, advancing after every answer
// except the last one.
func answerAll(t *testing.T, a *Attempt, choices []int) {
	t.Helper()
	for i, c := range choices {
		_, err := a.SubmitAnswer(a.Current().ID, Choice(c))
		require.NoError(t, err)
		if i < len(choices)-1 {
			require.NoError(t, a.Next())
		}
	}
}

func TestStartAttemptRejectsEmptyQuiz(t *testing.T) {
	_, err := StartAttempt(&Quiz{ID: "empty"})
	assert.ErrorIs(t, err, ErrInvalidQuiz)

	_, err = StartAttempt(nil)
	assert.ErrorIs(t, err, ErrInvalidQuiz)
}

func TestStartAttemptInitialState(t *testing.T) {
	a, err := StartAttempt(mcqQuiz(3))
	require.NoError(t, err)

	assert.Equal(t, 0, a.CurrentIndex())
	assert.Equal(t, StatusInProgress, a.Status())
	assert.Equal(t, 0, a.AnsweredCount())
	assert.False(t, a.Finalized())
	assert.Equal(t, "q1", a.Current().ID)
}

func TestScenarioFourOfFiveCorrectPasses(t *testing.T) {
	a, err := StartAttempt(mcqQuiz(5))
	require.NoError(t, err)

	answerAll(t, a, []int{1, 1, 1, 1, 0})

	res, err := a.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 80.0, res.Percentage)
	assert.True(t, res.Passed)
	assert.True(t, IsPassing(res.Percentage))
	assert.Equal(t, 4, res.Correct)
	assert.Equal(t, 5, res.Total)
}

func TestScenarioFreeTextHalfCredit(t *testing.T) {
	q := &Quiz{ID: "ft", Questions: []Question{
		NewFreeText("ft1", "Explain diversification.", "sample",
			[]string{"risk", "asset classes", "correlation", "stocks", "bonds", "rebalancing"}),
	}}
	a, err := StartAttempt(q)
	require.NoError(t, err)

	rec, err := a.SubmitAnswer("ft1", Text("Spreading RISK across Stocks and bonds."))
	require.NoError(t, err)
	assert.Equal(t, CreditPartial, rec.Credit)
	assert.False(t, rec.Correct)
	assert.Equal(t, []string{"risk", "stocks", "bonds"}, rec.MatchedKeyPoints)

	res, err := a.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.Percentage)
	assert.False(t, res.Passed)
}

func TestScenarioDoubleSubmitRejected(t *testing.T) {
	a, err := StartAttempt(mcqQuiz(2))
	require.NoError(t, err)

	first, err := a.SubmitAnswer("q1", Choice(1))
	require.NoError(t, err)

	_, err = a.SubmitAnswer("q1", Choice(0))
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	stored, ok := a.Record(0)
	require.True(t, ok)
	assert.Equal(t, first, stored)
	assert.True(t, stored.Correct)
}

func TestScenarioFinalizeIncomplete(t *testing.T) {
	a, err := StartAttempt(mcqQuiz(3))
	require.NoError(t, err)

	answerAll(t, a, []int{1, 1})
	require.NoError(t, a.Next())

	_, err = a.Finalize()
	assert.ErrorIs(t, err, ErrIncompleteAttempt)
	assert.False(t, a.Finalized())
}

func TestSubmitOutOfOrder(t *testing.T) {
	a, err := StartAttempt(mcqQuiz(3))
	require.NoError(t, err)

	_, err = a.SubmitAnswer("q2", Choice(1))
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	_, err = a.SubmitAnswer("nope", Choice(1))
	assert.ErrorIs(t, err, ErrUnknownQuestion)
	assert.Equal(t, 0, a.AnsweredCount())
}

func TestSubmitInvalidAnswer(t *testing.T) {
	a, err := StartAttempt(mcqQuiz(1))
	require.NoError(t, err)

	tests := []struct {
		name string
		ans  Answer
	}{
		{"negative", Choice(-1)},
		{"out of range", Choice(4)},
		{"text for mcq", Text("b")},
		{"none", Answer{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.SubmitAnswer("q1", tt.ans)
			assert.ErrorIs(t, err, ErrInvalidAnswer)
			assert.False(t, a.Answered(0))
		})
	}
}

func TestSubmitDoesNotAdvance(t *testing.T) {
	a, err := StartAttempt(mcqQuiz(2))
	require.NoError(t, err)

	_, err = a.SubmitAnswer("q1", Choice(1))
	require.NoError(t, err)
	assert.Equal(t, 0, a.CurrentIndex())
}

func TestNavigation(t *testing.T) {
	a, err := StartAttempt(mcqQuiz(3))
	require.NoError(t, err)

	assert.ErrorIs(t, a.Next(), ErrNotAnswered)
	assert.ErrorIs(t, a.Previous(), ErrAtFirstQuestion)

	_, err = a.SubmitAnswer("q1", Choice(1))
	require.NoError(t, err)
	assert.ErrorIs(t, a.Previous(), ErrAtFirstQuestion)
	require.NoError(t, a.Next())
	assert.Equal(t, 1, a.CurrentIndex())

	// Previous is blocked until the question being left is answered.
	assert.ErrorIs(t, a.Previous(), ErrNotAnswered)

	_, err = a.SubmitAnswer("q2", Choice(2))
	require.NoError(t, err)
	require.NoError(t, a.Previous())
	assert.Equal(t, 0, a.CurrentIndex())
	assert.True(t, a.Answered(1), "going back keeps later answers")

	// Revisited questions stay locked.
	_, err = a.SubmitAnswer("q1", Choice(0))
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	require.NoError(t, a.Next())
	require.NoError(t, a.Next())
	assert.Equal(t, 2, a.CurrentIndex())

	_, err = a.SubmitAnswer("q3", Choice(1))
	require.NoError(t, err)
	require.NoError(t, a.Next())
	assert.Equal(t, StatusCompleted, a.Status())
	assert.Equal(t, 2, a.CurrentIndex())

	assert.ErrorIs(t, a.Next(), ErrAttemptCompleted)
	assert.ErrorIs(t, a.Previous(), ErrAttemptCompleted)
}

func TestFinalizeIdempotent(t *testing.T) {
	a, err := StartAttempt(mcqQuiz(3))
	require.NoError(t, err)
	answerAll(t, a, []int{1, 0, 1})

	first, err := a.Finalize()
	require.NoError(t, err)
	second, err := a.Finalize()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.InDelta(t, 66.666, first.Percentage, 0.01)
	assert.Equal(t, StatusCompleted, a.Status())

	_, err = a.SubmitAnswer("q3", Choice(1))
	assert.True(t, errors.Is(err, ErrAttemptFinalized))
}

func TestRecordsInQuestionOrder(t *testing.T) {
	a, err := StartAttempt(mcqQuiz(3))
	require.NoError(t, err)
	answerAll(t, a, []int{0, 1, 2})

	recs := a.Records()
	require.Len(t, recs, 3)
	for i, r := range recs {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, fmt.Sprintf("q%d", i+1), r.QuestionID)
	}
	assert.False(t, recs[0].Correct)
	assert.True(t, recs[1].Correct)
	assert.Equal(t, "Incorrect. The correct answer is: b. because b", recs[0].Feedback)
	assert.Equal(t, "Correct! because b", recs[1].Feedback)
}

func TestQuizValidate(t *testing.T) {
	tests := []struct {
		name string
		quiz *Quiz
	}{
		{"bad correct index", &Quiz{Questions: []Question{NewMultipleChoice("a", "?", []string{"x", "y"}, 2, "")}}},
		{"single option", &Quiz{Questions: []Question{NewMultipleChoice("a", "?", []string{"x"}, 0, "")}}},
		{"no key points", &Quiz{Questions: []Question{NewFreeText("a", "?", "", nil)}}},
		{"empty key point", &Quiz{Questions: []Question{NewFreeText("a", "?", "", []string{""})}}},
		{"unknown kind", &Quiz{Questions: []Question{{ID: "a", Kind: "essay"}}}},
		{"missing id", &Quiz{Questions: []Question{NewMultipleChoice("", "?", []string{"x", "y"}, 0, "")}}},
		{"duplicate id", &Quiz{Questions: []Question{
			NewMultipleChoice("a", "?", []string{"x", "y"}, 0, ""),
			NewMultipleChoice("a", "?", []string{"x", "y"}, 1, ""),
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.quiz.Validate(), ErrInvalidQuiz)
		})
	}
}
