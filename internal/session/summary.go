package session

import (
	"github.com/finscholars/finscholars/internal/achievements"
	"github.com/finscholars/finscholars/internal/progression"
	"github.com/finscholars/finscholars/internal/quiz"
)

// Outcome is the result of finalizing an attempt.
type Outcome struct {
	AttemptID        string               `json:"attempt_id"`
	ModuleID         string               `json:"module_id"`
	Level            progression.Level    `json:"level"`
	Score            float64              `json:"score"`
	Correct          int                  `json:"correct"`
	Total            int                  `json:"total"`
	Percentage       float64              `json:"percentage"`
	Passed           bool                 `json:"passed"`
	PassingThreshold float64              `json:"passing_threshold"`
	Message          string               `json:"message"`
	NextLevel        *progression.Level   `json:"next_level"`
	Unlocked         *progression.Level   `json:"unlocked_level,omitempty"`
	ModuleCompleted  bool                 `json:"module_completed"`
	Improved         bool                 `json:"improved"`
	Badges           []achievements.Award `json:"badges"`
	Records          []RecordView         `json:"records"`
}

// buildOutcome assembles the outcome from the finalized result and the
// progression transition it caused.
func buildOutcome(st *State, res quiz.Result, tr progression.Transition) *Outcome {
	o := &Outcome{
		AttemptID:        st.ID,
		ModuleID:         st.ModuleID,
		Level:            st.Level,
		Score:            res.Score,
		Correct:          res.Correct,
		Total:            res.Total,
		Percentage:       res.Percentage,
		Passed:           res.Passed,
		PassingThreshold: quiz.PassingThreshold,
		Message:          quiz.ResultMessage(res.Percentage),
		Unlocked:         tr.Unlocked,
		ModuleCompleted:  tr.ModuleCompleted,
		Improved:         tr.Improved,
		Badges:           []achievements.Award{},
	}
	if res.Passed {
		if next, ok := progression.Next(st.Order, st.Level); ok {
			o.NextLevel = &next
		}
	}
	q := st.attempt.Quiz()
	for _, r := range st.attempt.Records() {
		o.Records = append(o.Records, recordView(q.Questions[r.Index], r))
	}
	return o
}
