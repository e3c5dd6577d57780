package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// attemptRepo implements AttemptRepo backed by sqlx and the global sequence counter.
type attemptRepo struct {
	db  *sqlx.DB
	seq *sequenceCounter
}

type attemptRow struct {
	Sequence   int64   `db:"sequence"`
	AttemptID  string  `db:"attempt_id"`
	UserID     string  `db:"user_id"`
	ModuleID   string  `db:"module_id"`
	Level      string  `db:"level"`
	QuizID     string  `db:"quiz_id"`
	Score      float64 `db:"score"`
	Correct    int     `db:"correct"`
	Total      int     `db:"total"`
	Percentage float64 `db:"percentage"`
	Passed     bool    `db:"passed"`
	StartedAt  int64   `db:"started_at"`
	FinishedAt int64   `db:"finished_at"`
}

type answerRow struct {
	AttemptID     string  `db:"attempt_id"`
	QuestionIndex int     `db:"question_index"`
	QuestionID    string  `db:"question_id"`
	Answer        string  `db:"answer"`
	Correct       bool    `db:"correct"`
	Credit        float64 `db:"credit"`
	Feedback      string  `db:"feedback"`
	AnsweredAt    int64   `db:"answered_at"`
}

const attemptColumns = `sequence, attempt_id, user_id, module_id, level, quiz_id, score,
	correct, total, percentage, passed, started_at, finished_at`

func (r *attemptRepo) SaveAttempt(ctx context.Context, data AttemptData) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin attempt tx: %w", err)
	}
	defer tx.Rollback()

	seqNum, err := r.seq.Next(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}

	row := attemptRow{
		Sequence:   seqNum,
		AttemptID:  data.AttemptID,
		UserID:     data.UserID,
		ModuleID:   data.ModuleID,
		Level:      data.Level,
		QuizID:     data.QuizID,
		Score:      data.Score,
		Correct:    data.Correct,
		Total:      data.Total,
		Percentage: data.Percentage,
		Passed:     data.Passed,
		StartedAt:  toMillis(data.StartedAt),
		FinishedAt: toMillis(data.FinishedAt),
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO attempt_results (`+attemptColumns+`) VALUES (
		:sequence, :attempt_id, :user_id, :module_id, :level, :quiz_id, :score,
		:correct, :total, :percentage, :passed, :started_at, :finished_at)`, row)
	if err != nil {
		return 0, fmt.Errorf("save attempt %s: %w", data.AttemptID, err)
	}

	for _, a := range data.Answers {
		_, err = tx.NamedExecContext(ctx, `INSERT INTO answer_records
			(attempt_id, question_index, question_id, answer, correct, credit, feedback, answered_at)
			VALUES (:attempt_id, :question_index, :question_id, :answer, :correct, :credit, :feedback, :answered_at)`,
			answerRow{
				AttemptID:     data.AttemptID,
				QuestionIndex: a.Index,
				QuestionID:    a.QuestionID,
				Answer:        a.Answer,
				Correct:       a.Correct,
				Credit:        a.Credit,
				Feedback:      a.Feedback,
				AnsweredAt:    toMillis(a.AnsweredAt),
			})
		if err != nil {
			return 0, fmt.Errorf("save answer %d of attempt %s: %w", a.Index, data.AttemptID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit attempt: %w", err)
	}
	return seqNum, nil
}

func (r *attemptRepo) GetAttempt(ctx context.Context, attemptID string) (*AttemptRecord, error) {
	var row attemptRow
	err := r.db.GetContext(ctx, &row,
		r.db.Rebind(`SELECT `+attemptColumns+` FROM attempt_results WHERE attempt_id = ?`), attemptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query attempt %s: %w", attemptID, err)
	}

	var answers []answerRow
	err = r.db.SelectContext(ctx, &answers,
		r.db.Rebind(`SELECT * FROM answer_records WHERE attempt_id = ? ORDER BY question_index`), attemptID)
	if err != nil {
		return nil, fmt.Errorf("query answers of %s: %w", attemptID, err)
	}

	rec := row.record()
	rec.Answers = make([]AnswerData, len(answers))
	for i, a := range answers {
		rec.Answers[i] = AnswerData{
			Index:      a.QuestionIndex,
			QuestionID: a.QuestionID,
			Answer:     a.Answer,
			Correct:    a.Correct,
			Credit:     a.Credit,
			Feedback:   a.Feedback,
			AnsweredAt: fromMillis(a.AnsweredAt),
		}
	}
	return &rec, nil
}

func (r *attemptRepo) QueryAttempts(ctx context.Context, userID, moduleID string, opts QueryOpts) ([]AttemptRecord, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if moduleID != "" {
		where = append(where, "module_id = ?")
		args = append(args, moduleID)
	}
	where, args = opts.filters(where, args, "finished_at")

	q := `SELECT ` + attemptColumns + ` FROM attempt_results WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY sequence DESC` + opts.limit()

	var rows []attemptRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}

	records := make([]AttemptRecord, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}

func (r *attemptRepo) Stats(ctx context.Context, userID string) (AttemptStats, error) {
	var rows []struct {
		Passed     bool    `db:"passed"`
		Percentage float64 `db:"percentage"`
		FinishedAt int64   `db:"finished_at"`
	}
	err := r.db.SelectContext(ctx, &rows,
		r.db.Rebind(`SELECT passed, percentage, finished_at FROM attempt_results WHERE user_id = ?`), userID)
	if err != nil {
		return AttemptStats{}, fmt.Errorf("query attempt stats: %w", err)
	}

	var stats AttemptStats
	days := make(map[string]bool)
	for _, row := range rows {
		stats.Attempts++
		finished := fromMillis(row.FinishedAt)
		if finished.After(stats.LastFinished) {
			stats.LastFinished = finished
		}
		if row.Percentage >= 100 {
			stats.Perfect++
		}
		if row.Passed {
			stats.Passed++
			days[finished.Format("2006-01-02")] = true
		}
	}
	stats.PassingDays = len(days)
	return stats, nil
}

func (row attemptRow) record() AttemptRecord {
	return AttemptRecord{
		Sequence: row.Sequence,
		AttemptData: AttemptData{
			AttemptID:  row.AttemptID,
			UserID:     row.UserID,
			ModuleID:   row.ModuleID,
			Level:      row.Level,
			QuizID:     row.QuizID,
			Score:      row.Score,
			Correct:    row.Correct,
			Total:      row.Total,
			Percentage: row.Percentage,
			Passed:     row.Passed,
			StartedAt:  fromMillis(row.StartedAt),
			FinishedAt: fromMillis(row.FinishedAt),
		},
	}
}

// filters appends the sequence and time bounds of opts to a WHERE clause.
func (opts QueryOpts) filters(where []string, args []any, tsColumn string) ([]string, []any) {
	if opts.After > 0 {
		where = append(where, "sequence > ?")
		args = append(args, opts.After)
	}
	if opts.Before > 0 {
		where = append(where, "sequence < ?")
		args = append(args, opts.Before)
	}
	if !opts.From.IsZero() {
		where = append(where, tsColumn+" >= ?")
		args = append(args, toMillis(opts.From))
	}
	if !opts.To.IsZero() {
		where = append(where, tsColumn+" <= ?")
		args = append(args, toMillis(opts.To))
	}
	return where, args
}

func (opts QueryOpts) limit() string {
	if opts.Limit > 0 {
		return fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	return ""
}
