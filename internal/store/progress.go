package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// progressRepo implements ProgressRepo. Scores only ever go up: the upsert
// keeps the larger of the stored and submitted percentage.
type progressRepo struct {
	db *sqlx.DB
}

func (r *progressRepo) RecordScore(ctx context.Context, userID, moduleID, level string, pct float64) (float64, error) {
	var best float64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO level_progress (user_id, module_id, level, best_score, attempts, updated_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT (user_id, module_id, level) DO UPDATE SET
			best_score = CASE WHEN excluded.best_score > level_progress.best_score
				THEN excluded.best_score ELSE level_progress.best_score END,
			attempts = level_progress.attempts + 1,
			updated_at = excluded.updated_at
		RETURNING best_score`),
		userID, moduleID, level, pct, time.Now().UnixMilli(),
	).Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("record score %s/%s: %w", moduleID, level, err)
	}
	return best, nil
}

type scoreRow struct {
	ModuleID  string  `db:"module_id"`
	Level     string  `db:"level"`
	BestScore float64 `db:"best_score"`
}

func (r *progressRepo) LevelScores(ctx context.Context, userID, moduleID string) (map[string]float64, error) {
	var rows []scoreRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(
		`SELECT module_id, level, best_score FROM level_progress WHERE user_id = ? AND module_id = ?`),
		userID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("query level scores: %w", err)
	}
	scores := make(map[string]float64, len(rows))
	for _, row := range rows {
		scores[row.Level] = row.BestScore
	}
	return scores, nil
}

func (r *progressRepo) AllScores(ctx context.Context, userID string) (map[string]map[string]float64, error) {
	var rows []scoreRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(
		`SELECT module_id, level, best_score FROM level_progress WHERE user_id = ?`), userID)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	scores := make(map[string]map[string]float64)
	for _, row := range rows {
		if scores[row.ModuleID] == nil {
			scores[row.ModuleID] = make(map[string]float64)
		}
		scores[row.ModuleID][row.Level] = row.BestScore
	}
	return scores, nil
}

func (r *progressRepo) MarkCompleted(ctx context.Context, userID, moduleID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO module_completions (user_id, module_id, completed_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, module_id) DO NOTHING`),
		userID, moduleID, toMillis(at))
	if err != nil {
		return false, fmt.Errorf("mark %s completed: %w", moduleID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark %s completed: %w", moduleID, err)
	}
	return n > 0, nil
}

func (r *progressRepo) CompletedModules(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, r.db.Rebind(
		`SELECT module_id FROM module_completions WHERE user_id = ? ORDER BY completed_at, module_id`), userID)
	if err != nil {
		return nil, fmt.Errorf("query completed modules: %w", err)
	}
	return ids, nil
}

func (r *progressRepo) Reset(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"level_progress", "module_completions"} {
		q := "DELETE FROM " + table
		var args []any
		if userID != "" {
			q += " WHERE user_id = ?"
			args = append(args, userID)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(q), args...); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return tx.Commit()
}
