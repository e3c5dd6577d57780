package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type badgeRepo struct {
	db  *sqlx.DB
	seq *sequenceCounter
}

func (r *badgeRepo) AwardBadge(ctx context.Context, userID, badge string, at time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin badge tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists, tx.Rebind(
		`SELECT COUNT(*) FROM badge_events WHERE user_id = ? AND badge = ?`), userID, badge)
	if err != nil {
		return false, fmt.Errorf("check badge %s: %w", badge, err)
	}
	if exists > 0 {
		return false, nil
	}

	seqNum, err := r.seq.Next(ctx, tx)
	if err != nil {
		return false, fmt.Errorf("next sequence: %w", err)
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO badge_events (user_id, badge, sequence, awarded_at, seen) VALUES (?, ?, ?, ?, ?)`),
		userID, badge, seqNum, toMillis(at), false)
	if err != nil {
		return false, fmt.Errorf("save badge %s: %w", badge, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit badge: %w", err)
	}
	return true, nil
}

func (r *badgeRepo) Badges(ctx context.Context, userID string) ([]BadgeRecord, error) {
	var rows []struct {
		Badge     string `db:"badge"`
		Sequence  int64  `db:"sequence"`
		AwardedAt int64  `db:"awarded_at"`
		Seen      bool   `db:"seen"`
	}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(
		`SELECT badge, sequence, awarded_at, seen FROM badge_events WHERE user_id = ? ORDER BY sequence`), userID)
	if err != nil {
		return nil, fmt.Errorf("query badges: %w", err)
	}

	records := make([]BadgeRecord, len(rows))
	for i, row := range rows {
		records[i] = BadgeRecord{
			Badge:     row.Badge,
			Sequence:  row.Sequence,
			AwardedAt: fromMillis(row.AwardedAt),
			Seen:      row.Seen,
		}
	}
	return records, nil
}

func (r *badgeRepo) MarkSeen(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE badge_events SET seen = ? WHERE user_id = ?`), true, userID)
	if err != nil {
		return fmt.Errorf("mark badges seen: %w", err)
	}
	return nil
}
