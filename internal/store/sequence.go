package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
)

// sequenceCounter hands out the global monotonic sequence shared by every
// append-only table (attempts, badge events, LLM requests), so rows can be
// ordered across tables.
//
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level. Next takes the querier so callers
// inside a transaction draw the number on the same connection.
type sequenceCounter struct {
	mu sync.Mutex
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context, q sqlx.QueryerContext) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := q.QueryRowxContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
