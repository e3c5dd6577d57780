package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// AnswerData is one stored answer of a finalized attempt.
type AnswerData struct {
	Index      int
	QuestionID string
	Answer     string // chosen option text, or the free-text answer
	Correct    bool
	Credit     float64
	Feedback   string
	AnsweredAt time.Time
}

// AttemptData is a finalized quiz attempt.
type AttemptData struct {
	AttemptID  string
	UserID     string
	ModuleID   string
	Level      string
	QuizID     string
	Score      float64
	Correct    int
	Total      int
	Percentage float64
	Passed     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Answers    []AnswerData
}

// AttemptRecord is a stored attempt with its sequence number.
type AttemptRecord struct {
	AttemptData
	Sequence int64
}

// AttemptStats summarizes a learner's attempt history.
type AttemptStats struct {
	Attempts     int
	Passed       int
	Perfect      int // attempts scoring 100%
	PassingDays  int // distinct UTC days with a passing attempt
	LastFinished time.Time
}

// AttemptRepo stores finalized attempts. Attempts are append-only.
type AttemptRepo interface {
	// SaveAttempt stores the attempt and its answers in one transaction.
	SaveAttempt(ctx context.Context, data AttemptData) (int64, error)

	// GetAttempt returns one attempt with its answers, or nil if unknown.
	GetAttempt(ctx context.Context, attemptID string) (*AttemptRecord, error)

	// QueryAttempts returns a user's attempts, newest first, without answers.
	// An empty moduleID matches every module.
	QueryAttempts(ctx context.Context, userID, moduleID string, opts QueryOpts) ([]AttemptRecord, error)

	// Stats summarizes a user's attempts.
	Stats(ctx context.Context, userID string) (AttemptStats, error)
}

// ProgressRepo persists best level scores and module completions.
type ProgressRepo interface {
	// RecordScore stores max(old, pct) for the level and returns the stored best.
	RecordScore(ctx context.Context, userID, moduleID, level string, pct float64) (float64, error)

	// LevelScores returns level -> best score for one module.
	LevelScores(ctx context.Context, userID, moduleID string) (map[string]float64, error)

	// AllScores returns module -> level -> best score for a user.
	AllScores(ctx context.Context, userID string) (map[string]map[string]float64, error)

	// MarkCompleted records a module completion. It reports whether the
	// completion is new.
	MarkCompleted(ctx context.Context, userID, moduleID string, at time.Time) (bool, error)

	// CompletedModules returns completed module ids in completion order.
	CompletedModules(ctx context.Context, userID string) ([]string, error)

	// Reset deletes a user's progress and completions. An empty userID
	// resets every user.
	Reset(ctx context.Context, userID string) error
}

// BadgeRecord is an earned badge.
type BadgeRecord struct {
	Badge     string
	Sequence  int64
	AwardedAt time.Time
	Seen      bool
}

// BadgeRepo stores badge awards. Each badge is awarded at most once per user.
type BadgeRepo interface {
	// AwardBadge records the badge and reports whether it was newly awarded.
	AwardBadge(ctx context.Context, userID, badge string, at time.Time) (bool, error)

	// Badges returns a user's badges in award order.
	Badges(ctx context.Context, userID string) ([]BadgeRecord, error)

	// MarkSeen clears the new flag on every badge of the user.
	MarkSeen(ctx context.Context, userID string) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// LLMRequestRecord is a stored LLM request event.
type LLMRequestRecord struct {
	LLMRequestEventData
	Sequence  int64
	Timestamp time.Time
}

// LLMUsage aggregates token usage.
type LLMUsage struct {
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMRequests returns LLM request events, newest first.
	QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestRecord, error)

	// LLMUsage sums token usage over every recorded request.
	LLMUsage(ctx context.Context) (LLMUsage, error)
}

// KVRepo is a small string key-value table for client state such as the
// back-end session token.
type KVRepo interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
