package llm

import "context"

// Purposes recorded with every request.
const (
	PurposeModuleContent = "module-content"
	PurposeQuiz          = "quiz"
)

type purposeKey struct{}

// WithPurpose labels the requests made with ctx.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
