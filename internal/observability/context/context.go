// Package context carries request correlation values shared by logging and
// tracing.
package context

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	branchKey
	runIDKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithBranch records the branch a request reports on.
func WithBranch(ctx context.Context, branch string) context.Context {
	return context.WithValue(ctx, branchKey, branch)
}

func BranchFromContext(ctx context.Context) string {
	v, _ := ctx.Value(branchKey).(string)
	return v
}

// WithRunID records the identifier of the report run in progress.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

func RunIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(runIDKey).(string)
	return v
}
