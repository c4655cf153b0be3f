package msgcacheperf

import "context"

type contextKey string

func (c contextKey) String() string {
	return "msgcacheperf/" + string(c)
}

const ctxKeySkippedLog = contextKey("skippedKeyLog")

// SkippedLogToContext attaches the skipped key log of the current unit of work.
func SkippedLogToContext(ctx context.Context, log *SkippedKeyLog) context.Context {
	return context.WithValue(ctx, ctxKeySkippedLog, log)
}

// SkippedLogFromContext returns the log attached to ctx, or nil.
func SkippedLogFromContext(ctx context.Context) *SkippedKeyLog {
	log, ok := ctx.Value(ctxKeySkippedLog).(*SkippedKeyLog)
	if !ok {
		return nil
	}
	return log
}
