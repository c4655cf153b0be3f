package msgcacheperf

import (
	"context"
	"sync"

	"github.com/rs/xid"
)

// SkippedKeyLog collects the keys reported missing during one unit of work, such as
// a page render. It is safe for concurrent use.
type SkippedKeyLog struct {
	id string

	mu     sync.Mutex
	order  []string
	counts map[string]int
}

// NewSkippedKeyLog creates an empty log with a fresh identifier.
func NewSkippedKeyLog() *SkippedKeyLog {
	return &SkippedKeyLog{
		id:     xid.New().String(),
		counts: map[string]int{},
	}
}

// ID identifies the unit of work in log lines.
func (l *SkippedKeyLog) ID() string {
	if l == nil {
		return ""
	}
	return l.id
}

// Record notes that key was skipped. Repeated keys are counted, not duplicated.
func (l *SkippedKeyLog) Record(key string) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.counts == nil {
		l.counts = map[string]int{}
	}
	if _, seen := l.counts[key]; !seen {
		l.order = append(l.order, key)
	}
	l.counts[key]++
}

// Keys returns the distinct skipped keys in first-seen order.
func (l *SkippedKeyLog) Keys() []string {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.order) == 0 {
		return nil
	}
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Count is how many times key was skipped.
func (l *SkippedKeyLog) Count(key string) int {
	if l == nil {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[key]
}

// Len is the number of distinct skipped keys.
func (l *SkippedKeyLog) Len() int {
	if l == nil {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

// OnSkipped makes the log usable directly as a SkipObserver.
func (l *SkippedKeyLog) OnSkipped(_ context.Context, key string) {
	l.Record(key)
}

// ContextSkipObserver records skipped keys into the SkippedKeyLog carried by the
// context. Contexts without a log are ignored.
type ContextSkipObserver struct{}

func (ContextSkipObserver) OnSkipped(ctx context.Context, key string) {
	SkippedLogFromContext(ctx).Record(key)
}
