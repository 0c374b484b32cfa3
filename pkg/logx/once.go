// Package logx adds once-per-key deduplication on top of log/slog. A run with
// thousands of tasks hitting the same missing-field condition reports it a
// single time; the per-task correction still happens at the call site.
package logx

import (
	"log/slog"
	"sync"
)

// Once wraps a slog.Logger and suppresses repeated messages sharing a
// deduplication key. Safe for concurrent use.
type Once struct {
	mu   sync.Mutex
	seen map[string]struct{}
	log  *slog.Logger
}

// New returns a deduplicating wrapper. A nil logger uses slog.Default.
func New(log *slog.Logger) *Once {
	if log == nil {
		log = slog.Default()
	}
	return &Once{seen: make(map[string]struct{}), log: log}
}

// Warn logs msg with args at warning level the first time key is seen and
// reports whether it logged.
func (o *Once) Warn(key, msg string, args ...any) bool {
	if !o.first(key) {
		return false
	}
	o.log.Warn(msg, args...)
	return true
}

// Error logs msg with args at error level the first time key is seen and
// reports whether it logged.
func (o *Once) Error(key, msg string, args ...any) bool {
	if !o.first(key) {
		return false
	}
	o.log.Error(msg, args...)
	return true
}

// Seen reports whether key has already been logged.
func (o *Once) Seen(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.seen[key]
	return ok
}

func (o *Once) first(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.seen[key]; ok {
		return false
	}
	o.seen[key] = struct{}{}
	return true
}
