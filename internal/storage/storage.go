// Package storage provides the durable key-value document store shared by
// every viewer of the same state: one JSON document per key, read and
// written wholesale.
package storage

import (
	"context"
	"errors"
)

// Keys of the tracked durable collections.
const (
	KeyFlows     = "savedTestFlows"
	KeyReports   = "testReports"
	KeyScheduled = "scheduledTests"
	KeyRunning   = "activeRunningTests"
	KeySettings  = "userSettings"
)

// TrackedKeys lists every collection the state coordinator mirrors.
func TrackedKeys() []string {
	return []string{KeyFlows, KeyReports, KeyScheduled, KeyRunning, KeySettings}
}

// ErrNotFound is returned when a key has no stored document yet.
var ErrNotFound = errors.New("not found")

// ErrWatchUnsupported is returned by backends that cannot observe
// out-of-process mutations.
var ErrWatchUnsupported = errors.New("storage: watch not supported")

// Event signals that the document under Key changed outside this process.
type Event struct {
	Key string
}

// Backend stores one JSON document per key. Store replaces the whole
// document; there is no partial-write format.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Store(ctx context.Context, key string, doc []byte) error

	// Watch emits an Event per externally-observed mutation of any key.
	// The channel is closed when ctx is done. Backends without a change
	// signal return ErrWatchUnsupported.
	Watch(ctx context.Context) (<-chan Event, error)

	Close() error
}
