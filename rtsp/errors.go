package rtsp

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned by element operations before the executor has
// delivered a live handle. The handle arrives asynchronously once the
// pipeline is instantiated, so this is a transient condition callers
// retry through, not a failure.
var ErrNotReady = errors.New("pipeline element not ready")

// ErrNoKeyFrame is returned by ReplayLastKeyFrame when no key frame has
// been seen on the stream yet.
var ErrNoKeyFrame = errors.New("no key frame retained")

// WriteError reports a failed raw-byte write to an injection point.
// It ends the ingestion session for the stream; the server itself keeps
// running and a reconnect builds a fresh sink.
type WriteError struct {
	Kind string // "video" or "audio"
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s payload: %v", e.Kind, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
