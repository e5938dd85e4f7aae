package transcribe

import (
	"context"
	"errors"

	"github.com/audioscribe/backend/internal/srt"
)

// Request is the input for one transcription attempt.
type Request struct {
	Audio         []byte // raw audio payload
	MimeType      string // e.g. "audio/mpeg"
	ReferenceText string // optional ground-truth transcript used to correct the output
}

// Transcriber is the common interface for transcription engines.
type Transcriber interface {
	// Transcribe converts audio to time-ordered subtitle segments.
	// A failed attempt is terminal; the engine performs no retries.
	Transcribe(ctx context.Context, req Request) ([]srt.Segment, error)
	// Name returns the engine name.
	Name() string
}

// ErrResponseFormat reports a service reply that parsed as JSON but was not
// the expected top-level array.
var ErrResponseFormat = errors.New("transcription response is not a JSON array")

const unknownErrorMessage = "unknown error occurred"

// Error wraps any failure of a transcription attempt with the best
// human-readable message available from the underlying cause.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return "transcription failed: " + e.Message
	}
	return "transcription failed: " + unknownErrorMessage
}

func (e *Error) Unwrap() error { return e.Err }

// wrapError converts an arbitrary failure into an *Error, preserving
// ErrResponseFormat so callers can still match it with errors.Is.
func wrapError(err error) error {
	if err == nil {
		return &Error{Message: unknownErrorMessage}
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Message: err.Error(), Err: err}
}
