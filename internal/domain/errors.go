package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a message is blank.
	ErrEmptyInput = errors.New("input is empty")

	// ErrSendInFlight is returned when a send is requested while another one is pending.
	ErrSendInFlight = errors.New("a message is already being sent")

	// ErrNotReady is returned when a send is requested before the active
	// session's history has loaded.
	ErrNotReady = errors.New("chat is not ready")

	// ErrQuizIncomplete is returned when a quiz is submitted with unanswered questions.
	ErrQuizIncomplete = errors.New("all questions must be answered")

	// ErrGenerationFailed wraps every failure of the generation backend.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrSpeechFailed wraps every failure of the speech backend.
	ErrSpeechFailed = errors.New("speech synthesis failed")

	// ErrInvalidPath is returned by stores for empty or malformed paths.
	ErrInvalidPath = errors.New("invalid store path")
)

// StoreError represents a failed document store operation.
type StoreError struct {
	Op   string // "get", "put", "post", "delete"
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
