package domain

import (
	"context"
	"encoding/json"
)

// DocumentStore is a path-addressed JSON tree (sessions, chats/{id}/messages, ...).
// Get returns nil, nil for a missing path.
type DocumentStore interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Put(ctx context.Context, path string, value any) error
	Post(ctx context.Context, path string, value any) (string, error)
	Delete(ctx context.Context, path string) error
}

// Tutor generates coaching and practice material.
type Tutor interface {
	Translate(ctx context.Context, text string, style Style) (*TranslationResult, error)
	GenerateQuiz(ctx context.Context, topic string) ([]QuizQuestion, error)
	GenerateVocabularyPairs(ctx context.Context, topic string) ([]VocabularyPair, error)
}

// SpeechSynthesizer turns text into audio using a named voice.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, voice string) (*Audio, error)
}

// ActiveSessionStore keeps the current session id across restarts on one device.
// Load returns "" when nothing was saved.
type ActiveSessionStore interface {
	Load() (SessionID, error)
	Save(id SessionID) error
}
