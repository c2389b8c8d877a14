package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type SessionID string
type MessageID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Style is the English register a translation is requested in.
type Style string

const (
	StyleFormal Style = "formal"
	StyleCasual Style = "casual"
)

// Valid reports whether s is one of the two known registers.
func (s Style) Valid() bool {
	return s == StyleFormal || s == StyleCasual
}

// ParseStyle maps user input to a Style, defaulting to casual.
func ParseStyle(s string) Style {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "formal", "f":
		return StyleFormal
	default:
		return StyleCasual
	}
}

type Timestamp = time.Time

// NewSessionID returns a process-wide unique opaque session id.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// NewMessageID returns a process-wide unique opaque message id.
func NewMessageID() MessageID {
	return MessageID(uuid.NewString())
}

// Millis converts t to epoch milliseconds, the storage time format.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds back to a time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
