package domain

// TranslationResult is the structured coaching output for one user message.
type TranslationResult struct {
	OriginalText      string `json:"originalText"`
	CorrectedOriginal string `json:"correctedOriginal"`
	TranslatedText    string `json:"translatedText"`
	GrammarNotes      string `json:"grammarNotes"`
	DetectedLanguage  string `json:"detectedLanguage"`
	UsageTips         string `json:"usageTips"`
}

// Message is one entry of a session's log. Messages are immutable once created.
type Message struct {
	ID        MessageID
	Role      Role
	Content   string
	Timestamp Timestamp

	// Translation and Style are only set on assistant messages that carry a
	// successful translation.
	Translation *TranslationResult
	Style       *Style
}

// Session is the metadata record of a conversation thread.
type Session struct {
	ID           SessionID
	Title        string
	LastActivity Timestamp
}

// messageRecord is the stored JSON shape of a Message.
type messageRecord struct {
	ID          string             `json:"id"`
	Role        string             `json:"role"`
	Content     string             `json:"content"`
	Translation *TranslationResult `json:"translation,omitempty"`
	Style       *string            `json:"style,omitempty"`
	Timestamp   int64              `json:"timestamp"`
}

// sessionRecord is the stored JSON shape of a Session.
type sessionRecord struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	LastTimestamp int64  `json:"lastTimestamp"`
}
