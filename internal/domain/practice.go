package domain

// QuizQuestion is one multiple-choice practice question.
type QuizQuestion struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// VocabularyPair links an Indonesian word or phrase to its English equivalent.
type VocabularyPair struct {
	ID         int    `json:"id"`
	Indonesian string `json:"indonesian"`
	English    string `json:"english"`
}

// Audio is raw little-endian 16-bit PCM.
type Audio struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Voice names used for each register.
const (
	VoiceFormal = "Kore"
	VoiceCasual = "Zephyr"
)

// VoiceFor returns the speech voice for a register.
func VoiceFor(style Style) string {
	if style == StyleFormal {
		return VoiceFormal
	}
	return VoiceCasual
}
