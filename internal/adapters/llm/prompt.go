package llm

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/englishmaster/internal/domain"
)

const (
	// QuizQuestionCount is how many questions one quiz holds.
	QuizQuestionCount = 5
	// VocabularyPairCount is how many pairs one matching board holds.
	VocabularyPairCount = 6

	defaultQuizTopic       = "General English Grammar and Vocabulary"
	defaultVocabularyTopic = "Everyday Life"
)

const translateSystemPrompt = `
You are an expert English Language Coach for Indonesians.
Your goal is to translate Indonesian text into English specifically in a **%s** style.

Strict rules:
1. Detect if the Indonesian input has errors and provide "correctedOriginal" (the input unchanged if it is already correct).
2. Translate to English using %s.
3. "grammarNotes": explain, in Indonesian, the grammatical structure used in the translation.
4. "usageTips": explain, in Indonesian, why this wording suits a %s context compared to the other style.
5. "detectedLanguage": the language of the input, e.g. "Indonesian".
6. Always return valid JSON matching the response schema. Every field is required.
`

const formalRegister = "academic, professional, and sophisticated vocabulary"
const casualRegister = "natural, conversational, and everyday spoken English (including common idioms)"

const quizSystemPrompt = `
You write English practice material for Indonesian learners (intermediate level).
Always return valid JSON matching the response schema. Every field is required.
`

const quizUserPrompt = `Generate %d high-quality multiple choice questions for learning English (Intermediate level).
SPECIFIC TOPIC: %s.
Each question must have 4 options, a "correctAnswer" equal to one of the options, and a clear explanation in Indonesian.
Number the questions with "id" starting at 1.`

const vocabularyUserPrompt = `Generate %d vocabulary pairs for an Indonesian learner of English.
SPECIFIC TOPIC: %s.
Each pair has an Indonesian word or short phrase and its most natural English equivalent.
Every Indonesian entry and every English entry must be distinct. Number the pairs with "id" starting at 1.`

// Prompt represents the system prompt + the content to send as "user".
type Prompt struct {
	System string
	User   string
}

// TranslatePrompt builds the coaching prompt for one user message.
func TranslatePrompt(text string, style domain.Style) Prompt {
	register := casualRegister
	if style == domain.StyleFormal {
		register = formalRegister
	}

	return Prompt{
		System: fmt.Sprintf(translateSystemPrompt, strings.ToUpper(string(style)), register, style),
		User:   text,
	}
}

// QuizPrompt builds the quiz generation prompt; a blank topic falls back to a general one.
func QuizPrompt(topic string) Prompt {
	return Prompt{
		System: quizSystemPrompt,
		User:   fmt.Sprintf(quizUserPrompt, QuizQuestionCount, topicOr(topic, defaultQuizTopic)),
	}
}

// VocabularyPrompt builds the matching-board generation prompt.
func VocabularyPrompt(topic string) Prompt {
	return Prompt{
		System: quizSystemPrompt,
		User:   fmt.Sprintf(vocabularyUserPrompt, VocabularyPairCount, topicOr(topic, defaultVocabularyTopic)),
	}
}

// SpeechPrompt wraps text for the speech model.
func SpeechPrompt(text string) string {
	return "Say naturally and clearly: " + text
}

func topicOr(topic, def string) string {
	if t := strings.TrimSpace(topic); t != "" {
		return t
	}
	return def
}
