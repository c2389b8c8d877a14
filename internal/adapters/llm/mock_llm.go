package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PabloGalante/englishmaster/internal/domain"
)

// MockLLM returns canned, schema-valid payloads. Useful for local mode and tests.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

var mockPhrases = map[string]string{
	"selamat pagi":  "Good morning",
	"selamat siang": "Good afternoon",
	"selamat malam": "Good evening",
	"terima kasih":  "Thank you",
	"apa kabar":     "How are you",
}

func (m *MockLLM) Generate(_ context.Context, req Request) (string, error) {
	var out any
	switch req.SchemaName {
	case translationSchema.name:
		out = mockTranslation(req)
	case quizSchema.name:
		out = mockQuiz()
	case vocabularySchema.name:
		out = mockVocabulary()
	default:
		return "", fmt.Errorf("mock llm: unknown schema %q", req.SchemaName)
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Synthesize returns a short silent clip in the speech model's format.
func (m *MockLLM) Synthesize(_ context.Context, text string, _ string) (*domain.Audio, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrSpeechFailed)
	}
	return &domain.Audio{
		PCM:        make([]byte, speechSampleRate/10*2),
		SampleRate: speechSampleRate,
		Channels:   speechChannels,
	}, nil
}

func mockTranslation(req Request) domain.TranslationResult {
	text := strings.TrimSpace(req.User)
	style := domain.StyleCasual
	if strings.Contains(req.System, "**FORMAL**") {
		style = domain.StyleFormal
	}

	key := strings.ToLower(strings.TrimRight(text, "?!. "))
	translated, ok := mockPhrases[key]
	if !ok {
		translated = fmt.Sprintf("(%s) %s", style, text)
	}

	return domain.TranslationResult{
		OriginalText:      text,
		CorrectedOriginal: text,
		TranslatedText:    translated,
		GrammarNotes:      "Kalimat sederhana tanpa perubahan struktur.",
		DetectedLanguage:  "Indonesian",
		UsageTips:         fmt.Sprintf("Cocok untuk konteks %s.", style),
	}
}

func mockQuiz() []domain.QuizQuestion {
	qs := make([]domain.QuizQuestion, 0, QuizQuestionCount)
	for i := 1; i <= QuizQuestionCount; i++ {
		qs = append(qs, domain.QuizQuestion{
			ID:            i,
			Question:      fmt.Sprintf("She ___ to school every day. (%d)", i),
			Options:       []string{"go", "goes", "going", "gone"},
			CorrectAnswer: "goes",
			Explanation:   "Subjek orang ketiga tunggal memakai kata kerja dengan akhiran -s.",
		})
	}
	return qs
}

func mockVocabulary() []domain.VocabularyPair {
	words := [][2]string{
		{"rumah", "house"},
		{"buku", "book"},
		{"air", "water"},
		{"makan", "eat"},
		{"teman", "friend"},
		{"kantor", "office"},
	}

	pairs := make([]domain.VocabularyPair, 0, len(words))
	for i, w := range words {
		pairs = append(pairs, domain.VocabularyPair{ID: i + 1, Indonesian: w[0], English: w[1]})
	}
	return pairs
}
