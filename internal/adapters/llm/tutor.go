package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/metrics"
	"github.com/PabloGalante/englishmaster/internal/observability"
)

var (
	translationSchema = mustOutputSchema[domain.TranslationResult]("translation_result")
	quizSchema        = mustOutputSchema[[]domain.QuizQuestion]("quiz_questions")
	vocabularySchema  = mustOutputSchema[[]domain.VocabularyPair]("vocabulary_pairs")
)

// Tutor implements domain.Tutor on top of any Backend. Every call is a single
// request: no retries, and nothing of a bad payload is kept.
type Tutor struct {
	backend Backend
	metrics *metrics.Collector
}

// NewTutor creates a Tutor. m may be nil.
func NewTutor(backend Backend, m *metrics.Collector) *Tutor {
	return &Tutor{backend: backend, metrics: m}
}

func (t *Tutor) Translate(ctx context.Context, text string, style domain.Style) (*domain.TranslationResult, error) {
	p := TranslatePrompt(text, style)

	var out domain.TranslationResult
	if err := t.generate(ctx, metrics.OpTranslate, p, translationSchema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *Tutor) GenerateQuiz(ctx context.Context, topic string) ([]domain.QuizQuestion, error) {
	var out []domain.QuizQuestion
	if err := t.generate(ctx, metrics.OpQuiz, QuizPrompt(topic), quizSchema, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tutor) GenerateVocabularyPairs(ctx context.Context, topic string) ([]domain.VocabularyPair, error) {
	var out []domain.VocabularyPair
	if err := t.generate(ctx, metrics.OpVocabulary, VocabularyPrompt(topic), vocabularySchema, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tutor) generate(ctx context.Context, op string, p Prompt, schema *outputSchema, out any) (err error) {
	log := observability.LoggerFromContext(ctx).With("operation", op)

	done := t.metrics.Track(op)
	defer func() { done(err) }()

	text, err := t.backend.Generate(ctx, Request{
		System:     p.System,
		User:       p.User,
		Schema:     schema.schema,
		SchemaName: schema.name,
	})
	if err != nil {
		log.Error("generation request failed", "error", err)
		return fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}

	if err := schema.decodeInto(text, out); err != nil {
		log.Error("generation returned an unusable payload", "error", err)
		return fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}
	return nil
}
