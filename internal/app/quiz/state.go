// Package quiz tracks one round of multiple-choice practice.
package quiz

import (
	"context"
	"sync"

	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/observability"
)

// State holds generated questions, the chosen answers and whether the round
// was submitted. The zero value is an empty round.
type State struct {
	mu        sync.Mutex
	questions []domain.QuizQuestion
	answers   map[int]string
	submitted bool
}

func NewState(questions []domain.QuizQuestion) *State {
	s := &State{}
	s.Reset(questions)
	return s
}

// Generate asks the tutor for a fresh round on topic and replaces the current
// one. On failure the current round is left untouched.
func (s *State) Generate(ctx context.Context, tutor domain.Tutor, topic string) error {
	questions, err := tutor.GenerateQuiz(ctx, topic)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to generate quiz", "topic", topic, "error", err)
		return err
	}
	s.Reset(questions)
	return nil
}

// Reset starts a new round with questions.
func (s *State) Reset(questions []domain.QuizQuestion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = append([]domain.QuizQuestion(nil), questions...)
	s.answers = make(map[int]string, len(questions))
	s.submitted = false
}

// Select records option as the answer to question id. It is ignored once
// the round is submitted or when id is unknown.
func (s *State) Select(id int, option string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted || s.index(id) < 0 {
		return false
	}
	s.answers[id] = option
	return true
}

// Submit closes the round. Every question must have an answer.
func (s *State) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.answers) < len(s.questions) {
		return domain.ErrQuizIncomplete
	}
	s.submitted = true
	return nil
}

func (s *State) IsSubmitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// Score counts correct answers. It is meaningful before submission too.
func (s *State) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return score(s.questions, s.answers)
}

func (s *State) Questions() []domain.QuizQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.QuizQuestion(nil), s.questions...)
}

// Answer returns the option chosen for question id, if any.
func (s *State) Answer(id int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[id]
	return a, ok
}

// Grade scores a stateless submission, as sent by an HTTP client.
func Grade(questions []domain.QuizQuestion, answers map[int]string) (*Result, error) {
	st := NewState(questions)
	for id, a := range answers {
		st.Select(id, a)
	}
	if err := st.Submit(); err != nil {
		return nil, err
	}

	res := &Result{Score: st.Score(), Total: len(questions)}
	for _, q := range questions {
		res.Questions = append(res.Questions, GradedQuestion{
			ID:            q.ID,
			Answer:        answers[q.ID],
			CorrectAnswer: q.CorrectAnswer,
			Correct:       answers[q.ID] == q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	return res, nil
}

type Result struct {
	Score     int              `json:"score"`
	Total     int              `json:"total"`
	Questions []GradedQuestion `json:"questions"`
}

type GradedQuestion struct {
	ID            int    `json:"id"`
	Answer        string `json:"answer"`
	CorrectAnswer string `json:"correctAnswer"`
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation"`
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *State) index(id int) int {
	for i, q := range s.questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func score(questions []domain.QuizQuestion, answers map[int]string) int {
	n := 0
	for _, q := range questions {
		if a, ok := answers[q.ID]; ok && a == q.CorrectAnswer {
			n++
		}
	}
	return n
}
