package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/PabloGalante/englishmaster/internal/app/conversation"
	"github.com/PabloGalante/englishmaster/internal/app/quiz"
	"github.com/PabloGalante/englishmaster/internal/app/speech"
	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/metrics"
	"github.com/PabloGalante/englishmaster/internal/observability"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

type Server struct {
	svc     *conversation.Service
	tutor   domain.Tutor
	synth   domain.SpeechSynthesizer
	metrics *metrics.Collector
}

// NewServer wires the routes. synth and m may be nil; /speech then answers 501.
func NewServer(svc *conversation.Service, tutor domain.Tutor, synth domain.SpeechSynthesizer, m *metrics.Collector) http.Handler {
	s := &Server{svc: svc, tutor: tutor, synth: synth, metrics: m}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /stats", s.handleStats)

	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /sessions/{id}/messages", s.handleHistory)
	mux.HandleFunc("POST /sessions/{id}/messages", s.handleSendMessage)

	mux.HandleFunc("POST /quiz", s.handleQuiz)
	mux.HandleFunc("POST /quiz/grade", s.handleGradeQuiz)
	mux.HandleFunc("POST /vocabulary", s.handleVocabulary)
	mux.HandleFunc("POST /speech", s.handleSpeech)

	return chainMiddlewares(mux, withLogging, withRequestID, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type sessionResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LastActivity time.Time `json:"last_activity"`
}

type messageResponse struct {
	ID          string                    `json:"id"`
	Role        string                    `json:"role"`
	Content     string                    `json:"content"`
	Translation *domain.TranslationResult `json:"translation,omitempty"`
	Style       string                    `json:"style,omitempty"`
	Timestamp   time.Time                 `json:"timestamp"`
}

type createSessionResponse struct {
	ID string `json:"id"`
}

type sendMessageRequest struct {
	Text  string `json:"text"`
	Style string `json:"style"`
}

type sendMessageResponse struct {
	UserMessage      messageResponse  `json:"user_message"`
	AssistantMessage messageResponse  `json:"assistant_message"`
	Session          *sessionResponse `json:"session,omitempty"`
}

type topicRequest struct {
	Topic string `json:"topic"`
}

type gradeRequest struct {
	Questions []domain.QuizQuestion `json:"questions"`
	Answers   map[int]string        `json:"answers"`
}

type speechRequest struct {
	Text  string `json:"text"`
	Style string `json:"style"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSessionsResponse(s.svc.ListSessions(r.Context())))
}

// handleCreateSession only mints an id: the session record is written with
// its first message.
func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, createSessionResponse{ID: string(domain.NewSessionID())})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteSession(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toMessagesResponse(s.svc.History(r.Context(), id)))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := observability.WithSessionID(r.Context(), string(id))
	out, err := s.svc.SendMessage(ctx, conversation.SendMessageInput{
		SessionID: id,
		Text:      req.Text,
		Style:     domain.ParseStyle(req.Style),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := sendMessageResponse{
		UserMessage:      toMessageResponse(out.UserMessage),
		AssistantMessage: toMessageResponse(out.AssistantMessage),
	}
	if out.Session != nil {
		sr := toSessionResponse(out.Session)
		resp.Session = &sr
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	questions, err := s.tutor.GenerateQuiz(r.Context(), req.Topic)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) handleGradeQuiz(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := quiz.Grade(req.Questions, req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleVocabulary(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pairs, err := s.tutor.GenerateVocabularyPairs(r.Context(), req.Topic)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pairs)
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	if s.synth == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "speech is not configured"})
		return
	}

	var req speechRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wav, err := speech.Render(r.Context(), s.synth, s.metrics, req.Text, domain.ParseStyle(req.Style))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		ID:           string(s.ID),
		Title:        s.Title,
		LastActivity: s.LastActivity,
	}
}

func toSessionsResponse(list []*domain.Session) []sessionResponse {
	out := make([]sessionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSessionResponse(s))
	}
	return out
}

func toMessageResponse(m *domain.Message) messageResponse {
	resp := messageResponse{
		ID:          string(m.ID),
		Role:        string(m.Role),
		Content:     m.Content,
		Translation: m.Translation,
		Timestamp:   m.Timestamp,
	}
	if m.Style != nil {
		resp.Style = string(*m.Style)
	}
	return resp
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func sessionID(w http.ResponseWriter, r *http.Request) (domain.SessionID, bool) {
	id := r.PathValue("id")
	if id == "" {
		badRequest(w, "session id is required")
		return "", false
	}
	return domain.SessionID(id), true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var storeErr *domain.StoreError
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		badRequest(w, "text is required")
	case errors.Is(err, domain.ErrQuizIncomplete):
		badRequest(w, err.Error())
	case errors.Is(err, domain.ErrGenerationFailed), errors.Is(err, domain.ErrSpeechFailed):
		observability.LoggerFromContext(r.Context()).Error("upstream failure", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	case errors.As(err, &storeErr):
		observability.LoggerFromContext(r.Context()).Error("store failure", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "storage is unavailable"})
	default:
		internalError(w, r, err)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("internal error", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
