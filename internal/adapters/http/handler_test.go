package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/PabloGalante/englishmaster/internal/adapters/http"
	"github.com/PabloGalante/englishmaster/internal/adapters/llm"
	"github.com/PabloGalante/englishmaster/internal/adapters/storage/memory"
	"github.com/PabloGalante/englishmaster/internal/app/conversation"
	"github.com/PabloGalante/englishmaster/internal/app/messages"
	"github.com/PabloGalante/englishmaster/internal/app/remote"
	"github.com/PabloGalante/englishmaster/internal/app/sessions"
	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/metrics"
)

type testServer struct {
	http.Handler
	svc *conversation.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	m := metrics.NewCollector()
	mock := llm.NewMockLLM()
	tutor := llm.NewTutor(mock, m)
	client := remote.NewClient(memory.NewStore(), m)
	svc := conversation.NewService(tutor, sessions.NewDirectory(client), messages.NewLog(client))

	return &testServer{Handler: httpadapter.NewServer(svc, tutor, mock, m), svc: svc}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	w := srv.do(t, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, r)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestConversationFlow(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[map[string]string](t, w)["id"]
	require.NotEmpty(t, id)

	w = srv.do(t, http.MethodPost, "/sessions/"+id+"/messages", `{"text":"Selamat pagi","style":"formal"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	sent := decode[struct {
		UserMessage struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"user_message"`
		AssistantMessage struct {
			Role        string                    `json:"role"`
			Style       string                    `json:"style"`
			Translation *domain.TranslationResult `json:"translation"`
		} `json:"assistant_message"`
		Session *struct {
			Title string `json:"title"`
		} `json:"session"`
	}](t, w)
	assert.Equal(t, "user", sent.UserMessage.Role)
	assert.Equal(t, "assistant", sent.AssistantMessage.Role)
	assert.Equal(t, "formal", sent.AssistantMessage.Style)
	require.NotNil(t, sent.AssistantMessage.Translation)
	assert.Equal(t, "Good morning", sent.AssistantMessage.Translation.TranslatedText)
	require.NotNil(t, sent.Session)
	assert.Equal(t, "Selamat pagi", sent.Session.Title)

	srv.svc.Wait()

	w = srv.do(t, http.MethodGet, "/sessions/"+id+"/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 2)

	w = srv.do(t, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]map[string]any](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])

	w = srv.do(t, http.MethodDelete, "/sessions/"+id, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodGet, "/sessions", "")
	assert.Empty(t, decode[[]map[string]any](t, w))
	w = srv.do(t, http.MethodGet, "/sessions/"+id+"/messages", "")
	assert.Empty(t, decode[[]map[string]any](t, w))
}

func TestSendMessageValidation(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/sessions/abc/messages", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, "/sessions/abc/messages", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPut, "/sessions/abc/messages", `{"text":"halo"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestQuizAndGrade(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/quiz", `{"topic":"daily routine"}`)
	require.Equal(t, http.StatusOK, w.Code)
	questions := decode[[]domain.QuizQuestion](t, w)
	require.Len(t, questions, llm.QuizQuestionCount)

	answers := map[int]string{}
	for _, q := range questions {
		answers[q.ID] = q.CorrectAnswer
	}
	body, err := json.Marshal(map[string]any{"questions": questions, "answers": answers})
	require.NoError(t, err)

	w = srv.do(t, http.MethodPost, "/quiz/grade", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[map[string]any](t, w)
	assert.EqualValues(t, llm.QuizQuestionCount, res["score"])

	body, err = json.Marshal(map[string]any{"questions": questions, "answers": map[int]string{}})
	require.NoError(t, err)
	w = srv.do(t, http.MethodPost, "/quiz/grade", string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVocabulary(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/vocabulary", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.VocabularyPair](t, w), llm.VocabularyPairCount)
}

func TestSpeech(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/speech", `{"text":"Good morning","style":"casual"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
	assert.Equal(t, "RIFF", w.Body.String()[:4])

	w = srv.do(t, http.MethodPost, "/speech", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStats(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodPost, "/vocabulary", `{}`)

	w := srv.do(t, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	snap := decode[metrics.Snapshot](t, w)
	var names []string
	for _, op := range snap.Operations {
		names = append(names, op.Name)
	}
	assert.Contains(t, names, metrics.OpVocabulary)
}

type undeletableStore struct {
	domain.DocumentStore
}

func (undeletableStore) Delete(context.Context, string) error {
	return &domain.StoreError{Op: "delete", Err: errors.New("permission denied")}
}

func TestDeleteSessionStoreFailure(t *testing.T) {
	m := metrics.NewCollector()
	mock := llm.NewMockLLM()
	tutor := llm.NewTutor(mock, m)
	client := remote.NewClient(undeletableStore{memory.NewStore()}, m)
	svc := conversation.NewService(tutor, sessions.NewDirectory(client), messages.NewLog(client))
	srv := &testServer{Handler: httpadapter.NewServer(svc, tutor, mock, m), svc: svc}

	w := srv.do(t, http.MethodDelete, "/sessions/abc", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "storage is unavailable", decode[map[string]string](t, w)["error"])
}
