package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/englishmaster/internal/domain"
)

func TestOpenAIClientUnwrapsArrays(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))

		content := `{"items":[{"id":1,"indonesian":"rumah","english":"house"}]}`
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content, "refusal": ""},
			}},
		})
	}))
	defer srv.Close()

	client := NewOpenAIClient("sk-test", srv.URL+"/", "", option.WithMaxRetries(0))
	tutor := NewTutor(client, nil)

	pairs, err := tutor.GenerateVocabularyPairs(context.Background(), "rumah")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "house", pairs[0].English)

	format, _ := body["response_format"].(map[string]any)
	require.NotNil(t, format)
	assert.Equal(t, "json_schema", format["type"])
}

func TestOpenAIClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	tutor := NewTutor(NewOpenAIClient("sk-test", srv.URL+"/", "", option.WithMaxRetries(0)), nil)

	_, err := tutor.Translate(context.Background(), "halo", domain.StyleCasual)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func newFakeGemini(t *testing.T, handle func(model string, req map[string]any) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// .../models/{model}:generateContent
		path := r.URL.Path
		model := path[strings.LastIndex(path, "/")+1:]
		model = strings.TrimSuffix(model, ":generateContent")

		var req map[string]any
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &req))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handle(model, req))
	}))
}

func candidate(part map[string]any) map[string]any {
	return map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"role": "model", "parts": []any{part}},
		}},
	}
}

func TestGeminiClientGenerate(t *testing.T) {
	srv := newFakeGemini(t, func(model string, req map[string]any) any {
		assert.Equal(t, "gemini-2.5-flash", model)
		cfg, _ := req["generationConfig"].(map[string]any)
		assert.Equal(t, "application/json", cfg["responseMimeType"])
		assert.NotNil(t, cfg["responseSchema"])
		return candidate(map[string]any{"text": `{"originalText":"Apa kabar?","correctedOriginal":"Apa kabar?","translatedText":"How are you?","grammarNotes":"-","detectedLanguage":"Indonesian","usageTips":"-"}`})
	})
	defer srv.Close()

	client, err := NewGeminiClient(context.Background(), GeminiConfig{APIKey: "test", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	res, err := NewTutor(client, nil).Translate(context.Background(), "Apa kabar?", domain.StyleCasual)
	require.NoError(t, err)
	assert.Equal(t, "How are you?", res.TranslatedText)
}

func TestGeminiClientSynthesize(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0}
	srv := newFakeGemini(t, func(model string, req map[string]any) any {
		assert.Equal(t, "gemini-2.5-flash-preview-tts", model)
		return candidate(map[string]any{
			"inlineData": map[string]any{
				"mimeType": "audio/L16;codec=pcm;rate=24000",
				"data":     base64.StdEncoding.EncodeToString(pcm),
			},
		})
	})
	defer srv.Close()

	client, err := NewGeminiClient(context.Background(), GeminiConfig{APIKey: "test", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	audio, err := client.Synthesize(context.Background(), "Good morning", domain.VoiceFormal)
	require.NoError(t, err)
	assert.Equal(t, pcm, audio.PCM)
	assert.Equal(t, 24000, audio.SampleRate)
	assert.Equal(t, 1, audio.Channels)
}

func TestGeminiClientSynthesizeWithoutAudio(t *testing.T) {
	srv := newFakeGemini(t, func(string, map[string]any) any {
		return candidate(map[string]any{"text": "no audio here"})
	})
	defer srv.Close()

	client, err := NewGeminiClient(context.Background(), GeminiConfig{APIKey: "test", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "Good morning", domain.VoiceCasual)
	assert.ErrorIs(t, err, domain.ErrSpeechFailed)
}

func TestNewGeminiClientNeedsCredentials(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}
