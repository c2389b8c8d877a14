package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/englishmaster/internal/domain"
)

// Output format of the speech model.
const (
	speechSampleRate = 24000
	speechChannels   = 1
)

type GeminiConfig struct {
	// APIKey selects the Gemini API backend. When empty, Vertex AI is used
	// with Project and Location.
	APIKey   string
	Project  string
	Location string

	Model       string
	SpeechModel string

	// BaseURL overrides the service endpoint (tests, proxies).
	BaseURL string
}

// GeminiClient implements Backend and domain.SpeechSynthesizer with Gemini.
type GeminiClient struct {
	client      *genai.Client
	model       string
	speechModel string
}

// NewGeminiClient creates a client for the Gemini API or Vertex AI.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	}
	if cfg.APIKey != "" {
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	} else {
		if cfg.Project == "" || cfg.Location == "" {
			return nil, fmt.Errorf("gemini needs an API key or a GCP project and location")
		}
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	speechModel := cfg.SpeechModel
	if speechModel == "" {
		speechModel = "gemini-2.5-flash-preview-tts"
	}

	return &GeminiClient{
		client:      client,
		model:       model,
		speechModel: speechModel,
	}, nil
}

// Generate implements Backend using a JSON response schema.
func (g *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	temp := float32(0.7)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       &temp,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    toGenaiSchema(req.Schema),
	}

	contents := []*genai.Content{genai.NewContentFromText(req.User, genai.RoleUser)}

	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

// Synthesize implements domain.SpeechSynthesizer.
func (g *GeminiClient) Synthesize(ctx context.Context, text string, voice string) (*domain.Audio, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	contents := []*genai.Content{genai.NewContentFromText(SpeechPrompt(text), genai.RoleUser)}

	res, err := g.client.Models.GenerateContent(ctx, g.speechModel, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini speech: %w", domain.ErrSpeechFailed, err)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: no audio data received", domain.ErrSpeechFailed)
	}
	for _, part := range res.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return &domain.Audio{
				PCM:        part.InlineData.Data,
				SampleRate: speechSampleRate,
				Channels:   speechChannels,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: no audio data received", domain.ErrSpeechFailed)
}
