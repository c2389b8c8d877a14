// Package bootstrap builds the application graph from a Config. Both the
// API server and the CLI start here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/PabloGalante/englishmaster/internal/adapters/llm"
	"github.com/PabloGalante/englishmaster/internal/adapters/statefile"
	firestorestore "github.com/PabloGalante/englishmaster/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/englishmaster/internal/adapters/storage/memory"
	"github.com/PabloGalante/englishmaster/internal/adapters/storage/rtdb"
	sqlitestore "github.com/PabloGalante/englishmaster/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/englishmaster/internal/app/conversation"
	"github.com/PabloGalante/englishmaster/internal/app/messages"
	"github.com/PabloGalante/englishmaster/internal/app/remote"
	"github.com/PabloGalante/englishmaster/internal/app/sessions"
	"github.com/PabloGalante/englishmaster/internal/config"
	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/metrics"
	"github.com/PabloGalante/englishmaster/internal/observability"
)

type App struct {
	Config  *config.Config
	Metrics *metrics.Collector
	Store   domain.DocumentStore
	Tutor   domain.Tutor
	// Synth is nil when no provider can synthesize speech.
	Synth   domain.SpeechSynthesizer
	Service *conversation.Service
	Active  domain.ActiveSessionStore

	closers []io.Closer
}

// New wires every component. Call Close when done.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.NewCollector()}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = store

	backend, synth, err := newBackend(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Tutor = llm.NewTutor(backend, a.Metrics)
	a.Synth = synth

	client := remote.NewClient(store, a.Metrics)
	a.Service = conversation.NewService(a.Tutor, sessions.NewDirectory(client), messages.NewLog(client))

	if cfg.StateFile != "" {
		a.Active = statefile.New(cfg.StateFile)
	} else {
		a.Active = statefile.NewMemory()
	}
	return a, nil
}

// Close waits for pending log writes, then releases the store.
func (a *App) Close() error {
	if a.Service != nil {
		a.Service.Wait()
	}

	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (a *App) openStore(ctx context.Context) (domain.DocumentStore, error) {
	cfg := a.Config
	log := observability.WithFields("component", "bootstrap")

	switch cfg.StorageBackend {
	case config.StorageRTDB:
		log.Info("using rtdb storage", "url", cfg.RTDBURL)
		return rtdb.NewStore(cfg.RTDBURL, cfg.RTDBAuth, cfg.StoreTimeout)

	case config.StorageFirestore:
		log.Info("using firestore storage", "project", cfg.GCPProjectID)
		fs, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, fmt.Errorf("initializing firestore store: %w", err)
		}
		a.closers = append(a.closers, fs)
		return fs, nil

	case config.StorageSQLite:
		log.Info("using sqlite storage", "path", cfg.SQLitePath)
		db, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("initializing sqlite store: %w", err)
		}
		a.closers = append(a.closers, db)
		return db, nil

	default:
		log.Info("using in-memory storage")
		return memstore.NewStore(), nil
	}
}

func newBackend(ctx context.Context, cfg *config.Config) (llm.Backend, domain.SpeechSynthesizer, error) {
	log := observability.WithFields("component", "bootstrap")

	switch cfg.LLMProvider {
	case config.ProviderMock:
		log.Info("using mock LLM")
		mock := llm.NewMockLLM()
		return mock, mock, nil

	case config.ProviderOpenAI:
		log.Info("using openai LLM", "model", cfg.OpenAIModel)
		backend := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)

		// Speech still needs Gemini; go without it when there are no credentials.
		if cfg.GeminiAPIKey == "" && cfg.GCPProjectID == "" {
			log.Warn("speech disabled: no gemini credentials")
			return backend, nil, nil
		}
		gemini, err := llm.NewGeminiClient(ctx, geminiConfig(cfg))
		if err != nil {
			return nil, nil, fmt.Errorf("initializing gemini speech client: %w", err)
		}
		return backend, gemini, nil

	default:
		log.Info("using gemini LLM", "model", cfg.ModelName)
		gemini, err := llm.NewGeminiClient(ctx, geminiConfig(cfg))
		if err != nil {
			return nil, nil, fmt.Errorf("initializing gemini client: %w", err)
		}
		return gemini, gemini, nil
	}
}

func geminiConfig(cfg *config.Config) llm.GeminiConfig {
	return llm.GeminiConfig{
		APIKey:      cfg.GeminiAPIKey,
		Project:     cfg.GCPProjectID,
		Location:    cfg.GCPLocation,
		Model:       cfg.ModelName,
		SpeechModel: cfg.TTSModel,
	}
}
