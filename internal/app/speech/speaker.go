// Package speech reads tutor output aloud. A Speaker owns a single playback
// slot: a new request interrupts the one in progress.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/metrics"
	"github.com/PabloGalante/englishmaster/internal/observability"
)

// ErrInterrupted is returned to a caller whose playback was pre-empted.
var ErrInterrupted = errors.New("playback interrupted")

// Player plays a WAV clip and returns when it is done or ctx is cancelled.
type Player interface {
	Play(ctx context.Context, wav []byte) error
}

// Render synthesizes text with the voice for style and returns it as WAV.
func Render(ctx context.Context, synth domain.SpeechSynthesizer, m *metrics.Collector, text string, style domain.Style) (_ []byte, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}

	done := m.Track(metrics.OpSpeech)
	defer func() { done(err) }()

	audio, err := synth.Synthesize(ctx, text, domain.VoiceFor(style))
	if err != nil {
		return nil, err
	}
	return EncodeWAV(audio), nil
}

type Speaker struct {
	synth   domain.SpeechSynthesizer
	player  Player
	metrics *metrics.Collector

	mu     sync.Mutex
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// NewSpeaker creates a Speaker. m may be nil.
func NewSpeaker(synth domain.SpeechSynthesizer, player Player, m *metrics.Collector) *Speaker {
	return &Speaker{synth: synth, player: player, metrics: m}
}

// Speak cancels any playback in progress, waits for it to release the slot,
// then synthesizes and plays text.
func (s *Speaker) Speak(ctx context.Context, text string, style domain.Style) error {
	log := observability.LoggerFromContext(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel(ErrInterrupted)
	}
	prev := s.done
	ctx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	s.mu.Unlock()

	defer func() {
		cancel(nil)
		s.mu.Lock()
		if s.done == done {
			s.cancel, s.done = nil, nil
		}
		s.mu.Unlock()
		// The slot is only free once every earlier owner has let go.
		if prev != nil {
			<-prev
		}
		close(done)
	}()

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return s.cause(ctx)
		}
	}

	wav, err := Render(ctx, s.synth, s.metrics, text, style)
	if err != nil {
		if ctx.Err() != nil {
			return s.cause(ctx)
		}
		log.Error("speech synthesis failed", "error", err)
		return err
	}

	if err := s.player.Play(ctx, wav); err != nil {
		if ctx.Err() != nil {
			return s.cause(ctx)
		}
		return fmt.Errorf("playing audio: %w", err)
	}
	return nil
}

// Stop interrupts the current playback, if any.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel(ErrInterrupted)
	}
}

// cause tells a pre-emption apart from the caller's own cancellation.
func (s *Speaker) cause(ctx context.Context) error {
	if errors.Is(context.Cause(ctx), ErrInterrupted) {
		return ErrInterrupted
	}
	return ctx.Err()
}

// FilePlayer writes each clip to Path.
type FilePlayer struct {
	Path string
}

func (p FilePlayer) Play(_ context.Context, wav []byte) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.Path, wav, 0o644)
}

// CommandPlayer pipes each clip into an external program such as
// "aplay -" or "ffplay -nodisp -autoexit -". Cancelling ctx kills it.
type CommandPlayer struct {
	Name string
	Args []string
}

func (p CommandPlayer) Play(ctx context.Context, wav []byte) error {
	cmd := exec.CommandContext(ctx, p.Name, p.Args...)
	cmd.Stdin = bytes.NewReader(wav)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", p.Name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
