package speech

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/englishmaster/internal/adapters/llm"
	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/metrics"
)

type recordingSynth struct {
	mu     sync.Mutex
	voices []string
}

func (r *recordingSynth) Synthesize(_ context.Context, text string, voice string) (*domain.Audio, error) {
	r.mu.Lock()
	r.voices = append(r.voices, voice)
	r.mu.Unlock()
	return &domain.Audio{PCM: []byte(text), SampleRate: 24000, Channels: 1}, nil
}

// blockingPlayer holds the first clip until its context ends.
type blockingPlayer struct {
	started chan struct{}
	mu      sync.Mutex
	played  [][]byte
	calls   int
}

func (p *blockingPlayer) Play(ctx context.Context, wav []byte) error {
	p.mu.Lock()
	p.calls++
	first := p.calls == 1
	p.mu.Unlock()

	if first {
		close(p.started)
		<-ctx.Done()
		return ctx.Err()
	}

	p.mu.Lock()
	p.played = append(p.played, wav)
	p.mu.Unlock()
	return nil
}

func TestEncodeWAVHeader(t *testing.T) {
	pcm := make([]byte, 480)
	wav := EncodeWAV(&domain.Audio{PCM: pcm, SampleRate: 24000, Channels: 1})

	require.Len(t, wav, 44+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]))
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[32:34]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
}

func TestRenderPicksVoiceByStyle(t *testing.T) {
	synth := &recordingSynth{}
	m := metrics.NewCollector()

	_, err := Render(context.Background(), synth, m, "Good morning", domain.StyleFormal)
	require.NoError(t, err)
	_, err = Render(context.Background(), synth, m, "Good morning", domain.StyleCasual)
	require.NoError(t, err)

	assert.Equal(t, []string{domain.VoiceFormal, domain.VoiceCasual}, synth.voices)

	snap := m.Snapshot()
	require.Len(t, snap.Operations, 1)
	assert.Equal(t, metrics.OpSpeech, snap.Operations[0].Name)
	assert.Equal(t, int64(2), snap.Operations[0].Count)
}

func TestRenderRejectsBlankText(t *testing.T) {
	_, err := Render(context.Background(), &recordingSynth{}, nil, "  ", domain.StyleCasual)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestNewSpeechPreemptsPlayback(t *testing.T) {
	player := &blockingPlayer{started: make(chan struct{})}
	s := NewSpeaker(&recordingSynth{}, player, nil)

	first := make(chan error, 1)
	go func() { first <- s.Speak(context.Background(), "one", domain.StyleCasual) }()
	<-player.started

	require.NoError(t, s.Speak(context.Background(), "two", domain.StyleCasual))
	assert.ErrorIs(t, <-first, ErrInterrupted)

	require.Len(t, player.played, 1)
	assert.Equal(t, "two", string(player.played[0][44:]))
}

func TestStopInterrupts(t *testing.T) {
	player := &blockingPlayer{started: make(chan struct{})}
	s := NewSpeaker(&recordingSynth{}, player, nil)

	res := make(chan error, 1)
	go func() { res <- s.Speak(context.Background(), "one", domain.StyleFormal) }()
	<-player.started

	s.Stop()
	assert.ErrorIs(t, <-res, ErrInterrupted)
}

func TestCallerCancellationIsNotAnInterruption(t *testing.T) {
	player := &blockingPlayer{started: make(chan struct{})}
	s := NewSpeaker(&recordingSynth{}, player, nil)

	ctx, cancel := context.WithCancel(context.Background())
	res := make(chan error, 1)
	go func() { res <- s.Speak(ctx, "one", domain.StyleFormal) }()
	<-player.started

	cancel()
	assert.ErrorIs(t, <-res, context.Canceled)
}

func TestFilePlayerWithMockSynth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "speech.wav")
	s := NewSpeaker(llm.NewMockLLM(), FilePlayer{Path: path}, nil)

	require.NoError(t, s.Speak(context.Background(), "Selamat pagi", domain.StyleCasual))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Greater(t, len(data), 44)
}

func TestSpeechFailureIsReturned(t *testing.T) {
	s := NewSpeaker(llm.NewMockLLM(), FilePlayer{Path: filepath.Join(t.TempDir(), "x.wav")}, nil)
	err := s.Speak(context.Background(), "", domain.StyleCasual)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}
