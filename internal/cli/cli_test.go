package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sandbox runs every command against a mock tutor and a throwaway SQLite file.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("HOME", dir)
	t.Setenv("ENGLISHMASTER_CONFIG", "")
	t.Setenv("ENGLISHMASTER_MODE", "local")
	t.Setenv("ENGLISHMASTER_LLM_PROVIDER", "mock")
	t.Setenv("ENGLISHMASTER_STORAGE_BACKEND", "sqlite")
	t.Setenv("ENGLISHMASTER_SQLITE_PATH", filepath.Join(dir, "em.db"))
	t.Setenv("ENGLISHMASTER_STATE_FILE", filepath.Join(dir, "state.yaml"))
	t.Setenv("ENGLISHMASTER_LOG_FILE", filepath.Join(dir, "em.log"))

	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := Run(context.Background(), args, strings.NewReader(stdin), &buf)
	return buf.String(), err
}

var idPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "englishmaster "+Version)
}

func TestChatPersistsAcrossRuns(t *testing.T) {
	sandbox(t)

	out, err := run(t, "Selamat pagi\n/exit\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Tutor [casual]: Good morning")

	// The next run resumes the same chat.
	out, err = run(t, "/exit\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "You: Selamat pagi")

	out, err = run(t, "", "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "* ")
	assert.Contains(t, out, "1. Selamat pagi")

	id := idPattern.FindString(out)
	require.NotEmpty(t, id)

	out, err = run(t, "", "history", id)
	require.NoError(t, err)
	assert.Contains(t, out, "You: Selamat pagi")
	assert.Contains(t, out, "Good morning")

	out, err = run(t, "", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+id)

	out, err = run(t, "", "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions yet.")
}

func TestChatCommands(t *testing.T) {
	sandbox(t)

	script := strings.Join([]string{
		"/formal",
		"Terima kasih",
		"/new",
		"   ",
		"Apa kabar?",
		"/sessions",
		"/open 9",
		"/open 2",
		"/stats",
		"/bogus",
		"/exit",
	}, "\n") + "\n"

	out, err := run(t, script, "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "Tutor [formal]: Thank you")
	assert.Contains(t, out, "Started a new chat")
	assert.Contains(t, out, "Tutor [formal]: How are you")
	assert.Contains(t, out, "2. ")
	assert.Contains(t, out, "pick a chat between 1 and 2")
	assert.Regexp(t, `Opened "(Terima kasih|Apa kabar\?)"\.`, out)
	assert.Contains(t, out, "llm_translate")
	assert.Contains(t, out, "unknown command /bogus")
}

func TestChatSpeakWritesFile(t *testing.T) {
	dir := sandbox(t)
	wav := filepath.Join(dir, "last.wav")

	out, err := run(t, "/speak\nSelamat malam\n/speak\n/exit\n", "chat", "--out", wav)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to read yet")
	assert.Contains(t, out, "Saved audio to "+wav)

	data, err := os.ReadFile(wav)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
}

func TestQuiz(t *testing.T) {
	sandbox(t)

	// The mock quiz always expects "goes", option B.
	out, err := run(t, "z\nb\nB\n2\nb\na\n", "quiz", "present", "simple")
	require.NoError(t, err)

	assert.Contains(t, out, "choose one of A-D")
	assert.Contains(t, out, "Score: 4/5")
	assert.Contains(t, out, "5. go, correct answer: goes")
}

func TestQuizAbortedInput(t *testing.T) {
	sandbox(t)

	_, err := run(t, "b\n", "quiz")
	assert.ErrorIs(t, err, errAborted)
}

func TestMatch(t *testing.T) {
	sandbox(t)

	script := strings.Join([]string{
		"rumah book",
		"nonsense",
		"rumah house",
		"buku book",
		"air water",
		"makan eat",
		"teman friend",
		"kantor office",
	}, "\n") + "\n"

	out, err := run(t, script, "match")
	require.NoError(t, err)
	assert.Contains(t, out, "Not a match, try again.")
	assert.Contains(t, out, `enter a pair like "1 a" or a single card`)
	assert.Contains(t, out, "Correct!")
	assert.Contains(t, out, "All matched! 6/6")
}

func TestMatchSingleCardSelection(t *testing.T) {
	sandbox(t)

	script := strings.Join([]string{
		"rumah",
		"house",
		"water",
		"air water",
		"buku",
		"buku book",
		"makan eat",
		"teman friend",
		"kantor office",
		"rumah",
	}, "\n") + "\n"

	out, err := run(t, script, "match")
	require.NoError(t, err)
	assert.Contains(t, out, "Selected rumah, now pick its match.")
	assert.Regexp(t, `>  \d\. rumah`, out)
	assert.Contains(t, out, "Selected water, now pick its match.")
	assert.Regexp(t, `>  [a-f]\) water`, out)
	assert.NotContains(t, out, "Not a match")
	assert.Contains(t, out, "All matched! 6/6")
}

func TestSpeak(t *testing.T) {
	dir := sandbox(t)
	wav := filepath.Join(dir, "hello.wav")

	out, err := run(t, "", "speak", "--formal", "-o", wav, "Good", "morning")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved audio to "+wav)

	_, err = os.Stat(wav)
	assert.NoError(t, err)
}

func TestOptionIndex(t *testing.T) {
	assert.Equal(t, 0, optionIndex("a", 4))
	assert.Equal(t, 3, optionIndex(" D ", 4))
	assert.Equal(t, 1, optionIndex("2", 4))
	assert.Equal(t, -1, optionIndex("e", 4))
	assert.Equal(t, -1, optionIndex("0", 4))
	assert.Equal(t, -1, optionIndex("", 4))
}
