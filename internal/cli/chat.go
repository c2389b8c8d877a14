package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/englishmaster/internal/app/chat"
	"github.com/PabloGalante/englishmaster/internal/app/speech"
	"github.com/PabloGalante/englishmaster/internal/domain"
)

const chatHelp = `Commands:
  /new            start a new chat
  /sessions       list chats
  /open <n>       switch to chat n
  /delete <n>     delete chat n
  /formal         answer in the formal register
  /casual         answer in the casual register
  /speak          read the last answer aloud
  /stats          show timing statistics
  /help           show this help
  /exit           quit`

type playerFlags struct {
	player string
	out    string
}

func (f *playerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.player, "player", "", `command that plays WAV from stdin, e.g. "aplay -"`)
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "write speech to this WAV file instead of playing it")
}

func (f *playerFlags) build() (speech.Player, string) {
	if f.player != "" {
		fields := strings.Fields(f.player)
		return speech.CommandPlayer{Name: fields[0], Args: fields[1:]}, ""
	}
	path := f.out
	if path == "" {
		path = filepath.Join(os.TempDir(), "englishmaster-speech.wav")
	}
	return speech.FilePlayer{Path: path}, path
}

func newChatCmd(e *env) *cobra.Command {
	var pf playerFlags

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the tutor",
		Long: `Start an interactive chat. Type Indonesian text and get a natural English
translation with grammar notes. The last active chat is resumed.

` + chatHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), e, &pf, cmd.InOrStdin(), out(cmd))
		},
	}
	pf.register(cmd)
	return cmd
}

type repl struct {
	e       *env
	ctl     *chat.Controller
	speaker *speech.Speaker
	outPath string
	style   domain.Style
	w       io.Writer
}

func runChat(ctx context.Context, e *env, pf *playerFlags, in io.Reader, w io.Writer) error {
	ctl := chat.NewController(e.app.Service, e.app.Active)
	ctl.Start(ctx)

	r := &repl{e: e, ctl: ctl, style: e.style(), w: w}
	if e.app.Synth != nil {
		player, path := pf.build()
		r.speaker = speech.NewSpeaker(e.app.Synth, player, e.app.Metrics)
		r.outPath = path
	}
	defer func() {
		if r.speaker != nil {
			r.speaker.Stop()
		}
		ctl.Wait()
	}()

	tutorColor.Fprintln(w, "englishmaster")
	fmt.Fprintf(w, "Register: %s. Type /help for commands, /exit to quit.\n\n", r.style)
	printHistory(w, ctl.Messages())

	scanner := bufio.NewScanner(in)
	for {
		userColor.Fprint(w, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if done := r.command(ctx, line); done {
				return nil
			}
			continue
		}
		r.send(ctx, line)
	}
}

func (r *repl) send(ctx context.Context, text string) {
	if err := r.ctl.Send(ctx, text, r.style); err != nil {
		printError(r.w, err)
		return
	}

	msgs := r.ctl.Messages()
	if n := len(msgs); n > 0 && msgs[n-1].Role == domain.RoleAssistant {
		printMessage(r.w, msgs[n-1])
	}
	fmt.Fprintln(r.w)
}

// command handles a slash command and reports whether the REPL should exit.
func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/exit", "/quit":
		return true

	case "/help":
		fmt.Fprintln(r.w, chatHelp)

	case "/new":
		id := r.ctl.StartNewChat(ctx)
		okColor.Fprintf(r.w, "Started a new chat (%s).\n", id)

	case "/sessions":
		printSessions(r.w, r.ctl.RefreshSessions(ctx), r.ctl.ActiveSessionID())

	case "/open":
		s, err := r.pick(ctx, arg)
		if err != nil {
			printError(r.w, err)
			break
		}
		r.ctl.SelectSession(ctx, s.ID)
		okColor.Fprintf(r.w, "Opened %q.\n", s.Title)
		printHistory(r.w, r.ctl.Messages())

	case "/delete":
		s, err := r.pick(ctx, arg)
		if err != nil {
			printError(r.w, err)
			break
		}
		if err := r.ctl.DeleteSession(ctx, s.ID); err != nil {
			printError(r.w, err)
			break
		}
		okColor.Fprintf(r.w, "Deleted %q.\n", s.Title)

	case "/formal":
		r.style = domain.StyleFormal
		fmt.Fprintln(r.w, "Register: formal.")

	case "/casual":
		r.style = domain.StyleCasual
		fmt.Fprintln(r.w, "Register: casual.")

	case "/speak":
		r.speakLast(ctx)

	case "/stats":
		printStats(r.w, r.e.app.Metrics.Snapshot())

	default:
		printError(r.w, fmt.Errorf("unknown command %s", name))
	}
	return false
}

func (r *repl) pick(ctx context.Context, arg string) (*domain.Session, error) {
	list := r.ctl.RefreshSessions(ctx)
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(list) {
		return nil, fmt.Errorf("pick a chat between 1 and %d", len(list))
	}
	return list[n-1], nil
}

func (r *repl) speakLast(ctx context.Context) {
	if r.speaker == nil {
		printError(r.w, errors.New("speech is not available with the current provider"))
		return
	}

	msgs := r.ctl.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Translation == nil {
			continue
		}
		style := domain.StyleCasual
		if m.Style != nil {
			style = *m.Style
		}
		if err := r.speaker.Speak(ctx, m.Translation.TranslatedText, style); err != nil {
			printError(r.w, err)
			return
		}
		if r.outPath != "" {
			dimColor.Fprintf(r.w, "Saved audio to %s\n", r.outPath)
		}
		return
	}
	printError(r.w, errors.New("nothing to read yet"))
}
