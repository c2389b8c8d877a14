// Package cli provides the command-line interface for englishmaster.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/englishmaster/internal/bootstrap"
	"github.com/PabloGalante/englishmaster/internal/config"
	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/observability"
)

// Version is set at build time.
var Version = "0.1.0"

// env is what every command runs against. It is filled in by the root
// command's PersistentPreRunE.
type env struct {
	app      *bootstrap.App
	closeLog func() error

	formal bool
}

func (e *env) style() domain.Style {
	if e.formal {
		return domain.StyleFormal
	}
	return domain.StyleCasual
}

// NewRootCmd builds the command tree. Use Run to also release what the
// commands opened.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *env) {
	e := &env{}

	root := &cobra.Command{
		Use:   "englishmaster",
		Short: "Indonesian to English tutor",
		Long: `englishmaster translates Indonesian text into natural English, explains the
grammar, and generates quizzes and vocabulary games on any topic.

Chats are stored in the configured backend (memory, rtdb, firestore or
sqlite) and resumed on the next run.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip setup for version and help commands
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			return e.setup(cmd.Context())
		},
	}

	root.PersistentFlags().BoolVarP(&e.formal, "formal", "f", false, "use the formal register")

	root.AddCommand(
		newChatCmd(e),
		newSessionsCmd(e),
		newHistoryCmd(e),
		newDeleteCmd(e),
		newQuizCmd(e),
		newMatchCmd(e),
		newSpeakCmd(e),
		newVersionCmd(),
	)
	return root, e
}

// Execute runs the CLI on the process arguments and standard streams.
func Execute(ctx context.Context) error {
	return Run(ctx, os.Args[1:], os.Stdin, os.Stdout)
}

// Run executes args and then closes the store, waiting for pending writes
// even when the command failed.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	root, e := newRoot()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)

	err := root.ExecuteContext(ctx)
	if cerr := e.teardown(); err == nil {
		err = cerr
	}
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "englishmaster %s\n", Version)
		},
	}
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (e *env) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog := config.SetupQuietLogger(cfg.LogFile, cfg.LogLevel)
	observability.SetLogger(logger)
	e.closeLog = closeLog

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		_ = closeLog()
		return fmt.Errorf("initialize: %w", err)
	}
	e.app = app
	return nil
}

func (e *env) teardown() error {
	var err error
	if e.app != nil {
		err = e.app.Close()
		e.app = nil
	}
	if e.closeLog != nil {
		_ = e.closeLog()
		e.closeLog = nil
	}
	return err
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
