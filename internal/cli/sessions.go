package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/englishmaster/internal/domain"
)

func newSessionsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List chats, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			active, err := e.app.Active.Load()
			if err != nil {
				return fmt.Errorf("load active session: %w", err)
			}
			printSessions(out(cmd), e.app.Service.ListSessions(cmd.Context()), active)
			return nil
		},
	}
}

func newHistoryCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "history <session-id>",
		Short: "Print the messages of a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs := e.app.Service.History(cmd.Context(), domain.SessionID(args[0]))
			if len(msgs) == 0 {
				fmt.Fprintln(out(cmd), "No messages.")
				return nil
			}
			printHistory(out(cmd), msgs)
			return nil
		},
	}
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a chat and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.SessionID(args[0])
			err := e.app.Service.DeleteSession(cmd.Context(), id)

			// A deleted active chat is replaced on the next start.
			if active, _ := e.app.Active.Load(); active == id {
				if err := e.app.Active.Save(domain.NewSessionID()); err != nil {
					return fmt.Errorf("save active session: %w", err)
				}
			}
			if err != nil {
				return err
			}
			okColor.Fprintf(out(cmd), "Deleted %s.\n", id)
			return nil
		},
	}
}
