package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/metrics"
)

var (
	userColor  = color.New(color.FgGreen, color.Bold)
	tutorColor = color.New(color.FgCyan, color.Bold)
	noteColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
	dimColor   = color.New(color.Faint)
	okColor    = color.New(color.FgGreen)
)

const timeLayout = "2006-01-02 15:04"

func printMessage(w io.Writer, m *domain.Message) {
	if m.Role == domain.RoleUser {
		userColor.Fprint(w, "You: ")
		fmt.Fprintln(w, m.Content)
		return
	}

	tr := m.Translation
	if tr == nil {
		tutorColor.Fprint(w, "Tutor: ")
		fmt.Fprintln(w, m.Content)
		return
	}

	label := "Tutor: "
	if m.Style != nil {
		label = fmt.Sprintf("Tutor [%s]: ", *m.Style)
	}
	tutorColor.Fprint(w, label)
	fmt.Fprintln(w, tr.TranslatedText)

	if tr.CorrectedOriginal != "" && tr.CorrectedOriginal != tr.OriginalText {
		noteColor.Fprint(w, "  corrected: ")
		fmt.Fprintln(w, tr.CorrectedOriginal)
	}
	if tr.GrammarNotes != "" {
		noteColor.Fprint(w, "  grammar: ")
		fmt.Fprintln(w, tr.GrammarNotes)
	}
	if tr.UsageTips != "" {
		noteColor.Fprint(w, "  tip: ")
		fmt.Fprintln(w, tr.UsageTips)
	}
}

func printHistory(w io.Writer, msgs []*domain.Message) {
	for _, m := range msgs {
		printMessage(w, m)
	}
}

func printSessions(w io.Writer, list []*domain.Session, active domain.SessionID) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No sessions yet.")
		return
	}

	for i, s := range list {
		marker := " "
		if s.ID == active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %2d. %s ", marker, i+1, s.Title)
		dimColor.Fprintf(w, "(%s, %s)\n", s.LastActivity.Local().Format(timeLayout), s.ID)
	}
}

func printStats(w io.Writer, snap metrics.Snapshot) {
	fmt.Fprintf(w, "Uptime: %.0fs\n", snap.UptimeSeconds)
	if len(snap.Operations) == 0 {
		fmt.Fprintln(w, "No operations recorded.")
		return
	}
	for _, op := range snap.Operations {
		fmt.Fprintf(w, "  %-16s count=%d failures=%d avg=%.0fms max=%dms\n",
			op.Name, op.Count, op.Failures, op.AvgTimeMs, op.MaxTimeMs)
	}
}

func printError(w io.Writer, err error) {
	errColor.Fprintf(w, "Error: %v\n", err)
}

// optionLetter returns "A", "B", ... for index i.
func optionLetter(i int) string {
	return string(rune('A' + i))
}

// optionIndex parses "b", "B" or "2" into 1. It returns -1 when out of range.
func optionIndex(s string, n int) int {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		c := strings.ToUpper(s)[0]
		if c >= 'A' && int(c-'A') < n {
			return int(c - 'A')
		}
	}
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err == nil && i >= 1 && i <= n {
		return i - 1
	}
	return -1
}
