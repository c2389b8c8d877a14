package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/englishmaster/internal/app/matching"
	"github.com/PabloGalante/englishmaster/internal/app/quiz"
	"github.com/PabloGalante/englishmaster/internal/app/speech"
)

var errAborted = errors.New("input ended before the exercise was finished")

func newQuizCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "quiz [topic]",
		Short: "Take a multiple-choice grammar quiz",
		Long: `Generate a short multiple-choice quiz about English grammar, optionally on a
topic. Answer each question with its letter (A-D) or number.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := out(cmd)
			topic := strings.Join(args, " ")

			st := quiz.NewState(nil)
			if err := st.Generate(ctx, e.app.Tutor, topic); err != nil {
				return fmt.Errorf("generate quiz: %w", err)
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			questions := st.Questions()
			for i, q := range questions {
				tutorColor.Fprintf(w, "\n%d. %s\n", i+1, q.Question)
				for j, opt := range q.Options {
					fmt.Fprintf(w, "   %s) %s\n", optionLetter(j), opt)
				}

				for {
					userColor.Fprint(w, "Answer: ")
					if !scanner.Scan() {
						fmt.Fprintln(w)
						return errAborted
					}
					idx := optionIndex(scanner.Text(), len(q.Options))
					if idx < 0 {
						printError(w, fmt.Errorf("choose one of A-%s", optionLetter(len(q.Options)-1)))
						continue
					}
					st.Select(q.ID, q.Options[idx])
					break
				}
			}

			if err := st.Submit(); err != nil {
				return err
			}
			printQuizResult(w, st)
			return nil
		},
	}
}

func printQuizResult(w io.Writer, st *quiz.State) {
	questions := st.Questions()
	fmt.Fprintln(w)
	tutorColor.Fprintf(w, "Score: %d/%d\n", st.Score(), len(questions))

	for i, q := range questions {
		answer, _ := st.Answer(q.ID)
		if answer == q.CorrectAnswer {
			okColor.Fprintf(w, "%d. correct: %s\n", i+1, answer)
			continue
		}
		errColor.Fprintf(w, "%d. %s, correct answer: %s\n", i+1, answer, q.CorrectAnswer)
		if q.Explanation != "" {
			noteColor.Fprintf(w, "   %s\n", q.Explanation)
		}
	}
}

func newMatchCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "match [topic]",
		Short: "Match Indonesian words with their English meaning",
		Long: `Generate vocabulary pairs, optionally on a topic, and match them up.
Enter a pair as "<left> <right>", using the numbers and letters shown
or the words themselves (e.g. "2 c" or "rumah house"). A single card
stays selected until its match is entered.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := out(cmd)

			board, err := matching.Generate(ctx, e.app.Tutor, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("generate vocabulary: %w", err)
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for !board.Complete() {
				printBoard(w, board)
				userColor.Fprint(w, "Pair: ")
				if !scanner.Scan() {
					fmt.Fprintln(w)
					return errAborted
				}

				outcome, picked, ok := play(board, strings.Fields(scanner.Text()))
				if !ok {
					printError(w, errors.New(`enter a pair like "1 a" or a single card`))
					continue
				}
				switch outcome {
				case matching.Correct:
					okColor.Fprintln(w, "Correct!")
				case matching.Wrong:
					errColor.Fprintln(w, "Not a match, try again.")
				case matching.Pending:
					dimColor.Fprintf(w, "Selected %s, now pick its match.\n", picked.Text)
				case matching.Ignored:
					printError(w, errors.New("that card is already matched"))
				}
			}

			matched, total := board.Progress()
			tutorColor.Fprintf(w, "All matched! %d/%d\n", matched, total)
			return nil
		},
	}
}

func printBoard(w io.Writer, b *matching.Board) {
	left, right := b.Left(), b.Right()
	matched, total := b.Progress()
	selL, selR, hasL, hasR := b.Selection()

	dimColor.Fprintf(w, "\nProgress %d/%d\n", matched, total)
	for i := range left {
		mark := cardMark(b, left[i].ID, hasL && selL == left[i].ID)
		fmt.Fprintf(w, "  %s  %-20s", mark, fmt.Sprintf("%d. %s", i+1, left[i].Text))
		if i < len(right) {
			mark = cardMark(b, right[i].ID, hasR && selR == right[i].ID)
			fmt.Fprintf(w, "  %s  %s) %s", mark, strings.ToLower(optionLetter(i)), right[i].Text)
		}
		fmt.Fprintln(w)
	}
}

func cardMark(b *matching.Board, id int, selected bool) string {
	switch {
	case b.IsMatched(id):
		return "✓"
	case selected:
		return ">"
	default:
		return " "
	}
}

// play applies one line of input: a pair "<left> <right>" or a single card
// that stays selected until its match is picked.
func play(b *matching.Board, fields []string) (matching.Outcome, matching.Card, bool) {
	switch len(fields) {
	case 1:
		card, isLeft, ok := pickCard(b, fields[0])
		if !ok {
			return matching.Ignored, matching.Card{}, false
		}
		if isLeft {
			return b.SelectLeft(card.ID), card, true
		}
		return b.SelectRight(card.ID), card, true

	case 2:
		left, ok := resolveCard(b.Left(), fields[0])
		if !ok {
			return matching.Ignored, matching.Card{}, false
		}
		right, ok := resolveCard(b.Right(), fields[1])
		if !ok {
			return matching.Ignored, matching.Card{}, false
		}
		// A pending card on one side is replaced by this pair's card on that
		// side before the other side is judged.
		if _, _, _, hasRight := b.Selection(); hasRight {
			b.SelectRight(right.ID)
			return b.SelectLeft(left.ID), left, true
		}
		b.SelectLeft(left.ID)
		return b.SelectRight(right.ID), right, true
	}
	return matching.Ignored, matching.Card{}, false
}

// pickCard resolves a single card. Words match either column; numbers pick
// from the left column and letters from the right.
func pickCard(b *matching.Board, token string) (matching.Card, bool, bool) {
	left, right := b.Left(), b.Right()
	if c, ok := cardByText(left, token); ok {
		return c, true, true
	}
	if c, ok := cardByText(right, token); ok {
		return c, false, true
	}
	if n, err := strconv.Atoi(token); err == nil {
		if n >= 1 && n <= len(left) {
			return left[n-1], true, true
		}
		return matching.Card{}, false, false
	}
	if i := optionIndex(token, len(right)); i >= 0 {
		return right[i], false, true
	}
	return matching.Card{}, false, false
}

// resolveCard finds a card by its text or column position.
func resolveCard(cards []matching.Card, token string) (matching.Card, bool) {
	if c, ok := cardByText(cards, token); ok {
		return c, true
	}
	if i := optionIndex(token, len(cards)); i >= 0 {
		return cards[i], true
	}
	return matching.Card{}, false
}

func cardByText(cards []matching.Card, token string) (matching.Card, bool) {
	for _, c := range cards {
		if strings.EqualFold(c.Text, token) {
			return c, true
		}
	}
	return matching.Card{}, false
}

func newSpeakCmd(e *env) *cobra.Command {
	var pf playerFlags

	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Read English text aloud",
		Long: `Synthesize text with the voice of the chosen register (--formal for a
formal voice) and play it, or write it to a WAV file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.app.Synth == nil {
				return errors.New("speech is not available with the current provider")
			}

			player, path := pf.build()
			speaker := speech.NewSpeaker(e.app.Synth, player, e.app.Metrics)
			if err := speaker.Speak(cmd.Context(), strings.Join(args, " "), e.style()); err != nil {
				return err
			}
			if path != "" {
				dimColor.Fprintf(out(cmd), "Saved audio to %s\n", path)
			}
			return nil
		},
	}
	pf.register(cmd)
	return cmd
}
