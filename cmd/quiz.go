package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finscholars/finscholars/internal/progression"
	"github.com/finscholars/finscholars/internal/quiz"
	"github.com/finscholars/finscholars/internal/session"
	"github.com/finscholars/finscholars/internal/ui/theme"
)

var errQuizAbandoned = errors.New("quiz abandoned")

var quizCmd = &cobra.Command{
	Use:   "quiz <module>",
	Short: "Take a module quiz in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		levelFlag, _ := cmd.Flags().GetString("level")
		level, err := progression.ParseLevel(levelFlag)
		if err != nil {
			return err
		}

		lc, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer lc.Close()
		ctx := lc.authContext(context.Background())

		view, err := lc.engine.sessions.Start(ctx, lc.user, args[0], level)
		if err != nil {
			var locked *session.LockedError
			if errors.As(err, &locked) {
				return fmt.Errorf("%s is locked: pass %s first", level.DisplayName(), locked.Requires.DisplayName())
			}
			return fmt.Errorf("start quiz: %w", err)
		}

		p := &quizPrompter{
			in:  bufio.NewScanner(cmd.InOrStdin()),
			out: cmd.OutOrStdout(),
		}
		out, err := p.run(ctx, lc.engine.sessions, lc.user, view)
		if err != nil {
			if derr := lc.engine.sessions.Discard(ctx, lc.user, view.ID); derr != nil && !errors.Is(derr, session.ErrNotFound) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: discard attempt: %v\n", derr)
			}
			return err
		}
		printOutcome(p.out, out)
		return nil
	},
}

func init() {
	quizCmd.Flags().String("level", string(progression.LevelBasic), "Level to take: Basic, Moderate or Advanced")
}

// quizPrompter asks the questions of one attempt on a line-oriented
// terminal.
type quizPrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *quizPrompter) readLine() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}
		return "", errQuizAbandoned
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *quizPrompter) run(ctx context.Context, svc *session.Service, userID string, view *session.View) (*session.Outcome, error) {
	fmt.Fprintln(p.out, theme.Title.Render(fmt.Sprintf("%s: %s", view.Title, view.Level.DisplayName())))
	fmt.Fprintln(p.out, theme.Hint.Render(fmt.Sprintf("%d questions, %.0f%% to pass", view.Total, quiz.PassingThreshold)))

	for !view.Finalized && view.Status != quiz.StatusCompleted {
		q := view.Current
		fmt.Fprintf(p.out, "\n%s %s\n", theme.Highlight.Render(fmt.Sprintf("Q%d/%d", q.Index+1, view.Total)), q.Prompt)

		rec, next, err := p.answer(ctx, svc, userID, view)
		if err != nil {
			return nil, err
		}
		view = next
		printRecord(p.out, rec)

		if view, err = svc.Next(ctx, userID, view.ID); err != nil {
			return nil, fmt.Errorf("next question: %w", err)
		}
	}

	out, _, err := svc.Finalize(ctx, userID, view.ID)
	if err != nil {
		return nil, fmt.Errorf("finalize quiz: %w", err)
	}
	return out, nil
}

// answer prompts until the current question accepts an answer.
func (p *quizPrompter) answer(ctx context.Context, svc *session.Service, userID string, view *session.View) (*session.RecordView, *session.View, error) {
	q := view.Current
	for {
		var ans quiz.Answer
		switch q.Kind {
		case quiz.KindMultipleChoice:
			for i, opt := range q.Options {
				fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
			}
			fmt.Fprint(p.out, "> ")
			line, err := p.readLine()
			if err != nil {
				return nil, nil, err
			}
			n, err := strconv.Atoi(line)
			if err != nil || n < 1 || n > len(q.Options) {
				fmt.Fprintln(p.out, theme.Hint.Render(fmt.Sprintf("Enter a number between 1 and %d.", len(q.Options))))
				continue
			}
			ans = quiz.Choice(n - 1)
		default:
			fmt.Fprint(p.out, theme.Hint.Render("Type your answer:")+"\n> ")
			line, err := p.readLine()
			if err != nil {
				return nil, nil, err
			}
			if line == "" {
				continue
			}
			ans = quiz.Text(line)
		}

		rec, next, err := svc.Submit(ctx, userID, view.ID, q.ID, ans)
		if errors.Is(err, quiz.ErrInvalidAnswer) {
			fmt.Fprintln(p.out, theme.Hint.Render(err.Error()))
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("submit answer: %w", err)
		}
		return rec, next, nil
	}
}

func printRecord(w io.Writer, r *session.RecordView) {
	if r.Correct {
		fmt.Fprintln(w, theme.Correct.Render("✓ "+r.Feedback))
	} else {
		fmt.Fprintln(w, theme.Incorrect.Render("✗ "+r.Feedback))
	}
	if r.Explanation != "" {
		fmt.Fprintln(w, theme.Hint.Render(r.Explanation))
	}
	if r.SampleAnswer != "" {
		fmt.Fprintln(w, theme.Hint.Render("Sample answer: "+r.SampleAnswer))
	}
}

func printOutcome(w io.Writer, o *session.Outcome) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s  %.0f%%  (%d/%d correct)\n", theme.ProgressBar(o.Percentage, 30), o.Percentage, o.Correct, o.Total)
	fmt.Fprintln(w, theme.Verdict(o.Passed, o.Message))
	if o.Unlocked != nil {
		fmt.Fprintf(w, "Unlocked %s.\n", theme.Highlight.Render(o.Unlocked.DisplayName()))
	}
	if o.ModuleCompleted {
		fmt.Fprintln(w, theme.Correct.Render("Module completed!"))
	}
	for _, b := range o.Badges {
		fmt.Fprintf(w, "New badge: %s %s\n", b.Type.Icon(), b.Name)
	}
}
