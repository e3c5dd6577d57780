package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/finscholars/finscholars/internal/catalog"
	"github.com/finscholars/finscholars/internal/progression"
	"github.com/finscholars/finscholars/internal/quiz"
	"github.com/finscholars/finscholars/internal/session"
	"github.com/finscholars/finscholars/internal/store"
)

func newQuizService(t *testing.T) *session.Service {
	t.Helper()
	s, err := store.OpenSQLite(fmt.Sprintf("file:cmdquiz%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	q := &quiz.Quiz{Title: "Basics"}
	for i := range 4 {
		q.Questions = append(q.Questions, quiz.NewMultipleChoice(
			fmt.Sprintf("q%d", i+1), fmt.Sprintf("Question %d", i+1),
			[]string{"right", "wrong"}, 0, "Because."))
	}
	q.Questions = append(q.Questions, quiz.NewFreeText("q5", "Why budget?", "To plan spending.", []string{"plan", "spending"}))

	reg, err := catalog.NewStaticRegistry(&catalog.Module{
		ID:     "budgeting-basics",
		Title:  "Budgeting Basics",
		Levels: []catalog.LevelContent{{Level: progression.LevelBasic, Quiz: q}},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return session.NewService(session.Deps{
		Registry: reg,
		Attempts: s.AttemptRepo(),
		Progress: s.ProgressRepo(),
	})
}

func TestQuizPrompterRunsAttempt(t *testing.T) {
	svc := newQuizService(t)
	ctx := context.Background()
	view, err := svc.Start(ctx, "u1", "budgeting-basics", progression.LevelBasic)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// "9" is out of range and asked again.
	input := "1\n9\n1\n1\n2\nI plan my spending every month\n"
	var out bytes.Buffer
	p := &quizPrompter{in: bufio.NewScanner(strings.NewReader(input)), out: &out}

	outcome, err := p.run(ctx, svc, "u1", view)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Total != 5 || outcome.Correct != 4 || !outcome.Passed {
		t.Errorf("outcome = %+v, want 4/5 passed", outcome)
	}
	if !strings.Contains(out.String(), "Enter a number between 1 and 2") {
		t.Errorf("out-of-range choice was not re-prompted:\n%s", out.String())
	}
}

func TestQuizPrompterAbandoned(t *testing.T) {
	svc := newQuizService(t)
	ctx := context.Background()
	view, err := svc.Start(ctx, "u1", "budgeting-basics", progression.LevelBasic)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var out bytes.Buffer
	p := &quizPrompter{in: bufio.NewScanner(strings.NewReader("1\n")), out: &out}
	if _, err := p.run(ctx, svc, "u1", view); !errors.Is(err, errQuizAbandoned) {
		t.Fatalf("err = %v, want errQuizAbandoned", err)
	}
}
