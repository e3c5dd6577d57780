package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

var testDBCounter atomic.Int64

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", testDBCounter.Add(1))
	s, err := OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"global_sequence", "attempt_results", "answer_records",
		"level_progress", "module_completions", "badge_events", "llm_requests", "kv"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestMigrationIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := migrate(context.Background(), s.DB()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx, s.DB())
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func sampleAttempt(id string, pct float64, passed bool, finished time.Time) AttemptData {
	return AttemptData{
		AttemptID:  id,
		UserID:     "u1",
		ModuleID:   "investment-basics",
		Level:      "basic",
		QuizID:     "investment-basics-basic",
		Score:      pct / 20,
		Correct:    int(pct / 20),
		Total:      5,
		Percentage: pct,
		Passed:     passed,
		StartedAt:  finished.Add(-5 * time.Minute),
		FinishedAt: finished,
		Answers: []AnswerData{
			{Index: 0, QuestionID: "q1", Answer: "b", Correct: true, Credit: 1, Feedback: "Correct!", AnsweredAt: finished},
			{Index: 1, QuestionID: "q2", Answer: "risk", Correct: false, Credit: 0.5, Feedback: "Partially correct.", AnsweredAt: finished},
		},
	}
}

func TestSaveAndGetAttempt(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	seq, err := repo.SaveAttempt(ctx, sampleAttempt("a1", 80, true, now))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if seq != 1 {
		t.Errorf("sequence = %d, want 1", seq)
	}

	rec, err := repo.GetAttempt(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil {
		t.Fatal("expected attempt")
	}
	if rec.Percentage != 80 || !rec.Passed || rec.Total != 5 {
		t.Errorf("record = %+v", rec.AttemptData)
	}
	if !rec.FinishedAt.Equal(now) {
		t.Errorf("finished_at = %v, want %v", rec.FinishedAt, now)
	}
	if len(rec.Answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(rec.Answers))
	}
	if rec.Answers[1].Credit != 0.5 || rec.Answers[1].Correct {
		t.Errorf("answer 2 = %+v", rec.Answers[1])
	}

	missing, err := repo.GetAttempt(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("missing attempt = %v, %v; want nil, nil", missing, err)
	}
}

func TestSaveAttemptRejectsDuplicateID(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()
	now := time.Now()

	if _, err := repo.SaveAttempt(ctx, sampleAttempt("a1", 80, true, now)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := repo.SaveAttempt(ctx, sampleAttempt("a1", 40, false, now)); err == nil {
		t.Fatal("expected duplicate attempt id to fail")
	}

	// The failed transaction must not leave partial answers behind.
	rec, err := repo.GetAttempt(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Percentage != 80 || len(rec.Answers) != 2 {
		t.Errorf("stored attempt changed: %+v", rec)
	}
}

func TestQueryAttemptsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		data := sampleAttempt(fmt.Sprintf("a%d", i), 60, false, base.Add(time.Duration(i)*time.Hour))
		if i == 3 {
			data.ModuleID = "budgeting-basics"
		}
		if _, err := repo.SaveAttempt(ctx, data); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	all, err := repo.QueryAttempts(ctx, "u1", "", QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 4 || all[0].AttemptID != "a3" {
		t.Fatalf("got %d attempts, first %q", len(all), all[0].AttemptID)
	}

	limited, err := repo.QueryAttempts(ctx, "u1", "investment-basics", QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(limited) != 2 || limited[0].AttemptID != "a2" || limited[1].AttemptID != "a1" {
		t.Errorf("limited = %+v", limited)
	}

	ranged, err := repo.QueryAttempts(ctx, "u1", "", QueryOpts{From: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(ranged) != 2 {
		t.Errorf("ranged = %d attempts, want 2", len(ranged))
	}

	other, err := repo.QueryAttempts(ctx, "u2", "", QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("other user sees %d attempts", len(other))
	}
}

func TestAttemptStats(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	attempts := []AttemptData{
		sampleAttempt("a1", 100, true, day),
		sampleAttempt("a2", 80, true, day.Add(2*time.Hour)),
		sampleAttempt("a3", 40, false, day.Add(24*time.Hour)),
		sampleAttempt("a4", 100, true, day.Add(48*time.Hour)),
	}
	for _, a := range attempts {
		if _, err := repo.SaveAttempt(ctx, a); err != nil {
			t.Fatalf("save %s: %v", a.AttemptID, err)
		}
	}

	stats, err := repo.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Attempts != 4 || stats.Passed != 3 || stats.Perfect != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.PassingDays != 2 {
		t.Errorf("passing days = %d, want 2", stats.PassingDays)
	}
	if !stats.LastFinished.Equal(day.Add(48 * time.Hour)) {
		t.Errorf("last finished = %v", stats.LastFinished)
	}
}

func TestRecordScoreIsMonotonic(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	steps := []struct {
		pct  float64
		want float64
	}{
		{60, 60},
		{85, 85},
		{70, 85},
		{0, 85},
		{92, 92},
	}
	for i, st := range steps {
		best, err := repo.RecordScore(ctx, "u1", "m1", "basic", st.pct)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if best != st.want {
			t.Errorf("step %d: best = %v, want %v", i, best, st.want)
		}
	}

	var attempts int
	if err := s.DB().Get(&attempts, `SELECT attempts FROM level_progress WHERE user_id = 'u1'`); err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if attempts != len(steps) {
		t.Errorf("attempts = %d, want %d", attempts, len(steps))
	}
}

func TestLevelScoresAndReset(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	must := func(_ float64, err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(repo.RecordScore(ctx, "u1", "m1", "basic", 90))
	must(repo.RecordScore(ctx, "u1", "m1", "moderate", 50))
	must(repo.RecordScore(ctx, "u1", "m2", "basic", 80))
	must(repo.RecordScore(ctx, "u2", "m1", "basic", 10))

	scores, err := repo.LevelScores(ctx, "u1", "m1")
	if err != nil {
		t.Fatalf("level scores: %v", err)
	}
	if len(scores) != 2 || scores["basic"] != 90 || scores["moderate"] != 50 {
		t.Errorf("scores = %v", scores)
	}

	all, err := repo.AllScores(ctx, "u1")
	if err != nil {
		t.Fatalf("all scores: %v", err)
	}
	if len(all) != 2 || all["m2"]["basic"] != 80 {
		t.Errorf("all = %v", all)
	}

	if err := repo.Reset(ctx, "u1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	all, _ = repo.AllScores(ctx, "u1")
	if len(all) != 0 {
		t.Errorf("after reset = %v", all)
	}
	other, _ := repo.AllScores(ctx, "u2")
	if other["m1"]["basic"] != 10 {
		t.Errorf("reset touched another user: %v", other)
	}
}

func TestMarkCompletedOnce(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()
	now := time.Now()

	created, err := repo.MarkCompleted(ctx, "u1", "m1", now)
	if err != nil || !created {
		t.Fatalf("first completion = %v, %v", created, err)
	}
	created, err = repo.MarkCompleted(ctx, "u1", "m1", now.Add(time.Hour))
	if err != nil || created {
		t.Fatalf("second completion = %v, %v", created, err)
	}
	if _, err := repo.MarkCompleted(ctx, "u1", "m2", now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	ids, err := repo.CompletedModules(ctx, "u1")
	if err != nil {
		t.Fatalf("completed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "m1" || ids[1] != "m2" {
		t.Errorf("completed = %v", ids)
	}
}

func TestAwardBadgeIdempotent(t *testing.T) {
	s := openTestStore(t)
	repo := s.BadgeRepo()
	ctx := context.Background()
	now := time.Now()

	isNew, err := repo.AwardBadge(ctx, "u1", "first-steps", now)
	if err != nil || !isNew {
		t.Fatalf("first award = %v, %v", isNew, err)
	}
	isNew, err = repo.AwardBadge(ctx, "u1", "first-steps", now)
	if err != nil || isNew {
		t.Fatalf("repeat award = %v, %v", isNew, err)
	}
	if _, err := repo.AwardBadge(ctx, "u1", "quiz-master", now); err != nil {
		t.Fatal(err)
	}

	badges, err := repo.Badges(ctx, "u1")
	if err != nil {
		t.Fatalf("badges: %v", err)
	}
	if len(badges) != 2 || badges[0].Badge != "first-steps" || badges[0].Seen {
		t.Fatalf("badges = %+v", badges)
	}
	if badges[0].Sequence >= badges[1].Sequence {
		t.Errorf("sequences not increasing: %d, %d", badges[0].Sequence, badges[1].Sequence)
	}

	if err := repo.MarkSeen(ctx, "u1"); err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	badges, _ = repo.Badges(ctx, "u1")
	for _, b := range badges {
		if !b.Seen {
			t.Errorf("badge %s not marked seen", b.Badge)
		}
	}
}

func TestLLMRequestEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i, ok := range []bool{true, false, true} {
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:     "gemini",
			Model:        "gemini-2.5-flash",
			Purpose:      "quiz",
			InputTokens:  100 * (i + 1),
			OutputTokens: 10,
			LatencyMs:    250,
			Success:      ok,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	recs, err := repo.QueryLLMRequests(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 2 || recs[0].InputTokens != 300 {
		t.Errorf("records = %+v", recs)
	}

	usage, err := repo.LLMUsage(ctx)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	want := LLMUsage{Requests: 3, Failures: 1, InputTokens: 600, OutputTokens: 30}
	if usage != want {
		t.Errorf("usage = %+v, want %+v", usage, want)
	}
}

func TestKV(t *testing.T) {
	s := openTestStore(t)
	repo := s.KVRepo()
	ctx := context.Background()

	if _, ok, err := repo.Get(ctx, "token"); err != nil || ok {
		t.Fatalf("empty get = %v, %v", ok, err)
	}
	if err := repo.Set(ctx, "token", "abc"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Set(ctx, "token", "def"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := repo.Get(ctx, "token")
	if err != nil || !ok || v != "def" {
		t.Errorf("get = %q, %v, %v", v, ok, err)
	}
	if err := repo.Delete(ctx, "token"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := repo.Get(ctx, "token"); ok {
		t.Error("token still present after delete")
	}
}
