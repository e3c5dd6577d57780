package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/finscholars/finscholars/internal/achievements"
	"github.com/finscholars/finscholars/internal/backend"
	"github.com/finscholars/finscholars/internal/catalog"
	"github.com/finscholars/finscholars/internal/events"
	"github.com/finscholars/finscholars/internal/notify"
	"github.com/finscholars/finscholars/internal/progression"
	"github.com/finscholars/finscholars/internal/quiz"
	"github.com/finscholars/finscholars/internal/store"
)

// ErrLevelLocked is returned when an attempt is started on a level whose
// predecessor has not been passed.
var ErrLevelLocked = errors.New("level is locked")

// ErrUnknownLevel is returned for a level the module does not have.
var ErrUnknownLevel = errors.New("module has no such level")

// LockedError carries the level that must be passed first.
type LockedError struct {
	ModuleID string
	Level    progression.Level
	Requires progression.Level
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s %s level is locked: pass %s first", e.ModuleID, e.Level, e.Requires)
}

func (e *LockedError) Unwrap() error { return ErrLevelLocked }

// ResultSink receives finalized results for remote persistence.
type ResultSink interface {
	SaveResult(ctx context.Context, p backend.ResultPayload) error
}

// BadgeEvaluator awards badges after an attempt.
type BadgeEvaluator interface {
	Evaluate(ctx context.Context, userID string) ([]achievements.Award, error)
}

// Deps are the collaborators of a Service. Registry, Tracker and Manager
// are required; the rest may be nil.
type Deps struct {
	Registry  catalog.Registry
	Tracker   *progression.Tracker
	Manager   *Manager
	Attempts  store.AttemptRepo
	Progress  store.ProgressRepo
	Results   ResultSink
	Publisher events.Publisher
	Badges    BadgeEvaluator
	Notifier  notify.Notifier
}

// Service runs quiz attempts from start to finalize.
type Service struct {
	registry  catalog.Registry
	tracker   *progression.Tracker
	manager   *Manager
	attempts  store.AttemptRepo
	progress  store.ProgressRepo
	results   ResultSink
	publisher events.Publisher
	badges    BadgeEvaluator
	notifier  notify.Notifier
	now       func() time.Time
}

// NewService creates an attempt service.
func NewService(d Deps) *Service {
	s := &Service{
		registry:  d.Registry,
		tracker:   d.Tracker,
		manager:   d.Manager,
		attempts:  d.Attempts,
		progress:  d.Progress,
		results:   d.Results,
		publisher: d.Publisher,
		badges:    d.Badges,
		notifier:  d.Notifier,
		now:       time.Now,
	}
	if s.tracker == nil {
		s.tracker = progression.NewTracker(progression.DefaultLevelOrder())
	}
	if s.manager == nil {
		s.manager = NewManager()
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	return s
}

// Manager returns the attempt manager.
func (s *Service) Manager() *Manager { return s.manager }

// Start begins an attempt on a module level. The level must exist and be
// unlocked for the user.
func (s *Service) Start(ctx context.Context, userID, moduleID string, level progression.Level) (*View, error) {
	m, err := s.registry.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("get module %s: %w", moduleID, err)
	}
	if !m.HasLevel(level) {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownLevel, moduleID, level)
	}

	order := m.LevelOrder()
	p, err := s.loadProgress(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if !progression.IsLevelUnlocked(order, p, level) {
		lerr := &LockedError{ModuleID: moduleID, Level: level}
		for i, l := range order {
			if l == level && i > 0 {
				lerr.Requires = order[i-1]
			}
		}
		return nil, lerr
	}

	a, err := quiz.StartAttempt(catalog.QuizFor(m, level))
	if err != nil {
		return nil, fmt.Errorf("start attempt: %w", err)
	}
	st := s.manager.Add(userID, moduleID, m.Title, level, order, a)
	glog.V(2).Infof("attempt %s started: user=%s module=%s level=%s", st.ID, userID, moduleID, level)

	defer st.lock()()
	return st.view(), nil
}

// Get returns the current view of an attempt.
func (s *Service) Get(_ context.Context, userID, attemptID string) (*View, error) {
	st, err := s.manager.Get(userID, attemptID)
	if err != nil {
		return nil, err
	}
	defer st.lock()()
	return st.view(), nil
}

// Submit scores the answer to the current question. On a rejected
// submission the view is still returned so the caller can re-render.
func (s *Service) Submit(_ context.Context, userID, attemptID, questionID string, ans quiz.Answer) (*RecordView, *View, error) {
	st, err := s.manager.Get(userID, attemptID)
	if err != nil {
		return nil, nil, err
	}
	defer st.lock()()

	rec, err := st.attempt.SubmitAnswer(questionID, ans)
	if err != nil {
		return nil, st.view(), err
	}
	s.manager.touch(st)
	rv := recordView(st.attempt.Quiz().Questions[rec.Index], rec)
	return &rv, st.view(), nil
}

// Next advances the attempt.
func (s *Service) Next(_ context.Context, userID, attemptID string) (*View, error) {
	return s.navigate(userID, attemptID, (*quiz.Attempt).Next)
}

// Previous moves the attempt back one question.
func (s *Service) Previous(_ context.Context, userID, attemptID string) (*View, error) {
	return s.navigate(userID, attemptID, (*quiz.Attempt).Previous)
}

func (s *Service) navigate(userID, attemptID string, move func(*quiz.Attempt) error) (*View, error) {
	st, err := s.manager.Get(userID, attemptID)
	if err != nil {
		return nil, err
	}
	defer st.lock()()

	if err := move(st.attempt); err != nil {
		return st.view(), err
	}
	s.manager.touch(st)
	return st.view(), nil
}

// Finalize scores the attempt and records its effects: tracked and stored
// progress, the remote result, events and badges. Only scoring and the
// local tracker can fail the call. Finalizing again returns the first
// outcome.
func (s *Service) Finalize(ctx context.Context, userID, attemptID string) (*Outcome, *View, error) {
	st, err := s.manager.Get(userID, attemptID)
	if err != nil {
		return nil, nil, err
	}
	defer st.lock()()

	if st.outcome != nil {
		return st.outcome, st.view(), nil
	}
	res, err := st.attempt.Finalize()
	if err != nil {
		return nil, st.view(), err
	}
	s.manager.touch(st)
	finishedAt := s.now()

	if _, err := s.loadProgress(ctx, userID, st.ModuleID); err != nil {
		s.notifier.Notify(ctx, notify.Warning("session", "load stored progress", err))
	}
	tr := s.tracker.RecordIn(st.Order, userID, st.ModuleID, st.Level, res.Percentage)
	out := buildOutcome(st, res, tr)

	s.persist(ctx, st, res, tr, finishedAt)
	s.report(ctx, st, res, finishedAt)
	s.publish(ctx, st, res, tr)
	if s.badges != nil {
		awards, err := s.badges.Evaluate(ctx, userID)
		if err != nil {
			s.notifier.Notify(ctx, notify.Errorf("session", err, "evaluate badges for %s", userID))
		}
		if len(awards) > 0 {
			out.Badges = awards
		}
	}

	glog.Infof("attempt %s finalized: user=%s module=%s level=%s pct=%.1f passed=%v",
		st.ID, userID, st.ModuleID, st.Level, res.Percentage, res.Passed)
	st.outcome = out
	return out, st.view(), nil
}

// Discard drops an attempt without recording anything.
func (s *Service) Discard(_ context.Context, userID, attemptID string) error {
	return s.manager.Remove(userID, attemptID)
}

// Prune drops idle attempts older than maxAge.
func (s *Service) Prune(maxAge time.Duration) int {
	n := s.manager.Prune(maxAge)
	if n > 0 {
		glog.Infof("pruned %d idle attempts", n)
	}
	return n
}

// Levels returns the per-level status of a module for the user.
func (s *Service) Levels(ctx context.Context, userID, moduleID string) ([]progression.LevelView, error) {
	m, err := s.registry.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("get module %s: %w", moduleID, err)
	}
	p, err := s.loadProgress(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	return progression.Statuses(m.LevelOrder(), p), nil
}

// ResetProgress clears tracked and stored progress for the user.
func (s *Service) ResetProgress(ctx context.Context, userID string) error {
	s.tracker.Reset(userID)
	if s.progress == nil {
		return nil
	}
	if err := s.progress.Reset(ctx, userID); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}

// loadProgress merges stored scores into the tracker and returns the
// combined progress.
func (s *Service) loadProgress(ctx context.Context, userID, moduleID string) (progression.LevelProgress, error) {
	if s.progress == nil {
		return s.tracker.Snapshot(userID, moduleID), nil
	}
	stored, err := s.progress.LevelScores(ctx, userID, moduleID)
	if err != nil {
		return progression.LevelProgress{}, fmt.Errorf("load progress: %w", err)
	}
	scores := make(map[progression.Level]float64, len(stored))
	for l, pct := range stored {
		scores[progression.Level(l)] = pct
	}
	return s.tracker.Merge(userID, moduleID, progression.NewLevelProgress(scores)), nil
}

func (s *Service) persist(ctx context.Context, st *State, res quiz.Result, tr progression.Transition, finishedAt time.Time) {
	if s.attempts != nil {
		if _, err := s.attempts.SaveAttempt(ctx, attemptData(st, res, finishedAt)); err != nil {
			s.notifier.Notify(ctx, notify.Errorf("session", err, "save attempt %s", st.ID))
		}
	}
	if s.progress == nil {
		return
	}
	if _, err := s.progress.RecordScore(ctx, st.UserID, st.ModuleID, string(st.Level), res.Percentage); err != nil {
		s.notifier.Notify(ctx, notify.Errorf("session", err, "record score for %s", st.ModuleID))
	}
	if tr.ModuleCompleted {
		if _, err := s.progress.MarkCompleted(ctx, st.UserID, st.ModuleID, finishedAt); err != nil {
			s.notifier.Notify(ctx, notify.Errorf("session", err, "mark %s completed", st.ModuleID))
		}
	}
}

func (s *Service) report(ctx context.Context, st *State, res quiz.Result, finishedAt time.Time) {
	if s.results == nil {
		return
	}
	err := s.results.SaveResult(ctx, backend.ResultPayload{
		AttemptID:  st.ID,
		UserID:     st.UserID,
		ModuleID:   st.ModuleID,
		Level:      string(st.Level),
		Percentage: res.Percentage,
		Passed:     res.Passed,
		FinishedAt: finishedAt,
	})
	if err != nil {
		s.notifier.Notify(ctx, notify.Warning("session", "save result to backend", err))
	}
}

func (s *Service) publish(ctx context.Context, st *State, res quiz.Result, tr progression.Transition) {
	if s.publisher == nil {
		return
	}
	evts := []*events.Event{
		events.NewAttemptCompleted(st.UserID, st.ID, st.ModuleID, string(st.Level), res.Percentage, res.Passed),
	}
	if tr.Unlocked != nil {
		evts = append(evts, events.NewLevelUnlocked(st.UserID, st.ModuleID, string(*tr.Unlocked)))
	}
	if tr.ModuleCompleted {
		evts = append(evts, events.NewModuleCompleted(st.UserID, st.ModuleID))
	}
	if err := events.PublishAll(ctx, s.publisher, evts...); err != nil {
		s.notifier.Notify(ctx, notify.Warning("session", "publish attempt events", err))
	}
}

func attemptData(st *State, res quiz.Result, finishedAt time.Time) store.AttemptData {
	q := st.attempt.Quiz()
	data := store.AttemptData{
		AttemptID:  st.ID,
		UserID:     st.UserID,
		ModuleID:   st.ModuleID,
		Level:      string(st.Level),
		QuizID:     q.ID,
		Score:      res.Score,
		Correct:    res.Correct,
		Total:      res.Total,
		Percentage: res.Percentage,
		Passed:     res.Passed,
		StartedAt:  st.attempt.StartedAt(),
		FinishedAt: finishedAt,
	}
	for _, r := range st.attempt.Records() {
		data.Answers = append(data.Answers, store.AnswerData{
			Index:      r.Index,
			QuestionID: r.QuestionID,
			Answer:     answerText(q.Questions[r.Index], r.Answer),
			Correct:    r.Correct,
			Credit:     r.Credit,
			Feedback:   r.Feedback,
			AnsweredAt: r.AnsweredAt,
		})
	}
	return data
}

// answerText renders an answer for storage: the chosen option text or the
// free-text answer.
func answerText(q quiz.Question, a quiz.Answer) string {
	if i, ok := a.ChoiceIndex(); ok && i >= 0 && i < len(q.Options) {
		return q.Options[i]
	}
	text, _ := a.TextValue()
	return text
}
