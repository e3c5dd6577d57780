// Package contentgen writes personalized finance modules and their quizzes
// with an LLM provider.
package contentgen

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/finscholars/finscholars/internal/catalog"
	"github.com/finscholars/finscholars/internal/llm"
	"github.com/finscholars/finscholars/internal/progression"
	"github.com/finscholars/finscholars/internal/quiz"
)

var (
	ErrEmptyTopic      = errors.New("topic is required")
	ErrQuizPending     = errors.New("quiz is still generating")
	ErrNoQuizRequested = errors.New("no quiz requested for module")
)

// CategoryPersonalized is the catalog category of generated modules.
const CategoryPersonalized = "personalized"

// Config holds generation limits.
type Config struct {
	ContentMaxTokens int
	QuizMaxTokens    int
	Temperature      float64
	MultipleChoice   int // questions per quiz
	FreeText         int
}

// DefaultConfig asks for five multiple-choice and two free-text questions.
func DefaultConfig() Config {
	return Config{
		ContentMaxTokens: 4096,
		QuizMaxTokens:    2048,
		Temperature:      0.4,
		MultipleChoice:   5,
		FreeText:         2,
	}
}

// Request asks for a module on a topic.
type Request struct {
	Topic     string
	Level     string // Basic, Moderate or Advanced in any case
	Interests []string
}

// QuizStatus is the state of an asynchronous quiz request.
type QuizStatus string

const (
	QuizNone       QuizStatus = "none"
	QuizGenerating QuizStatus = "generating"
	QuizReady      QuizStatus = "ready"
	QuizFailed     QuizStatus = "failed"
)

type quizJob struct {
	done chan struct{}
	quiz *quiz.Quiz
	err  error
}

// Service generates module content and quizzes.
type Service struct {
	provider llm.Provider
	cfg      Config

	mu   sync.Mutex
	jobs map[string]*quizJob
}

// NewService creates a generator.
func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg, jobs: make(map[string]*quizJob)}
}

type contentOutput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Sections    []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"sections"`
}

// GenerateModule writes the reading material for one level. The returned
// module has no quiz yet.
func (s *Service) GenerateModule(ctx context.Context, req Request) (*catalog.Module, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	level, err := progression.ParseLevel(req.Level)
	if err != nil {
		return nil, err
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeModuleContent)
	r := llm.Prompt(systemPrompt, contentPrompt(topic, level, req.Interests), ContentSchema, s.cfg.ContentMaxTokens)
	r.Temperature = s.cfg.Temperature
	resp, err := s.provider.Generate(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("generate module content: %w", err)
	}
	var out contentOutput
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("parse module content: %w", err)
	}

	m := &catalog.Module{
		ID:          moduleID(topic),
		Title:       out.Title,
		Description: out.Description,
		Difficulty:  level.DisplayName(),
		Category:    CategoryPersonalized,
	}
	if m.Title == "" {
		m.Title = topic
	}
	lc := catalog.LevelContent{Level: level}
	for i, sec := range out.Sections {
		lc.Sections = append(lc.Sections, catalog.Section{
			ID:      fmt.Sprintf("section-%d", i+1),
			Title:   sec.Title,
			Content: sec.Content,
		})
	}
	m.Levels = []catalog.LevelContent{lc}
	return m, nil
}

type quizOutput struct {
	Questions []quiz.Question `json:"questions"`
}

// GenerateQuiz writes a quiz for a module level from its sections. The
// quiz is validated before it is returned.
func (s *Service) GenerateQuiz(ctx context.Context, m *catalog.Module, level progression.Level) (*quiz.Quiz, error) {
	if !m.HasLevel(level) {
		return nil, fmt.Errorf("module %s has no %s level", m.ID, level)
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeQuiz)
	r := llm.Prompt(systemPrompt, quizPrompt(m, level, s.cfg), QuizSchema, s.cfg.QuizMaxTokens)
	r.Temperature = s.cfg.Temperature
	resp, err := s.provider.Generate(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}
	var out quizOutput
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("parse quiz: %w", err)
	}

	q := &quiz.Quiz{
		ID:        fmt.Sprintf("%s-%s", m.ID, level),
		ModuleID:  m.ID,
		Level:     string(level),
		Title:     fmt.Sprintf("%s - %s Level Quiz", m.Title, level.DisplayName()),
		Questions: out.Questions,
	}
	for i := range q.Questions {
		normalizeQuestion(&q.Questions[i])
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("generated quiz: %w", err)
	}
	return q, nil
}

// Generate writes a module and its quiz in one call.
func (s *Service) Generate(ctx context.Context, req Request) (*catalog.Module, error) {
	m, err := s.GenerateModule(ctx, req)
	if err != nil {
		return nil, err
	}
	lc := &m.Levels[0]
	q, err := s.GenerateQuiz(ctx, m, lc.Level)
	if err != nil {
		return nil, err
	}
	lc.Quiz = q
	return m, nil
}

// RequestQuiz starts quiz generation in the background. The job outlives
// the caller's cancellation. A new request for the same module replaces
// the previous one.
func (s *Service) RequestQuiz(ctx context.Context, m *catalog.Module, level progression.Level) {
	job := &quizJob{done: make(chan struct{})}
	s.mu.Lock()
	s.jobs[m.ID] = job
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(job.done)
		job.quiz, job.err = s.GenerateQuiz(ctx, m, level)
	}()
}

// QuizStatus reports the state of the module's quiz request.
func (s *Service) QuizStatus(moduleID string) QuizStatus {
	s.mu.Lock()
	job, ok := s.jobs[moduleID]
	s.mu.Unlock()
	if !ok {
		return QuizNone
	}
	select {
	case <-job.done:
		if job.err != nil {
			return QuizFailed
		}
		return QuizReady
	default:
		return QuizGenerating
	}
}

// ConsumeQuiz returns a finished quiz and clears the request. It returns
// ErrQuizPending while generation runs.
func (s *Service) ConsumeQuiz(moduleID string) (*quiz.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[moduleID]
	if !ok {
		return nil, ErrNoQuizRequested
	}
	select {
	case <-job.done:
	default:
		return nil, ErrQuizPending
	}
	delete(s.jobs, moduleID)
	return job.quiz, job.err
}

// WaitQuiz blocks until the requested quiz is done, then consumes it.
func (s *Service) WaitQuiz(ctx context.Context, moduleID string) (*quiz.Quiz, error) {
	s.mu.Lock()
	job, ok := s.jobs[moduleID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoQuizRequested
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-job.done:
	}
	return s.ConsumeQuiz(moduleID)
}

// normalizeQuestion drops the empty variant fields the strict schema
// forces the model to send.
func normalizeQuestion(q *quiz.Question) {
	q.ID = strings.TrimSpace(q.ID)
	switch q.Kind {
	case quiz.KindMultipleChoice:
		q.SampleAnswer, q.KeyPoints = "", nil
	case quiz.KindFreeText:
		q.Options, q.CorrectIndex = nil, 0
		var kps []string
		for _, kp := range q.KeyPoints {
			if kp = strings.TrimSpace(kp); kp != "" {
				kps = append(kps, kp)
			}
		}
		q.KeyPoints = kps
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// moduleID derives a unique id from the topic.
func moduleID(topic string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(topic), "-"), "-")
	if len(slug) > 40 {
		slug = strings.TrimRight(slug[:40], "-")
	}
	short := uuid.NewString()[:8]
	if slug == "" {
		return "generated-" + short
	}
	return slug + "-" + short
}
