package achievements

import (
	"context"
	"fmt"
	"time"

	"github.com/finscholars/finscholars/internal/catalog"
	"github.com/finscholars/finscholars/internal/events"
	"github.com/finscholars/finscholars/internal/notify"
	"github.com/finscholars/finscholars/internal/store"
)

// Award is a badge earned by a user.
type Award struct {
	Type      BadgeType `json:"badge"`
	Name      string    `json:"name"`
	AwardedAt time.Time `json:"awarded_at"`
	IsNew     bool      `json:"is_new"`
}

// Status is one entry of the badge gallery.
type Status struct {
	Type        BadgeType  `json:"badge"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Earned      bool       `json:"earned"`
	AwardedAt   *time.Time `json:"earned_date"`
	IsNew       bool       `json:"is_new"`
}

// Service evaluates badge eligibility and records awards.
type Service struct {
	progress  store.ProgressRepo
	attempts  store.AttemptRepo
	badges    store.BadgeRepo
	registry  catalog.Registry
	publisher events.Publisher
	notifier  notify.Notifier
	now       func() time.Time
}

// Deps are the collaborators of a Service. Publisher and Notifier may be nil.
type Deps struct {
	Progress  store.ProgressRepo
	Attempts  store.AttemptRepo
	Badges    store.BadgeRepo
	Registry  catalog.Registry
	Publisher events.Publisher
	Notifier  notify.Notifier
}

// NewService creates a badge service.
func NewService(d Deps) *Service {
	s := &Service{
		progress:  d.Progress,
		attempts:  d.Attempts,
		badges:    d.Badges,
		registry:  d.Registry,
		publisher: d.Publisher,
		notifier:  d.Notifier,
		now:       time.Now,
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	return s
}

// Evaluate awards every badge the user now qualifies for and returns the
// newly awarded ones. Badges already held are not awarded again.
func (s *Service) Evaluate(ctx context.Context, userID string) ([]Award, error) {
	facts, err := s.facts(ctx, userID)
	if err != nil {
		return nil, err
	}

	var awarded []Award
	for _, t := range Eligible(facts) {
		at := s.now()
		isNew, err := s.badges.AwardBadge(ctx, userID, string(t), at)
		if err != nil {
			return awarded, fmt.Errorf("award %s: %w", t, err)
		}
		if !isNew {
			continue
		}
		awarded = append(awarded, Award{Type: t, Name: t.DisplayName(), AwardedAt: at, IsNew: true})
		s.publish(ctx, events.NewBadgeAwarded(userID, string(t)))
	}
	return awarded, nil
}

// Gallery lists every badge with the user's earned state.
func (s *Service) Gallery(ctx context.Context, userID string) ([]Status, error) {
	records, err := s.badges.Badges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	earned := make(map[string]store.BadgeRecord, len(records))
	for _, r := range records {
		earned[r.Badge] = r
	}

	out := make([]Status, 0, len(AllBadgeTypes()))
	for _, t := range AllBadgeTypes() {
		st := Status{
			Type:        t,
			Name:        t.DisplayName(),
			Description: t.Description(),
			Icon:        t.Icon(),
		}
		if r, ok := earned[string(t)]; ok {
			at := r.AwardedAt
			st.Earned = true
			st.AwardedAt = &at
			st.IsNew = !r.Seen
		}
		out = append(out, st)
	}
	return out, nil
}

// MarkSeen clears the new flag on the user's badges.
func (s *Service) MarkSeen(ctx context.Context, userID string) error {
	return s.badges.MarkSeen(ctx, userID)
}

func (s *Service) facts(ctx context.Context, userID string) (Facts, error) {
	completed, err := s.progress.CompletedModules(ctx, userID)
	if err != nil {
		return Facts{}, fmt.Errorf("load completed modules: %w", err)
	}
	stats, err := s.attempts.Stats(ctx, userID)
	if err != nil {
		return Facts{}, fmt.Errorf("load attempt stats: %w", err)
	}
	var summaries []catalog.Summary
	if s.registry != nil {
		summaries, err = s.registry.ListModules(ctx)
		if err != nil {
			// Category badges wait for the next evaluation.
			s.notifier.Notify(ctx, notify.Warning("achievements", "module list unavailable", err))
		}
	}
	return Facts{
		CompletedModules: completed,
		PerfectScores:    stats.Perfect,
		PassingDays:      stats.PassingDays,
		Catalog:          summaries,
	}, nil
}

func (s *Service) publish(ctx context.Context, e *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := events.PublishAll(ctx, s.publisher, e); err != nil {
		s.notifier.Notify(ctx, notify.Warning("achievements", "publish badge event", err))
	}
}
