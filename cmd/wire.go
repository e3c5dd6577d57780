package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finscholars/finscholars/internal/achievements"
	"github.com/finscholars/finscholars/internal/backend"
	"github.com/finscholars/finscholars/internal/cache"
	"github.com/finscholars/finscholars/internal/catalog"
	"github.com/finscholars/finscholars/internal/config"
	"github.com/finscholars/finscholars/internal/events"
	"github.com/finscholars/finscholars/internal/notify"
	"github.com/finscholars/finscholars/internal/progression"
	"github.com/finscholars/finscholars/internal/session"
	"github.com/finscholars/finscholars/internal/store"
)

// stderrNotifier prints non-fatal problems for terminal commands.
type stderrNotifier struct{}

func (stderrNotifier) Notify(_ context.Context, n notify.Notice) {
	fmt.Fprintf(os.Stderr, "warning: %s\n", n)
}

// engine is the quiz engine wired for one process.
type engine struct {
	registry catalog.Registry
	sessions *session.Service
	badges   *achievements.Service
}

type engineDeps struct {
	cfg       config.Config
	store     *store.Store
	backend   *backend.Client // nil when FINSCHOLARS_BACKEND_URL is unset
	cache     cache.Cache     // nil disables remote payload caching
	publisher events.Publisher
	notifier  notify.Notifier
}

// newBackend returns a client for the configured back-end, or nil.
func newBackend(cfg config.Config) *backend.Client {
	if cfg.BackendURL == "" {
		return nil
	}
	bc := backend.DefaultConfig(cfg.BackendURL)
	bc.Timeout = cfg.BackendTimeout
	return backend.New(bc)
}

// buildRegistry serves the catalog file or the built-in catalog, fronted by
// the back-end when one is configured.
func buildRegistry(d engineDeps) (catalog.Registry, error) {
	var base catalog.Registry = catalog.Default()
	if d.cfg.CatalogFile != "" {
		r, err := catalog.LoadFile(d.cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		base = r
	}
	if d.backend == nil {
		return base, nil
	}
	opts := []catalog.RemoteOption{
		catalog.WithFallback(base),
		catalog.WithNotifier(d.notifier),
	}
	if d.cache != nil {
		opts = append(opts, catalog.WithCache(d.cache, d.cfg.CacheTTL))
	}
	return catalog.NewRemoteRegistry(d.backend, opts...), nil
}

func newEngine(d engineDeps) (*engine, error) {
	if d.notifier == nil {
		d.notifier = stderrNotifier{}
	}
	reg, err := buildRegistry(d)
	if err != nil {
		return nil, err
	}

	badges := achievements.NewService(achievements.Deps{
		Progress:  d.store.ProgressRepo(),
		Attempts:  d.store.AttemptRepo(),
		Badges:    d.store.BadgeRepo(),
		Registry:  reg,
		Publisher: d.publisher,
		Notifier:  d.notifier,
	})
	deps := session.Deps{
		Registry:  reg,
		Tracker:   progression.NewTracker(progression.DefaultLevelOrder()),
		Manager:   session.NewManager(),
		Attempts:  d.store.AttemptRepo(),
		Progress:  d.store.ProgressRepo(),
		Publisher: d.publisher,
		Badges:    badges,
		Notifier:  d.notifier,
	}
	if d.backend != nil {
		deps.Results = d.backend
	}
	return &engine{
		registry: reg,
		sessions: session.NewService(deps),
		badges:   badges,
	}, nil
}

// localCtx is what terminal commands work with: the local store and an
// engine that records to it.
type localCtx struct {
	cfg    config.Config
	store  *store.Store
	engine *engine
	user   string
}

func (l *localCtx) Close() error {
	return l.store.Close()
}

// openLocal wires an engine over the local store for the current user.
// Results are sent to the back-end when one is configured and a token is
// saved.
func openLocal(cmd *cobra.Command) (*localCtx, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	s, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	eng, err := newEngine(engineDeps{
		cfg:     cfg,
		store:   s,
		backend: newBackend(cfg),
		cache:   cache.NewMemory(),
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	return &localCtx{
		cfg:    cfg,
		store:  s,
		engine: eng,
		user:   resolveUser(context.Background(), cmd, s),
	}, nil
}

// authContext attaches the saved back-end token, if any.
func (l *localCtx) authContext(ctx context.Context) context.Context {
	tok, ok, err := l.store.KVRepo().Get(ctx, tokenKey)
	if err != nil || !ok {
		return ctx
	}
	return backend.WithToken(ctx, tok)
}
