package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finscholars/finscholars/internal/cache"
	"github.com/finscholars/finscholars/internal/notify"
)

// Source fetches raw catalog payloads from the back-end.
type Source interface {
	// FetchModule returns the JSON of a single module.
	FetchModule(ctx context.Context, id string) ([]byte, error)

	// FetchCatalog returns a JSON catalog document.
	FetchCatalog(ctx context.Context) ([]byte, error)
}

// RemoteRegistry reads modules from the back-end, keeps the last good
// payloads in a cache, and falls back to another registry when both the
// back-end and the cache fail.
type RemoteRegistry struct {
	source   Source
	cache    cache.Cache
	fallback Registry
	notifier notify.Notifier
	ttl      time.Duration
}

// RemoteOption configures a RemoteRegistry.
type RemoteOption func(*RemoteRegistry)

// WithCache sets the payload cache and its TTL.
func WithCache(c cache.Cache, ttl time.Duration) RemoteOption {
	return func(r *RemoteRegistry) {
		r.cache = c
		r.ttl = ttl
	}
}

// WithFallback sets the registry consulted when remote data is unavailable.
func WithFallback(f Registry) RemoteOption {
	return func(r *RemoteRegistry) { r.fallback = f }
}

// WithNotifier sets where fallbacks are reported.
func WithNotifier(n notify.Notifier) RemoteOption {
	return func(r *RemoteRegistry) { r.notifier = n }
}

// NewRemoteRegistry creates a registry over src. Without options it caches
// in memory for ten minutes and falls back to the built-in catalog.
func NewRemoteRegistry(src Source, opts ...RemoteOption) *RemoteRegistry {
	r := &RemoteRegistry{
		source:   src,
		cache:    cache.NewMemory(),
		notifier: notify.Nop{},
		ttl:      10 * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fallback == nil {
		r.fallback = Default()
	}
	return r
}

// notFounder is implemented by transport errors that carry a 404.
type notFounder interface {
	NotFound() bool
}

func isRemoteNotFound(err error) bool {
	var nf notFounder
	return errors.As(err, &nf) && nf.NotFound()
}

func moduleKey(id string) string { return "module:" + id }

const catalogKey = "catalog"

func (r *RemoteRegistry) GetModuleByID(ctx context.Context, id string) (*Module, error) {
	data, err := r.source.FetchModule(ctx, id)
	if err == nil {
		m, derr := DecodeModule(data)
		if derr == nil {
			r.store(ctx, moduleKey(id), data)
			return m, nil
		}
		err = derr
	}

	if !isRemoteNotFound(err) {
		if cached, cerr := r.cache.Get(ctx, moduleKey(id)); cerr == nil {
			if m, derr := DecodeModule(cached); derr == nil {
				r.notifier.Notify(ctx, notify.Warning("catalog", fmt.Sprintf("serving cached module %q", id), err))
				return m, nil
			}
		}
	}

	m, ferr := r.fallback.GetModuleByID(ctx, id)
	if ferr != nil {
		if isRemoteNotFound(err) || errors.Is(ferr, ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get module %q: %w", id, err)
	}
	r.notifier.Notify(ctx, notify.Warning("catalog", fmt.Sprintf("serving built-in module %q", id), err))
	return m, nil
}

func (r *RemoteRegistry) ListModules(ctx context.Context) ([]Summary, error) {
	data, err := r.source.FetchCatalog(ctx)
	if err == nil {
		reg, derr := Decode(data)
		if derr == nil {
			r.store(ctx, catalogKey, data)
			return reg.ListModules(ctx)
		}
		err = derr
	}

	if cached, cerr := r.cache.Get(ctx, catalogKey); cerr == nil {
		if reg, derr := Decode(cached); derr == nil {
			r.notifier.Notify(ctx, notify.Warning("catalog", "serving cached module list", err))
			return reg.ListModules(ctx)
		}
	}

	r.notifier.Notify(ctx, notify.Warning("catalog", "serving built-in module list", err))
	return r.fallback.ListModules(ctx)
}

func (r *RemoteRegistry) store(ctx context.Context, key string, data []byte) {
	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		r.notifier.Notify(ctx, notify.Warning("catalog", "cache write failed", err))
	}
}
