package catalog

import (
	"context"
	"fmt"
	"strings"
)

// StaticRegistry serves an in-memory catalog. Lookups go through an id
// index; listing follows the order modules were added.
type StaticRegistry struct {
	modules []*Module
	byID    map[string]*Module
}

// NewStaticRegistry validates the modules and builds the registry.
func NewStaticRegistry(modules ...*Module) (*StaticRegistry, error) {
	if err := validateModules(modules); err != nil {
		return nil, err
	}
	r := &StaticRegistry{
		modules: make([]*Module, 0, len(modules)),
		byID:    make(map[string]*Module, len(modules)),
	}
	for _, m := range modules {
		normalizeModule(m)
		r.modules = append(r.modules, m)
		r.byID[m.ID] = m
	}
	return r, nil
}

func (r *StaticRegistry) GetModuleByID(_ context.Context, id string) (*Module, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return m, nil
}

func (r *StaticRegistry) ListModules(_ context.Context) ([]Summary, error) {
	out := make([]Summary, len(r.modules))
	for i, m := range r.modules {
		out[i] = m.Summary()
	}
	return out, nil
}

// Modules returns every module in catalog order.
func (r *StaticRegistry) Modules() []*Module {
	out := make([]*Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Len returns the number of modules.
func (r *StaticRegistry) Len() int {
	return len(r.modules)
}

// normalizeModule fills quiz ownership fields the catalog leaves implicit.
func normalizeModule(m *Module) {
	for i := range m.Levels {
		lc := &m.Levels[i]
		if lc.Quiz == nil {
			continue
		}
		if lc.Quiz.ModuleID == "" {
			lc.Quiz.ModuleID = m.ID
		}
		if lc.Quiz.Level == "" {
			lc.Quiz.Level = string(lc.Level)
		}
		if lc.Quiz.ID == "" {
			lc.Quiz.ID = fmt.Sprintf("%s-%s", m.ID, lc.Level)
		}
	}
}

// validateModules performs all structural checks on a module set and
// returns one error describing every problem found.
func validateModules(modules []*Module) error {
	var errs []string
	seen := make(map[string]bool, len(modules))

	for _, m := range modules {
		if m == nil {
			errs = append(errs, "nil module")
			continue
		}
		if strings.TrimSpace(m.ID) == "" {
			errs = append(errs, fmt.Sprintf("module %q has no id", m.Title))
			continue
		}
		if seen[m.ID] {
			errs = append(errs, fmt.Sprintf("duplicate module ID: %q", m.ID))
		}
		seen[m.ID] = true

		levelSeen := make(map[string]bool, len(m.Levels))
		for _, lc := range m.Levels {
			if levelSeen[string(lc.Level)] {
				errs = append(errs, fmt.Sprintf("module %q lists level %q twice", m.ID, lc.Level))
			}
			levelSeen[string(lc.Level)] = true
			if lc.Quiz != nil {
				if err := lc.Quiz.Validate(); err != nil {
					errs = append(errs, fmt.Sprintf("module %q level %q: %v", m.ID, lc.Level, err))
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
