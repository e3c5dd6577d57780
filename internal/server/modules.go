package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/finscholars/finscholars/internal/catalog"
	"github.com/finscholars/finscholars/internal/progression"
)

// levelStatus is one level of a module with the user's progress.
type levelStatus struct {
	Level  progression.Level       `json:"level"`
	Name   string                  `json:"name"`
	Status progression.LevelStatus `json:"status"`
	Score  *float64                `json:"best_score"`
}

// levelDetail adds the reading material of the level. Quizzes are only
// handed out through attempts.
type levelDetail struct {
	levelStatus
	Sections []catalog.Section `json:"sections"`
}

type moduleDetail struct {
	catalog.Summary
	Levels []levelDetail `json:"levels"`
}

func levelStatuses(views []progression.LevelView) []levelStatus {
	out := make([]levelStatus, 0, len(views))
	for _, v := range views {
		ls := levelStatus{Level: v.Level, Name: v.Level.DisplayName(), Status: v.Status}
		if v.Scored {
			score := v.Score
			ls.Score = &score
		}
		out = append(out, ls)
	}
	return out
}

func (s *Server) ListModulesFunc(w http.ResponseWriter, r *http.Request) {
	modules, err := s.registry.ListModules(r.Context())
	if err != nil {
		returnError(w, r, err, nil)
		return
	}
	if modules == nil {
		modules = []catalog.Summary{}
	}
	ReturnHTTPContent(w, r, http.StatusOK, TypeSuccess, modules)
}

func (s *Server) GetModuleFunc(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	m, err := s.registry.GetModuleByID(r.Context(), id)
	if err != nil {
		returnError(w, r, err, nil)
		return
	}
	views, err := s.sessions.Levels(r.Context(), UserFrom(r.Context()), id)
	if err != nil {
		returnError(w, r, err, nil)
		return
	}

	detail := moduleDetail{Summary: m.Summary()}
	for _, ls := range levelStatuses(views) {
		ld := levelDetail{levelStatus: ls, Sections: []catalog.Section{}}
		if lc, ok := m.Level(ls.Level); ok && lc.Sections != nil {
			ld.Sections = lc.Sections
		}
		detail.Levels = append(detail.Levels, ld)
	}
	ReturnHTTPContent(w, r, http.StatusOK, TypeSuccess, detail)
}

func (s *Server) ModuleProgressFunc(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	views, err := s.sessions.Levels(r.Context(), UserFrom(r.Context()), id)
	if err != nil {
		returnError(w, r, err, nil)
		return
	}
	ReturnHTTPContent(w, r, http.StatusOK, TypeSuccess, map[string]any{
		"module_id": id,
		"levels":    levelStatuses(views),
	})
}

func (s *Server) ResetProgressFunc(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.ResetProgress(r.Context(), UserFrom(r.Context())); err != nil {
		returnError(w, r, err, nil)
		return
	}
	ReturnHTTPMessage(w, r, http.StatusOK, TypeSuccess, "progress reset")
}

func (s *Server) ListBadgesFunc(w http.ResponseWriter, r *http.Request) {
	if s.badges == nil {
		ReturnHTTPContent(w, r, http.StatusOK, TypeSuccess, []any{})
		return
	}
	gallery, err := s.badges.Gallery(r.Context(), UserFrom(r.Context()))
	if err != nil {
		returnError(w, r, err, nil)
		return
	}
	ReturnHTTPContent(w, r, http.StatusOK, TypeSuccess, gallery)
}

func (s *Server) MarkBadgesSeenFunc(w http.ResponseWriter, r *http.Request) {
	if s.badges != nil {
		if err := s.badges.MarkSeen(r.Context(), UserFrom(r.Context())); err != nil {
			returnError(w, r, err, nil)
			return
		}
	}
	ReturnHTTPMessage(w, r, http.StatusOK, TypeSuccess, "badges marked as seen")
}
