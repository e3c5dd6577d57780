package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/finscholars/finscholars/internal/progression"
	"github.com/finscholars/finscholars/internal/quiz"
	"github.com/finscholars/finscholars/internal/session"
)

const maxBodyBytes = 64 << 10

type startAttemptRequest struct {
	ModuleID string `json:"module_id" validate:"required"`
	Level    string `json:"level" validate:"required"`
}

type answerRequest struct {
	QuestionID string  `json:"question_id" validate:"required"`
	Choice     *int    `json:"choice" validate:"omitempty,min=0"`
	Text       *string `json:"text"`
}

type answerResponse struct {
	Record  *session.RecordView `json:"record"`
	Attempt *session.View       `json:"attempt"`
}

type finalizeResponse struct {
	*session.Outcome
	Attempt *session.View `json:"attempt"`
}

// decode reads a JSON body into dst and validates it. It writes the
// error response itself and reports whether the handler may continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		ReturnHTTPMessage(w, r, http.StatusBadRequest, TypeError, fmt.Sprintf("malformed request body: %v", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			ReturnHTTPMessage(w, r, http.StatusUnprocessableEntity, TypeError,
				fmt.Sprintf("field %s failed %s validation", fe.Field(), fe.Tag()))
			return false
		}
		ReturnHTTPMessage(w, r, http.StatusUnprocessableEntity, TypeError, err.Error())
		return false
	}
	return true
}

func (s *Server) StartAttemptFunc(w http.ResponseWriter, r *http.Request) {
	var req startAttemptRequest
	if !s.decode(w, r, &req) {
		return
	}
	level, err := progression.ParseLevel(req.Level)
	if err != nil {
		ReturnHTTPMessage(w, r, http.StatusUnprocessableEntity, TypeError, err.Error())
		return
	}
	view, err := s.sessions.Start(r.Context(), UserFrom(r.Context()), req.ModuleID, level)
	if err != nil {
		returnError(w, r, err, nil)
		return
	}
	ReturnHTTPContent(w, r, http.StatusCreated, TypeSuccess, view)
}

func (s *Server) GetAttemptFunc(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessions.Get(r.Context(), UserFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		returnError(w, r, err, nil)
		return
	}
	ReturnHTTPContent(w, r, http.StatusOK, TypeSuccess, view)
}

func (s *Server) SubmitAnswerFunc(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !s.decode(w, r, &req) {
		return
	}
	var ans quiz.Answer
	switch {
	case req.Choice != nil && req.Text != nil:
		ReturnHTTPMessage(w, r, http.StatusUnprocessableEntity, TypeError, "give either choice or text, not both")
		return
	case req.Choice != nil:
		ans = quiz.Choice(*req.Choice)
	case req.Text != nil:
		ans = quiz.Text(*req.Text)
	default:
		ReturnHTTPMessage(w, r, http.StatusUnprocessableEntity, TypeError, "choice or text is required")
		return
	}

	rec, view, err := s.sessions.Submit(r.Context(), UserFrom(r.Context()), mux.Vars(r)["id"], req.QuestionID, ans)
	if err != nil {
		returnError(w, r, err, view)
		return
	}
	ReturnHTTPContent(w, r, http.StatusOK, TypeSuccess, answerResponse{Record: rec, Attempt: view})
}

func (s *Server) NextFunc(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessions.Next(r.Context(), UserFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		returnError(w, r, err, view)
		return
	}
	ReturnHTTPContent(w, r, http.StatusOK, TypeSuccess, view)
}

func (s *Server) PreviousFunc(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessions.Previous(r.Context(), UserFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		returnError(w, r, err, view)
		return
	}
	ReturnHTTPContent(w, r, http.StatusOK, TypeSuccess, view)
}

func (s *Server) FinalizeFunc(w http.ResponseWriter, r *http.Request) {
	out, view, err := s.sessions.Finalize(r.Context(), UserFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		returnError(w, r, err, view)
		return
	}
	s.metrics.attemptFinalized(string(out.Level), out.Passed)
	ReturnHTTPContent(w, r, http.StatusOK, TypeSuccess, finalizeResponse{Outcome: out, Attempt: view})
}

func (s *Server) DiscardAttemptFunc(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Discard(r.Context(), UserFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		returnError(w, r, err, nil)
		return
	}
	ReturnHTTPMessage(w, r, http.StatusOK, TypeSuccess, "attempt discarded")
}
