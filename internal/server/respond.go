package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/golang/glog"

	"github.com/finscholars/finscholars/internal/catalog"
	"github.com/finscholars/finscholars/internal/quiz"
	"github.com/finscholars/finscholars/internal/session"
)

// Message types carried in every response envelope.
const (
	TypeSuccess = "success"
	TypeError   = "error"
)

// HTTPMessage is the envelope of error and plain responses.
type HTTPMessage struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HTTPContent is the envelope of successful responses with a body.
type HTTPContent struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Content any    `json:"content"`
}

// HTTPError is an error response that carries the attempt so the caller
// can re-render it.
type HTTPError struct {
	HTTPMessage
	Unanswered *int          `json:"unanswered,omitempty"`
	Attempt    *session.View `json:"attempt,omitempty"`
}

func ReturnHTTPMessage(w http.ResponseWriter, r *http.Request, httpStatus int, messageType string, message string) {
	writeJSON(w, httpStatus, HTTPMessage{
		Type:    messageType,
		Status:  strconv.Itoa(httpStatus),
		Message: message,
	})
}

func ReturnHTTPContent(w http.ResponseWriter, r *http.Request, httpStatus int, messageType string, content any) {
	writeJSON(w, httpStatus, HTTPContent{
		Type:    messageType,
		Status:  strconv.Itoa(httpStatus),
		Content: content,
	})
}

func writeJSON(w http.ResponseWriter, httpStatus int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		glog.Errorf("error encoding response: %v", err)
	}
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrUnknownLevel):
		return http.StatusNotFound
	case errors.Is(err, session.ErrLevelLocked):
		return http.StatusForbidden
	case errors.Is(err, quiz.ErrInvalidQuiz),
		errors.Is(err, quiz.ErrInvalidAnswer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, quiz.ErrAlreadyAnswered),
		errors.Is(err, quiz.ErrIncompleteAttempt),
		errors.Is(err, quiz.ErrNotAnswered),
		errors.Is(err, quiz.ErrAtFirstQuestion),
		errors.Is(err, quiz.ErrAttemptFinalized),
		errors.Is(err, quiz.ErrAttemptCompleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// returnError writes err with its mapped status. A non-nil view is
// attached to conflicts.
func returnError(w http.ResponseWriter, r *http.Request, err error, view *session.View) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		glog.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		ReturnHTTPMessage(w, r, status, TypeError, "internal error")
		return
	}
	glog.V(2).Infof("%s %s: %d %v", r.Method, r.URL.Path, status, err)

	if status != http.StatusConflict || view == nil {
		ReturnHTTPMessage(w, r, status, TypeError, err.Error())
		return
	}
	body := HTTPError{
		HTTPMessage: HTTPMessage{Type: TypeError, Status: strconv.Itoa(status), Message: err.Error()},
		Attempt:     view,
	}
	if errors.Is(err, quiz.ErrIncompleteAttempt) {
		n := view.Unanswered()
		body.Unanswered = &n
	}
	writeJSON(w, status, body)
}
