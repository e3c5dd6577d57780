// Package notify carries non-fatal problems (network fallbacks, failed
// outbound writes) from the components that detect them to whoever is
// responsible for surfacing them.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Severity ranks a notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is a single report.
type Notice struct {
	Severity Severity
	Source   string // component that raised the notice, e.g. "catalog"
	Message  string
	Err      error
	At       time.Time
}

func (n Notice) String() string {
	if n.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", n.Source, n.Message, n.Err)
	}
	return fmt.Sprintf("[%s] %s", n.Source, n.Message)
}

// Notifier receives notices. Implementations must be safe for concurrent use
// and must not block the caller for long.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Warning builds a warning notice.
func Warning(source, message string, err error) Notice {
	return Notice{Severity: SeverityWarning, Source: source, Message: message, Err: err, At: time.Now()}
}

// Errorf builds an error notice.
func Errorf(source string, err error, format string, args ...any) Notice {
	return Notice{Severity: SeverityError, Source: source, Message: fmt.Sprintf(format, args...), Err: err, At: time.Now()}
}

// Info builds an informational notice.
func Info(source, message string) Notice {
	return Notice{Severity: SeverityInfo, Source: source, Message: message, At: time.Now()}
}

// Glog writes notices to the glog sink.
type Glog struct{}

func (Glog) Notify(_ context.Context, n Notice) {
	switch n.Severity {
	case SeverityError:
		glog.Error(n.String())
	case SeverityWarning:
		glog.Warning(n.String())
	default:
		glog.Info(n.String())
	}
}

// Nop discards notices.
type Nop struct{}

func (Nop) Notify(context.Context, Notice) {}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) {
	for _, each := range m {
		each.Notify(ctx, n)
	}
}

// Recorder keeps every notice in memory. Used by tests and by the CLI to
// print warnings after a command finishes.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Len returns the number of recorded notices.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}
