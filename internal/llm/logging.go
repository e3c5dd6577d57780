package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/finscholars/finscholars/internal/store"
)

// LoggingProvider logs every request to glog and, when a repo is set,
// records it in the llm_requests table.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   store.EventRepo
}

// WithLogging wraps p with request logging. events may be nil.
func WithLogging(p Provider, providerName string, events store.EventRepo) Provider {
	return &LoggingProvider{inner: p, provider: providerName, events: events}
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	latency := time.Since(start)

	data := store.LLMRequestEventData{
		Provider:  l.provider,
		Model:     l.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: latency.Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		data.Model = resp.Model
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		glog.Errorf("llm %s/%s %s failed after %s: %v", data.Provider, data.Model, data.Purpose, latency, err)
	} else {
		glog.V(2).Infof("llm %s/%s %s: %d in, %d out, %s",
			data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens, latency)
	}

	if l.events != nil {
		if lerr := l.events.AppendLLMRequest(ctx, data); lerr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to record LLM request: %v\n", lerr)
		}
	}
	return resp, err
}
