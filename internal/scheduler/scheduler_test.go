package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/finscholars/finscholars/internal/cache"
)

type countingPruner struct {
	calls  atomic.Int32
	maxAge atomic.Int64
}

func (p *countingPruner) Prune(maxAge time.Duration) int {
	p.calls.Add(1)
	p.maxAge.Store(int64(maxAge))
	return 2
}

func TestRunOnce(t *testing.T) {
	p := &countingPruner{}
	mem := cache.NewMemory()
	s := New(Config{Interval: time.Hour, AttemptTTL: 24 * time.Hour}, p, mem)

	sw := s.RunOnce()
	if sw.Attempts != 2 || sw.CacheEntries != 0 {
		t.Errorf("sweep = %+v", sw)
	}
	if time.Duration(p.maxAge.Load()) != 24*time.Hour {
		t.Errorf("prune max age = %v", time.Duration(p.maxAge.Load()))
	}
}

func TestRunOnceWithoutCache(t *testing.T) {
	s := New(Config{Interval: time.Hour}, &countingPruner{}, nil)
	if sw := s.RunOnce(); sw.CacheEntries != 0 {
		t.Errorf("sweep = %+v", sw)
	}
}

func TestStartSchedulesJob(t *testing.T) {
	p := &countingPruner{}
	s := New(Config{Interval: 20 * time.Millisecond, AttemptTTL: time.Minute}, p, nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if s.Jobs() != 1 {
		t.Errorf("jobs = %d, want 1", s.Jobs())
	}
	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("cleanup never ran")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStartRejectsZeroInterval(t *testing.T) {
	s := New(Config{}, &countingPruner{}, nil)
	if err := s.Start(); err == nil {
		t.Fatal("expected error")
	}
}
