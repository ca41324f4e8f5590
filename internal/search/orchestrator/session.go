// internal/search/orchestrator/session.go
package orchestrator

import (
	"context"
	"sync"
	"time"

	"expert-search/internal/common/logger"
	"expert-search/internal/common/metrics"
)

// DefaultDebounce is the quiet interval a Session waits before searching.
const DefaultDebounce = 300 * time.Millisecond

// Searcher is the part of the Orchestrator a Session drives.
type Searcher interface {
	Search(ctx context.Context, query string, useConstraintFiltering bool) *Outcome
}

// Result is a delivered search. Seq increases with every triggered run.
type Result struct {
	Seq     uint64   `json:"seq"`
	Outcome *Outcome `json:"outcome"`
}

// Session coalesces rapid submissions with a trailing-edge debounce and delivers
// only the result of the most recently triggered run.
type Session struct {
	searcher Searcher
	deliver  func(Result)
	interval time.Duration
	logger   logger.Logger

	mu         sync.Mutex
	timer      *time.Timer
	pending    *submission
	pendingGen uint64
	seq        uint64
	cancel     context.CancelFunc
	closed     bool
	dropped    int

	deliverMu sync.Mutex
	wg        sync.WaitGroup
	ctx       context.Context
	stop      context.CancelFunc
}

type submission struct {
	query                  string
	useConstraintFiltering bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDebounce sets the quiet interval. Non-positive values keep the default.
func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithSessionLogger(log logger.Logger) SessionOption {
	return func(s *Session) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewSession returns a Session delivering results to deliver. deliver is called
// on a background goroutine, one call at a time, and must not call Close.
func NewSession(searcher Searcher, deliver func(Result), opts ...SessionOption) *Session {
	ctx, stop := context.WithCancel(context.Background())
	s := &Session{
		searcher: searcher,
		deliver:  deliver,
		interval: DefaultDebounce,
		logger:   logger.NewNoOpLogger(),
		ctx:      ctx,
		stop:     stop,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithFields(map[string]interface{}{"component": "search-session"})
	return s
}

// Submit restarts the quiet interval for query. It returns false once the session is closed.
func (s *Session) Submit(query string, useConstraintFiltering bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.pendingGen++
	gen := s.pendingGen
	s.pending = &submission{query: query, useConstraintFiltering: useConstraintFiltering}
	s.timer = time.AfterFunc(s.interval, func() {
		s.fire(gen, query, useConstraintFiltering)
	})
	return true
}

func (s *Session) fire(gen uint64, query string, useConstraintFiltering bool) {
	s.mu.Lock()
	// A timer that fired while Submit was replacing it is superseded.
	if s.closed || gen != s.pendingGen {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer cancel()

	out := s.searcher.Search(ctx, query, useConstraintFiltering)

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	if !s.isLatest(seq) {
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		metrics.SearchStaleResultsDropped.Inc()
		s.logger.Debug("dropping stale search result", map[string]interface{}{
			"seq":   seq,
			"query": query,
		})
		return
	}
	s.deliver(Result{Seq: seq, Outcome: out})
}

func (s *Session) isLatest(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && seq == s.seq
}

// Dropped returns how many finished runs were discarded as stale.
func (s *Session) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Flush runs the pending submission without waiting out the quiet interval, then
// waits for every in-flight run to finish. The caller must not Submit concurrently.
func (s *Session) Flush() {
	s.mu.Lock()
	next := s.pending
	var gen uint64
	if next != nil && !s.closed {
		if s.timer != nil {
			s.timer.Stop()
		}
		// Invalidate the timer in case it already fired and is waiting on mu.
		s.pendingGen++
		gen = s.pendingGen
	}
	s.mu.Unlock()

	if next != nil {
		s.fire(gen, next.query, next.useConstraintFiltering)
	}
	s.wg.Wait()
}

// Close stops the pending timer, cancels in-flight work and waits for it to return.
// No result is delivered after Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
}
