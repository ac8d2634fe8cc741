package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/farebridge/agency-booking/internal/gds"
	"github.com/farebridge/agency-booking/internal/models"
)

// ErrTimeout is reported when the ceiling elapses with zero candidates.
var ErrTimeout = errors.New("search timed out before any results arrived")

// Fetcher is the single upstream operation the poller drives.
type Fetcher interface {
	GetExpSearch(ctx context.Context, req *gds.GetExpSearchRequest) (*gds.GetExpSearchResponse, error)
}

type Config struct {
	Interval          time.Duration // delay between successful polls
	Ceiling           time.Duration // hard stop for the whole search
	RetryBase         time.Duration // first retry delay after a poll failure
	RetryStep         time.Duration // added per consecutive failure
	RetryCap          time.Duration // backoff ceiling
	RetryFallback     time.Duration // fixed delay once backoff retries are spent
	MaxBackoffRetries int
}

func DefaultConfig() Config {
	return Config{
		Interval:          2500 * time.Millisecond,
		Ceiling:           90 * time.Second,
		RetryBase:         3 * time.Second,
		RetryStep:         time.Second,
		RetryCap:          8 * time.Second,
		RetryFallback:     3 * time.Second,
		MaxBackoffRetries: 5,
	}
}

// Snapshot is the caller-visible state of a search session.
type Snapshot struct {
	TUI        string             `json:"tui"`
	Candidates []models.Candidate `json:"candidates"`
	Complete   bool               `json:"complete"`
	TimedOut   bool               `json:"timedOut"`
}

// Search drives one asynchronous search session to completion. Polls never
// overlap: the next poll is scheduled only after the previous response is
// handled. Cancellation is cooperative; in-flight calls are not aborted,
// their results are just never requested again.
type Search struct {
	tui      string
	clientID string
	client   Fetcher
	cfg      Config
	log      *logrus.Entry
	onBatch  func(candidates []models.Candidate, complete bool)

	mu         sync.RWMutex
	candidates []models.Candidate
	complete   bool
	timedOut   bool

	cancelled atomic.Bool
	done      chan struct{}
}

func New(client Fetcher, clientID, tui string, cfg Config, log *logrus.Entry) *Search {
	return &Search{
		tui:      tui,
		clientID: clientID,
		client:   client,
		cfg:      cfg,
		log:      log,
		done:     make(chan struct{}),
	}
}

// OnBatch registers a callback invoked after every accepted batch and on
// completion. Must be set before Run.
func (s *Search) OnBatch(fn func(candidates []models.Candidate, complete bool)) {
	s.onBatch = fn
}

// TUI returns the session token this search polls.
func (s *Search) TUI() string {
	return s.tui
}

// Cancel sets the cooperative cancellation flag. No further network calls
// are issued once it is observed.
func (s *Search) Cancel() {
	s.cancelled.Store(true)
}

// Done is closed when the polling loop has exited.
func (s *Search) Done() <-chan struct{} {
	return s.done
}

// Snapshot returns a copy of the current candidate list and completion state.
func (s *Search) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Snapshot{
		TUI:        s.tui,
		Candidates: make([]models.Candidate, len(s.candidates)),
		Complete:   s.complete,
		TimedOut:   s.timedOut,
	}
	copy(out.Candidates, s.candidates)
	return out
}

// Run executes the polling loop until completion, timeout, cancellation or
// context end. It returns ErrTimeout only when the ceiling elapsed with zero
// candidates; a timeout with partial results stops silently.
func (s *Search) Run(ctx context.Context) error {
	defer close(s.done)

	start := time.Now()
	retries := 0
	delay := s.cfg.Interval

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if s.cancelled.Load() {
			return nil
		}

		if time.Since(start) >= s.cfg.Ceiling {
			return s.finishOnCeiling()
		}

		resp, err := s.client.GetExpSearch(ctx, &gds.GetExpSearchRequest{
			ClientID: s.clientID,
			TUI:      s.tui,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			retries++
			if retries <= s.cfg.MaxBackoffRetries {
				delay = s.cfg.RetryBase + time.Duration(retries-1)*s.cfg.RetryStep
				if delay > s.cfg.RetryCap {
					delay = s.cfg.RetryCap
				}
			} else {
				delay = s.cfg.RetryFallback
			}
			s.log.WithError(err).WithFields(logrus.Fields{
				"tui":     s.tui,
				"retry":   retries,
				"timeout": gds.IsTimeout(err),
			}).Warn("search poll failed, retrying")
			timer.Reset(delay)
			continue
		}

		retries = 0
		delay = s.cfg.Interval

		// The upstream returns the full current set each call; the batch
		// replaces the previous list rather than appending to it.
		batch := resp.Candidates()
		models.SortCandidates(batch)
		complete := resp.IsComplete()

		s.mu.Lock()
		if len(batch) > 0 || complete {
			s.candidates = batch
		}
		s.complete = complete
		s.mu.Unlock()

		if s.onBatch != nil {
			s.onBatch(batch, complete)
		}

		if complete {
			s.log.WithFields(logrus.Fields{
				"tui":        s.tui,
				"candidates": len(batch),
				"elapsed":    time.Since(start).Round(time.Millisecond),
			}).Info("search completed")
			return nil
		}

		timer.Reset(delay)
	}
}

func (s *Search) finishOnCeiling() error {
	s.mu.Lock()
	empty := len(s.candidates) == 0
	if empty {
		s.timedOut = true
	} else {
		// Partial results are acceptable; stop polling silently.
		s.complete = true
	}
	candidates := s.candidates
	s.mu.Unlock()

	if s.onBatch != nil {
		s.onBatch(candidates, !empty)
	}
	if empty {
		s.log.WithField("tui", s.tui).Warn("search ceiling reached with no results")
		return ErrTimeout
	}
	return nil
}
