package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/repository"
	"github.com/immxrtalbeast/skillswap/lib/logger/sl"
)

type SweeperOptions struct {
	Interval time.Duration
	// NoShowGrace is how long a scheduled session may sit past its start
	// before it is cancelled and refunded.
	NoShowGrace time.Duration
	// OverrunGrace is how long an in-progress session may run past its end
	// before it is completed on the participants' behalf.
	OverrunGrace time.Duration
	Now          func() time.Time
}

type SweepReport struct {
	Expired  int
	NoShows  int
	Overruns int
	Failures int
}

// Sweeper periodically applies the time-driven transitions: stale pending
// requests expire, no-show sessions are cancelled and overrun sessions are
// completed. Every transition goes through the state machines, so racing a
// participant's own call is harmless.
type Sweeper struct {
	repos    repository.Repositories
	swaps    SwapInteractor
	sessions SessionInteractor
	opts     SweeperOptions
	log      *slog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

func NewSweeper(repos repository.Repositories, swaps SwapInteractor, sessions SessionInteractor, opts SweeperOptions, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sweeper{
		repos:    repos,
		swaps:    swaps,
		sessions: sessions,
		opts:     opts,
		log:      log,
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	stop := make(chan struct{})
	s.stopChan = stop
	s.mu.Unlock()

	log := s.log.With(slog.String("op", "service.sweeper"))
	log.Info("sweeper started", slog.Duration("interval", s.opts.Interval))

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.markStopped(stop)
			log.Info("sweeper stopped", slog.String("reason", "context done"))
			return
		case <-stop:
			log.Info("sweeper stopped")
			return
		case <-ticker.C:
			report := s.RunOnce(ctx)
			if report != (SweepReport{}) {
				log.Info("sweep finished",
					slog.Int("expired", report.Expired),
					slog.Int("no_shows", report.NoShows),
					slog.Int("overruns", report.Overruns),
					slog.Int("failures", report.Failures),
				)
			}
		}
	}
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		close(s.stopChan)
		s.running = false
	}
}

func (s *Sweeper) markStopped(stop chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running && s.stopChan == stop {
		s.running = false
	}
}

// RunOnce performs a single sweep at the current time.
func (s *Sweeper) RunOnce(ctx context.Context) SweepReport {
	const op = "service.sweeper.run"
	log := s.log.With(slog.String("op", op))

	var report SweepReport
	now := s.opts.Now()

	pending, err := s.repos.SwapRequests().ListPending(ctx, now)
	if err != nil {
		log.Error("failed to list pending requests", sl.Err(err))
		report.Failures++
	}
	for _, req := range pending {
		got, err := s.swaps.Expire(ctx, req.ID)
		switch {
		case err != nil:
			log.Warn("failed to expire request", slog.String("request_id", req.ID.String()), sl.Err(err))
			report.Failures++
		case got.Status == domain.SwapRequestExpired:
			report.Expired++
		}
	}

	scheduled, err := s.repos.Sessions().ListByStatus(ctx, domain.SessionScheduled, now.Add(-s.opts.NoShowGrace))
	if err != nil {
		log.Error("failed to list scheduled sessions", sl.Err(err))
		report.Failures++
	}
	for _, session := range scheduled {
		got, err := s.sessions.Cancel(ctx, session.ID, domain.SystemActor())
		switch {
		case err != nil:
			log.Warn("failed to cancel no-show session", slog.String("session_id", session.ID.String()), sl.Err(err))
			report.Failures++
		case got.Status == domain.SessionCancelled:
			report.NoShows++
		}
	}

	live, err := s.repos.Sessions().ListByStatus(ctx, domain.SessionInProgress, now)
	if err != nil {
		log.Error("failed to list live sessions", sl.Err(err))
		report.Failures++
	}
	for _, session := range live {
		if now.Before(session.EndsAt().Add(s.opts.OverrunGrace)) {
			continue
		}
		got, err := s.sessions.Complete(ctx, session.ID, domain.SystemActor())
		switch {
		case err != nil:
			log.Warn("failed to complete overrun session", slog.String("session_id", session.ID.String()), sl.Err(err))
			report.Failures++
		case got.Status == domain.SessionCompleted:
			report.Overruns++
		}
	}

	return report
}
