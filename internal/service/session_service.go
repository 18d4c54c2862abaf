package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/observability"
	"github.com/immxrtalbeast/skillswap/internal/repository"
	"github.com/immxrtalbeast/skillswap/lib/logger/sl"
)

const machineSession = "session"

type SessionOptions struct {
	// JoinLeadTime lets participants join shortly before the scheduled start.
	JoinLeadTime time.Duration
	Now          func() time.Time
}

type SessionService struct {
	store    repository.Store
	ledger   *LedgerService
	notifier notifier
	lead     time.Duration
	now      func() time.Time
	log      *slog.Logger
	metrics  *observability.Metrics
}

func NewSessionService(store repository.Store, ledger *LedgerService, sink Notifier, opts SessionOptions, log *slog.Logger, metrics *observability.Metrics) *SessionService {
	if log == nil {
		log = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionService{
		store:    store,
		ledger:   ledger,
		notifier: notifier{sink: sink, log: log, metrics: metrics},
		lead:     opts.JoinLeadTime,
		now:      opts.Now,
		log:      log,
		metrics:  metrics,
	}
}

func (s *SessionService) GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	return s.store.Sessions().GetByID(ctx, sessionID)
}

func (s *SessionService) Join(ctx context.Context, sessionID, userID uuid.UUID) (*domain.Session, error) {
	const op = "service.session.join"
	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", sessionID.String()),
		slog.String("user_id", userID.String()),
	)

	var (
		session *domain.Session
		changed bool
	)
	err := s.store.Atomically(ctx, func(ctx context.Context, tx repository.Repositories) error {
		var err error
		session, err = tx.Sessions().GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		changed, err = session.Join(userID, s.now(), s.lead)
		if err != nil || !changed {
			return err
		}
		return tx.Sessions().Update(ctx, session)
	})
	if err != nil {
		log.Info("join rejected", sl.Err(err))
		return nil, err
	}

	if changed && session.Status == domain.SessionInProgress {
		s.metrics.ObserveTransition(machineSession, "started")
		log.Info("session started")
	}
	return session, nil
}

// Leave never changes state: presence is tracked by the relay and a session
// stays in-progress while either participant may come back.
func (s *SessionService) Leave(ctx context.Context, sessionID, userID uuid.UUID) (*domain.Session, error) {
	session, err := s.store.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(userID) {
		return nil, domain.ErrForbidden
	}
	s.log.Debug("participant left",
		slog.String("session_id", sessionID.String()),
		slog.String("user_id", userID.String()),
	)
	return session, nil
}

// Complete ends the session and settles escrow to the host. A terminal
// session is returned unchanged.
func (s *SessionService) Complete(ctx context.Context, sessionID uuid.UUID, actor domain.Actor) (*domain.Session, error) {
	return s.end(ctx, "complete", sessionID, actor, func(ctx context.Context, tx repository.Repositories, session *domain.Session) (bool, error) {
		changed, err := session.Complete(actor, s.now())
		if err != nil || !changed || session.Cost == 0 {
			return changed, err
		}
		return true, s.ledger.Settle(ctx, tx, session.HostID, session.Cost, session.ID)
	})
}

// Cancel calls off a scheduled session and refunds the learner in full.
func (s *SessionService) Cancel(ctx context.Context, sessionID uuid.UUID, actor domain.Actor) (*domain.Session, error) {
	return s.end(ctx, "cancel", sessionID, actor, func(ctx context.Context, tx repository.Repositories, session *domain.Session) (bool, error) {
		changed, err := session.Cancel(actor, s.now())
		if err != nil || !changed || session.Cost == 0 {
			return changed, err
		}
		return true, s.ledger.Refund(ctx, tx, session.LearnerID, session.Cost, session.ID)
	})
}

type sessionEnding func(ctx context.Context, tx repository.Repositories, session *domain.Session) (changed bool, err error)

func (s *SessionService) end(ctx context.Context, transition string, sessionID uuid.UUID, actor domain.Actor, apply sessionEnding) (*domain.Session, error) {
	op := "service.session." + transition
	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", sessionID.String()),
		slog.String("actor", string(actor.Role)),
	)

	var (
		session *domain.Session
		changed bool
	)
	err := s.store.Atomically(ctx, func(ctx context.Context, tx repository.Repositories) error {
		var err error
		session, err = tx.Sessions().GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		changed, err = apply(ctx, tx, session)
		if err != nil || !changed {
			return err
		}
		return tx.Sessions().Update(ctx, session)
	})
	if err != nil {
		log.Info("transition rejected", sl.Err(err))
		return nil, err
	}
	if !changed {
		return session, nil
	}

	s.metrics.ObserveTransition(machineSession, string(session.Status))
	log.Info("session ended", slog.String("status", string(session.Status)), slog.Int64("cost", session.Cost))

	typ := domain.NotifySessionCompleted
	if session.Status == domain.SessionCancelled {
		typ = domain.NotifySessionCancelled
	}
	s.notifier.send(ctx, typ, session.ID, s.now(), session.HostID, session.LearnerID)
	return session, nil
}
