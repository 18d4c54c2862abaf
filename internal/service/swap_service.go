package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/observability"
	"github.com/immxrtalbeast/skillswap/internal/repository"
	"github.com/immxrtalbeast/skillswap/lib/logger/sl"
)

const machineSwapRequest = "swap_request"

// SwapService drives swap requests from pending to a terminal status. Accepting
// a request creates its session and escrows the cost in the same transaction.
type SwapService struct {
	store    repository.Store
	ledger   *LedgerService
	notifier notifier
	loc      *time.Location
	now      func() time.Time
	log      *slog.Logger
	metrics  *observability.Metrics
}

type SwapOptions struct {
	Location *time.Location
	Now      func() time.Time
}

func NewSwapService(store repository.Store, ledger *LedgerService, sink Notifier, opts SwapOptions, log *slog.Logger, metrics *observability.Metrics) *SwapService {
	if log == nil {
		log = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &SwapService{
		store:    store,
		ledger:   ledger,
		notifier: notifier{sink: sink, log: log, metrics: metrics},
		loc:      opts.Location,
		now:      opts.Now,
		log:      log,
		metrics:  metrics,
	}
}

func (s *SwapService) Create(ctx context.Context, postID, requesterID uuid.UUID, startsAt time.Time, durationMinutes int) (*domain.SwapRequest, error) {
	const op = "service.swap.create"
	log := s.log.With(
		slog.String("op", op),
		slog.String("post_id", postID.String()),
		slog.String("requester_id", requesterID.String()),
	)

	post, err := s.store.Posts().GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID == requesterID {
		return nil, domain.ErrSelfRequest
	}
	if durationMinutes == 0 {
		durationMinutes = domain.SlotLength
	}
	if durationMinutes != domain.SlotLength {
		return nil, fmt.Errorf("%w: duration must be %d minutes", domain.ErrInvalidSlot, domain.SlotLength)
	}

	now := s.now()
	if !startsAt.After(now) {
		return nil, fmt.Errorf("%w: slot start is in the past", domain.ErrInvalidSlot)
	}
	slot, ok := post.Availability.SlotAt(startsAt, s.loc)
	if !ok {
		return nil, domain.ErrInvalidSlot
	}

	req := domain.NewSwapRequest(post, requesterID, domain.ProposedSlot{StartsAt: startsAt.UTC(), Slot: slot}, durationMinutes, now)
	if err := s.store.SwapRequests().Create(ctx, req); err != nil {
		log.Error("failed to store swap request", sl.Err(err))
		return nil, err
	}

	s.metrics.ObserveTransition(machineSwapRequest, "created")
	log.Info("swap request created", slog.String("request_id", req.ID.String()), slog.String("slot", slot.String()))
	s.notifier.send(ctx, domain.NotifyRequestCreated, req.ID, now, req.ResponderID)
	return req, nil
}

// Accept is serialized per request by a row lock. Exactly one concurrent
// caller wins; the others get ErrAlreadyResolved together with the current
// request and its session.
func (s *SwapService) Accept(ctx context.Context, requestID, responderID uuid.UUID) (*domain.SwapRequest, *domain.Session, error) {
	const op = "service.swap.accept"
	log := s.log.With(slog.String("op", op), slog.String("request_id", requestID.String()))

	var (
		req     *domain.SwapRequest
		session *domain.Session
	)
	now := s.now()
	err := s.store.Atomically(ctx, func(ctx context.Context, tx repository.Repositories) error {
		var err error
		req, err = tx.SwapRequests().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.ResponderID != responderID {
			return domain.ErrForbidden
		}
		if req.IsResolved() {
			if req.Status == domain.SwapRequestAccepted {
				session, _ = tx.Sessions().GetBySwapRequest(ctx, req.ID)
			}
			return domain.ErrAlreadyResolved
		}

		if err := req.Resolve(domain.SwapRequestAccepted, now); err != nil {
			return err
		}
		session = domain.NewSession(req)
		if err := tx.Sessions().Create(ctx, session); err != nil {
			return err
		}
		if session.Cost > 0 {
			if err := s.ledger.Hold(ctx, tx, session.LearnerID, session.Cost, session.ID); err != nil {
				return err
			}
		}
		req.SessionID = session.ID
		return tx.SwapRequests().Update(ctx, req)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyResolved) {
			return req, session, err
		}
		log.Info("accept rejected", sl.Err(err))
		return nil, nil, err
	}

	s.metrics.ObserveTransition(machineSwapRequest, "accepted")
	log.Info("swap request accepted",
		slog.String("session_id", session.ID.String()),
		slog.Int64("escrowed", session.Cost),
	)
	s.notifier.send(ctx, domain.NotifyRequestAccepted, req.ID, now, req.RequesterID)
	return req, session, nil
}

func (s *SwapService) Reject(ctx context.Context, requestID, responderID uuid.UUID) (*domain.SwapRequest, error) {
	req, err := s.resolve(ctx, requestID, domain.SwapRequestRejected, func(req *domain.SwapRequest) error {
		if req.ResponderID != responderID {
			return domain.ErrForbidden
		}
		return nil
	})
	if err != nil {
		return req, err
	}
	s.notifier.send(ctx, domain.NotifyRequestRejected, req.ID, s.now(), req.RequesterID)
	return req, nil
}

// Cancel lets the requester withdraw a pending request.
func (s *SwapService) Cancel(ctx context.Context, requestID, requesterID uuid.UUID) (*domain.SwapRequest, error) {
	req, err := s.resolve(ctx, requestID, domain.SwapRequestCancelled, func(req *domain.SwapRequest) error {
		if req.RequesterID != requesterID {
			return domain.ErrForbidden
		}
		return nil
	})
	if err != nil {
		return req, err
	}
	s.notifier.send(ctx, domain.NotifyRequestCancelled, req.ID, s.now(), req.ResponderID)
	return req, nil
}

// Expire is the sweep's transition. A request already decided is returned
// unchanged, so racing an accept or reject is harmless.
func (s *SwapService) Expire(ctx context.Context, requestID uuid.UUID) (*domain.SwapRequest, error) {
	req, err := s.resolve(ctx, requestID, domain.SwapRequestExpired, nil)
	if errors.Is(err, domain.ErrAlreadyResolved) {
		return req, nil
	}
	if err != nil {
		return nil, err
	}
	s.notifier.send(ctx, domain.NotifyRequestExpired, req.ID, s.now(), req.RequesterID)
	return req, nil
}

func (s *SwapService) Get(ctx context.Context, requestID uuid.UUID) (*domain.SwapRequest, error) {
	return s.store.SwapRequests().GetByID(ctx, requestID)
}

// resolve applies a fund-free terminal transition under the request's lock.
// On ErrAlreadyResolved the current request is returned alongside the error.
func (s *SwapService) resolve(ctx context.Context, requestID uuid.UUID, status domain.SwapRequestStatus, guard func(*domain.SwapRequest) error) (*domain.SwapRequest, error) {
	op := "service.swap." + string(status)
	log := s.log.With(slog.String("op", op), slog.String("request_id", requestID.String()))

	var req *domain.SwapRequest
	err := s.store.Atomically(ctx, func(ctx context.Context, tx repository.Repositories) error {
		var err error
		req, err = tx.SwapRequests().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(req); err != nil {
				return err
			}
		}
		if err := req.Resolve(status, s.now()); err != nil {
			return err
		}
		return tx.SwapRequests().Update(ctx, req)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyResolved) {
			return req, err
		}
		log.Info("transition rejected", sl.Err(err))
		return nil, err
	}

	s.metrics.ObserveTransition(machineSwapRequest, string(status))
	log.Info("swap request resolved", slog.String("status", string(status)))
	return req, nil
}
