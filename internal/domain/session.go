package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in-progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// Session is the scheduled meeting created when a swap request is accepted.
// The host teaches and is paid; the learner requested the swap and pays.
type Session struct {
	ID              uuid.UUID     `json:"id"`
	SwapRequestID   uuid.UUID     `json:"swap_request_id"`
	HostID          uuid.UUID     `json:"host_id"`
	LearnerID       uuid.UUID     `json:"learner_id"`
	ScheduledTime   time.Time     `json:"scheduled_time"`
	DurationMinutes int           `json:"duration_minutes"`
	Status          SessionStatus `json:"status"`
	HostJoinedAt    time.Time     `json:"host_joined_at,omitempty"`
	LearnerJoinedAt time.Time     `json:"learner_joined_at,omitempty"`
	StartedAt       time.Time     `json:"started_at,omitempty"`
	EndedAt         time.Time     `json:"ended_at,omitempty"`
	EndedBy         ActorRole     `json:"ended_by,omitempty"`
	Cost            int64         `json:"cost"`
}

func NewSession(req *SwapRequest) *Session {
	return &Session{
		ID:              uuid.New(),
		SwapRequestID:   req.ID,
		HostID:          req.ResponderID,
		LearnerID:       req.RequesterID,
		ScheduledTime:   req.ProposedSlot.StartsAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Status:          SessionScheduled,
		Cost:            req.Cost,
	}
}

func (s *Session) IsParticipant(userID uuid.UUID) bool {
	return userID != uuid.Nil && (userID == s.HostID || userID == s.LearnerID)
}

// Peer returns the other participant.
func (s *Session) Peer(userID uuid.UUID) uuid.UUID {
	switch userID {
	case s.HostID:
		return s.LearnerID
	case s.LearnerID:
		return s.HostID
	default:
		return uuid.Nil
	}
}

func (s *Session) IsTerminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionCancelled
}

// IsOpen reports whether the session may host a signaling room.
func (s *Session) IsOpen() bool {
	return s.Status == SessionScheduled || s.Status == SessionInProgress
}

func (s *Session) EndsAt() time.Time {
	base := s.StartedAt
	if base.IsZero() {
		base = s.ScheduledTime
	}
	return base.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Join records a participant's arrival. The second distinct participant moves
// the session to in-progress. changed is false when nothing was recorded.
func (s *Session) Join(userID uuid.UUID, now time.Time, lead time.Duration) (changed bool, err error) {
	if !s.IsParticipant(userID) {
		return false, ErrForbidden
	}
	if s.IsTerminal() {
		return false, ErrAlreadyEnded
	}
	if s.Status == SessionInProgress {
		return false, nil
	}
	if now.Before(s.ScheduledTime.Add(-lead)) {
		return false, ErrNotYetStarted
	}

	now = now.UTC()
	switch userID {
	case s.HostID:
		if !s.HostJoinedAt.IsZero() {
			return false, nil
		}
		s.HostJoinedAt = now
	case s.LearnerID:
		if !s.LearnerJoinedAt.IsZero() {
			return false, nil
		}
		s.LearnerJoinedAt = now
	}

	if !s.HostJoinedAt.IsZero() && !s.LearnerJoinedAt.IsZero() {
		s.Status = SessionInProgress
		s.StartedAt = now
	}
	return true, nil
}

// Complete ends the session. Participants and the timeout sweep may only end
// an in-progress session; administrators may force-end any live session.
// Completing a terminal session is a no-op.
func (s *Session) Complete(actor Actor, now time.Time) (changed bool, err error) {
	if s.IsTerminal() {
		return false, nil
	}
	switch {
	case actor.IsAdmin():
	case actor.IsSystem():
		if s.Status != SessionInProgress {
			return false, ErrNotInProgress
		}
	default:
		if !s.IsParticipant(actor.UserID) {
			return false, ErrForbidden
		}
		if s.Status != SessionInProgress {
			return false, ErrNotInProgress
		}
	}

	s.Status = SessionCompleted
	s.EndedAt = now.UTC()
	s.EndedBy = actor.Role
	return true, nil
}

// Cancel calls off a session that has not started. Cancelling a terminal
// session is a no-op.
func (s *Session) Cancel(actor Actor, now time.Time) (changed bool, err error) {
	if s.IsTerminal() {
		return false, nil
	}
	if !actor.IsAdmin() && !actor.IsSystem() && !s.IsParticipant(actor.UserID) {
		return false, ErrForbidden
	}
	if s.Status != SessionScheduled {
		return false, ErrNotCancellable
	}

	s.Status = SessionCancelled
	s.EndedAt = now.UTC()
	s.EndedBy = actor.Role
	return true, nil
}
