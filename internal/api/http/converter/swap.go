package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
)

type SwapRequestResponse struct {
	ID              uuid.UUID                `json:"id"`
	PostID          uuid.UUID                `json:"post_id"`
	RequesterID     uuid.UUID                `json:"requester_id"`
	ResponderID     uuid.UUID                `json:"responder_id"`
	StartsAt        time.Time                `json:"starts_at"`
	Slot            string                   `json:"slot"`
	DurationMinutes int                      `json:"duration_minutes"`
	Cost            int64                    `json:"cost"`
	Status          domain.SwapRequestStatus `json:"status"`
	SessionID       *uuid.UUID               `json:"session_id,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	ResolvedAt      *time.Time               `json:"resolved_at,omitempty"`
}

type SessionResponse struct {
	ID              uuid.UUID            `json:"id"`
	SwapRequestID   uuid.UUID            `json:"swap_request_id"`
	HostID          uuid.UUID            `json:"host_id"`
	LearnerID       uuid.UUID            `json:"learner_id"`
	ScheduledTime   time.Time            `json:"scheduled_time"`
	DurationMinutes int                  `json:"duration_minutes"`
	Status          domain.SessionStatus `json:"status"`
	Cost            int64                `json:"cost"`
	StartedAt       *time.Time           `json:"started_at,omitempty"`
	EndedAt         *time.Time           `json:"ended_at,omitempty"`
	EndedBy         domain.ActorRole     `json:"ended_by,omitempty"`
}

func SwapRequestToApi(r *domain.SwapRequest) *SwapRequestResponse {
	if r == nil {
		return nil
	}
	resp := &SwapRequestResponse{
		ID:              r.ID,
		PostID:          r.PostID,
		RequesterID:     r.RequesterID,
		ResponderID:     r.ResponderID,
		StartsAt:        r.ProposedSlot.StartsAt,
		Slot:            r.ProposedSlot.Slot.String(),
		DurationMinutes: r.DurationMinutes,
		Cost:            r.Cost,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt,
		ResolvedAt:      optionalTime(r.ResolvedAt),
	}
	if r.SessionID != uuid.Nil {
		id := r.SessionID
		resp.SessionID = &id
	}
	return resp
}

func SessionToApi(s *domain.Session) *SessionResponse {
	if s == nil {
		return nil
	}
	return &SessionResponse{
		ID:              s.ID,
		SwapRequestID:   s.SwapRequestID,
		HostID:          s.HostID,
		LearnerID:       s.LearnerID,
		ScheduledTime:   s.ScheduledTime,
		DurationMinutes: s.DurationMinutes,
		Status:          s.Status,
		Cost:            s.Cost,
		StartedAt:       optionalTime(s.StartedAt),
		EndedAt:         optionalTime(s.EndedAt),
		EndedBy:         s.EndedBy,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
