package domain

import (
	"time"

	"github.com/google/uuid"
)

type SwapRequestStatus string

const (
	SwapRequestPending   SwapRequestStatus = "pending"
	SwapRequestAccepted  SwapRequestStatus = "accepted"
	SwapRequestRejected  SwapRequestStatus = "rejected"
	SwapRequestExpired   SwapRequestStatus = "expired"
	SwapRequestCancelled SwapRequestStatus = "cancelled"
)

// ProposedSlot is a concrete booking: the derived time-of-day slot plus the
// instant it starts on.
type ProposedSlot struct {
	StartsAt time.Time `json:"starts_at"`
	Slot     Slot      `json:"slot"`
}

func (p ProposedSlot) EndsAt() time.Time {
	return p.StartsAt.Add(p.Slot.Duration())
}

type SwapRequest struct {
	ID              uuid.UUID         `json:"id"`
	PostID          uuid.UUID         `json:"post_id"`
	RequesterID     uuid.UUID         `json:"requester_id"`
	ResponderID     uuid.UUID         `json:"responder_id"`
	ProposedSlot    ProposedSlot      `json:"proposed_slot"`
	DurationMinutes int               `json:"duration_minutes"`
	Cost            int64             `json:"cost"`
	Status          SwapRequestStatus `json:"status"`
	SessionID       uuid.UUID         `json:"session_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	ResolvedAt      time.Time         `json:"resolved_at,omitempty"`
}

func NewSwapRequest(post *Post, requester uuid.UUID, slot ProposedSlot, durationMinutes int, now time.Time) *SwapRequest {
	return &SwapRequest{
		ID:              uuid.New(),
		PostID:          post.ID,
		RequesterID:     requester,
		ResponderID:     post.OwnerID,
		ProposedSlot:    slot,
		DurationMinutes: durationMinutes,
		Cost:            post.CostFor(durationMinutes),
		Status:          SwapRequestPending,
		CreatedAt:       now.UTC(),
	}
}

func (r *SwapRequest) IsResolved() bool {
	return r.Status != SwapRequestPending
}

// Resolve moves a pending request into a terminal status. Resolved requests
// never transition again.
func (r *SwapRequest) Resolve(status SwapRequestStatus, now time.Time) error {
	if r.IsResolved() {
		return ErrAlreadyResolved
	}
	r.Status = status
	r.ResolvedAt = now.UTC()
	return nil
}
