package domain

import (
	"time"

	"github.com/google/uuid"
)

// Post is a skill offer. Only the fields the swap flow reads are modelled here.
type Post struct {
	ID           uuid.UUID          `json:"id"`
	OwnerID      uuid.UUID          `json:"owner_id"`
	Title        string             `json:"title"`
	CoinsPerHour int64              `json:"coins_per_hour"`
	Availability AvailabilityWindow `json:"availability"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func NewPost(owner uuid.UUID, title string, coinsPerHour int64, window AvailabilityWindow, now time.Time) *Post {
	return &Post{
		ID:           uuid.New(),
		OwnerID:      owner,
		Title:        title,
		CoinsPerHour: coinsPerHour,
		Availability: window,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
}

// Slots derives the post's bookable slots. An unusable window is reported as
// no slots rather than an error.
func (p *Post) Slots() []Slot {
	slots, err := DeriveSlots(p.Availability, SlotLength, SlotStride)
	if err != nil {
		return []Slot{}
	}
	return slots
}

// CostFor prices a booking of the given length.
func (p *Post) CostFor(minutes int) int64 {
	return p.CoinsPerHour * int64(minutes) / 60
}
