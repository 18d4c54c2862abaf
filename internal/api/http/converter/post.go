package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
)

type PostResponse struct {
	ID           uuid.UUID                 `json:"id"`
	OwnerID      uuid.UUID                 `json:"owner_id"`
	Title        string                    `json:"title"`
	CoinsPerHour int64                     `json:"coins_per_hour"`
	Availability domain.AvailabilityWindow `json:"availability"`
	Slots        []SlotResponse            `json:"slots"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

type SlotResponse struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Label    string `json:"label"`
	Duration int    `json:"duration_minutes"`
}

func PostToApi(p *domain.Post) *PostResponse {
	return &PostResponse{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		Title:        p.Title,
		CoinsPerHour: p.CoinsPerHour,
		Availability: p.Availability,
		Slots:        SlotsToApi(p.Slots()),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func SlotsToApi(slots []domain.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotResponse{
			Start:    domain.FormatClock(s.Start),
			End:      domain.FormatClock(s.End),
			Label:    s.String(),
			Duration: s.End - s.Start,
		})
	}
	return out
}
