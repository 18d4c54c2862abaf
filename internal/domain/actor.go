package domain

import "github.com/google/uuid"

type ActorRole string

const (
	RoleParticipant ActorRole = "participant"
	RoleAdmin       ActorRole = "admin"
	RoleSystem      ActorRole = "system"
)

// Actor identifies who triggered a transition. Admin calls come from the
// operations console and may bypass participant-only guards.
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Role   ActorRole `json:"role"`
}

func ParticipantActor(userID uuid.UUID) Actor {
	return Actor{UserID: userID, Role: RoleParticipant}
}

func AdminActor(userID uuid.UUID) Actor {
	return Actor{UserID: userID, Role: RoleAdmin}
}

func SystemActor() Actor {
	return Actor{Role: RoleSystem}
}

func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsSystem() bool { return a.Role == RoleSystem }
