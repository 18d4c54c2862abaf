package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifyRequestCreated   NotificationType = "swap_request.created"
	NotifyRequestAccepted  NotificationType = "swap_request.accepted"
	NotifyRequestRejected  NotificationType = "swap_request.rejected"
	NotifyRequestExpired   NotificationType = "swap_request.expired"
	NotifyRequestCancelled NotificationType = "swap_request.cancelled"
	NotifySessionCompleted NotificationType = "session.completed"
	NotifySessionCancelled NotificationType = "session.cancelled"
)

type Notification struct {
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	RelatedID uuid.UUID        `json:"related_id"`
	CreatedAt time.Time        `json:"created_at"`
}
