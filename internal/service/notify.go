package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/observability"
	"github.com/immxrtalbeast/skillswap/lib/logger/sl"
)

const notifyTimeout = 5 * time.Second

// notifier wraps a Notifier so that sink failures are logged and counted but
// never returned.
type notifier struct {
	sink    Notifier
	log     *slog.Logger
	metrics *observability.Metrics
}

func (n notifier) send(ctx context.Context, typ domain.NotificationType, related uuid.UUID, now time.Time, users ...uuid.UUID) {
	if n.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	for _, user := range users {
		err := n.sink.Notify(ctx, domain.Notification{
			UserID:    user,
			Type:      typ,
			RelatedID: related,
			CreatedAt: now.UTC(),
		})
		n.metrics.ObserveNotification(string(typ), err)
		if err != nil {
			n.log.Warn("notification not delivered",
				slog.String("type", string(typ)),
				slog.String("user_id", user.String()),
				sl.Err(err),
			)
		}
	}
}
