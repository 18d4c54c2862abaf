package notify

import (
	"context"
	"log/slog"

	"github.com/immxrtalbeast/skillswap/internal/domain"
)

// LogSink writes notifications to the log. It is the sink used when no broker
// is configured.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Notify(_ context.Context, n domain.Notification) error {
	s.log.Info("notification",
		slog.String("type", string(n.Type)),
		slog.String("user_id", n.UserID.String()),
		slog.String("related_id", n.RelatedID.String()),
	)
	return nil
}
