package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/events"
)

// publish sends an event and only logs delivery failures.
func publish(ctx context.Context, pub events.Publisher, log zerolog.Logger, subject string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, subject, payload); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("Failed to publish event")
	}
}
