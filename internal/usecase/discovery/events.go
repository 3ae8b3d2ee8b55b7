package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

// EventConsumer убирает из очереди профили, которые удалили или изменили.
// Изменённый профиль вернётся в очередь со следующим подбором.
type EventConsumer struct {
	log     zerolog.Logger
	source  domain.ProfileEventSource
	queue   domain.CandidateQueue
	backoff time.Duration
}

// NewEventConsumer создаёт потребителя событий.
func NewEventConsumer(source domain.ProfileEventSource, queue domain.CandidateQueue, logger zerolog.Logger) *EventConsumer {
	return &EventConsumer{
		log:     logger.With().Str("component", "profile_events").Logger(),
		source:  source,
		queue:   queue,
		backoff: time.Second,
	}
}

// Run читает события до отмены контекста.
func (c *EventConsumer) Run(ctx context.Context) {
	for {
		event, ack, err := c.source.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			c.log.Error().Err(err).Msg("events: ошибка чтения очереди")
			if !sleepCtx(ctx, c.backoff) {
				return
			}
			continue
		}
		c.handle(event)
		if err := ack(true); err != nil {
			c.log.Error().Err(err).Str("profile", event.ProfileID).Msg("events: не удалось подтвердить событие")
		}
	}
}

func (c *EventConsumer) handle(event domain.ProfileEvent) {
	if event.ProfileID == "" {
		c.log.Warn().Str("type", string(event.Type)).Msg("events: событие без профиля, пропускаем")
		return
	}
	switch event.Type {
	case domain.ProfileEventDeleted, domain.ProfileEventUpdated:
		c.queue.Remove(event.ProfileID)
		c.log.Debug().Str("type", string(event.Type)).Str("profile", event.ProfileID).Msg("events: профиль убран из очереди")
	default:
		c.log.Warn().Str("type", string(event.Type)).Str("profile", event.ProfileID).Msg("events: неизвестный тип события")
	}
}
