// Package events turns match lifecycle changes into Kafka events.
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/sttalk999/sttalk/pkg/kafka"
	"github.com/sttalk999/sttalk/pkg/metrics"
	"github.com/sttalk999/sttalk/pkg/models"
	"github.com/sttalk999/sttalk/pkg/tracing"
)

const SchemaVersion = "1.0"

const (
	EventMatchCreated       = "match.created"
	EventMatchStatusChanged = "match.status_changed"
)

type Publisher interface {
	PublishMatchEvent(ctx context.Context, event *kafka.MatchEvent) error
}

type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

func (e *Emitter) MatchCreated(ctx context.Context, match models.Match) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.MatchCreated")
	defer span.End()

	return e.emit(ctx, &kafka.MatchEvent{
		EventType:   EventMatchCreated,
		MatchID:     match.ID,
		EntityID:    match.EntityID,
		InvestorID:  match.InvestorID,
		Status:      string(match.Status),
		InitiatedBy: string(match.InitiatedBy),
		Timestamp:   match.CreatedAt,
	})
}

func (e *Emitter) MatchStatusChanged(ctx context.Context, match models.Match, previous models.MatchStatus) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.MatchStatusChanged")
	defer span.End()

	return e.emit(ctx, &kafka.MatchEvent{
		EventType:      EventMatchStatusChanged,
		MatchID:        match.ID,
		EntityID:       match.EntityID,
		InvestorID:     match.InvestorID,
		Status:         string(match.Status),
		PreviousStatus: string(previous),
		Timestamp:      match.UpdatedAt,
	})
}

func (e *Emitter) emit(ctx context.Context, event *kafka.MatchEvent) error {
	event.SchemaVersion = SchemaVersion
	if err := e.publisher.PublishMatchEvent(ctx, event); err != nil {
		metrics.RecordEventPublished(event.EventType, "error")
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", event.EventType)
		return err
	}
	metrics.RecordEventPublished(event.EventType, "ok")
	return nil
}
