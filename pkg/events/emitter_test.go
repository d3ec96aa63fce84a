package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sttalk999/sttalk/pkg/kafka"
	"github.com/sttalk999/sttalk/pkg/models"
)

type recordingWriter struct {
	messages []kafkago.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func newEmitter(writer *recordingWriter) *Emitter {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewEmitter(kafka.NewProducerWithWriter(writer, "match-events", logger), logger)
}

func header(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestEmitter_MatchCreated(t *testing.T) {
	writer := &recordingWriter{}
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	match := models.Match{ID: "m1", EntityID: "e1", InvestorID: "i1", Status: models.MatchStatusPending, InitiatedBy: models.InitiatorEntity, CreatedAt: created}

	require.NoError(t, newEmitter(writer).MatchCreated(context.Background(), match))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "e1", string(msg.Key))
	assert.Equal(t, EventMatchCreated, header(msg, "event_type"))
	assert.Equal(t, "m1", header(msg, "match_id"))

	var event kafka.MatchEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "Pending", event.Status)
	assert.Equal(t, "entity", event.InitiatedBy)
	assert.Equal(t, SchemaVersion, event.SchemaVersion)
	assert.True(t, created.Equal(event.Timestamp))
}

func TestEmitter_MatchStatusChanged(t *testing.T) {
	writer := &recordingWriter{}
	match := models.Match{ID: "m1", EntityID: "e1", InvestorID: "i1", Status: models.MatchStatusTeaserRevealed}

	require.NoError(t, newEmitter(writer).MatchStatusChanged(context.Background(), match, models.MatchStatusPending))

	var event kafka.MatchEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
	assert.Equal(t, EventMatchStatusChanged, event.EventType)
	assert.Equal(t, "TeaserRevealed", event.Status)
	assert.Equal(t, "Pending", event.PreviousStatus)
	assert.False(t, event.Timestamp.IsZero())
}

func TestEmitter_PropagatesPublishErrors(t *testing.T) {
	writer := &recordingWriter{err: errors.New("leader not available")}
	err := newEmitter(writer).MatchCreated(context.Background(), models.Match{ID: "m1"})
	assert.ErrorContains(t, err, "leader not available")
}
