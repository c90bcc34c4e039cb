// Package kafka implements an emitter that publishes the committed events to a
// Kafka topic.
//
// Every event is wrapped in an envelope. The key of the message is the value
// of the event's key attribute so that all the events of one order land on the
// same partition and keep their order.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/xid"
	"github.com/segmentio/kafka-go"
	"go.dedis.ch/bazaar/core/events"
	"golang.org/x/xerrors"
)

// EnvelopeVersion is the version of the envelope format.
const EnvelopeVersion = 1

// Envelope is the JSON message published for every event.
type Envelope struct {
	EventID      string            `json:"event_id"`
	EventType    string            `json:"event_type"`
	EventVersion int               `json:"event_version"`
	OccurredAt   time.Time         `json:"occurred_at"`
	Producer     string            `json:"producer"`
	Payload      map[string]string `json:"payload"`
}

// writer is the subset of the kafka writer used by the emitter.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Emitter publishes events to Kafka.
//
// - implements events.Emitter
type Emitter struct {
	w        writer
	producer string
	keyAttr  string
	nowFn    func() time.Time
}

// NewEmitter creates an emitter writing to the topic on the brokers. The
// producer name is copied in every envelope, and keyAttr names the attribute
// used as the message key.
func NewEmitter(brokers []string, topic, producer, keyAttr string) *Emitter {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}

	return newEmitter(w, producer, keyAttr)
}

func newEmitter(w writer, producer, keyAttr string) *Emitter {
	return &Emitter{
		w:        w,
		producer: producer,
		keyAttr:  keyAttr,
		nowFn:    time.Now,
	}
}

// Emit implements events.Emitter. It writes the events as one batch.
func (e *Emitter) Emit(ctx context.Context, evts ...events.Event) error {
	if len(evts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(evts))

	for i, evt := range evts {
		env := Envelope{
			EventID:      xid.New().String(),
			EventType:    evt.Type,
			EventVersion: EnvelopeVersion,
			OccurredAt:   e.nowFn().UTC(),
			Producer:     e.producer,
			Payload:      evt.Attributes,
		}

		value, err := json.Marshal(env)
		if err != nil {
			return xerrors.Errorf("failed to marshal envelope: %v", err)
		}

		msgs[i] = kafka.Message{
			Key:   []byte(evt.Attributes[e.keyAttr]),
			Value: value,
			Time:  env.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(evt.Type)},
			},
		}
	}

	err := e.w.WriteMessages(ctx, msgs...)
	if err != nil {
		return xerrors.Errorf("failed to write messages: %v", err)
	}

	return nil
}

// Close flushes and closes the writer.
func (e *Emitter) Close() error {
	return e.w.Close()
}
