package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Rob190501/iWalk/internal/regression"
)

// ModelStreamKey keys every model event so successive builds land on one partition in order.
const ModelStreamKey = "steps-model"

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewModelWriter returns a writer bound to the model topic. Builds are rare, so each event is
// flushed on its own instead of waiting for a batch to fill.
func NewModelWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchSize:              1,
		AllowAutoTopicCreation: true,
	}
}

// ModelPublisher emits model.retrained events as JSON.
type ModelPublisher struct {
	writer  MessageWriter
	timeout time.Duration
}

// NewModelPublisher constructs a ModelPublisher. A non-positive timeout disables the deadline.
func NewModelPublisher(writer MessageWriter, timeout time.Duration) *ModelPublisher {
	return &ModelPublisher{writer: writer, timeout: timeout}
}

// PublishModelRetrained implements coach.Publisher.
func (p *ModelPublisher) PublishModelRetrained(ctx context.Context, model *regression.Model) error {
	payload := ModelRetrained{
		EventID:             uuid.NewString(),
		ModelID:             model.ID,
		Features:            string(model.Features),
		Rows:                model.Rows,
		Intercept:           model.Intercept,
		CaloriesCoef:        model.CaloriesCoef,
		ExerciseMinutesCoef: model.ExerciseMinutesCoef,
		TrainedAt:           model.TrainedAt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", TypeModelRetrained, err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	msg := kafka.Message{
		Key:   []byte(ModelStreamKey),
		Value: body,
		Time:  model.TrainedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(TypeModelRetrained)},
			{Key: "event_id", Value: []byte(payload.EventID)},
			{Key: "model_id", Value: []byte(model.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TypeModelRetrained, err)
	}
	return nil
}
