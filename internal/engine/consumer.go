package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/solsticehq/beacon-messaging/pkg/idempotency"
	"github.com/solsticehq/beacon-messaging/pkg/logger"
)

const eventConsumerName = "messaging-events"

type trigger interface {
	TriggerEvent(ctx context.Context, eventName string, payload EventPayload) (*TriggerResult, error)
}

// eventEnvelope is the wire shape published to the business-events topic by
// the surrounding services.
type eventEnvelope struct {
	EventID    string             `json:"eventId"`
	EventName  string             `json:"eventName"`
	OccurredAt time.Time          `json:"occurredAt"`
	Payload    map[string]*string `json:"payload"`
}

// Consumer drains the business-events subscription and feeds each event into
// the trigger pipeline exactly once.
type Consumer struct {
	svc          trigger
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the business-event consumer.
func NewConsumer(svc trigger, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("trigger service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("events subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		svc:          svc,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithField(ctx, "message_id", msg.ID)

	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode event envelope", err)
		return processResult{ack: true}
	}

	if strings.TrimSpace(envelope.EventName) == "" {
		c.logg.Warn(logCtx, "event envelope missing event name")
		return processResult{ack: true}
	}
	logCtx = c.logg.WithEventName(logCtx, envelope.EventName)

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, eventConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if _, err := c.svc.TriggerEvent(ctx, envelope.EventName, EventPayload(envelope.Payload)); err != nil {
		c.logg.Error(logCtx, "event trigger failed", err)
		_ = c.idempotency.Delete(ctx, eventConsumerName, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}
