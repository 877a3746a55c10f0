package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/enums"
	"github.com/rmoralesv/moldops-backend/pkg/logger"
	"github.com/rmoralesv/moldops-backend/pkg/outbox"
	"github.com/rmoralesv/moldops-backend/pkg/outbox/idempotency"
	"github.com/rmoralesv/moldops-backend/pkg/outbox/payloads"
)

const operationalNotificationConsumer = "operational-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and turns low stock, target reached and mold
// return events into inbox notifications for the plant floor.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an operational notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
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
	rawType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, operationalNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notification, err := c.buildNotification(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, operationalNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if notification == nil {
		c.logg.Info(logCtx, "event not handled")
		return processResult{ack: true}
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "failed to store notification", err)
		_ = c.idempotency.Delete(ctx, operationalNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "notification stored")
	return processResult{ack: true}
}

// buildNotification maps an event payload to an inbox row. All operational
// events broadcast; only notification_requested can target a single user.
func (c *Consumer) buildNotification(eventType enums.OutboxEventType, data json.RawMessage) (*models.Notification, error) {
	switch eventType {
	case enums.EventMaterialLowStock:
		var payload payloads.MaterialLowStockEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		link := fmt.Sprintf("/materials/%s", payload.MaterialID)
		return &models.Notification{
			Type:  enums.NotificationTypeLowStock,
			Title: "Material low on stock",
			Message: fmt.Sprintf("%s is at %s %s, at or below the minimum of %s %s.",
				payload.MaterialName, payload.CurrentStock, payload.Unit, payload.MinStock, payload.Unit),
			Link: &link,
		}, nil

	case enums.EventProductionTargetReached:
		var payload payloads.ProductionTargetReachedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		link := fmt.Sprintf("/work-orders/%s", payload.WorkOrderID)
		return &models.Notification{
			Type:  enums.NotificationTypeProductionTargetReached,
			Title: "Production target reached",
			Message: fmt.Sprintf("Work order %s produced %d of %d units.",
				payload.OrderNo, payload.ProducedQty, payload.TargetQty),
			Link: &link,
		}, nil

	case enums.EventMoldReturned:
		var payload payloads.MoldReturnedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		link := fmt.Sprintf("/molds/%s", payload.MoldID)
		message := fmt.Sprintf("Mold %s returned on %s.", payload.MoldCode, payload.IncomingDate.Format("2006-01-02"))
		if payload.RepairResult != "" {
			message = fmt.Sprintf("Mold %s returned on %s. Result: %s",
				payload.MoldCode, payload.IncomingDate.Format("2006-01-02"), payload.RepairResult)
		}
		return &models.Notification{
			Type:    enums.NotificationTypeMoldReturned,
			Title:   "Mold returned",
			Message: message,
			Link:    &link,
		}, nil

	case enums.EventNotificationRequested:
		var payload payloads.NotificationRequestedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		notificationType, err := enums.ParseNotificationType(payload.Type)
		if err != nil {
			notificationType = enums.NotificationTypeSystemAnnouncement
		}
		notification := &models.Notification{
			UserID:  payload.UserID,
			Type:    notificationType,
			Title:   payload.Title,
			Message: payload.Message,
		}
		if payload.Link != "" {
			link := payload.Link
			notification.Link = &link
		}
		return notification, nil
	}

	return nil, nil
}
