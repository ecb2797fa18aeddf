package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
)

// EventPublisher forwards serialized events to an external channel.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// NotificationService logs ticket lifecycle events and fans them out to the
// configured channel so other systems can follow complaints.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  EventPublisher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. A nil publisher only logs.
func NewNotificationService(dispatcher events.Dispatcher, publisher EventPublisher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.String("actor_id", event.Actor.ID))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketAssigned", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if !n.cfg.Enabled || n.publisher == nil || strings.TrimSpace(n.cfg.RedisChannel) == "" {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := n.publisher.Publish(ctx, n.cfg.RedisChannel, payload); err != nil {
		n.logger.Warn("publish event failed",
			zap.String("channel", n.cfg.RedisChannel),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	n.logger.Debug("event published",
		zap.String("channel", n.cfg.RedisChannel),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
	return nil
}
