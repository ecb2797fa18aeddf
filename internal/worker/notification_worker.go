package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/service"
)

// StartNotificationWorker wires the notification service onto dispatcher.
// Disabled notifications still get lifecycle events logged.
func StartNotificationWorker(dispatcher events.Dispatcher, publisher service.EventPublisher, logger *zap.Logger, cfg config.NotificationConfig) *service.NotificationService {
	if dispatcher == nil {
		return nil
	}
	if !cfg.Enabled {
		logger.Info("event publishing disabled")
	}
	notifications := service.NewNotificationService(dispatcher, publisher, logger.Named("notifications"), cfg)
	notifications.RegisterHandlers()
	return notifications
}
