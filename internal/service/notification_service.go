package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/bounty-service/internal/events"
)

// NotificationService logs notifications for domain events. Actual delivery
// (mail, webhooks) sits behind the same subscriptions when it arrives.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventBountyPosted, n.handleBountyPosted)
	n.dispatcher.Subscribe(events.EventSubmissionReceived, n.handleSubmissionReceived)
	n.dispatcher.Subscribe(events.EventWinnerSelected, n.handleWinnerSelected)
	n.dispatcher.Subscribe(events.EventBountyPaid, n.handleBountyPaid)
}

func (n *NotificationService) handleBountyPosted(_ context.Context, event events.Event) error {
	n.logger.Info("BountyPosted", zap.String("bounty_id", event.BountyID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleSubmissionReceived(_ context.Context, event events.Event) error {
	n.logger.Info("SubmissionReceived", zap.String("bounty_id", event.BountyID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleWinnerSelected(_ context.Context, event events.Event) error {
	n.logger.Info("WinnerSelected", zap.String("bounty_id", event.BountyID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleBountyPaid(_ context.Context, event events.Event) error {
	n.logger.Info("BountyPaid", zap.String("bounty_id", event.BountyID), zap.Any("payload", event.Payload))
	return nil
}
