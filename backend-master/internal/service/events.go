package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/notification"
	"github.com/imobsites/imobsites-panel/pkg/kafka"
	"github.com/imobsites/imobsites-panel/pkg/logger"
)

// EmailSender renders and sends a transactional e-mail
type EmailSender interface {
	Send(ctx context.Context, event domain.EventType, to, toName string, vars notification.Vars) error
}

// publish sends an event without failing the caller
func publish(ctx context.Context, p kafka.Publisher, topic string, event kafka.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, event); err != nil {
		logger.Get().WithContext(ctx).Warn("failed to publish event",
			zap.String("topic", topic),
			zap.String("key", event.Key()),
			zap.Error(err),
		)
	}
}

// notify sends an e-mail without failing the caller. Reports success.
func notify(ctx context.Context, s EmailSender, event domain.EventType, to, toName string, vars notification.Vars) bool {
	if s == nil {
		return false
	}
	if err := s.Send(ctx, event, to, toName, vars); err != nil {
		logger.Get().WithContext(ctx).Warn("failed to send e-mail",
			zap.String("event", string(event)),
			zap.String("to", to),
			zap.Error(err),
		)
		return false
	}
	return true
}
