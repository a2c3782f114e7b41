package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-api/internal/config"
	"github.com/spec-kit/contacts-api/internal/events"
)

// AuditService records authentication events in the log and appends them to
// a capped Redis stream when a client is available.
type AuditService struct {
	logger *zap.Logger
	redis  *redis.Client
	cfg    config.AuditConfig
}

// NewAuditService creates the service and subscribes its log handler to
// dispatcher. client may be nil. Stream writes go through Append, normally
// driven by worker.AuditWorker off the request path.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, client *redis.Client, cfg config.AuditConfig) *AuditService {
	a := &AuditService{
		logger: logger,
		redis:  client,
		cfg:    cfg,
	}
	if dispatcher != nil {
		for _, et := range events.AuditEventTypes {
			dispatcher.Subscribe(et, a.record)
		}
	}
	return a
}

// StreamEnabled reports whether Append writes anywhere.
func (a *AuditService) StreamEnabled() bool {
	return a.redis != nil
}

func (a *AuditService) record(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject", event.Subject),
		zap.String("ip", event.IP),
	}
	if event.Reason != "" {
		fields = append(fields, zap.String("reason", event.Reason))
	}
	a.logger.Info("audit", fields...)
	return nil
}

// Append writes event to the audit stream, bounded by the configured write
// timeout. It is a no-op without a Redis client.
func (a *AuditService) Append(ctx context.Context, event events.Event) error {
	if a.redis == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.WriteTimeout())
	defer cancel()

	err = a.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: a.cfg.Stream,
		MaxLen: a.cfg.MaxLength,
		Approx: true,
		Values: map[string]any{
			"type":    string(event.Type),
			"payload": payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("audit: append to %s: %w", a.cfg.Stream, err)
	}
	return nil
}
