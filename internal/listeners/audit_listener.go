package listeners

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"sales-crm/internal/entities"
	"sales-crm/internal/events"
	"sales-crm/internal/repositories"
	"sales-crm/pkg/eventbus"
)

type AuditListener struct {
	auditRepo repositories.AuditRepositoryInterface
	logger    *zap.Logger
}

func NewAuditListener(auditRepo repositories.AuditRepositoryInterface, logger *zap.Logger) *AuditListener {
	return &AuditListener{auditRepo: auditRepo, logger: logger}
}

func (l *AuditListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.AuditEventName, l.Handle)
}

func (l *AuditListener) Handle(ctx context.Context, e eventbus.Event) error {
	ev, ok := e.(events.AuditEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", e)
	}

	entry := entities.AuditEntry{
		ActorID:  ev.ActorID,
		Action:   ev.Action,
		Entity:   ev.Entity,
		EntityID: ev.EntityID,
	}
	if ev.Data != nil {
		payload, err := json.Marshal(ev.Data)
		if err != nil {
			return fmt.Errorf("marshal audit payload: %w", err)
		}
		entry.Payload = payload
	}

	l.logger.Info("audit",
		zap.Int64("actor_id", ev.ActorID),
		zap.String("action", ev.Action),
		zap.String("entity", ev.Entity),
		zap.Int64("entity_id", ev.EntityID),
	)
	return l.auditRepo.Insert(ctx, entry)
}
