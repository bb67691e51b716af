package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"sales-crm/internal/authz"
	"sales-crm/internal/events"
	"sales-crm/internal/repositories"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/eventbus"
	"sales-crm/pkg/utils"
)

const numberAttempts = 3

// BaseService bundles what every entity service needs: the access policy,
// transactions, the audit bus and a logger.
type BaseService struct {
	policy    *authz.Policy
	txManager repositories.TxManagerInterface
	bus       *eventbus.Bus
	logger    *zap.Logger
	newNumber func(prefix string, now time.Time) string
}

func NewBaseService(policy *authz.Policy, txManager repositories.TxManagerInterface, bus *eventbus.Bus, logger *zap.Logger) *BaseService {
	return &BaseService{
		policy:    policy,
		txManager: txManager,
		bus:       bus,
		logger:    logger,
		newNumber: utils.DocumentNumber,
	}
}

func (s *BaseService) caller(ctx context.Context) (authz.Caller, error) {
	return authz.CallerFrom(ctx)
}

func (s *BaseService) authorize(caller authz.Caller, action authz.Action, res authz.Resource) error {
	d := s.policy.Authorize(caller, action, res)
	if !d.Allowed {
		s.logger.Warn("access denied",
			zap.Int64("user_id", caller.ID),
			zap.String("role", string(caller.Role)),
			zap.String("action", string(action)),
			zap.String("kind", string(res.Kind)),
			zap.Int64("resource_id", res.ID),
			zap.String("reason", d.Reason))
	}
	return d.Err()
}

func (s *BaseService) audit(ctx context.Context, actorID int64, action, entity string, id int64, data interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.AuditEvent{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: id,
		Data:     data,
	})
}

// withFreshNumber calls insert with a newly minted document number and tries
// again while the number collides with an existing one.
func (s *BaseService) withFreshNumber(prefix string, insert func(number string) error) error {
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		number := s.newNumber(prefix, time.Now())
		if err = insert(number); !errors.Is(err, apperrors.ErrConflict) {
			return err
		}
		s.logger.Warn("document number collision", zap.String("number", number), zap.Int("attempt", attempt+1))
	}
	return err
}

// cleanString trims s and turns blank values into null.
func cleanString(s null.String) null.String {
	if !s.Valid {
		return s
	}
	v := strings.TrimSpace(s.String)
	return null.NewString(v, v != "")
}

func positiveID(v null.Int64) null.Int64 {
	return null.NewInt64(v.Int64, v.Valid && v.Int64 > 0)
}
