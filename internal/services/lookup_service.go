package services

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"sales-crm/internal/authz"
	"sales-crm/internal/dto"
	"sales-crm/internal/entities"
	"sales-crm/internal/events"
	"sales-crm/internal/repositories"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/types"
)

// LookupServiceInterface serves every reference table through one set of
// operations. Table names come from the caller and are checked against the
// closed set before anything else happens.
type LookupServiceInterface interface {
	List(ctx context.Context, table string, criteria types.Criteria) ([]entities.LookupItem, uint64, error)
	Get(ctx context.Context, table string, id int64) (*entities.LookupItem, error)
	Create(ctx context.Context, table string, d dto.CreateLookupDTO) (*entities.LookupItem, error)
	Update(ctx context.Context, table string, id int64, d dto.UpdateLookupDTO) (*entities.LookupItem, error)
	Delete(ctx context.Context, table string, id int64) error
}

type LookupService struct {
	*BaseService
	lookupRepo repositories.LookupRepositoryInterface
}

func NewLookupService(base *BaseService, lookupRepo repositories.LookupRepositoryInterface) *LookupService {
	return &LookupService{BaseService: base, lookupRepo: lookupRepo}
}

func parseTable(name string) (entities.LookupTable, error) {
	t, ok := entities.ParseLookupTable(name)
	if !ok {
		return "", apperrors.NewValidationError("unknown lookup table %q", name)
	}
	return t, nil
}

func (s *LookupService) List(ctx context.Context, table string, criteria types.Criteria) ([]entities.LookupItem, uint64, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, 0, err
	}
	t, err := parseTable(table)
	if err != nil {
		return nil, 0, err
	}
	return s.lookupRepo.List(ctx, t, s.policy.Scope(caller, authz.KindLookup), criteria)
}

func (s *LookupService) Get(ctx context.Context, table string, id int64) (*entities.LookupItem, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}
	t, err := parseTable(table)
	if err != nil {
		return nil, err
	}
	return s.lookupRepo.FindByID(ctx, nil, t, id)
}

func (s *LookupService) Create(ctx context.Context, table string, d dto.CreateLookupDTO) (*entities.LookupItem, error) {
	caller, t, err := s.authorizeWrite(ctx, table, authz.ActionWrite, 0)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	active := !d.Active.Valid || d.Active.Bool

	id, err := s.lookupRepo.Create(ctx, nil, t, name, active)
	if err != nil {
		return nil, err
	}
	s.logger.Info("lookup item created", zap.String("table", string(t)), zap.Int64("id", id))
	s.audit(ctx, caller.ID, events.ActionCreate, string(t), id, d)
	return s.lookupRepo.FindByID(ctx, nil, t, id)
}

func (s *LookupService) Update(ctx context.Context, table string, id int64, d dto.UpdateLookupDTO) (*entities.LookupItem, error) {
	caller, t, err := s.authorizeWrite(ctx, table, authz.ActionWrite, id)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.lookupRepo.FindByID(ctx, tx, t, id)
		if err != nil {
			return err
		}
		name, active := current.Name, current.Active
		if d.Name.Valid {
			if name = strings.TrimSpace(d.Name.String); name == "" {
				return apperrors.NewValidationError("name must not be blank")
			}
		}
		if d.Active.Valid {
			active = d.Active.Bool
		}
		return s.lookupRepo.Update(ctx, tx, t, id, name, active)
	})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, caller.ID, events.ActionUpdate, string(t), id, d)
	return s.lookupRepo.FindByID(ctx, nil, t, id)
}

// Delete removes an item nobody references. Items still in use can only be
// deactivated.
func (s *LookupService) Delete(ctx context.Context, table string, id int64) error {
	caller, t, err := s.authorizeWrite(ctx, table, authz.ActionDelete, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.lookupRepo.FindByID(ctx, tx, t, id); err != nil {
			return err
		}
		used, err := s.lookupRepo.UsageCount(ctx, tx, t, id)
		if err != nil {
			return err
		}
		if used > 0 {
			return apperrors.NewConflictError("item is still in use by %d record(s); deactivate it instead", used)
		}
		return s.lookupRepo.Delete(ctx, tx, t, id)
	})
	if err != nil {
		return err
	}
	s.audit(ctx, caller.ID, events.ActionDelete, string(t), id, nil)
	return nil
}

func (s *LookupService) authorizeWrite(ctx context.Context, table string, action authz.Action, id int64) (authz.Caller, entities.LookupTable, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return authz.Caller{}, "", err
	}
	t, err := parseTable(table)
	if err != nil {
		return authz.Caller{}, "", err
	}
	if err := s.authorize(caller, action, authz.Resource{Kind: authz.KindLookup, ID: id}); err != nil {
		return authz.Caller{}, "", err
	}
	return caller, t, nil
}
