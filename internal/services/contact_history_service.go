package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"sales-crm/internal/authz"
	"sales-crm/internal/dto"
	"sales-crm/internal/entities"
	"sales-crm/internal/events"
	"sales-crm/internal/repositories"
	"sales-crm/pkg/constants"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/types"
)

const contactHistoryAuditEntity = "contact_history"

type ContactHistoryServiceInterface interface {
	List(ctx context.Context, criteria types.Criteria) ([]entities.ContactHistory, uint64, error)
	ListByCustomer(ctx context.Context, customerID int64, criteria types.Criteria) ([]entities.ContactHistory, uint64, error)
	Get(ctx context.Context, id int64) (*entities.ContactHistory, error)
	Create(ctx context.Context, d dto.CreateContactHistoryDTO) (*entities.ContactHistory, error)
}

type ContactHistoryService struct {
	*BaseService
	historyRepo  repositories.ContactHistoryRepositoryInterface
	customerRepo repositories.CustomerRepositoryInterface
}

func NewContactHistoryService(
	base *BaseService,
	historyRepo repositories.ContactHistoryRepositoryInterface,
	customerRepo repositories.CustomerRepositoryInterface,
) *ContactHistoryService {
	return &ContactHistoryService{BaseService: base, historyRepo: historyRepo, customerRepo: customerRepo}
}

func (s *ContactHistoryService) List(ctx context.Context, criteria types.Criteria) ([]entities.ContactHistory, uint64, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.historyRepo.List(ctx, s.policy.Scope(caller, authz.KindContactHistory), criteria)
}

func (s *ContactHistoryService) ListByCustomer(ctx context.Context, customerID int64, criteria types.Criteria) ([]entities.ContactHistory, uint64, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, 0, err
	}
	res, err := s.customerRepo.Ownership(ctx, nil, customerID)
	if err != nil {
		return nil, 0, err
	}
	res.Kind = authz.KindContactHistory
	if err := s.authorize(caller, authz.ActionRead, res); err != nil {
		return nil, 0, err
	}
	criteria = criteria.With("customer_id", strconv.FormatInt(customerID, 10))
	return s.historyRepo.List(ctx, s.policy.Scope(caller, authz.KindContactHistory), criteria)
}

func (s *ContactHistoryService) Get(ctx context.Context, id int64) (*entities.ContactHistory, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.historyRepo.Ownership(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, authz.ActionRead, res); err != nil {
		return nil, err
	}
	return s.historyRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindContactHistory))
}

// Create records a contact. Entries are never edited afterwards.
func (s *ContactHistoryService) Create(ctx context.Context, d dto.CreateContactHistoryDTO) (*entities.ContactHistory, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	w := entities.ContactHistoryWrite{
		CustomerID:      d.CustomerID,
		Type:            d.Type,
		Subject:         strings.TrimSpace(d.Subject),
		Notes:           d.Notes,
		Outcome:         cleanString(d.Outcome),
		NextStep:        cleanString(d.NextStep),
		DurationMinutes: d.DurationMinutes,
		ActorID:         caller.ID,
	}
	switch {
	case w.Subject == "":
		return nil, apperrors.NewValidationError("subject is required")
	case !constants.Contains(constants.ContactTypes, w.Type):
		return nil, apperrors.NewValidationError("unknown contact type %q", w.Type)
	case w.DurationMinutes.Valid && w.DurationMinutes.Int < 0:
		return nil, apperrors.NewValidationError("duration must not be negative")
	}

	var id int64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		res, err := s.customerRepo.Ownership(ctx, tx, d.CustomerID)
		if err != nil {
			return err
		}
		res.Kind = authz.KindContactHistory
		if err := s.authorize(caller, authz.ActionWrite, res); err != nil {
			return err
		}
		id, err = s.historyRepo.Create(ctx, tx, w)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, caller.ID, events.ActionCreate, contactHistoryAuditEntity, id, d)
	return s.historyRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindContactHistory))
}
