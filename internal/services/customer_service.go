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

const customerAuditEntity = "customer"

type CustomerServiceInterface interface {
	List(ctx context.Context, criteria types.Criteria) ([]entities.Customer, uint64, error)
	Get(ctx context.Context, id int64) (*entities.Customer, error)
	Create(ctx context.Context, d dto.CustomerDTO) (*entities.Customer, error)
	Update(ctx context.Context, id int64, d dto.CustomerDTO) (*entities.Customer, error)
	Delete(ctx context.Context, id int64) error
}

type CustomerService struct {
	*BaseService
	customerRepo repositories.CustomerRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
}

func NewCustomerService(
	base *BaseService,
	customerRepo repositories.CustomerRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
) *CustomerService {
	return &CustomerService{BaseService: base, customerRepo: customerRepo, userRepo: userRepo}
}

func (s *CustomerService) List(ctx context.Context, criteria types.Criteria) ([]entities.Customer, uint64, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.customerRepo.List(ctx, s.policy.Scope(caller, authz.KindCustomer), criteria)
}

func (s *CustomerService) Get(ctx context.Context, id int64) (*entities.Customer, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.customerRepo.Ownership(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, authz.ActionRead, res); err != nil {
		return nil, err
	}
	return s.customerRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindCustomer))
}

func (s *CustomerService) Create(ctx context.Context, d dto.CustomerDTO) (*entities.Customer, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	w, err := customerWriteFrom(d)
	if err != nil {
		return nil, err
	}
	w.ActorID = caller.ID
	w.AssignedSalesperson = s.policy.AssigneeForCreate(caller, d.AssignedSalesperson.Int64)

	var id int64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.checkAssignee(ctx, tx, caller, w.AssignedSalesperson); err != nil {
			return err
		}
		if err := s.checkDuplicate(ctx, tx, w, 0); err != nil {
			return err
		}
		var err error
		if id, err = s.customerRepo.Create(ctx, tx, w); err != nil {
			return err
		}
		return s.customerRepo.ReplaceProducts(ctx, tx, id, w.ProductIDs)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("customer created", zap.Int64("customer_id", id), zap.Int64("user_id", caller.ID),
		zap.Int64("assigned_salesperson", w.AssignedSalesperson))
	s.audit(ctx, caller.ID, events.ActionCreate, customerAuditEntity, id, d)
	return s.customerRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindCustomer))
}

// Update replaces every field of the customer and its product links.
func (s *CustomerService) Update(ctx context.Context, id int64, d dto.CustomerDTO) (*entities.Customer, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	w, err := customerWriteFrom(d)
	if err != nil {
		return nil, err
	}
	w.ActorID = caller.ID

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		res, err := s.customerRepo.Ownership(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(caller, authz.ActionWrite, res); err != nil {
			return err
		}

		w.AssignedSalesperson = s.policy.AssigneeForUpdate(caller, res.Owner, d.AssignedSalesperson.Int64)
		if w.AssignedSalesperson != res.Owner {
			if err := s.checkAssignee(ctx, tx, caller, w.AssignedSalesperson); err != nil {
				return err
			}
		}
		if err := s.checkDuplicate(ctx, tx, w, id); err != nil {
			return err
		}
		if err := s.customerRepo.Update(ctx, tx, id, w); err != nil {
			return err
		}
		return s.customerRepo.ReplaceProducts(ctx, tx, id, w.ProductIDs)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, caller.ID, events.ActionUpdate, customerAuditEntity, id, d)
	return s.customerRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindCustomer))
}

// Delete marks the customer deleted. Its contact history, appointments,
// orders and payments stay in storage.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		res, err := s.customerRepo.Ownership(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(caller, authz.ActionDelete, res); err != nil {
			return err
		}
		return s.customerRepo.SoftDelete(ctx, tx, id, caller.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("customer deleted", zap.Int64("customer_id", id), zap.Int64("user_id", caller.ID))
	s.audit(ctx, caller.ID, events.ActionDelete, customerAuditEntity, id, nil)
	return nil
}

// checkAssignee makes sure a salesperson chosen by an admin is a live user.
func (s *CustomerService) checkAssignee(ctx context.Context, tx pgx.Tx, caller authz.Caller, userID int64) error {
	if userID == caller.ID {
		return nil
	}
	u, err := s.userRepo.FindByID(ctx, tx, userID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.ErrNotFound {
			return apperrors.NewValidationError("assigned salesperson %d does not exist", userID)
		}
		return err
	}
	if !u.Active {
		return apperrors.NewValidationError("assigned salesperson %d is disabled", userID)
	}
	return nil
}

func (s *CustomerService) checkDuplicate(ctx context.Context, tx pgx.Tx, w entities.CustomerWrite, excludeID int64) error {
	field, err := s.customerRepo.FindDuplicate(ctx, tx, w.Phone, w.Email, excludeID)
	if err != nil {
		return err
	}
	if field != "" {
		return apperrors.NewConflictError("a customer with this %s already exists", field)
	}
	return nil
}

func customerWriteFrom(d dto.CustomerDTO) (entities.CustomerWrite, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return entities.CustomerWrite{}, apperrors.NewValidationError("customer name is required")
	}

	email := cleanString(d.Email)
	if email.Valid {
		email.String = strings.ToLower(email.String)
	}

	productIDs := make([]int64, 0, len(d.ProductIDs))
	for _, pid := range d.ProductIDs {
		if pid <= 0 {
			return entities.CustomerWrite{}, apperrors.NewValidationError("product id %d is invalid", pid)
		}
		productIDs = append(productIDs, pid)
	}

	return entities.CustomerWrite{
		Name:            name,
		Phone:           cleanString(d.Phone),
		Email:           email,
		Address:         cleanString(d.Address),
		CompanyName:     cleanString(d.CompanyName),
		TaxCode:         cleanString(d.TaxCode),
		Website:         cleanString(d.Website),
		CustomerTypeID:  positiveID(d.CustomerTypeID),
		BusinessTypeID:  positiveID(d.BusinessTypeID),
		CompanySizeID:   positiveID(d.CompanySizeID),
		ProvinceID:      positiveID(d.ProvinceID),
		LeadSourceID:    positiveID(d.LeadSourceID),
		StageID:         positiveID(d.StageID),
		TemperatureID:   positiveID(d.TemperatureID),
		ContactStatusID: positiveID(d.ContactStatusID),
		Feedback:        cleanString(d.Feedback),
		Notes:           d.Notes,
		ProductIDs:      productIDs,
	}, nil
}
