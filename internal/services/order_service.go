package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"sales-crm/internal/authz"
	"sales-crm/internal/dto"
	"sales-crm/internal/entities"
	"sales-crm/internal/events"
	"sales-crm/internal/repositories"
	"sales-crm/pkg/constants"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/money"
	"sales-crm/pkg/types"
)

const orderAuditEntity = "order"

type OrderServiceInterface interface {
	List(ctx context.Context, criteria types.Criteria) ([]entities.Order, uint64, error)
	Get(ctx context.Context, id int64) (*entities.Order, error)
	Create(ctx context.Context, d dto.CreateOrderDTO) (*entities.Order, error)
	Update(ctx context.Context, id int64, d dto.UpdateOrderDTO) (*entities.Order, error)
	Delete(ctx context.Context, id int64) error
}

type OrderService struct {
	*BaseService
	orderRepo    repositories.OrderRepositoryInterface
	customerRepo repositories.CustomerRepositoryInterface
	lookupRepo   repositories.LookupRepositoryInterface
}

func NewOrderService(
	base *BaseService,
	orderRepo repositories.OrderRepositoryInterface,
	customerRepo repositories.CustomerRepositoryInterface,
	lookupRepo repositories.LookupRepositoryInterface,
) *OrderService {
	return &OrderService{BaseService: base, orderRepo: orderRepo, customerRepo: customerRepo, lookupRepo: lookupRepo}
}

func (s *OrderService) List(ctx context.Context, criteria types.Criteria) ([]entities.Order, uint64, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.orderRepo.List(ctx, s.policy.Scope(caller, authz.KindOrder), criteria)
}

func (s *OrderService) Get(ctx context.Context, id int64) (*entities.Order, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.orderRepo.Ownership(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, authz.ActionRead, res); err != nil {
		return nil, err
	}
	return s.orderRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindOrder))
}

// Create stores the header and every item in one transaction. The total is
// the explicit amount when one is given, otherwise the sum of the items.
func (s *OrderService) Create(ctx context.Context, d dto.CreateOrderDTO) (*entities.Order, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	w := entities.OrderWrite{
		CustomerID:  d.CustomerID,
		Currency:    strings.ToUpper(strings.TrimSpace(d.Currency)),
		Status:      d.Status,
		LicenseType: cleanString(d.LicenseType),
		OrderDate:   d.OrderDate.Time,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Notes:       cleanString(d.Notes),
		ActorID:     caller.ID,
	}
	if w.Currency == "" {
		w.Currency = constants.DefaultCurrency
	}
	if w.Status == "" {
		w.Status = constants.OrderStatusPending
	}
	if w.OrderDate.IsZero() {
		w.OrderDate = time.Now()
	}
	if err := validateOrderDates(w); err != nil {
		return nil, err
	}

	var id int64
	err = s.withFreshNumber(constants.OrderNumberPrefix, func(number string) error {
		w.OrderNumber = number
		return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
			res, err := s.customerRepo.Ownership(ctx, tx, d.CustomerID)
			if err != nil {
				return err
			}
			res.Kind = authz.KindOrder
			if err := s.authorize(caller, authz.ActionWrite, res); err != nil {
				return err
			}
			if w.Items, err = s.resolveItems(ctx, tx, d.Items); err != nil {
				return err
			}
			if w.TotalAmount, err = OrderTotal(d.TotalAmount.String, w.Items); err != nil {
				return err
			}
			id, err = s.orderRepo.Create(ctx, tx, w)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created", zap.Int64("order_id", id), zap.String("order_number", w.OrderNumber),
		zap.String("total", w.TotalAmount), zap.Int64("user_id", caller.ID))
	s.audit(ctx, caller.ID, events.ActionCreate, orderAuditEntity, id, d)
	return s.orderRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindOrder))
}

// resolveItems prices every item and fills product names from the catalog
// when only a product id is given.
func (s *OrderService) resolveItems(ctx context.Context, tx pgx.Tx, in []dto.OrderItemDTO) ([]entities.OrderItemWrite, error) {
	items := make([]entities.OrderItemWrite, 0, len(in))
	for i, it := range in {
		name := strings.TrimSpace(it.ProductName)
		productID := positiveID(it.ProductID)
		if name == "" && productID.Valid {
			product, err := s.lookupRepo.FindByID(ctx, tx, entities.LookupProducts, productID.Int64)
			if err != nil {
				if apperrors.KindOf(err) == apperrors.ErrNotFound {
					return nil, apperrors.NewValidationError("item %d: product %d does not exist", i+1, productID.Int64)
				}
				return nil, err
			}
			name = product.Name
		}
		if name == "" {
			return nil, apperrors.NewValidationError("item %d: product name is required", i+1)
		}

		unit, err := money.Format(it.UnitPrice)
		if err != nil {
			return nil, apperrors.NewValidationError("item %d: unit price: %s", i+1, errMessage(err))
		}
		total, err := money.LineTotal(it.Quantity, it.UnitPrice)
		if err != nil {
			return nil, apperrors.NewValidationError("item %d: %s", i+1, errMessage(err))
		}
		items = append(items, entities.OrderItemWrite{
			ProductID:   productID,
			ProductName: name,
			Quantity:    it.Quantity,
			UnitPrice:   unit,
			TotalPrice:  total,
		})
	}
	return items, nil
}

// OrderTotal returns explicit when it is non-blank, otherwise the sum of the
// item totals. An order needs at least one of the two.
func OrderTotal(explicit string, items []entities.OrderItemWrite) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		d, err := money.ParseDecimal(explicit)
		if err != nil {
			return "", err
		}
		return d.StringFixed(money.Places), nil
	}
	if len(items) == 0 {
		return "", apperrors.NewValidationError("an order needs items or a total amount")
	}
	totals := make([]string, len(items))
	for i, it := range items {
		totals[i] = it.TotalPrice
	}
	return money.Sum(totals...)
}

func (s *OrderService) Update(ctx context.Context, id int64, d dto.UpdateOrderDTO) (*entities.Order, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		res, err := s.orderRepo.Ownership(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(caller, authz.ActionWrite, res); err != nil {
			return err
		}
		current, err := s.orderRepo.FindByID(ctx, tx, id, s.policy.Scope(caller, authz.KindOrder))
		if err != nil {
			return err
		}

		w := entities.OrderWrite{
			Status:      current.Status,
			LicenseType: current.LicenseType,
			StartDate:   current.StartDate,
			EndDate:     current.EndDate,
			Notes:       current.Notes,
			ActorID:     caller.ID,
		}
		if d.Status.Valid {
			if !constants.Contains(constants.OrderStatuses, d.Status.String) {
				return apperrors.NewValidationError("unknown order status %q", d.Status.String)
			}
			w.Status = d.Status.String
		}
		if d.LicenseType.Valid {
			w.LicenseType = cleanString(d.LicenseType)
		}
		if d.StartDate.Valid {
			w.StartDate = d.StartDate
		}
		if d.EndDate.Valid {
			w.EndDate = d.EndDate
		}
		if d.Notes.Valid {
			w.Notes = cleanString(d.Notes)
		}
		if err := validateOrderDates(w); err != nil {
			return err
		}
		return s.orderRepo.Update(ctx, tx, id, w)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, caller.ID, events.ActionUpdate, orderAuditEntity, id, d)
	return s.orderRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindOrder))
}

func (s *OrderService) Delete(ctx context.Context, id int64) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		res, err := s.orderRepo.Ownership(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(caller, authz.ActionDelete, res); err != nil {
			return err
		}
		return s.orderRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.audit(ctx, caller.ID, events.ActionDelete, orderAuditEntity, id, nil)
	return nil
}

func validateOrderDates(w entities.OrderWrite) error {
	if w.StartDate.Valid && w.EndDate.Valid && w.EndDate.Time.Before(w.StartDate.Time) {
		return apperrors.NewValidationError("end date must not be before start date")
	}
	return nil
}

// errMessage returns the user-facing part of an application error.
func errMessage(err error) string {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	return err.Error()
}
