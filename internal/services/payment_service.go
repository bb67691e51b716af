package services

import (
	"context"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
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

const paymentAuditEntity = "payment"

type PaymentServiceInterface interface {
	List(ctx context.Context, criteria types.Criteria) ([]entities.Payment, uint64, error)
	Get(ctx context.Context, id int64) (*entities.Payment, error)
	Create(ctx context.Context, d dto.CreatePaymentDTO) (*entities.Payment, error)
	Update(ctx context.Context, id int64, d dto.UpdatePaymentDTO) (*entities.Payment, error)
	Delete(ctx context.Context, id int64) error
}

type PaymentService struct {
	*BaseService
	paymentRepo  repositories.PaymentRepositoryInterface
	orderRepo    repositories.OrderRepositoryInterface
	customerRepo repositories.CustomerRepositoryInterface
}

func NewPaymentService(
	base *BaseService,
	paymentRepo repositories.PaymentRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	customerRepo repositories.CustomerRepositoryInterface,
) *PaymentService {
	return &PaymentService{BaseService: base, paymentRepo: paymentRepo, orderRepo: orderRepo, customerRepo: customerRepo}
}

func (s *PaymentService) List(ctx context.Context, criteria types.Criteria) ([]entities.Payment, uint64, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.paymentRepo.List(ctx, s.policy.Scope(caller, authz.KindPayment), criteria)
}

func (s *PaymentService) Get(ctx context.Context, id int64) (*entities.Payment, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.paymentRepo.Ownership(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, authz.ActionRead, res); err != nil {
		return nil, err
	}
	return s.paymentRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindPayment))
}

func (s *PaymentService) Create(ctx context.Context, d dto.CreatePaymentDTO) (*entities.Payment, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	amount, err := money.Format(d.Amount)
	if err != nil {
		return nil, err
	}
	w := entities.PaymentWrite{
		CustomerID:      d.CustomerID,
		OrderID:         positiveID(d.OrderID),
		Amount:          amount,
		Currency:        strings.ToUpper(strings.TrimSpace(d.Currency)),
		Method:          d.Method,
		Status:          d.Status,
		ReferenceNumber: cleanString(d.ReferenceNumber),
		PaidAt:          d.PaidAt,
		Notes:           cleanString(d.Notes),
		ActorID:         caller.ID,
	}
	if w.Currency == "" {
		w.Currency = constants.DefaultCurrency
	}
	if w.Status == "" {
		w.Status = constants.PaymentStatusPending
	}
	if w.Method == "" {
		return nil, apperrors.NewValidationError("payment method is required")
	}
	if err := validatePayment(&w); err != nil {
		return nil, err
	}

	var id int64
	err = s.withFreshNumber(constants.PaymentNumberPrefix, func(number string) error {
		w.PaymentNumber = number
		return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
			res, err := s.customerRepo.Ownership(ctx, tx, d.CustomerID)
			if err != nil {
				return err
			}
			res.Kind = authz.KindPayment
			if err := s.authorize(caller, authz.ActionWrite, res); err != nil {
				return err
			}
			if w.OrderID.Valid {
				orderCustomer, err := s.orderRepo.CustomerIDOf(ctx, tx, w.OrderID.Int64)
				if err != nil {
					if apperrors.KindOf(err) == apperrors.ErrNotFound {
						return apperrors.NewValidationError("order %d does not exist", w.OrderID.Int64)
					}
					return err
				}
				if orderCustomer != d.CustomerID {
					return apperrors.NewValidationError("order %d belongs to another customer", w.OrderID.Int64)
				}
			}
			id, err = s.paymentRepo.Create(ctx, tx, w)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment created", zap.Int64("payment_id", id), zap.String("payment_number", w.PaymentNumber),
		zap.String("amount", w.Amount), zap.Int64("user_id", caller.ID))
	s.audit(ctx, caller.ID, events.ActionCreate, paymentAuditEntity, id, d)
	return s.paymentRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindPayment))
}

func (s *PaymentService) Update(ctx context.Context, id int64, d dto.UpdatePaymentDTO) (*entities.Payment, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		res, err := s.paymentRepo.Ownership(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(caller, authz.ActionWrite, res); err != nil {
			return err
		}
		current, err := s.paymentRepo.FindByID(ctx, tx, id, s.policy.Scope(caller, authz.KindPayment))
		if err != nil {
			return err
		}

		w := entities.PaymentWrite{
			Status:          current.Status,
			ReferenceNumber: current.ReferenceNumber,
			PaidAt:          current.PaidAt,
			Notes:           current.Notes,
			ActorID:         caller.ID,
		}
		if d.Status.Valid {
			w.Status = d.Status.String
		}
		if d.ReferenceNumber.Valid {
			w.ReferenceNumber = cleanString(d.ReferenceNumber)
		}
		if d.PaidAt.Valid {
			w.PaidAt = d.PaidAt
		}
		if d.Notes.Valid {
			w.Notes = cleanString(d.Notes)
		}
		if err := validatePayment(&w); err != nil {
			return err
		}
		return s.paymentRepo.Update(ctx, tx, id, w)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, caller.ID, events.ActionUpdate, paymentAuditEntity, id, d)
	return s.paymentRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindPayment))
}

func (s *PaymentService) Delete(ctx context.Context, id int64) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		res, err := s.paymentRepo.Ownership(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(caller, authz.ActionDelete, res); err != nil {
			return err
		}
		return s.paymentRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.audit(ctx, caller.ID, events.ActionDelete, paymentAuditEntity, id, nil)
	return nil
}

// validatePayment checks status and method and stamps paid_at when a payment
// becomes completed without one.
func validatePayment(w *entities.PaymentWrite) error {
	if !constants.Contains(constants.PaymentStatuses, w.Status) {
		return apperrors.NewValidationError("unknown payment status %q", w.Status)
	}
	if w.Method != "" && !constants.Contains(constants.PaymentMethods, w.Method) {
		return apperrors.NewValidationError("unknown payment method %q", w.Method)
	}
	if w.Status == constants.PaymentStatusCompleted && !w.PaidAt.Valid {
		w.PaidAt = null.TimeFrom(time.Now())
	}
	return nil
}
