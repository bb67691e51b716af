package services

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"sales-crm/internal/authz"
	"sales-crm/internal/dto"
	"sales-crm/internal/entities"
	"sales-crm/internal/events"
	"sales-crm/internal/repositories"
	"sales-crm/pkg/constants"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/types"
)

const appointmentAuditEntity = "appointment"

type AppointmentServiceInterface interface {
	List(ctx context.Context, criteria types.Criteria) ([]entities.Appointment, uint64, error)
	ListByCustomer(ctx context.Context, customerID int64, criteria types.Criteria) ([]entities.Appointment, uint64, error)
	Get(ctx context.Context, id int64) (*entities.Appointment, error)
	Create(ctx context.Context, d dto.CreateAppointmentDTO) (*entities.Appointment, error)
	Update(ctx context.Context, id int64, d dto.UpdateAppointmentDTO) (*entities.Appointment, error)
	Delete(ctx context.Context, id int64) error
}

type AppointmentService struct {
	*BaseService
	appointmentRepo repositories.AppointmentRepositoryInterface
	customerRepo    repositories.CustomerRepositoryInterface
	userRepo        repositories.UserRepositoryInterface
}

func NewAppointmentService(
	base *BaseService,
	appointmentRepo repositories.AppointmentRepositoryInterface,
	customerRepo repositories.CustomerRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
) *AppointmentService {
	return &AppointmentService{
		BaseService:     base,
		appointmentRepo: appointmentRepo,
		customerRepo:    customerRepo,
		userRepo:        userRepo,
	}
}

func (s *AppointmentService) List(ctx context.Context, criteria types.Criteria) ([]entities.Appointment, uint64, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.appointmentRepo.List(ctx, s.policy.Scope(caller, authz.KindAppointment), criteria)
}

// ListByCustomer lists the appointments of one customer that the caller can
// see. Employees assigned to an appointment see it even on a colleague's
// customer.
func (s *AppointmentService) ListByCustomer(ctx context.Context, customerID int64, criteria types.Criteria) ([]entities.Appointment, uint64, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.customerRepo.Ownership(ctx, nil, customerID); err != nil {
		return nil, 0, err
	}
	criteria = criteria.With("customer_id", strconv.FormatInt(customerID, 10))
	return s.appointmentRepo.List(ctx, s.policy.Scope(caller, authz.KindAppointment), criteria)
}

func (s *AppointmentService) Get(ctx context.Context, id int64) (*entities.Appointment, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.appointmentRepo.Ownership(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, authz.ActionRead, res); err != nil {
		return nil, err
	}
	return s.appointmentRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindAppointment))
}

func (s *AppointmentService) Create(ctx context.Context, d dto.CreateAppointmentDTO) (*entities.Appointment, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	reminders, err := NormalizeReminders(d.ReminderMinutes)
	if err != nil {
		return nil, err
	}
	w := entities.AppointmentWrite{
		CustomerID:      d.CustomerID,
		Title:           strings.TrimSpace(d.Title),
		Description:     cleanString(d.Description),
		ScheduledAt:     d.ScheduledAt,
		DurationMinutes: d.DurationMinutes,
		Status:          d.Status,
		ReminderMinutes: reminders,
		AssignedTo:      s.policy.AssigneeForCreate(caller, d.AssignedTo.Int64),
		ActorID:         caller.ID,
	}
	if w.Status == "" {
		w.Status = constants.AppointmentScheduled
	}
	if w.DurationMinutes == 0 {
		w.DurationMinutes = constants.DefaultAppointmentDuration
	}
	if err := validateAppointment(w); err != nil {
		return nil, err
	}

	var id int64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		customer, err := s.customerRepo.Ownership(ctx, tx, w.CustomerID)
		if err != nil {
			return err
		}
		// booking on a customer requires seeing that customer
		if err := s.authorize(caller, authz.ActionRead, customer); err != nil {
			return err
		}
		if err := s.checkAssignee(ctx, tx, caller, w.AssignedTo); err != nil {
			return err
		}
		id, err = s.appointmentRepo.Create(ctx, tx, w)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment created", zap.Int64("appointment_id", id), zap.Int64("customer_id", w.CustomerID),
		zap.Int64("user_id", caller.ID))
	s.audit(ctx, caller.ID, events.ActionCreate, appointmentAuditEntity, id, d)
	return s.appointmentRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindAppointment))
}

func (s *AppointmentService) Update(ctx context.Context, id int64, d dto.UpdateAppointmentDTO) (*entities.Appointment, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		res, err := s.appointmentRepo.Ownership(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(caller, authz.ActionWrite, res); err != nil {
			return err
		}
		current, err := s.appointmentRepo.FindByID(ctx, tx, id, s.policy.Scope(caller, authz.KindAppointment))
		if err != nil {
			return err
		}

		w := entities.AppointmentWrite{
			CustomerID:      current.Customer.ID,
			Title:           current.Title,
			Description:     current.Description,
			ScheduledAt:     current.ScheduledAt,
			DurationMinutes: current.DurationMinutes,
			Status:          current.Status,
			ReminderMinutes: current.ReminderMinutes,
			AssignedTo:      s.policy.AssigneeForUpdate(caller, current.AssignedTo.ID, d.AssignedTo.Int64),
			ActorID:         caller.ID,
		}
		if d.Title.Valid {
			w.Title = strings.TrimSpace(d.Title.String)
		}
		if d.Description.Valid {
			w.Description = cleanString(d.Description)
		}
		if d.ScheduledAt.Valid {
			w.ScheduledAt = d.ScheduledAt.Time
		}
		if d.DurationMinutes.Valid {
			w.DurationMinutes = d.DurationMinutes.Int
		}
		if d.Status.Valid {
			w.Status = d.Status.String
		}
		if d.ReminderMinutes != nil {
			if w.ReminderMinutes, err = NormalizeReminders(d.ReminderMinutes); err != nil {
				return err
			}
		}
		if err := validateAppointment(w); err != nil {
			return err
		}
		if w.AssignedTo != current.AssignedTo.ID {
			if err := s.checkAssignee(ctx, tx, caller, w.AssignedTo); err != nil {
				return err
			}
		}
		return s.appointmentRepo.Update(ctx, tx, id, w)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, caller.ID, events.ActionUpdate, appointmentAuditEntity, id, d)
	return s.appointmentRepo.FindByID(ctx, nil, id, s.policy.Scope(caller, authz.KindAppointment))
}

func (s *AppointmentService) Delete(ctx context.Context, id int64) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		res, err := s.appointmentRepo.Ownership(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(caller, authz.ActionDelete, res); err != nil {
			return err
		}
		return s.appointmentRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.audit(ctx, caller.ID, events.ActionDelete, appointmentAuditEntity, id, nil)
	return nil
}

func (s *AppointmentService) checkAssignee(ctx context.Context, tx pgx.Tx, caller authz.Caller, userID int64) error {
	if userID == caller.ID {
		return nil
	}
	u, err := s.userRepo.FindByID(ctx, tx, userID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.ErrNotFound {
			return apperrors.NewValidationError("assignee %d does not exist", userID)
		}
		return err
	}
	if !u.Active {
		return apperrors.NewValidationError("assignee %d is disabled", userID)
	}
	return nil
}

func validateAppointment(w entities.AppointmentWrite) error {
	switch {
	case w.Title == "":
		return apperrors.NewValidationError("appointment title is required")
	case w.ScheduledAt.IsZero():
		return apperrors.NewValidationError("scheduled_at is required")
	case w.DurationMinutes <= 0:
		return apperrors.NewValidationError("duration must be positive")
	case !constants.Contains(constants.AppointmentStatuses, w.Status):
		return apperrors.NewValidationError("unknown appointment status %q", w.Status)
	}
	return nil
}

// NormalizeReminders returns the offsets sorted ascending without duplicates.
// Negative offsets are rejected.
func NormalizeReminders(in []int) ([]int, error) {
	out := make([]int, 0, len(in))
	seen := make(map[int]bool, len(in))
	for _, m := range in {
		if m < 0 {
			return nil, apperrors.NewValidationError("reminder offset %d must not be negative", m)
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Ints(out)
	return out, nil
}
