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
	"sales-crm/pkg/utils"
)

const userAuditEntity = "user"

type UserServiceInterface interface {
	List(ctx context.Context, criteria types.Criteria) ([]entities.User, uint64, error)
	Get(ctx context.Context, id int64) (*entities.User, error)
	Create(ctx context.Context, d dto.CreateUserDTO) (*entities.User, error)
	Update(ctx context.Context, id int64, d dto.UpdateUserDTO) (*entities.User, error)
	Deactivate(ctx context.Context, id int64) error
}

// UserService manages accounts. Users are never removed; deactivation is the
// only way to revoke access.
type UserService struct {
	*BaseService
	userRepo repositories.UserRepositoryInterface
}

func NewUserService(base *BaseService, userRepo repositories.UserRepositoryInterface) *UserService {
	return &UserService{BaseService: base, userRepo: userRepo}
}

func (s *UserService) List(ctx context.Context, criteria types.Criteria) ([]entities.User, uint64, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.userRepo.List(ctx, s.policy.Scope(caller, authz.KindUser), criteria)
}

func (s *UserService) Get(ctx context.Context, id int64) (*entities.User, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, authz.ActionRead, authz.Resource{Kind: authz.KindUser, ID: id}); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, nil, id)
}

func (s *UserService) Create(ctx context.Context, d dto.CreateUserDTO) (*entities.User, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, authz.ActionWrite, authz.Resource{Kind: authz.KindUser}); err != nil {
		return nil, err
	}

	w := entities.UserWrite{
		Email:  strings.ToLower(strings.TrimSpace(d.Email)),
		Name:   strings.TrimSpace(d.Name),
		Phone:  cleanString(d.Phone),
		Role:   d.Role,
		Active: true,
	}
	if err := validateUser(w); err != nil {
		return nil, err
	}
	if len(d.Password) < utils.MinPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least %d characters", utils.MinPasswordLength)
	}
	if w.PasswordHash, err = utils.HashPassword(d.Password); err != nil {
		return nil, apperrors.NewUpstreamError(err)
	}

	var id int64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.checkEmailFree(ctx, tx, w.Email, 0); err != nil {
			return err
		}
		id, err = s.userRepo.Create(ctx, tx, w)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", zap.Int64("new_user_id", id), zap.String("role", w.Role), zap.Int64("user_id", caller.ID))
	s.audit(ctx, caller.ID, events.ActionCreate, userAuditEntity, id, map[string]string{"email": w.Email, "role": w.Role})
	return s.userRepo.FindByID(ctx, nil, id)
}

func (s *UserService) Update(ctx context.Context, id int64, d dto.UpdateUserDTO) (*entities.User, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	res := authz.Resource{Kind: authz.KindUser, ID: id}
	if err := s.authorize(caller, authz.ActionWrite, res); err != nil {
		return nil, err
	}
	if d.Active.Valid && !d.Active.Bool {
		if err := s.authorize(caller, authz.ActionDelete, res); err != nil {
			return nil, err
		}
	}

	var passwordHash string
	if d.Password.Valid && d.Password.String != "" {
		if len(d.Password.String) < utils.MinPasswordLength {
			return nil, apperrors.NewValidationError("password must be at least %d characters", utils.MinPasswordLength)
		}
		if passwordHash, err = utils.HashPassword(d.Password.String); err != nil {
			return nil, apperrors.NewUpstreamError(err)
		}
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.userRepo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		w := entities.UserWrite{
			Email:        current.Email,
			Name:         current.Name,
			Phone:        current.Phone,
			Role:         current.Role,
			Active:       current.Active,
			PasswordHash: passwordHash,
		}
		if d.Email.Valid {
			w.Email = strings.ToLower(strings.TrimSpace(d.Email.String))
		}
		if d.Name.Valid {
			w.Name = strings.TrimSpace(d.Name.String)
		}
		if d.Phone.Valid {
			w.Phone = cleanString(d.Phone)
		}
		if d.Role.Valid {
			w.Role = d.Role.String
		}
		if d.Active.Valid {
			w.Active = d.Active.Bool
		}
		if err := validateUser(w); err != nil {
			return err
		}
		if w.Email != current.Email {
			if err := s.checkEmailFree(ctx, tx, w.Email, id); err != nil {
				return err
			}
		}
		return s.userRepo.Update(ctx, tx, id, w)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, caller.ID, events.ActionUpdate, userAuditEntity, id, map[string]interface{}{
		"email": d.Email, "name": d.Name, "role": d.Role, "active": d.Active, "password_changed": passwordHash != "",
	})
	return s.userRepo.FindByID(ctx, nil, id)
}

// Deactivate disables an account. Admins cannot disable themselves.
func (s *UserService) Deactivate(ctx context.Context, id int64) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	if err := s.authorize(caller, authz.ActionDelete, authz.Resource{Kind: authz.KindUser, ID: id}); err != nil {
		return err
	}
	if err := s.userRepo.SetActive(ctx, nil, id, false); err != nil {
		return err
	}
	s.logger.Info("user deactivated", zap.Int64("target_user_id", id), zap.Int64("user_id", caller.ID))
	s.audit(ctx, caller.ID, events.ActionDeactivate, userAuditEntity, id, nil)
	return nil
}

func (s *UserService) checkEmailFree(ctx context.Context, tx pgx.Tx, email string, excludeID int64) error {
	existing, err := s.userRepo.FindByEmail(ctx, tx, email)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.ErrNotFound {
			return nil
		}
		return err
	}
	if existing.ID != excludeID {
		return apperrors.NewConflictError("a user with this email already exists")
	}
	return nil
}

func validateUser(w entities.UserWrite) error {
	switch {
	case w.Email == "":
		return apperrors.NewValidationError("email is required")
	case w.Name == "":
		return apperrors.NewValidationError("name is required")
	case !authz.Role(w.Role).Valid():
		return apperrors.NewValidationError("unknown role %q", w.Role)
	}
	return nil
}
