package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sales-crm/internal/authz"
	"sales-crm/internal/dto"
	"sales-crm/internal/entities"
	"sales-crm/internal/events"
	"sales-crm/internal/repositories"
	"sales-crm/pkg/config"
	"sales-crm/pkg/constants"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/service"
	"sales-crm/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, d dto.LoginDTO) (*dto.TokenPairDTO, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPairDTO, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (*entities.User, error)
	ResolveCaller(ctx context.Context, userID int64) (authz.Caller, error)
}

type AuthService struct {
	*BaseService
	userRepo   repositories.UserRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	jwtService service.JWTService
	cfg        config.AuthConfig
}

func NewAuthService(
	base *BaseService,
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	cfg config.AuthConfig,
) *AuthService {
	return &AuthService{
		BaseService: base,
		userRepo:    userRepo,
		cacheRepo:   cacheRepo,
		jwtService:  jwtService,
		cfg:         cfg,
	}
}

func (s *AuthService) Login(ctx context.Context, d dto.LoginDTO) (*dto.TokenPairDTO, error) {
	email := strings.ToLower(strings.TrimSpace(d.Email))
	logger := s.logger.With(zap.String("email", email))

	if err := s.checkLockout(ctx, email); err != nil {
		logger.Warn("login rejected: account locked")
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, nil, email)
	if err != nil {
		if apperrors.KindOf(err) != apperrors.ErrNotFound {
			return nil, err
		}
		// unknown emails still count so probing gets locked out too
		s.registerFailure(ctx, email)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !utils.CheckPassword(user.PasswordHash, d.Password) {
		s.registerFailure(ctx, email)
		logger.Warn("login rejected: wrong password", zap.Int64("user_id", user.ID))
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, apperrors.ErrUserInactive
	}

	s.resetFailures(ctx, email)
	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	logger.Info("user logged in", zap.Int64("user_id", user.ID))
	s.audit(ctx, user.ID, events.ActionLogin, "user", user.ID, nil)
	return pair, nil
}

// Refresh rotates the session: the presented refresh token stops working and
// a new pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	// the session is consumed before any other check: a refresh token works once
	stored, err := s.cacheRepo.Take(ctx, fmt.Sprintf(constants.CacheKeyRefreshSession, claims.SessionID))
	if err != nil {
		if errors.Is(err, repositories.ErrCacheMiss) {
			return nil, apperrors.ErrSessionRevoked
		}
		return nil, apperrors.NewUpstreamError(err)
	}
	if stored != strconv.FormatInt(claims.UserID, 10) {
		return nil, apperrors.ErrSessionRevoked
	}

	user, err := s.userRepo.FindByID(ctx, nil, claims.UserID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.ErrNotFound {
			return nil, apperrors.ErrSessionRevoked
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.ErrUserInactive
	}
	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	if err := s.cacheRepo.Del(ctx, fmt.Sprintf(constants.CacheKeyRefreshSession, claims.SessionID)); err != nil {
		return apperrors.NewUpstreamError(err)
	}
	s.audit(ctx, claims.UserID, events.ActionLogout, "user", claims.UserID, nil)
	return nil
}

func (s *AuthService) Me(ctx context.Context) (*entities.User, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, nil, caller.ID)
}

// ResolveCaller reloads the user behind a token so that disabling an account
// or changing its role takes effect immediately.
func (s *AuthService) ResolveCaller(ctx context.Context, userID int64) (authz.Caller, error) {
	user, err := s.userRepo.FindByID(ctx, nil, userID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.ErrNotFound {
			return authz.Caller{}, apperrors.ErrInvalidToken
		}
		return authz.Caller{}, err
	}
	if !user.Active {
		return authz.Caller{}, apperrors.ErrUserInactive
	}
	role := authz.Role(user.Role)
	if !role.Valid() {
		return authz.Caller{}, apperrors.NewForbiddenError(authz.ReasonUnknownCaller)
	}
	return authz.Caller{ID: user.ID, Role: role}, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *entities.User) (*dto.TokenPairDTO, error) {
	sessionID := uuid.NewString()
	access, refresh, err := s.jwtService.GenerateTokens(user.ID, user.Role, sessionID)
	if err != nil {
		return nil, apperrors.NewUpstreamError(fmt.Errorf("sign tokens: %w", err))
	}
	key := fmt.Sprintf(constants.CacheKeyRefreshSession, sessionID)
	if err := s.cacheRepo.Set(ctx, key, strconv.FormatInt(user.ID, 10), s.jwtService.GetRefreshTokenTTL()); err != nil {
		return nil, apperrors.NewUpstreamError(fmt.Errorf("store session: %w", err))
	}
	return &dto.TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtService.GetAccessTokenTTL().Seconds()),
		User:         user,
	}, nil
}

func (s *AuthService) checkLockout(ctx context.Context, email string) error {
	if s.cfg.MaxLoginAttempts <= 0 {
		return nil
	}
	v, err := s.cacheRepo.Get(ctx, fmt.Sprintf(constants.CacheKeyLoginAttempts, email))
	if err != nil {
		if !errors.Is(err, repositories.ErrCacheMiss) {
			s.logger.Warn("lockout check failed", zap.Error(err))
		}
		return nil
	}
	if n, _ := strconv.Atoi(v); n >= s.cfg.MaxLoginAttempts {
		return apperrors.ErrAccountLocked
	}
	return nil
}

// registerFailure bumps the counter. The window starts at the first failure
// and lasts LockoutDuration.
func (s *AuthService) registerFailure(ctx context.Context, email string) {
	n, err := s.cacheRepo.IncrWindow(ctx, fmt.Sprintf(constants.CacheKeyLoginAttempts, email), s.cfg.LockoutDuration)
	if err != nil {
		s.logger.Warn("failed to count login attempt", zap.Error(err))
		return
	}
	if n == int64(s.cfg.MaxLoginAttempts) {
		s.logger.Warn("account locked", zap.String("email", email), zap.Duration("for", s.cfg.LockoutDuration))
	}
}

func (s *AuthService) resetFailures(ctx context.Context, email string) {
	if err := s.cacheRepo.Del(ctx, fmt.Sprintf(constants.CacheKeyLoginAttempts, email)); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}
}
