package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sales-crm/internal/authz"
	"sales-crm/pkg/api"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/service"
)

// CallerResolver turns a token subject into the current caller. It must fail
// for users that no longer exist or are disabled.
type CallerResolver func(ctx context.Context, userID int64) (authz.Caller, error)

type AuthMiddleware struct {
	jwtService service.JWTService
	resolve    CallerResolver
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, resolve CallerResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		resolve:    resolve,
		logger:     logger,
	}
}

func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return api.ErrorResponse(c, apperrors.ErrEmptyAuthHeader)
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return api.ErrorResponse(c, apperrors.ErrInvalidAuthHeader)
		}

		claims, err := m.jwtService.ValidateAccessToken(parts[1])
		if err != nil {
			m.logger.Debug("access token rejected", zap.Error(err))
			return api.ErrorResponse(c, err)
		}

		ctx := c.Request().Context()
		caller, err := m.resolve(ctx, claims.UserID)
		if err != nil {
			m.logger.Warn("caller resolution failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
			return api.ErrorResponse(c, err)
		}

		c.SetRequest(c.Request().WithContext(authz.WithCaller(ctx, caller)))
		c.Set("logger", loggerFrom(c, m.logger).With(
			zap.Int64("user_id", caller.ID),
			zap.String("role", string(caller.Role)),
		))
		return next(c)
	}
}

// AdminOnly rejects every caller that is not an admin.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller, err := authz.CallerFrom(c.Request().Context())
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		if !caller.IsAdmin() {
			return api.ErrorResponse(c, apperrors.NewForbiddenError(authz.ReasonAdminOnly))
		}
		return next(c)
	}
}
