package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"sales-crm/internal/authz"
	"sales-crm/internal/dto"
	"sales-crm/internal/entities"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/middleware"
	"sales-crm/pkg/service"
	"sales-crm/pkg/types"
	"sales-crm/pkg/validation"
)

type stubAudit struct{ calls int }

func (s *stubAudit) List(context.Context, types.Criteria) ([]entities.AuditEntry, uint64, error) {
	s.calls++
	return []entities.AuditEntry{{ID: 1, Action: "create", Entity: "customer", EntityID: 3}}, 1, nil
}

type stubCustomers struct{}

func (stubCustomers) List(ctx context.Context, _ types.Criteria) ([]entities.Customer, uint64, error) {
	if _, err := authz.CallerFrom(ctx); err != nil {
		return nil, 0, err
	}
	return nil, 0, nil
}

func (stubCustomers) Get(context.Context, int64) (*entities.Customer, error) {
	return nil, apperrors.NewNotFoundError("customer")
}

func (stubCustomers) Create(context.Context, dto.CustomerDTO) (*entities.Customer, error) {
	return nil, nil
}

func (stubCustomers) Update(context.Context, int64, dto.CustomerDTO) (*entities.Customer, error) {
	return nil, nil
}

func (stubCustomers) Delete(context.Context, int64) error { return nil }

type RouterTestSuite struct {
	suite.Suite
	Echo          *echo.Echo
	Audit         *stubAudit
	AdminToken    string
	EmployeeToken string
}

func (s *RouterTestSuite) SetupSuite() {
	jwtSvc := service.NewJWTService("router-test-secret", time.Minute, time.Hour)
	users := map[int64]authz.Role{1: authz.RoleAdmin, 10: authz.RoleEmployee}
	resolve := func(_ context.Context, id int64) (authz.Caller, error) {
		role, ok := users[id]
		if !ok {
			return authz.Caller{}, apperrors.ErrInvalidToken
		}
		return authz.Caller{ID: id, Role: role}, nil
	}

	e := echo.New()
	e.Validator = validation.New()
	s.Audit = &stubAudit{}
	svc := &Services{Customer: stubCustomers{}, Audit: s.Audit}
	InitRouter(e, svc, middleware.NewAuthMiddleware(jwtSvc, resolve, zap.NewNop()), zap.NewNop())
	s.Echo = e

	var err error
	s.AdminToken, _, err = jwtSvc.GenerateTokens(1, string(authz.RoleAdmin), "admin-session")
	s.Require().NoError(err)
	s.EmployeeToken, _, err = jwtSvc.GenerateTokens(10, string(authz.RoleEmployee), "employee-session")
	s.Require().NoError(err)
}

func (s *RouterTestSuite) request(method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func (s *RouterTestSuite) TestRoutesRegistered() {
	registered := map[string]bool{}
	for _, r := range s.Echo.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/login",
		"POST /api/auth/refresh",
		"POST /api/auth/logout",
		"GET /api/auth/me",
		"GET /api/users",
		"DELETE /api/users/:id",
		"GET /api/lookups/:table",
		"DELETE /api/lookups/:table/:id",
		"GET /api/customers",
		"GET /api/customers/export",
		"POST /api/customers/import",
		"GET /api/customers/:id/appointments",
		"GET /api/customers/:id/contact-histories",
		"PUT /api/appointments/:id",
		"POST /api/contact-histories",
		"POST /api/orders",
		"DELETE /api/payments/:id",
		"GET /api/dashboard",
		"GET /api/audit-log",
	} {
		s.True(registered[want], want)
	}
	s.False(registered["PUT /api/contact-histories/:id"], "contact histories are immutable")
}

func (s *RouterTestSuite) TestSecureGroupRequiresToken() {
	s.Equal(http.StatusUnauthorized, s.request(http.MethodGet, "/api/customers", "", "").Code)
	s.Equal(http.StatusUnauthorized, s.request(http.MethodGet, "/api/customers", "garbage", "").Code)
	s.Equal(http.StatusOK, s.request(http.MethodGet, "/api/customers", s.EmployeeToken, "").Code)
}

func (s *RouterTestSuite) TestLoginIsPublic() {
	rec := s.request(http.MethodPost, "/api/auth/login", "", `{"email":"not-an-email"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterTestSuite) TestMissingCustomer() {
	rec := s.request(http.MethodGet, "/api/customers/42", s.AdminToken, "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RouterTestSuite) TestAdminOnlyRoutes() {
	before := s.Audit.calls
	s.Equal(http.StatusForbidden, s.request(http.MethodGet, "/api/audit-log", s.EmployeeToken, "").Code)
	s.Equal(http.StatusForbidden, s.request(http.MethodGet, "/api/users", s.EmployeeToken, "").Code)
	s.Equal(http.StatusForbidden, s.request(http.MethodPost, "/api/users", s.EmployeeToken, `{}`).Code)
	s.Equal(before, s.Audit.calls)

	s.Equal(http.StatusOK, s.request(http.MethodGet, "/api/audit-log?entity=customer", s.AdminToken, "").Code)
	s.Equal(before+1, s.Audit.calls)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
