package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sales-crm/internal/authz"
	"sales-crm/internal/dto"
	"sales-crm/internal/entities"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/types"
	"sales-crm/pkg/validation"
)

type stubCustomerService struct {
	list     func(criteria types.Criteria) ([]entities.Customer, uint64, error)
	get      func(id int64) (*entities.Customer, error)
	create   func(d dto.CustomerDTO) (*entities.Customer, error)
	lastList types.Criteria
}

func (s *stubCustomerService) List(_ context.Context, criteria types.Criteria) ([]entities.Customer, uint64, error) {
	s.lastList = criteria
	return s.list(criteria)
}

func (s *stubCustomerService) Get(_ context.Context, id int64) (*entities.Customer, error) {
	return s.get(id)
}

func (s *stubCustomerService) Create(_ context.Context, d dto.CustomerDTO) (*entities.Customer, error) {
	return s.create(d)
}

func (s *stubCustomerService) Update(_ context.Context, id int64, d dto.CustomerDTO) (*entities.Customer, error) {
	return &entities.Customer{ID: id, Name: d.Name}, nil
}

func (s *stubCustomerService) Delete(context.Context, int64) error { return nil }

type stubTransferService struct {
	exported types.Criteria
	imported []byte
}

func (s *stubTransferService) Export(_ context.Context, criteria types.Criteria, w io.Writer) error {
	s.exported = criteria
	_, err := w.Write([]byte("PK\x03\x04workbook"))
	return err
}

func (s *stubTransferService) Import(_ context.Context, r io.Reader) (*dto.ImportResultDTO, error) {
	var err error
	s.imported, err = io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &dto.ImportResultDTO{Created: 2, Failed: 1, Errors: []dto.ImportRowError{{Row: 4, Message: "name is required"}}}, nil
}

type stubLookupService struct {
	deleteErr error
}

func (s *stubLookupService) List(_ context.Context, table string, _ types.Criteria) ([]entities.LookupItem, uint64, error) {
	if table != "stages" {
		return nil, 0, apperrors.NewValidationError("unknown lookup table %q", table)
	}
	return []entities.LookupItem{{ID: 1, Name: "Qualified", Active: true}}, 1, nil
}

func (s *stubLookupService) Get(context.Context, string, int64) (*entities.LookupItem, error) {
	return nil, apperrors.NewNotFoundError("lookup item")
}

func (s *stubLookupService) Create(_ context.Context, _ string, d dto.CreateLookupDTO) (*entities.LookupItem, error) {
	return &entities.LookupItem{ID: 9, Name: d.Name, Active: true}, nil
}

func (s *stubLookupService) Update(context.Context, string, int64, dto.UpdateLookupDTO) (*entities.LookupItem, error) {
	return nil, apperrors.NewForbiddenError("admin only")
}

func (s *stubLookupService) Delete(context.Context, string, int64) error { return s.deleteErr }

type stubAuthService struct {
	tokens *dto.TokenPairDTO
	err    error
}

func (s *stubAuthService) Login(context.Context, dto.LoginDTO) (*dto.TokenPairDTO, error) {
	return s.tokens, s.err
}

func (s *stubAuthService) Refresh(context.Context, string) (*dto.TokenPairDTO, error) {
	return s.tokens, s.err
}

func (s *stubAuthService) Logout(context.Context, string) error { return s.err }

func (s *stubAuthService) Me(context.Context) (*entities.User, error) {
	return &entities.User{ID: 1, Email: "admin@example.com"}, nil
}

func (s *stubAuthService) ResolveCaller(context.Context, int64) (authz.Caller, error) {
	return authz.Caller{}, nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	return e
}

func do(e *echo.Echo, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func customerCtrl() (*CustomerController, *stubCustomerService, *stubTransferService) {
	customers := &stubCustomerService{
		list: func(types.Criteria) ([]entities.Customer, uint64, error) {
			return []entities.Customer{{ID: 1, Name: "Acme"}, {ID: 2, Name: "Globex"}}, 45, nil
		},
		get: func(id int64) (*entities.Customer, error) {
			switch id {
			case 1:
				return &entities.Customer{ID: 1, Name: "Acme"}, nil
			case 2:
				return nil, apperrors.NewForbiddenError("not assigned to you")
			}
			return nil, apperrors.NewNotFoundError("customer")
		},
		create: func(d dto.CustomerDTO) (*entities.Customer, error) {
			return &entities.Customer{ID: 7, Name: d.Name}, nil
		},
	}
	transfer := &stubTransferService{}
	return NewCustomerController(customers, transfer, zap.NewNop()), customers, transfer
}

func TestCustomerController_ListEnvelope(t *testing.T) {
	e := newEcho()
	ctrl, customers, _ := customerCtrl()
	e.GET("/customers", ctrl.GetCustomers)

	rec := do(e, http.MethodGet, "/customers?search=acme&stage_id=3&page=2&limit=20&sort=-name", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "acme", customers.lastList.Search)
	assert.Equal(t, "3", customers.lastList.Filters["stage_id"])
	assert.Equal(t, "name", customers.lastList.SortBy)

	body := decode(t, rec)
	assert.Equal(t, true, body["status"])
	payload := body["body"].(map[string]interface{})
	assert.Len(t, payload["list"], 2)
	pagination := payload["pagination"].(map[string]interface{})
	assert.EqualValues(t, 45, pagination["total_count"])
	assert.EqualValues(t, 3, pagination["total_pages"])
	assert.EqualValues(t, 2, pagination["page"])
}

func TestCustomerController_FindErrors(t *testing.T) {
	e := newEcho()
	ctrl, _, _ := customerCtrl()
	e.GET("/customers/:id", ctrl.FindCustomer)

	cases := map[string]int{
		"/customers/1":   http.StatusOK,
		"/customers/2":   http.StatusForbidden,
		"/customers/3":   http.StatusNotFound,
		"/customers/abc": http.StatusBadRequest,
		"/customers/0":   http.StatusBadRequest,
	}
	for path, code := range cases {
		rec := do(e, http.MethodGet, path, nil, "")
		assert.Equal(t, code, rec.Code, path)
	}
}

func TestCustomerController_CreateValidates(t *testing.T) {
	e := newEcho()
	ctrl, _, _ := customerCtrl()
	e.POST("/customers", ctrl.CreateCustomer)

	rec := do(e, http.MethodPost, "/customers", strings.NewReader(`{"phone":"12"}`), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["body"].(map[string]interface{})["fields"].(map[string]interface{})
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "phone")

	rec = do(e, http.MethodPost, "/customers", strings.NewReader(`{not json`), echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/customers", strings.NewReader(`{"name":"Acme","email":"sales@acme.test"}`), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Acme", decode(t, rec)["body"].(map[string]interface{})["name"])
}

func TestCustomerController_Export(t *testing.T) {
	e := newEcho()
	ctrl, _, transfer := customerCtrl()
	e.GET("/customers/export", ctrl.ExportCustomers)

	rec := do(e, http.MethodGet, "/customers/export?stage_id=4", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxMIME, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment; filename=\"customers_")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK\x03\x04")))
	assert.Equal(t, "4", transfer.exported.Filters["stage_id"])
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCustomerController_Import(t *testing.T) {
	e := newEcho()
	ctrl, _, transfer := customerCtrl()
	e.POST("/customers/import", ctrl.ImportCustomers)

	body, ct := multipartBody(t, "file", "customers.csv", []byte("name,phone\n"))
	rec := do(e, http.MethodPost, "/customers/import", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, transfer.imported)

	body, ct = multipartBody(t, "file", "customers.xlsx", []byte("not a zip"))
	rec = do(e, http.MethodPost, "/customers/import", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartBody(t, "upload", "customers.xlsx", []byte("PK\x03\x04"))
	rec = do(e, http.MethodPost, "/customers/import", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	content := []byte("PK\x03\x04rest-of-workbook")
	body, ct = multipartBody(t, "file", "customers.xlsx", content)
	rec = do(e, http.MethodPost, "/customers/import", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, transfer.imported, "the file is rewound before import")

	result := decode(t, rec)["body"].(map[string]interface{})
	assert.EqualValues(t, 2, result["created"])
	assert.EqualValues(t, 1, result["failed"])
}

func TestLookupController(t *testing.T) {
	e := newEcho()
	svc := &stubLookupService{}
	ctrl := NewLookupController(svc, zap.NewNop())
	e.GET("/lookups/:table", ctrl.GetItems)
	e.GET("/lookups/:table/:id", ctrl.FindItem)
	e.POST("/lookups/:table", ctrl.CreateItem)
	e.PUT("/lookups/:table/:id", ctrl.UpdateItem)
	e.DELETE("/lookups/:table/:id", ctrl.DeleteItem)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/lookups/stages", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/lookups/users", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/lookups/stages/5", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest,
		do(e, http.MethodPost, "/lookups/stages", strings.NewReader(`{}`), echo.MIMEApplicationJSON).Code)
	assert.Equal(t, http.StatusCreated,
		do(e, http.MethodPost, "/lookups/stages", strings.NewReader(`{"name":"Won"}`), echo.MIMEApplicationJSON).Code)
	assert.Equal(t, http.StatusForbidden,
		do(e, http.MethodPut, "/lookups/stages/1", strings.NewReader(`{"active":false}`), echo.MIMEApplicationJSON).Code)

	svc.deleteErr = apperrors.NewConflictError("stage is used by 3 record(s)")
	rec := do(e, http.MethodDelete, "/lookups/stages/1", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "stage is used by 3 record(s)", decode(t, rec)["message"])

	svc.deleteErr = nil
	assert.Equal(t, http.StatusOK, do(e, http.MethodDelete, "/lookups/stages/1", nil, "").Code)
}

func TestAuthController(t *testing.T) {
	e := newEcho()
	svc := &stubAuthService{tokens: &dto.TokenPairDTO{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}}
	ctrl := NewAuthController(svc, zap.NewNop())
	e.POST("/auth/login", ctrl.Login)
	e.POST("/auth/logout", ctrl.Logout)

	rec := do(e, http.MethodPost, "/auth/login", strings.NewReader(`{"email":"nope"}`), echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"admin@example.com","password":"secret123"}`), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a", decode(t, rec)["body"].(map[string]interface{})["access_token"])

	svc.err = apperrors.ErrAccountLocked
	rec = do(e, http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"admin@example.com","password":"secret123"}`), echo.MIMEApplicationJSON)
	assert.Equal(t, apperrors.StatusCode(apperrors.ErrAccountLocked), rec.Code)

	svc.err = apperrors.ErrSessionRevoked
	rec = do(e, http.MethodPost, "/auth/logout", strings.NewReader(`{"refresh_token":"r"}`), echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
