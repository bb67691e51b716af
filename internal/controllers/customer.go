package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sales-crm/internal/dto"
	"sales-crm/internal/services"
	"sales-crm/pkg/api"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/utils"
	"sales-crm/pkg/validation"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type CustomerController struct {
	customerService services.CustomerServiceInterface
	transferService services.CustomerTransferServiceInterface
	logger          *zap.Logger
}

func NewCustomerController(
	customerService services.CustomerServiceInterface,
	transferService services.CustomerTransferServiceInterface,
	logger *zap.Logger,
) *CustomerController {
	return &CustomerController{customerService: customerService, transferService: transferService, logger: logger}
}

func (ctrl *CustomerController) GetCustomers(c echo.Context) error {
	criteria := utils.ParseCriteria(c.QueryParams())
	customers, total, err := ctrl.customerService.List(c.Request().Context(), criteria)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessList(c, "customers", customers, total, criteria.Page, criteria.Limit)
}

func (ctrl *CustomerController) FindCustomer(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	customer, err := ctrl.customerService.Get(c.Request().Context(), id)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "customer", customer)
}

func (ctrl *CustomerController) CreateCustomer(c echo.Context) error {
	var payload dto.CustomerDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return api.ErrorResponse(c, err)
	}
	customer, err := ctrl.customerService.Create(c.Request().Context(), payload)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusCreated, "customer created", customer)
}

func (ctrl *CustomerController) UpdateCustomer(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	var payload dto.CustomerDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return api.ErrorResponse(c, err)
	}
	customer, err := ctrl.customerService.Update(c.Request().Context(), id, payload)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "customer updated", customer)
}

func (ctrl *CustomerController) DeleteCustomer(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	if err := ctrl.customerService.Delete(c.Request().Context(), id); err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "customer deleted", nil)
}

// ExportCustomers answers with an .xlsx of every customer matching the query
// filters. Paging parameters are ignored.
func (ctrl *CustomerController) ExportCustomers(c echo.Context) error {
	criteria := utils.ParseCriteria(c.QueryParams())

	var buf bytes.Buffer
	if err := ctrl.transferService.Export(c.Request().Context(), criteria, &buf); err != nil {
		return api.ErrorResponse(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", services.ExportFileName(time.Now())))
	return c.Stream(http.StatusOK, xlsxMIME, &buf)
}

func (ctrl *CustomerController) ImportCustomers(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return api.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "field 'file' is required", err, nil))
	}
	file, err := header.Open()
	if err != nil {
		return api.ErrorResponse(c, apperrors.NewUpstreamError(err))
	}
	defer file.Close()

	if err := validation.ValidateSpreadsheet(header, file); err != nil {
		return api.ErrorResponse(c, err)
	}

	result, err := ctrl.transferService.Import(c.Request().Context(), file)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	ctrl.logger.Info("customers imported",
		zap.String("file", header.Filename),
		zap.Int("created", result.Created),
		zap.Int("failed", result.Failed))
	return api.SuccessOne(c, http.StatusOK, "import finished", result)
}
