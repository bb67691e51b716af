package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sales-crm/internal/dto"
	"sales-crm/internal/services"
	"sales-crm/pkg/api"
	"sales-crm/pkg/utils"
)

// ContactHistoryController has no update or delete: entries are immutable.
type ContactHistoryController struct {
	historyService services.ContactHistoryServiceInterface
	logger         *zap.Logger
}

func NewContactHistoryController(historyService services.ContactHistoryServiceInterface, logger *zap.Logger) *ContactHistoryController {
	return &ContactHistoryController{historyService: historyService, logger: logger}
}

func (ctrl *ContactHistoryController) GetContactHistories(c echo.Context) error {
	criteria := utils.ParseCriteria(c.QueryParams())
	items, total, err := ctrl.historyService.List(c.Request().Context(), criteria)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessList(c, "contact histories", items, total, criteria.Page, criteria.Limit)
}

func (ctrl *ContactHistoryController) GetCustomerContactHistories(c echo.Context) error {
	customerID, err := parseID(c, "id")
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	criteria := utils.ParseCriteria(c.QueryParams())
	items, total, err := ctrl.historyService.ListByCustomer(c.Request().Context(), customerID, criteria)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessList(c, "contact histories", items, total, criteria.Page, criteria.Limit)
}

func (ctrl *ContactHistoryController) FindContactHistory(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	item, err := ctrl.historyService.Get(c.Request().Context(), id)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "contact history", item)
}

func (ctrl *ContactHistoryController) CreateContactHistory(c echo.Context) error {
	var payload dto.CreateContactHistoryDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return api.ErrorResponse(c, err)
	}
	item, err := ctrl.historyService.Create(c.Request().Context(), payload)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusCreated, "contact history created", item)
}
