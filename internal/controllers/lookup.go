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

// LookupController serves every named lookup table under /lookups/:table.
// The table name is validated by the service.
type LookupController struct {
	lookupService services.LookupServiceInterface
	logger        *zap.Logger
}

func NewLookupController(lookupService services.LookupServiceInterface, logger *zap.Logger) *LookupController {
	return &LookupController{lookupService: lookupService, logger: logger}
}

func (ctrl *LookupController) GetItems(c echo.Context) error {
	criteria := utils.ParseCriteria(c.QueryParams())
	items, total, err := ctrl.lookupService.List(c.Request().Context(), c.Param("table"), criteria)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessList(c, "lookup items", items, total, criteria.Page, criteria.Limit)
}

func (ctrl *LookupController) FindItem(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	item, err := ctrl.lookupService.Get(c.Request().Context(), c.Param("table"), id)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "lookup item", item)
}

func (ctrl *LookupController) CreateItem(c echo.Context) error {
	var payload dto.CreateLookupDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return api.ErrorResponse(c, err)
	}
	item, err := ctrl.lookupService.Create(c.Request().Context(), c.Param("table"), payload)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusCreated, "lookup item created", item)
}

func (ctrl *LookupController) UpdateItem(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	var payload dto.UpdateLookupDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return api.ErrorResponse(c, err)
	}
	item, err := ctrl.lookupService.Update(c.Request().Context(), c.Param("table"), id, payload)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "lookup item updated", item)
}

func (ctrl *LookupController) DeleteItem(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	if err := ctrl.lookupService.Delete(c.Request().Context(), c.Param("table"), id); err != nil {
		ctrl.logger.Info("lookup delete refused", zap.String("table", c.Param("table")), zap.Int64("id", id), zap.Error(err))
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "lookup item deleted", nil)
}
