package controllers

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sales-crm/internal/services"
	"sales-crm/pkg/api"
	"sales-crm/pkg/utils"
)

type AuditController struct {
	auditService services.AuditServiceInterface
	logger       *zap.Logger
}

func NewAuditController(auditService services.AuditServiceInterface, logger *zap.Logger) *AuditController {
	return &AuditController{auditService: auditService, logger: logger}
}

func (ctrl *AuditController) GetEntries(c echo.Context) error {
	criteria := utils.ParseCriteria(c.QueryParams())
	entries, total, err := ctrl.auditService.List(c.Request().Context(), criteria)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessList(c, "audit log", entries, total, criteria.Page, criteria.Limit)
}
