package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sales-crm/internal/controllers"
	"sales-crm/internal/services"
	"sales-crm/pkg/middleware"
)

func runDashboardRouter(secureGroup *echo.Group, dashboardService services.DashboardServiceInterface, logger *zap.Logger) {
	dashboardCtrl := controllers.NewDashboardController(dashboardService, logger)
	secureGroup.GET("/dashboard", dashboardCtrl.GetDashboard)
}

func runAuditRouter(secureGroup *echo.Group, auditService services.AuditServiceInterface, logger *zap.Logger) {
	auditCtrl := controllers.NewAuditController(auditService, logger)
	secureGroup.GET("/audit-log", auditCtrl.GetEntries, middleware.AdminOnly)
}
