package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sales-crm/internal/controllers"
	"sales-crm/internal/services"
)

func runContactHistoryRouter(secureGroup *echo.Group, historyService services.ContactHistoryServiceInterface, logger *zap.Logger) {
	historyCtrl := controllers.NewContactHistoryController(historyService, logger)

	secureGroup.GET("/contact-histories", historyCtrl.GetContactHistories)
	secureGroup.GET("/contact-histories/:id", historyCtrl.FindContactHistory)
	secureGroup.POST("/contact-histories", historyCtrl.CreateContactHistory)
}
