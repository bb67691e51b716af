package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sales-crm/internal/controllers"
	"sales-crm/internal/services"
)

func runLookupRouter(secureGroup *echo.Group, lookupService services.LookupServiceInterface, logger *zap.Logger) {
	lookupCtrl := controllers.NewLookupController(lookupService, logger)

	lookups := secureGroup.Group("/lookups/:table")
	{
		lookups.GET("", lookupCtrl.GetItems)
		lookups.GET("/:id", lookupCtrl.FindItem)
		lookups.POST("", lookupCtrl.CreateItem)
		lookups.PUT("/:id", lookupCtrl.UpdateItem)
		lookups.DELETE("/:id", lookupCtrl.DeleteItem)
	}
}
