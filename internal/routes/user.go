package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sales-crm/internal/controllers"
	"sales-crm/internal/services"
	"sales-crm/pkg/middleware"
)

// GET /users/:id stays open to employees; the service limits them to themselves.
func runUserRouter(secureGroup *echo.Group, userService services.UserServiceInterface, logger *zap.Logger) {
	userCtrl := controllers.NewUserController(userService, logger)

	secureGroup.GET("/users", userCtrl.GetUsers, middleware.AdminOnly)
	secureGroup.GET("/users/:id", userCtrl.FindUser)
	secureGroup.POST("/users", userCtrl.CreateUser, middleware.AdminOnly)
	secureGroup.PUT("/users/:id", userCtrl.UpdateUser, middleware.AdminOnly)
	secureGroup.DELETE("/users/:id", userCtrl.DeactivateUser, middleware.AdminOnly)
}
