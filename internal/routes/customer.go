package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sales-crm/internal/controllers"
)

func runCustomerRouter(secureGroup *echo.Group, svc *Services, logger *zap.Logger) {
	customerCtrl := controllers.NewCustomerController(svc.Customer, svc.CustomerTransfer, logger)
	appointmentCtrl := controllers.NewAppointmentController(svc.Appointment, logger)
	historyCtrl := controllers.NewContactHistoryController(svc.ContactHistory, logger)

	secureGroup.GET("/customers", customerCtrl.GetCustomers)
	secureGroup.GET("/customers/export", customerCtrl.ExportCustomers)
	secureGroup.POST("/customers/import", customerCtrl.ImportCustomers)
	secureGroup.GET("/customers/:id", customerCtrl.FindCustomer)
	secureGroup.POST("/customers", customerCtrl.CreateCustomer)
	secureGroup.PUT("/customers/:id", customerCtrl.UpdateCustomer)
	secureGroup.DELETE("/customers/:id", customerCtrl.DeleteCustomer)

	secureGroup.GET("/customers/:id/appointments", appointmentCtrl.GetCustomerAppointments)
	secureGroup.GET("/customers/:id/contact-histories", historyCtrl.GetCustomerContactHistories)
}
