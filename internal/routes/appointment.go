package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sales-crm/internal/controllers"
	"sales-crm/internal/services"
)

func runAppointmentRouter(secureGroup *echo.Group, appointmentService services.AppointmentServiceInterface, logger *zap.Logger) {
	appointmentCtrl := controllers.NewAppointmentController(appointmentService, logger)

	secureGroup.GET("/appointments", appointmentCtrl.GetAppointments)
	secureGroup.GET("/appointments/:id", appointmentCtrl.FindAppointment)
	secureGroup.POST("/appointments", appointmentCtrl.CreateAppointment)
	secureGroup.PUT("/appointments/:id", appointmentCtrl.UpdateAppointment)
	secureGroup.DELETE("/appointments/:id", appointmentCtrl.DeleteAppointment)
}
