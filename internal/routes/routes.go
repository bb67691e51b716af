package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sales-crm/internal/services"
	"sales-crm/pkg/middleware"
)

// Services is everything the HTTP layer talks to.
type Services struct {
	Auth             services.AuthServiceInterface
	User             services.UserServiceInterface
	Lookup           services.LookupServiceInterface
	Customer         services.CustomerServiceInterface
	CustomerTransfer services.CustomerTransferServiceInterface
	Appointment      services.AppointmentServiceInterface
	ContactHistory   services.ContactHistoryServiceInterface
	Order            services.OrderServiceInterface
	Payment          services.PaymentServiceInterface
	Dashboard        services.DashboardServiceInterface
	Audit            services.AuditServiceInterface
}

func InitRouter(e *echo.Echo, svc *Services, authMW *middleware.AuthMiddleware, logger *zap.Logger) {
	logger.Info("registering routes")

	api := e.Group("/api")
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, secureGroup, svc.Auth, logger)
	runUserRouter(secureGroup, svc.User, logger)
	runLookupRouter(secureGroup, svc.Lookup, logger)
	runCustomerRouter(secureGroup, svc, logger)
	runAppointmentRouter(secureGroup, svc.Appointment, logger)
	runContactHistoryRouter(secureGroup, svc.ContactHistory, logger)
	runOrderRouter(secureGroup, svc.Order, logger)
	runPaymentRouter(secureGroup, svc.Payment, logger)
	runDashboardRouter(secureGroup, svc.Dashboard, logger)
	runAuditRouter(secureGroup, svc.Audit, logger)

	logger.Info("routes registered", zap.Int("count", len(e.Routes())))
}
