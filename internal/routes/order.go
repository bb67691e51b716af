package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sales-crm/internal/controllers"
	"sales-crm/internal/services"
)

func runOrderRouter(secureGroup *echo.Group, orderService services.OrderServiceInterface, logger *zap.Logger) {
	orderCtrl := controllers.NewOrderController(orderService, logger)

	secureGroup.GET("/orders", orderCtrl.GetOrders)
	secureGroup.GET("/orders/:id", orderCtrl.FindOrder)
	secureGroup.POST("/orders", orderCtrl.CreateOrder)
	secureGroup.PUT("/orders/:id", orderCtrl.UpdateOrder)
	secureGroup.DELETE("/orders/:id", orderCtrl.DeleteOrder)
}

func runPaymentRouter(secureGroup *echo.Group, paymentService services.PaymentServiceInterface, logger *zap.Logger) {
	paymentCtrl := controllers.NewPaymentController(paymentService, logger)

	secureGroup.GET("/payments", paymentCtrl.GetPayments)
	secureGroup.GET("/payments/:id", paymentCtrl.FindPayment)
	secureGroup.POST("/payments", paymentCtrl.CreatePayment)
	secureGroup.PUT("/payments/:id", paymentCtrl.UpdatePayment)
	secureGroup.DELETE("/payments/:id", paymentCtrl.DeletePayment)
}
