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

type AppointmentController struct {
	appointmentService services.AppointmentServiceInterface
	logger             *zap.Logger
}

func NewAppointmentController(appointmentService services.AppointmentServiceInterface, logger *zap.Logger) *AppointmentController {
	return &AppointmentController{appointmentService: appointmentService, logger: logger}
}

func (ctrl *AppointmentController) GetAppointments(c echo.Context) error {
	criteria := utils.ParseCriteria(c.QueryParams())
	items, total, err := ctrl.appointmentService.List(c.Request().Context(), criteria)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessList(c, "appointments", items, total, criteria.Page, criteria.Limit)
}

func (ctrl *AppointmentController) GetCustomerAppointments(c echo.Context) error {
	customerID, err := parseID(c, "id")
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	criteria := utils.ParseCriteria(c.QueryParams())
	items, total, err := ctrl.appointmentService.ListByCustomer(c.Request().Context(), customerID, criteria)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessList(c, "appointments", items, total, criteria.Page, criteria.Limit)
}

func (ctrl *AppointmentController) FindAppointment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	item, err := ctrl.appointmentService.Get(c.Request().Context(), id)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "appointment", item)
}

func (ctrl *AppointmentController) CreateAppointment(c echo.Context) error {
	var payload dto.CreateAppointmentDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return api.ErrorResponse(c, err)
	}
	item, err := ctrl.appointmentService.Create(c.Request().Context(), payload)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusCreated, "appointment created", item)
}

func (ctrl *AppointmentController) UpdateAppointment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	var payload dto.UpdateAppointmentDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return api.ErrorResponse(c, err)
	}
	item, err := ctrl.appointmentService.Update(c.Request().Context(), id, payload)
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "appointment updated", item)
}

func (ctrl *AppointmentController) DeleteAppointment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return api.ErrorResponse(c, err)
	}
	if err := ctrl.appointmentService.Delete(c.Request().Context(), id); err != nil {
		return api.ErrorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "appointment deleted", nil)
}
