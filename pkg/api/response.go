package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "sales-crm/pkg/errors"
)

type Response[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Body    T      `json:"body,omitempty"`
}

type ListBody[T any] struct {
	List       []T             `json:"list"`
	Pagination *PaginationMeta `json:"pagination"`
}

type PaginationMeta struct {
	TotalCount uint64 `json:"total_count"`
	TotalPages int    `json:"total_pages"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}

type ErrorBody struct {
	Fields map[string]string `json:"fields,omitempty"`
	Errors interface{}       `json:"errors,omitempty"`
}

func SuccessOne[T any](c echo.Context, code int, message string, data T) error {
	return c.JSON(code, Response[T]{
		Status:  true,
		Message: message,
		Body:    data,
	})
}

func SuccessList[T any](c echo.Context, message string, list []T, total uint64, page, limit int) error {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + uint64(limit) - 1) / uint64(limit))
	}

	if list == nil {
		list = make([]T, 0)
	}

	return c.JSON(http.StatusOK, Response[ListBody[T]]{
		Status:  true,
		Message: message,
		Body: ListBody[T]{
			List: list,
			Pagination: &PaginationMeta{
				TotalCount: total,
				TotalPages: totalPages,
				Page:       page,
				Limit:      limit,
			},
		},
	})
}

// ErrorResponse renders err as a failed Response. Only the user-facing
// message leaves the process; causes of upstream errors are logged.
func ErrorResponse(c echo.Context, err error) error {
	var (
		code = http.StatusInternalServerError
		msg  = "internal server error"
		body *ErrorBody
	)

	var (
		httpErr *apperrors.HttpError
		valErrs validator.ValidationErrors
		echoErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &valErrs):
		code = http.StatusBadRequest
		msg = "validation failed"
		body = &ErrorBody{Fields: fieldMessages(valErrs)}
	case errors.As(err, &httpErr):
		code = httpErr.Code
		msg = httpErr.Message
		if httpErr.Details != nil {
			body = &ErrorBody{Errors: httpErr.Details}
		}
	case errors.As(err, &echoErr):
		code = echoErr.Code
		msg = fmt.Sprint(echoErr.Message)
	default:
		code = apperrors.StatusCode(err)
		if code != http.StatusInternalServerError {
			msg = err.Error()
		}
	}

	if code >= http.StatusInternalServerError {
		loggerFrom(c).Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
		msg = "internal server error"
	}

	if body != nil {
		return c.JSON(code, Response[*ErrorBody]{Status: false, Message: msg, Body: body})
	}
	return c.JSON(code, Response[any]{Status: false, Message: msg})
}

func fieldMessages(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		name := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			out[name] = "is required"
		case "email":
			out[name] = "must be a valid email"
		case "min", "gte":
			out[name] = "must be at least " + fe.Param()
		case "max", "lte":
			out[name] = "must be at most " + fe.Param()
		case "gt":
			out[name] = "must be greater than " + fe.Param()
		default:
			out[name] = "is invalid (" + fe.Tag() + ")"
		}
	}
	return out
}

func loggerFrom(c echo.Context) *zap.Logger {
	if l, ok := c.Get("logger").(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}
