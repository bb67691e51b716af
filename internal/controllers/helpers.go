package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "sales-crm/pkg/errors"
)

func parseID(c echo.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewHttpError(http.StatusBadRequest, "invalid "+name, err, map[string]interface{}{"param": raw})
	}
	return id, nil
}

// bindAndValidate decodes the request body into payload and runs the
// registered validator on it.
func bindAndValidate(c echo.Context, payload interface{}) error {
	if err := c.Bind(payload); err != nil {
		return apperrors.NewHttpError(http.StatusBadRequest, "malformed request body", err, nil)
	}
	return c.Validate(payload)
}
