package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

// jsendResponse is the /api/v1 envelope.
type jsendResponse struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// legacyError is the /api/translate error body.
type legacyError struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, jsendResponse{Status: statusSuccess, Data: data})
}

func created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, jsendResponse{Status: statusSuccess, Data: data})
}

func fail(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, jsendResponse{Status: statusFail, Message: message, Data: data})
}

func failValidation(c echo.Context, fieldErrors map[string]string) error {
	return fail(c, http.StatusBadRequest, "Validation failed", map[string]any{
		"validation_errors": fieldErrors,
	})
}

func failNotFound(c echo.Context, message string) error {
	return fail(c, http.StatusNotFound, message, nil)
}

func internalError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, jsendResponse{
		Status:  statusError,
		Message: message,
		Code:    http.StatusInternalServerError,
	})
}

func legacyFail(c echo.Context, code int, message string, details any) error {
	return c.JSON(code, legacyError{Error: message, Details: details})
}
