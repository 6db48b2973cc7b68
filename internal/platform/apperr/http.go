package apperr

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPStatus maps an error kind to the status code the API surface uses.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindCapacity, KindState:
		return http.StatusConflict
	case KindInvariant:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// JSON writes err as a JSON error response. The body always carries the
// taxonomy kind so clients can distinguish "no beds available" from
// "hospital not found" without parsing messages.
func JSON(c echo.Context, err error) error {
	return c.JSON(HTTPStatus(err), errorEnvelope{Error: errorBody{
		Kind:    KindOf(err).String(),
		Message: err.Error(),
	}})
}
