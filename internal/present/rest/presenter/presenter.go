package presenter

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nesafe/yatri"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func BadRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

// RegisterFailure keeps the {success:false, error} shape the registration
// clients expect. msg must already be safe for end users.
func RegisterFailure(c echo.Context, status int, msg string) error {
	return c.JSON(status, yatri.RegisterResponse{Success: false, Error: msg})
}

// VerifyFailure is the negative verification shape.
func VerifyFailure(c echo.Context, status int, reason, msg string) error {
	return c.JSON(status, yatri.VerificationResult{Valid: false, Reason: reason, Error: msg})
}

// InternalError logs the cause and returns a generic message so internals
// never leak to clients.
func InternalError(c echo.Context, err error) error {
	slog.Error("internal error",
		slog.String("error", err.Error()),
		slog.String("module", "rest"),
	)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
