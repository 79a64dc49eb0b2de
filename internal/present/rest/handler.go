package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	gocache "github.com/patrickmn/go-cache"

	"github.com/nesafe/yatri"
	"github.com/nesafe/yatri/internal/config"
	"github.com/nesafe/yatri/internal/domain"
	"github.com/nesafe/yatri/internal/present/rest/middleware"
	"github.com/nesafe/yatri/internal/present/rest/presenter"
	"github.com/nesafe/yatri/internal/service"
	"github.com/nesafe/yatri/internal/usecase"
)

type Handler struct {
	issuer       config.Issuer
	registration *usecase.RegistrationUsecase
	verification *usecase.VerificationUsecase
	signal       *service.SignalService // optional, nil disables /realtime
	idempotency  *gocache.Cache
}

func NewHandler(
	issuer config.Issuer,
	registration *usecase.RegistrationUsecase,
	verification *usecase.VerificationUsecase,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		issuer:       issuer,
		registration: registration,
		verification: verification,
		signal:       signal,
		idempotency:  gocache.New(10*time.Minute, 15*time.Minute),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/.well-known/yatri", h.handleWellKnown)
	e.POST("/api/v1/register", h.handleRegister, middleware.Idempotency(h.idempotency))
	e.GET("/api/v1/verify/:touristId", h.handleVerify)
	e.GET("/api/v1/credential/:touristId", h.handleCredential)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleWellKnown(c echo.Context) error {
	wellknown := yatri.WellKnownYatri{
		Version: "1.0",
		Network: h.issuer.Network,
		Endpoints: map[string]string{
			"in.yatri.register":   "/api/v1/register",
			"in.yatri.verify":     "/api/v1/verify/{touristId}",
			"in.yatri.credential": "/api/v1/credential/{touristId}",
			"in.yatri.realtime":   "/realtime",
		},
	}
	return presenter.OK(c, wellknown)
}

func (h *Handler) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	var input yatri.RegistrationInput
	if err := c.Bind(&input); err != nil {
		return presenter.RegisterFailure(c, http.StatusBadRequest, "malformed request body")
	}

	result, err := h.registration.Register(ctx, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return presenter.RegisterFailure(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrIssuance), errors.Is(err, domain.ErrEncoding):
			return presenter.RegisterFailure(c, http.StatusInternalServerError, err.Error())
		default:
			slog.ErrorContext(ctx, "registration failed",
				slog.String("error", err.Error()),
				slog.String("module", "rest"),
			)
			return presenter.RegisterFailure(c, http.StatusInternalServerError, "registration failed")
		}
	}

	return presenter.OK(c, yatri.RegisterResponse{
		Success:         true,
		TouristID:       result.Receipt.TouristID,
		TransactionHash: result.Receipt.TransactionRef,
		QRCode:          result.Credential.QRCode,
		DigitalID: &yatri.DigitalID{
			ID:        result.Receipt.TouristID,
			Network:   h.issuer.Network,
			Verified:  true,
			CreatedAt: result.Receipt.IssuedAt,
		},
	})
}

func (h *Handler) handleVerify(c echo.Context) error {
	ctx := c.Request().Context()

	touristID := c.Param("touristId")

	result, err := h.verification.Verify(ctx, touristID)
	if err != nil {
		slog.ErrorContext(ctx, "verification failed",
			slog.String("error", err.Error()),
			slog.String("module", "rest"),
		)
		return presenter.VerifyFailure(c, http.StatusInternalServerError, "", "verification failed")
	}

	if !result.Valid {
		return presenter.VerifyFailure(c, http.StatusNotFound, result.Reason, "tourist ID not found or inactive")
	}

	return presenter.OK(c, result)
}

func (h *Handler) handleCredential(c echo.Context) error {
	ctx := c.Request().Context()

	touristID := c.Param("touristId")
	if !yatri.IsTouristID(touristID) {
		return presenter.BadRequest(c, "invalid tourist id")
	}

	credential, err := h.registration.Credential(ctx, touristID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "tourist identity not found")
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{
		"touristId": touristID,
		"qrCode":    credential.QRCode,
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type string `json:"type"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "realtime feed not configured"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	output := make(chan yatri.IssueEvent)
	go h.signal.Realtime(ctx, output)

	quit := make(chan struct{})

	go func() {
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
