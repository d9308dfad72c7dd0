// Package httphandler serves the local JSON bridge used by a browser
// signature pad: session, work orders and signature submission.
package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/fieldorders/internal/application"
	"github.com/ericfisherdev/fieldorders/internal/domain/model"
	"github.com/ericfisherdev/fieldorders/internal/domain/port/driven"
)

const (
	msgNoSession      = "No hay sesión activa."
	msgInvalidOrderID = "Identificador de orden no válido."
	msgInvalidBody    = "Cuerpo de la petición no válido."
	msgInternal       = "Error interno."
	msgOrderSigned    = "La orden ya está firmada."

	// maxBodyBytes bounds request bodies; a canvas export is well below it.
	maxBodyBytes = 16 << 20
)

// SurfaceFactory turns a posted signature payload into a capture surface.
type SurfaceFactory func(payload string) driven.CaptureSurface

// Handler is the HTTP driving adapter that serves the bridge API.
type Handler struct {
	sessions *application.SessionService
	holder   *application.SessionHolder
	orders   *application.OrderService
	pipeline *application.SignaturePipeline
	surface  SurfaceFactory
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	sessions *application.SessionService,
	holder *application.SessionHolder,
	orders *application.OrderService,
	pipeline *application.SignaturePipeline,
	surface SurfaceFactory,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		sessions: sessions,
		holder:   holder,
		orders:   orders,
		pipeline: pipeline,
		surface:  surface,
		logger:   logger,
		now:      time.Now,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with request-id, logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("POST /api/v1/session", h.Login)
	mux.HandleFunc("DELETE /api/v1/session", h.Logout)
	mux.HandleFunc("GET /api/v1/orders", h.ListOrders)
	mux.HandleFunc("GET /api/v1/orders/{id}", h.GetOrder)
	mux.HandleFunc("PUT /api/v1/orders/{id}/signature", h.OpenSignature)
	mux.HandleFunc("POST /api/v1/orders/{id}/signature", h.SubmitSignature)
	mux.HandleFunc("GET /api/v1/orders/{id}/signature", h.SignatureState)
	mux.HandleFunc("DELETE /api/v1/orders/{id}/signature", h.CloseSignature)

	// Recovery innermost so panics are caught before logging; the request id
	// outermost so both see it.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   h.now().UTC().Format(time.RFC3339),
	})
}

// Login authenticates against the backend and makes the result the bridge's
// current session. A blank password falls back to the saved one.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, LoginErrorResponse{Error: msgInvalidBody})
		return
	}

	if req.Password == "" {
		if saved, ok := h.sessions.SavedPassword(r.Context(), req.Username); ok {
			req.Password = saved
		}
	}

	form := &model.LoginForm{Username: req.Username, Password: req.Password, Save: req.Save}
	session, err := h.sessions.Login(r.Context(), form)
	if err != nil {
		writeJSON(w, statusFor(err), LoginErrorResponse{
			Error:    model.UserMessage(err, "Error en el inicio de sesión"),
			Username: form.Username,
			Password: form.Password,
		})
		return
	}

	h.holder.Replace(session)
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// Logout drops the current session and the persisted token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.holder.Clear()
	if err := h.sessions.Logout(r.Context()); err != nil {
		h.logger.Warn("failed to delete persisted token", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOrders returns the technician's work orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w)
	if !ok {
		return
	}

	orders, err := h.orders.List(r.Context(), session.Token)
	if err != nil {
		h.writeDomainError(w, err, "Error al obtener las órdenes")
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o, h.orders.CanSign(o)))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetOrder returns one work order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	session, ok := h.requireSession(w)
	if !ok {
		return
	}

	order, err := h.orders.Get(r.Context(), session.Token, id)
	if err != nil {
		h.writeDomainError(w, err, "Error al obtener el detalle de la orden")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, h.orders.CanSign(order)))
}

// OpenSignature marks the capture surface for an order as shown.
func (h *Handler) OpenSignature(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	if _, ok := h.requireSession(w); !ok {
		return
	}

	h.pipeline.Open(id)
	writeJSON(w, http.StatusOK, toSignatureStateResponse(id, h.pipeline.State(id)))
}

// SubmitSignature runs the signature pipeline for the posted canvas export.
// An absent or blank signature is the canvas "empty" event. Orders that
// already carry a signature are refused with 409 before the surface is read.
func (h *Handler) SubmitSignature(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	session, ok := h.requireSession(w)
	if !ok {
		return
	}

	var req SignatureRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	order, err := h.orders.Get(r.Context(), session.Token, id)
	if err != nil {
		h.writeDomainError(w, err, "Error al obtener el detalle de la orden")
		return
	}
	if !h.orders.CanSign(order) {
		writeError(w, http.StatusConflict, msgOrderSigned)
		return
	}

	receipt, err := h.pipeline.Sign(r.Context(), session.Token, id, h.surface(req.Signature))
	if err != nil {
		h.writeDomainError(w, err, "Ha ocurrido un error al procesar la firma.")
		return
	}

	writeJSON(w, http.StatusOK, SignatureResponse{OrderID: receipt.OrderID, Message: receipt.Message})
}

// SignatureState reports where the pipeline is for an order.
func (h *Handler) SignatureState(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSignatureStateResponse(id, h.pipeline.State(id)))
}

// CloseSignature discards capture state for an order.
func (h *Handler) CloseSignature(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	h.pipeline.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireSession(w http.ResponseWriter) (model.Session, bool) {
	session, ok := h.holder.Active(h.now())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgNoSession)
		return model.Session{}, false
	}
	return session, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "status", status, "error", err)
	} else {
		h.logger.Warn("request rejected", "status", status, "error", err)
	}
	writeError(w, status, model.UserMessage(err, fallback))
}

// statusFor maps an error kind to the bridge's HTTP status.
func statusFor(err error) int {
	var classified *model.Error
	switch {
	case errors.Is(err, application.ErrSignatureInFlight):
		return http.StatusConflict
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrProcessing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrServer):
		if errors.As(err, &classified) && classified.Status == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(err, model.ErrConnectivity):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, msgInvalidOrderID)
		return 0, false
	}
	return id, true
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
