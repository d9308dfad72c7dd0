package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"` + msgInternal + `"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// LoginRequest is the JSON body for the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Save     bool   `json:"save"`
}

// LoginErrorResponse is returned by a failed login. The form fields echo the
// cleared form so the client resets its inputs.
type LoginErrorResponse struct {
	Error    string `json:"error"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is the JSON representation of a successful login.
type SessionResponse struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// OrderResponse is the JSON representation of a work order.
type OrderResponse struct {
	ID                  int64   `json:"id"`
	Numero              string  `json:"numero"`
	Cliente             string  `json:"cliente"`
	FechaOrden          string  `json:"fecha_orden"`
	FechaOrdenDisplay   string  `json:"fecha_orden_display"`
	FechaMontaje        string  `json:"fecha_montaje"`
	FechaMontajeDisplay string  `json:"fecha_montaje_display"`
	SituacionTrabajo    string  `json:"situacion_trabajo"`
	InstalarEn          string  `json:"instalar_en"`
	Descripcion         *string `json:"descripcion"`
	TieneFirma          bool    `json:"tiene_firma"`
	CanSign             bool    `json:"can_sign"`
}

// SignatureRequest is the JSON body for a signature submission.
type SignatureRequest struct {
	Signature string `json:"signature"`
}

// SignatureResponse is returned after a successful upload.
type SignatureResponse struct {
	OrderID int64  `json:"order_id"`
	Message string `json:"message"`
}

// SignatureStateResponse reports the pipeline state of one order.
type SignatureStateResponse struct {
	OrderID int64  `json:"order_id"`
	State   string `json:"state"`
	Busy    bool   `json:"busy"`
}

// toSessionResponse converts a domain Session to its JSON representation.
// The token never leaves the bridge.
func toSessionResponse(s model.Session) SessionResponse {
	resp := SessionResponse{Username: s.IssuedFor, Message: s.Message}
	if !s.ExpiresAt.IsZero() {
		resp.ExpiresAt = s.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// toOrderResponse converts a domain WorkOrder to its JSON representation.
func toOrderResponse(o model.WorkOrder, canSign bool) OrderResponse {
	return OrderResponse{
		ID:                  o.ID,
		Numero:              o.Numero,
		Cliente:             o.Cliente.Nombre,
		FechaOrden:          o.FechaOrden,
		FechaOrdenDisplay:   model.FormatDate(o.FechaOrden),
		FechaMontaje:        o.FechaMontaje,
		FechaMontajeDisplay: model.FormatDate(o.FechaMontaje),
		SituacionTrabajo:    o.SituacionTrabajo,
		InstalarEn:          o.InstalarEn,
		Descripcion:         o.Descripcion,
		TieneFirma:          o.TieneFirma,
		CanSign:             canSign,
	}
}

func toSignatureStateResponse(orderID int64, state model.PipelineState) SignatureStateResponse {
	return SignatureStateResponse{OrderID: orderID, State: string(state), Busy: state.Busy()}
}
