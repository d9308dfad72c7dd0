package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Cliente is the customer a work order belongs to.
type Cliente struct {
	Nombre string `json:"nombre"`
}

// WorkOrder is an immutable snapshot of a field-service work order.
//
// The list endpoint returns a summary shape (cliente_nombre, fecha, situacion)
// while the detail endpoint returns the full shape (cliente.nombre,
// fecha_orden, situacion_trabajo). Both decode into WorkOrder.
type WorkOrder struct {
	ID               int64
	Numero           string
	Cliente          Cliente
	FechaOrden       string
	FechaMontaje     string
	SituacionTrabajo string
	InstalarEn       string
	Descripcion      *string
	TieneFirma       bool
}

// workOrderWire is the union of both wire shapes.
type workOrderWire struct {
	ID               int64    `json:"id"`
	Numero           string   `json:"numero"`
	Cliente          *Cliente `json:"cliente"`
	ClienteNombre    string   `json:"cliente_nombre"`
	FechaOrden       string   `json:"fecha_orden"`
	Fecha            string   `json:"fecha"`
	FechaMontaje     string   `json:"fecha_montaje"`
	SituacionTrabajo string   `json:"situacion_trabajo"`
	Situacion        string   `json:"situacion"`
	InstalarEn       string   `json:"instalar_en"`
	Descripcion      *string  `json:"descripcion"`
	TieneFirma       Flag     `json:"tiene_firma"`
}

// UnmarshalJSON decodes either the summary or the detail shape.
func (o *WorkOrder) UnmarshalJSON(data []byte) error {
	var w workOrderWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*o = WorkOrder{
		ID:               w.ID,
		Numero:           w.Numero,
		FechaOrden:       firstNonEmpty(w.FechaOrden, w.Fecha),
		FechaMontaje:     w.FechaMontaje,
		SituacionTrabajo: firstNonEmpty(w.SituacionTrabajo, w.Situacion),
		InstalarEn:       w.InstalarEn,
		Descripcion:      w.Descripcion,
		TieneFirma:       bool(w.TieneFirma),
	}
	if w.Cliente != nil {
		o.Cliente = *w.Cliente
	}
	if o.Cliente.Nombre == "" {
		o.Cliente.Nombre = w.ClienteNombre
	}
	return nil
}

// MarshalJSON always emits the detail shape.
func (o WorkOrder) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID               int64   `json:"id"`
		Numero           string  `json:"numero"`
		Cliente          Cliente `json:"cliente"`
		FechaOrden       string  `json:"fecha_orden"`
		FechaMontaje     string  `json:"fecha_montaje"`
		SituacionTrabajo string  `json:"situacion_trabajo"`
		InstalarEn       string  `json:"instalar_en"`
		Descripcion      *string `json:"descripcion"`
		TieneFirma       bool    `json:"tiene_firma"`
	}{
		ID:               o.ID,
		Numero:           o.Numero,
		Cliente:          o.Cliente,
		FechaOrden:       o.FechaOrden,
		FechaMontaje:     o.FechaMontaje,
		SituacionTrabajo: o.SituacionTrabajo,
		InstalarEn:       o.InstalarEn,
		Descripcion:      o.Descripcion,
		TieneFirma:       o.TieneFirma,
	})
}

// DescripcionOr returns the description, or fallback when the backend sent
// none.
func (o WorkOrder) DescripcionOr(fallback string) string {
	if o.Descripcion == nil || *o.Descripcion == "" {
		return fallback
	}
	return *o.Descripcion
}

// Flag is a boolean that tolerates the loose encodings the backend uses:
// true/false, 0/1, their string forms, and null.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = false
		return nil
	}

	s := strings.Trim(string(data), `"`)
	switch strings.ToLower(s) {
	case "", "0", "false":
		*f = false
		return nil
	case "1", "true":
		*f = true
		return nil
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		*f = n != 0
		return nil
	}
	return fmt.Errorf("invalid flag value %s", data)
}

// FormatDate converts "aaaa-mm-dd" into "dd/mm/aaaa". Anything that does not
// split into exactly three parts is returned unchanged.
func FormatDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
