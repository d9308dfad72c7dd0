// Package cli renders work orders and pipeline outcomes for the terminal and
// reads credentials from it.
package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
)

const (
	msgNoOrders       = "No hay órdenes disponibles."
	msgNoDescription  = "No disponible"
	msgAlreadySigned  = "Orden ya firmada."
	labelSignAction   = "Firmar"
	labelSigned       = "Sí"
	labelUnsigned     = "No"
	titleOrderList    = "Órdenes de Trabajo"
	titleOrderDetail  = "Detalle de la Orden"
	signHintFormatter = "Para firmar: fieldorders sign %d --image <fichero|->"
)

var (
	successPrinter = color.New(color.FgHiGreen)
	failurePrinter = color.New(color.FgRed)
	infoPrinter    = color.New(color.FgYellow)
	titlePrinter   = color.New(color.Bold)
)

// Renderer writes human-readable output to a terminal.
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a Renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Orders prints the order list as a table.
func (r *Renderer) Orders(orders []model.WorkOrder) {
	titlePrinter.Fprintln(r.out, titleOrderList)
	if len(orders) == 0 {
		infoPrinter.Fprintln(r.out, msgNoOrders)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"ID", "Número", "Nombre", "Fecha", "Situación", "Instalar en", "¿Tiene firma?"})
	for _, o := range orders {
		t.AppendRow(table.Row{
			o.ID,
			o.Numero,
			o.Cliente.Nombre,
			model.FormatDate(o.FechaOrden),
			o.SituacionTrabajo,
			o.InstalarEn,
			signedLabel(o.TieneFirma),
		})
	}
	t.Render()
}

// Order prints the detail of one order. canSign controls whether the sign
// action is offered.
func (r *Renderer) Order(o model.WorkOrder, canSign bool) {
	titlePrinter.Fprintln(r.out, titleOrderDetail)

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendRows([]table.Row{
		{"Número", o.Numero},
		{"Nombre del Cliente", o.Cliente.Nombre},
		{"Fecha Orden", model.FormatDate(o.FechaOrden)},
		{"Fecha Montaje", model.FormatDate(o.FechaMontaje)},
		{"Situación", o.SituacionTrabajo},
		{"Instalar en", o.InstalarEn},
		{"Descripción", o.DescripcionOr(msgNoDescription)},
	})
	t.Render()

	if canSign {
		infoPrinter.Fprintf(r.out, "[%s] "+signHintFormatter+"\n", labelSignAction, o.ID)
		return
	}
	successPrinter.Fprintln(r.out, msgAlreadySigned)
}

// Success prints a positive outcome.
func (r *Renderer) Success(message string) {
	successPrinter.Fprintln(r.out, message)
}

// Failure prints a failed outcome.
func (r *Renderer) Failure(message string) {
	failurePrinter.Fprintln(r.out, message)
}

// Info prints a neutral notice.
func (r *Renderer) Info(message string) {
	infoPrinter.Fprintln(r.out, message)
}

// State prints a pipeline transition. Busy states are shown as a processing
// indicator.
func (r *Renderer) State(orderID int64, state model.PipelineState) {
	if state.Busy() {
		infoPrinter.Fprintf(r.out, "orden %d: %s...\n", orderID, state)
	}
}

// Sweep prints the result of an orphan sweep.
func (r *Renderer) Sweep(removed int) {
	r.Info(fmt.Sprintf("Ficheros temporales eliminados: %d", removed))
}

func signedLabel(signed bool) string {
	if signed {
		return labelSigned
	}
	return labelUnsigned
}
