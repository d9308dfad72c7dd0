package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
)

const (
	msgListFailed         = "Error al obtener las órdenes"
	msgListConnectivity   = "Error de conexión al obtener las órdenes"
	msgListMalformed      = "La respuesta no es un array de órdenes."
	msgDetailFailed       = "Error al obtener el detalle de la orden"
	msgDetailConnectivity = "Error de conexión al obtener el detalle de la orden"
	msgDetailMalformed    = "La respuesta no contiene una orden válida."
)

// ListOrders fetches /api/v1/ordenes. The response must wrap the orders in an
// "ordenes" field holding a JSON array; anything else is malformed.
func (c *Client) ListOrders(ctx context.Context, token string) ([]model.WorkOrder, error) {
	resp, err := c.send(ctx, http.MethodGet, token, nil, "api", "v1", "ordenes")
	if err != nil {
		return nil, connectivityError(msgListConnectivity, err)
	}
	if !resp.ok() {
		return nil, serverError(resp, msgListFailed)
	}

	var body struct {
		Ordenes json.RawMessage `json:"ordenes"`
	}
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, malformedError(msgListMalformed, resp.status, err)
	}

	raw := bytes.TrimSpace(body.Ordenes)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, malformedError(msgListMalformed, resp.status, errors.New(`"ordenes" is not an array`))
	}

	orders := []model.WorkOrder{}
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, malformedError(msgListMalformed, resp.status, err)
	}

	return orders, nil
}

// GetOrder fetches /api/v1/ordenes/{id}.
func (c *Client) GetOrder(ctx context.Context, token string, id int64) (model.WorkOrder, error) {
	resp, err := c.send(ctx, http.MethodGet, token, nil, "api", "v1", "ordenes", strconv.FormatInt(id, 10))
	if err != nil {
		return model.WorkOrder{}, connectivityError(msgDetailConnectivity, err)
	}
	if !resp.ok() {
		return model.WorkOrder{}, serverError(resp, msgDetailFailed)
	}

	var order model.WorkOrder
	if err := json.Unmarshal(resp.body, &order); err != nil {
		return model.WorkOrder{}, malformedError(msgDetailMalformed, resp.status, err)
	}

	return order, nil
}
