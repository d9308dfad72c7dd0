package api

import (
	"context"
	"net/http"
	"strconv"
)

const (
	msgUploadFailed       = "Error al enviar la firma."
	msgUploadConnectivity = "Error de conexión al enviar la firma."
)

type signatureRequest struct {
	Firma string `json:"firma"`
}

// UploadSignature posts {"firma": base64} to /api/v1/ordenes/{id}/firma and
// returns the server's message. A 2xx response with no JSON body is still a
// success.
func (c *Client) UploadSignature(ctx context.Context, token string, id int64, firma string) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, token, signatureRequest{Firma: firma},
		"api", "v1", "ordenes", strconv.FormatInt(id, 10), "firma")
	if err != nil {
		return "", connectivityError(msgUploadConnectivity, err)
	}
	if !resp.ok() {
		return "", serverError(resp, msgUploadFailed)
	}

	return resp.messageOr(""), nil
}
