package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
)

const (
	msgLoginFailed       = "Error en el inicio de sesión"
	msgLoginConnectivity = "Error de conexión"
	msgLoginMalformed    = "Respuesta de inicio de sesión sin token"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Login posts the credentials to /api/v1/auth/login once. A 2xx response must
// carry a token; any other status is an authentication failure carrying the
// server's message.
func (c *Client) Login(ctx context.Context, username, password string) (model.LoginResult, error) {
	resp, err := c.send(ctx, http.MethodPost, "", loginRequest{Username: username, Password: password},
		"api", "v1", "auth", "login")
	if err != nil {
		return model.LoginResult{}, connectivityError(msgLoginConnectivity, err)
	}

	if !resp.ok() {
		return model.LoginResult{}, &model.Error{
			Kind:    model.ErrAuth,
			Status:  resp.status,
			Message: resp.messageOr(msgLoginFailed),
		}
	}

	var body loginResponse
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return model.LoginResult{}, malformedError(msgLoginMalformed, resp.status, err)
	}
	if body.Token == "" {
		return model.LoginResult{}, malformedError(msgLoginMalformed, resp.status, errors.New("empty token"))
	}

	return model.LoginResult{Token: body.Token, Message: body.Message}, nil
}
