package driven

import (
	"context"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
)

// AuthClient performs the login exchange against the backend.
type AuthClient interface {
	// Login makes a single attempt to authenticate. It never touches any store.
	Login(ctx context.Context, username, password string) (model.LoginResult, error)
}

// OrderClient reads work orders and uploads signatures. The token is passed
// straight through; an empty token is rejected by the server, not here.
type OrderClient interface {
	ListOrders(ctx context.Context, token string) ([]model.WorkOrder, error)
	GetOrder(ctx context.Context, token string, id int64) (model.WorkOrder, error)
	// UploadSignature posts the compressed base64 payload for the order and
	// returns the server message, if any.
	UploadSignature(ctx context.Context, token string, id int64, firma string) (string, error)
}
