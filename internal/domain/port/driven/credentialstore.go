package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// FIELDORDERS_SECRET_KEY has not been configured. It matches model.ErrStorage.
var ErrEncryptionKeyNotSet = &model.Error{
	Kind:    model.ErrStorage,
	Message: "encryption key not configured: set FIELDORDERS_SECRET_KEY",
	Err:     errors.New("no encryption key"),
}

// CredentialStore defines the driven port for secure credential persistence.
// Passwords are stored under the username; the bearer token under
// model.TokenKey. The adapter is responsible for encryption; this interface
// operates on plaintext values at the domain boundary.
type CredentialStore interface {
	// Set stores or replaces the value for key.
	Set(ctx context.Context, key, plaintext string) error

	// Get retrieves the plaintext value for key.
	// Returns ("", nil) if no value exists for that key.
	Get(ctx context.Context, key string) (string, error)

	// List returns the stored keys. Values are never listed.
	List(ctx context.Context) ([]model.Credential, error)

	// Delete removes the value for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
