package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
	"github.com/ericfisherdev/fieldorders/internal/domain/port/driven"
)

const msgInvalidUsername = "El nombre de usuario no es válido."

// SessionService logs technicians in and keeps their token, and optionally
// their password, in the credential store.
type SessionService struct {
	auth   driven.AuthClient
	creds  driven.CredentialStore
	logger *slog.Logger
}

// NewSessionService creates a new SessionService with the required dependencies.
func NewSessionService(auth driven.AuthClient, creds driven.CredentialStore, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		auth:   auth,
		creds:  creds,
		logger: logger,
	}
}

// Login authenticates the form's credentials. On failure both form fields are
// cleared and no token is kept. On success the token is persisted under
// model.TokenKey and, when form.Save is set, the password is saved too.
// Storage failures are logged and never fail the login.
func (s *SessionService) Login(ctx context.Context, form *model.LoginForm) (model.Session, error) {
	creds := form.Credentials()

	result, err := s.auth.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		form.Clear()
		s.logger.Warn("login failed", "username", creds.Username, "error", err)
		return model.Session{}, fmt.Errorf("logging in as %s: %w", creds.Username, err)
	}

	session := model.Session{
		Token:     result.Token,
		IssuedFor: creds.Username,
		Message:   result.Message,
		ExpiresAt: tokenExpiry(result.Token),
	}

	if err := s.creds.Set(ctx, model.TokenKey, result.Token); err != nil {
		s.logger.Warn("failed to persist session token", "error", err)
	}

	if form.Save {
		if err := s.SaveCredentials(ctx, creds.Username, creds.Password); err != nil {
			s.logger.Warn("failed to save credentials", "username", creds.Username, "error", err)
		}
	}

	s.logger.Info("login succeeded", "username", creds.Username)
	return session, nil
}

// SaveCredentials stores password under username. The write has completed
// when SaveCredentials returns.
func (s *SessionService) SaveCredentials(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || username == model.TokenKey {
		return model.NewValidationError(msgInvalidUsername)
	}
	if err := s.creds.Set(ctx, username, password); err != nil {
		return fmt.Errorf("saving credentials for %s: %w", username, err)
	}
	return nil
}

// SavedPassword returns the stored password for username, if any. Store
// errors are logged and reported as absent.
func (s *SessionService) SavedPassword(ctx context.Context, username string) (string, bool) {
	if username == "" || username == model.TokenKey {
		return "", false
	}
	return s.lookup(ctx, username)
}

// StoredToken returns the token persisted by the most recent login.
func (s *SessionService) StoredToken(ctx context.Context) (string, bool) {
	return s.lookup(ctx, model.TokenKey)
}

// Resume rebuilds a session from the persisted token so a restarted process
// can keep working without a new login. The username is not stored and is
// left empty.
func (s *SessionService) Resume(ctx context.Context) (model.Session, bool) {
	token, ok := s.StoredToken(ctx)
	if !ok {
		return model.Session{}, false
	}
	session := model.Session{Token: token, ExpiresAt: tokenExpiry(token)}
	if session.Expired(time.Now()) {
		return model.Session{}, false
	}
	return session, true
}

// ForgetCredentials removes the saved password for username.
func (s *SessionService) ForgetCredentials(ctx context.Context, username string) error {
	if username == "" || username == model.TokenKey {
		return model.NewValidationError(msgInvalidUsername)
	}
	if err := s.creds.Delete(ctx, username); err != nil {
		return fmt.Errorf("forgetting credentials for %s: %w", username, err)
	}
	return nil
}

// SavedUsernames lists the usernames with a saved password.
func (s *SessionService) SavedUsernames(ctx context.Context) ([]string, error) {
	records, err := s.creds.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing saved credentials: %w", err)
	}
	names := make([]string, 0, len(records))
	for _, r := range records {
		if r.Key != model.TokenKey {
			names = append(names, r.Key)
		}
	}
	return names, nil
}

// Logout discards the persisted token. Saved passwords are kept.
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.creds.Delete(ctx, model.TokenKey); err != nil {
		return fmt.Errorf("deleting session token: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

func (s *SessionService) lookup(ctx context.Context, key string) (string, bool) {
	value, err := s.creds.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			s.logger.Warn("credential store read failed", "key", key, "error", err)
		}
		return "", false
	}
	return value, value != ""
}

// tokenExpiry reads the exp claim of a JWT without verifying it. Opaque
// tokens yield the zero time.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
