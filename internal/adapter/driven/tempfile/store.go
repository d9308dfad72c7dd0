// Package tempfile stores captured signatures as short-lived files named
// fieldorders-<pid>-signature-<uuid>.png so that files left behind by a
// crashed process can be recognised and swept.
package tempfile

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
	"github.com/ericfisherdev/fieldorders/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TempStore = (*Store)(nil)

const (
	filePrefix = "fieldorders"
	fileKind   = "signature"
	fileExt    = ".png"

	msgUndecodable = "Ha ocurrido un error al procesar la firma."
)

// Store writes signature files into a single directory.
type Store struct {
	dir    string
	pid    int
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir. An empty dir uses os.TempDir().
// The directory is created when missing.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating temp directory %s: %w", dir, err)
	}
	return &Store{dir: dir, pid: os.Getpid(), logger: logger}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// WriteBase64 decodes raw and writes it to a new uniquely named file,
// returning its path. Undecodable input is a processing error and leaves no
// file behind.
func (s *Store) WriteBase64(ctx context.Context, raw string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := decode(raw)
	if err != nil {
		return "", &model.Error{Kind: model.ErrProcessing, Message: msgUndecodable, Err: err}
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s-%d-%s-%s%s", filePrefix, s.pid, fileKind, uuid.NewString(), fileExt))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	s.logger.Debug("signature written to temp file", "path", path, "bytes", len(data))
	return path, nil
}

// Delete removes path. A file that is already gone is not an error.
func (s *Store) Delete(_ context.Context, path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting temp file %s: %w", path, err)
	}
	return nil
}

// decode accepts padded or unpadded standard base64 and ignores embedded
// line breaks.
func decode(raw string) ([]byte, error) {
	raw = strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(raw)
	if raw == "" {
		return nil, errors.New("empty payload")
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err == nil {
		return data, nil
	}
	if data, rawErr := base64.RawStdEncoding.DecodeString(raw); rawErr == nil {
		return data, nil
	}
	return nil, fmt.Errorf("decoding base64: %w", err)
}
