// Package capture provides single-shot signature capture surfaces.
package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
	"github.com/ericfisherdev/fieldorders/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.CaptureSurface = (*FileSurface)(nil)
	_ driven.CaptureSurface = PayloadSurface("")
)

const maxCaptureBytes = 16 << 20

// FileSurface captures a signature from a file, or from stdin when the path
// is "-". The file may hold image bytes, raw base64, or a data URI.
type FileSurface struct {
	path  string
	stdin io.Reader
}

// NewFileSurface creates a FileSurface. stdin is read when path is "-"; nil
// means os.Stdin.
func NewFileSurface(path string, stdin io.Reader) *FileSurface {
	if stdin == nil {
		stdin = os.Stdin
	}
	return &FileSurface{path: path, stdin: stdin}
}

// Capture implements driven.CaptureSurface.
func (s *FileSurface) Capture(ctx context.Context) (model.CaptureResult, error) {
	if err := ctx.Err(); err != nil {
		return model.CaptureResult{}, err
	}

	data, err := s.read()
	if err != nil {
		return model.CaptureResult{}, err
	}
	if len(data) > maxCaptureBytes {
		return model.CaptureResult{}, fmt.Errorf("signature input exceeds %d bytes", maxCaptureBytes)
	}

	if strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return model.Captured(base64.StdEncoding.EncodeToString(data)), nil
	}
	return PayloadSurface(data).Capture(ctx)
}

func (s *FileSurface) read() ([]byte, error) {
	if s.path == "-" {
		data, err := io.ReadAll(io.LimitReader(s.stdin, maxCaptureBytes+1))
		if err != nil {
			return nil, fmt.Errorf("reading signature from stdin: %w", err)
		}
		return data, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening signature file: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxCaptureBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading signature file: %w", err)
	}
	return data, nil
}

// PayloadSurface is a signature already captured elsewhere, such as a canvas
// export posted to the bridge. Blank payloads are reported as empty.
type PayloadSurface string

// Capture implements driven.CaptureSurface.
func (p PayloadSurface) Capture(ctx context.Context) (model.CaptureResult, error) {
	if err := ctx.Err(); err != nil {
		return model.CaptureResult{}, err
	}
	payload := strings.TrimSpace(string(p))
	if payload == "" {
		return model.EmptyCapture(), nil
	}
	return model.Captured(payload), nil
}
