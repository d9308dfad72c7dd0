package driven

import (
	"context"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
)

// CaptureSurface is a single-shot signature source. Capture resolves once with
// either model.Captured(base64) or model.EmptyCapture().
type CaptureSurface interface {
	Capture(ctx context.Context) (model.CaptureResult, error)
}

// TempStore persists raw signature bytes in uniquely named temporary files.
type TempStore interface {
	// WriteBase64 decodes raw base64 and writes it to a new temporary file,
	// returning its path.
	WriteBase64(ctx context.Context, raw string) (string, error)

	// Delete removes the file at path. A missing file is not an error.
	Delete(ctx context.Context, path string) error
}

// ImageCompressor recompresses an image file into PNG.
type ImageCompressor interface {
	// Compress reads the image at path and returns it re-encoded as base64 PNG
	// at the given quality factor (0 < quality <= 1).
	Compress(ctx context.Context, path string, quality float64) (string, error)
}
