// Package imaging recompresses captured signature images.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"
	"log/slog"
	"math"
	"os"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ericfisherdev/fieldorders/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ImageCompressor = (*Compressor)(nil)

// maxInputBytes bounds the size of a signature file read from disk.
const maxInputBytes = 16 << 20

var acceptedMIME = []string{"image/png", "image/jpeg", "image/gif"}

// Compressor re-encodes images as PNG.
type Compressor struct {
	logger *slog.Logger
}

// NewCompressor creates a Compressor.
func NewCompressor(logger *slog.Logger) *Compressor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compressor{logger: logger}
}

// Compress reads the image at path and returns it re-encoded as base64 PNG.
// quality must be in (0, 1]; lower values trade CPU for a smaller output.
func (c *Compressor) Compress(ctx context.Context, path string, quality float64) (string, error) {
	level, err := CompressionLevel(quality)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading signature file: %w", err)
	}
	if info.Size() > maxInputBytes {
		return "", fmt.Errorf("signature file is %d bytes, limit is %d", info.Size(), maxInputBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading signature file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), acceptedMIME...) {
		return "", fmt.Errorf("signature file is %s, not a supported image", mt.String())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", mt.String(), err)
	}

	var out bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(&out, img); err != nil {
		return "", fmt.Errorf("encoding png: %w", err)
	}

	c.logger.Debug("signature compressed",
		"mime", mt.String(),
		"input_bytes", len(data),
		"output_bytes", out.Len(),
		"quality", quality,
	)

	return base64.StdEncoding.EncodeToString(out.Bytes()), nil
}

// CompressionLevel maps a quality factor in (0, 1] to a PNG compression
// level.
func CompressionLevel(quality float64) (png.CompressionLevel, error) {
	if math.IsNaN(quality) || quality <= 0 || quality > 1 {
		return 0, fmt.Errorf("quality %v out of range (0, 1]", quality)
	}
	switch {
	case quality > 0.75:
		return png.BestSpeed, nil
	case quality > 0.5:
		return png.DefaultCompression, nil
	default:
		return png.BestCompression, nil
	}
}
