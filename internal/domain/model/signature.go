package model

import "strings"

const (
	// DefaultMinSignatureLength is the shortest base64 payload accepted as a
	// signature. It is a heuristic against near-empty canvases and is tunable.
	DefaultMinSignatureLength = 50

	// DefaultCompressQuality is the quality factor used when recompressing a
	// captured signature.
	DefaultCompressQuality = 0.5
)

// CaptureKind tags the outcome of a capture surface.
type CaptureKind int

const (
	// CaptureEmpty means the surface reported that nothing was drawn.
	CaptureEmpty CaptureKind = iota
	// CaptureOK means the surface produced an image payload.
	CaptureOK
)

// CaptureResult is the single-shot result of a capture surface: either
// Captured(base64) or Empty.
type CaptureResult struct {
	Kind   CaptureKind
	Base64 string
}

// Captured builds a CaptureOK result carrying payload.
func Captured(payload string) CaptureResult {
	return CaptureResult{Kind: CaptureOK, Base64: payload}
}

// EmptyCapture builds a CaptureEmpty result.
func EmptyCapture() CaptureResult {
	return CaptureResult{Kind: CaptureEmpty}
}

// SignatureArtifact is the transient in-memory record of one signature
// passing through the pipeline. It is never persisted.
type SignatureArtifact struct {
	OrderID          int64
	RawBase64        string
	CompressedBase64 string
	TempPath         string
}

// SignatureReceipt is returned after a successful upload.
type SignatureReceipt struct {
	OrderID int64
	Message string
}

// PipelineState is a state of the signature capture pipeline.
type PipelineState string

const (
	StateIdle        PipelineState = "idle"
	StateCapturing   PipelineState = "capturing"
	StateValidating  PipelineState = "validating"
	StateWriting     PipelineState = "writing"
	StateCompressing PipelineState = "compressing"
	StateCleanup     PipelineState = "cleanup"
	StateUploading   PipelineState = "uploading"
	StateSuccess     PipelineState = "success"
	StateFailed      PipelineState = "failed"
)

// Busy reports whether the capture surface must be hidden in this state.
func (s PipelineState) Busy() bool {
	switch s {
	case StateValidating, StateWriting, StateCompressing, StateCleanup, StateUploading:
		return true
	}
	return false
}

// StripDataURI removes a "data:image/...;base64," prefix, leaving raw base64.
// Payloads without the prefix are returned unchanged.
func StripDataURI(payload string) string {
	if !strings.Contains(payload, "data:image") {
		return payload
	}
	_, raw, found := strings.Cut(payload, ",")
	if !found {
		return ""
	}
	return raw
}
