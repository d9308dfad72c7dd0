package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
	"github.com/ericfisherdev/fieldorders/internal/domain/port/driven"
)

const (
	msgNoSignature      = "No se capturó ninguna firma."
	msgProvideSignature = "Por favor, proporciona una firma antes de continuar."
	msgUploadSucceeded  = "Firma enviada correctamente."
	msgUploadFailed     = "Error al enviar la firma."
	msgProcessingFailed = "Ha ocurrido un error al procesar la firma."
)

// ErrSignatureInFlight is returned when a signature for the same order is
// already being processed or uploaded.
var ErrSignatureInFlight = &model.Error{
	Kind:    model.ErrValidation,
	Message: "Ya se está enviando una firma para esta orden.",
	Err:     errors.New("signature already in flight"),
}

// StateObserver receives every pipeline state transition.
type StateObserver func(orderID int64, state model.PipelineState)

// PipelineOption configures a SignaturePipeline.
type PipelineOption func(*SignaturePipeline)

// WithMinLength sets the shortest accepted base64 payload.
func WithMinLength(n int) PipelineOption {
	return func(p *SignaturePipeline) { p.minLength = n }
}

// WithQuality sets the compression quality factor.
func WithQuality(q float64) PipelineOption {
	return func(p *SignaturePipeline) { p.quality = q }
}

// WithObserver registers fn to be told about state transitions.
func WithObserver(fn StateObserver) PipelineOption {
	return func(p *SignaturePipeline) { p.observer = fn }
}

// WithPipelineLogger sets the pipeline's logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *SignaturePipeline) { p.logger = logger }
}

// SignaturePipeline captures, validates, compresses and uploads customer
// signatures. Within one Sign call the steps run strictly in the order
// validate, write, compress, delete, upload. At most one Sign runs per order.
type SignaturePipeline struct {
	orders     driven.OrderClient
	temp       driven.TempStore
	compressor driven.ImageCompressor
	minLength  int
	quality    float64
	observer   StateObserver
	logger     *slog.Logger

	mu       sync.Mutex
	states   map[int64]model.PipelineState
	inFlight map[int64]struct{}
}

// NewSignaturePipeline creates a new SignaturePipeline with the required dependencies.
func NewSignaturePipeline(
	orders driven.OrderClient,
	temp driven.TempStore,
	compressor driven.ImageCompressor,
	opts ...PipelineOption,
) *SignaturePipeline {
	p := &SignaturePipeline{
		orders:     orders,
		temp:       temp,
		compressor: compressor,
		minLength:  model.DefaultMinSignatureLength,
		quality:    model.DefaultCompressQuality,
		logger:     slog.Default(),
		states:     make(map[int64]model.PipelineState),
		inFlight:   make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current state for orderID. Orders never seen are Idle.
func (p *SignaturePipeline) State(orderID int64) model.PipelineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.states[orderID]; ok {
		return s
	}
	return model.StateIdle
}

// Open marks the capture surface for orderID as shown.
func (p *SignaturePipeline) Open(orderID int64) {
	p.mu.Lock()
	busy := p.isInFlight(orderID)
	p.mu.Unlock()
	if !busy {
		p.transition(orderID, model.StateCapturing)
	}
}

// Close discards the state for orderID, returning it to Idle. A signature
// already being processed or uploaded is not affected.
func (p *SignaturePipeline) Close(orderID int64) {
	p.mu.Lock()
	if p.isInFlight(orderID) {
		p.mu.Unlock()
		return
	}
	delete(p.states, orderID)
	p.mu.Unlock()
	p.notify(orderID, model.StateIdle)
}

// Sign runs one capture cycle for orderID using surface and uploads the
// result with token. Once the upload has been sent it runs to completion even
// if ctx is cancelled.
func (p *SignaturePipeline) Sign(
	ctx context.Context,
	token string,
	orderID int64,
	surface driven.CaptureSurface,
) (*model.SignatureReceipt, error) {
	if !p.acquire(orderID) {
		return nil, ErrSignatureInFlight
	}
	defer p.release(orderID)

	p.transition(orderID, model.StateCapturing)
	result, err := surface.Capture(ctx)
	if err != nil {
		return nil, p.fail(orderID, processingError(err))
	}
	if result.Kind != model.CaptureOK {
		return nil, p.fail(orderID, model.NewValidationError(msgNoSignature))
	}

	p.transition(orderID, model.StateValidating)
	artifact := model.SignatureArtifact{
		OrderID:   orderID,
		RawBase64: model.StripDataURI(result.Base64),
	}
	if len(artifact.RawBase64) < p.minLength {
		return nil, p.fail(orderID, model.NewValidationError(msgProvideSignature))
	}

	if err := p.process(ctx, &artifact); err != nil {
		return nil, p.fail(orderID, processingError(err))
	}

	p.transition(orderID, model.StateUploading)
	message, err := p.orders.UploadSignature(context.WithoutCancel(ctx), token, orderID, artifact.CompressedBase64)
	if err != nil {
		return nil, p.fail(orderID, uploadError(err))
	}
	if message == "" {
		message = msgUploadSucceeded
	}

	p.transition(orderID, model.StateSuccess)
	p.logger.Info("signature uploaded", "order_id", orderID, "bytes", len(artifact.CompressedBase64))
	p.finish(orderID)

	return &model.SignatureReceipt{OrderID: orderID, Message: message}, nil
}

// process writes the raw payload to a temp file, compresses it and deletes
// the file. The file is deleted even when compression fails.
func (p *SignaturePipeline) process(ctx context.Context, artifact *model.SignatureArtifact) error {
	p.transition(artifact.OrderID, model.StateWriting)
	path, err := p.temp.WriteBase64(ctx, artifact.RawBase64)
	if err != nil {
		return err
	}
	artifact.TempPath = path

	defer func() {
		p.transition(artifact.OrderID, model.StateCleanup)
		if err := p.temp.Delete(context.WithoutCancel(ctx), path); err != nil {
			p.logger.Warn("failed to delete signature temp file", "path", path, "error", err)
		}
	}()

	p.transition(artifact.OrderID, model.StateCompressing)
	compressed, err := p.compressor.Compress(ctx, path, p.quality)
	if err != nil {
		return err
	}
	artifact.CompressedBase64 = compressed
	return nil
}

// fail records the failure and reopens capture for a fresh attempt.
func (p *SignaturePipeline) fail(orderID int64, err error) error {
	p.transition(orderID, model.StateFailed)
	p.logger.Warn("signature failed", "order_id", orderID, "error", err)
	p.transition(orderID, model.StateCapturing)
	return err
}

func (p *SignaturePipeline) finish(orderID int64) {
	p.mu.Lock()
	delete(p.states, orderID)
	p.mu.Unlock()
	p.notify(orderID, model.StateIdle)
}

func (p *SignaturePipeline) acquire(orderID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isInFlight(orderID) {
		return false
	}
	p.inFlight[orderID] = struct{}{}
	return true
}

func (p *SignaturePipeline) release(orderID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, orderID)
}

// isInFlight must be called with p.mu held.
func (p *SignaturePipeline) isInFlight(orderID int64) bool {
	_, ok := p.inFlight[orderID]
	return ok
}

func (p *SignaturePipeline) transition(orderID int64, state model.PipelineState) {
	p.mu.Lock()
	p.states[orderID] = state
	p.mu.Unlock()
	p.notify(orderID, state)
}

func (p *SignaturePipeline) notify(orderID int64, state model.PipelineState) {
	if p.observer != nil {
		p.observer(orderID, state)
	}
}

// processingError keeps classified errors and turns anything else into a
// generic processing failure.
func processingError(err error) error {
	var classified *model.Error
	if errors.As(err, &classified) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &model.Error{Kind: model.ErrProcessing, Message: msgProcessingFailed, Err: err}
}

func uploadError(err error) error {
	var classified *model.Error
	if errors.As(err, &classified) {
		return err
	}
	return &model.Error{Kind: model.ErrServer, Message: msgUploadFailed, Err: err}
}
