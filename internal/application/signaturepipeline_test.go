package application_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ericfisherdev/fieldorders/internal/adapter/driven/imaging"
	"github.com/ericfisherdev/fieldorders/internal/adapter/driven/tempfile"
	"github.com/ericfisherdev/fieldorders/internal/application"
	"github.com/ericfisherdev/fieldorders/internal/domain/model"
)

// validPayload is long enough to pass validation; the mocks never decode it.
var validPayload = strings.Repeat("QUJD", 20)

type stateRecorder struct {
	mu     sync.Mutex
	states []model.PipelineState
}

func (r *stateRecorder) observe(_ int64, s model.PipelineState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) all() []model.PipelineState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.PipelineState(nil), r.states...)
}

func TestSignaturePipeline_SuccessRunsStepsInOrder(t *testing.T) {
	orders := &mockOrderClient{}
	temp := &mockTempStore{}
	compressor := &mockCompressor{result: "COMPRESSED"}
	rec := &stateRecorder{}
	pipeline := application.NewSignaturePipeline(orders, temp, compressor, application.WithObserver(rec.observe))

	receipt, err := pipeline.Sign(context.Background(), "abc123", 5, capturing(validPayload))

	require.NoError(t, err)
	assert.Equal(t, &model.SignatureReceipt{OrderID: 5, Message: "Firma enviada correctamente."}, receipt)
	assert.Equal(t, []model.PipelineState{
		model.StateCapturing,
		model.StateValidating,
		model.StateWriting,
		model.StateCompressing,
		model.StateCleanup,
		model.StateUploading,
		model.StateSuccess,
		model.StateIdle,
	}, rec.all())

	require.Len(t, orders.uploads, 1)
	assert.Equal(t, uploadCall{Token: "abc123", OrderID: 5, Firma: "COMPRESSED"}, orders.uploads[0])
	assert.Equal(t, int32(1), temp.writes.Load())
	assert.Equal(t, int32(1), temp.deletes.Load())
	assert.Equal(t, model.StateIdle, pipeline.State(5))
}

func TestSignaturePipeline_ServerMessageIsReturned(t *testing.T) {
	orders := &mockOrderClient{
		upload: func(context.Context, string, int64, string) (string, error) { return "Firma guardada", nil },
	}
	pipeline := application.NewSignaturePipeline(orders, &mockTempStore{}, &mockCompressor{result: "C"})

	receipt, err := pipeline.Sign(context.Background(), "abc123", 5, capturing(validPayload))

	require.NoError(t, err)
	assert.Equal(t, "Firma guardada", receipt.Message)
}

func TestSignaturePipeline_DataURIPrefixIsStripped(t *testing.T) {
	orders := &mockOrderClient{}
	pipeline := application.NewSignaturePipeline(orders, &mockTempStore{}, &mockCompressor{result: "C"})

	_, err := pipeline.Sign(context.Background(), "abc123", 5, capturing("data:image/png;base64,"+validPayload))
	require.NoError(t, err)

	// The prefix alone is longer than the threshold but is not a signature.
	_, err = pipeline.Sign(context.Background(), "abc123", 6,
		capturing("data:image/png;base64,"+strings.Repeat("A", 10)))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, 1, orders.uploadCount())
}

func TestSignaturePipeline_EmptyCapture(t *testing.T) {
	orders := &mockOrderClient{}
	temp := &mockTempStore{}
	rec := &stateRecorder{}
	pipeline := application.NewSignaturePipeline(orders, temp, &mockCompressor{}, application.WithObserver(rec.observe))

	empty := surfaceFunc(func(context.Context) (model.CaptureResult, error) { return model.EmptyCapture(), nil })
	receipt, err := pipeline.Sign(context.Background(), "abc123", 5, empty)

	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, "No se capturó ninguna firma.", model.UserMessage(err, ""))
	assert.Equal(t, int32(0), temp.writes.Load())
	assert.Zero(t, orders.uploadCount())
	assert.Equal(t, []model.PipelineState{model.StateCapturing, model.StateFailed, model.StateCapturing}, rec.all())
}

func TestSignaturePipeline_ShortPayloadsNeverTouchIO(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		payload := rapid.StringN(0, 49, 49).Draw(rt, "payload")
		if rapid.Bool().Draw(rt, "dataURI") {
			payload = "data:image/png;base64," + payload
		}

		orders := &mockOrderClient{}
		temp := &mockTempStore{}
		compressor := &mockCompressor{result: "C"}
		pipeline := application.NewSignaturePipeline(orders, temp, compressor)

		receipt, err := pipeline.Sign(context.Background(), "abc123", 5, capturing(payload))

		assert.Nil(rt, receipt)
		assert.ErrorIs(rt, err, model.ErrValidation)
		assert.Equal(rt, "Por favor, proporciona una firma antes de continuar.", model.UserMessage(err, ""))
		assert.Equal(rt, int32(0), temp.writes.Load())
		assert.Equal(rt, int32(0), temp.deletes.Load())
		assert.Equal(rt, int32(0), compressor.calls.Load())
		assert.Zero(rt, orders.uploadCount())
		assert.Equal(rt, model.StateCapturing, pipeline.State(5))
	})
}

func TestSignaturePipeline_MinLengthIsConfigurable(t *testing.T) {
	pipeline := application.NewSignaturePipeline(&mockOrderClient{}, &mockTempStore{}, &mockCompressor{result: "C"},
		application.WithMinLength(4))

	_, err := pipeline.Sign(context.Background(), "abc123", 5, capturing("QUJD"))
	assert.NoError(t, err)
}

func TestSignaturePipeline_CompressFailureStillDeletesTempFile(t *testing.T) {
	orders := &mockOrderClient{}
	temp := &mockTempStore{}
	pipeline := application.NewSignaturePipeline(orders, temp, &mockCompressor{err: errBoom})

	_, err := pipeline.Sign(context.Background(), "abc123", 5, capturing(validPayload))

	assert.ErrorIs(t, err, model.ErrProcessing)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "Ha ocurrido un error al procesar la firma.", model.UserMessage(err, ""))
	assert.Equal(t, int32(1), temp.deletes.Load())
	assert.Zero(t, orders.uploadCount())
	assert.Equal(t, model.StateCapturing, pipeline.State(5))
}

func TestSignaturePipeline_UploadFailureReturnsToCapturing(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantKind    error
		wantMessage string
	}{
		{
			name:        "server message",
			err:         &model.Error{Kind: model.ErrServer, Status: 400, Message: "Orden ya firmada"},
			wantKind:    model.ErrServer,
			wantMessage: "Orden ya firmada",
		},
		{
			name:        "unclassified error",
			err:         errBoom,
			wantKind:    model.ErrServer,
			wantMessage: "Error al enviar la firma.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &mockOrderClient{
				upload: func(context.Context, string, int64, string) (string, error) { return "", tt.err },
			}
			temp := &mockTempStore{}
			rec := &stateRecorder{}
			pipeline := application.NewSignaturePipeline(orders, temp, &mockCompressor{result: "C"},
				application.WithObserver(rec.observe))

			_, err := pipeline.Sign(context.Background(), "abc123", 5, capturing(validPayload))

			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.wantMessage, model.UserMessage(err, ""))
			assert.Equal(t, int32(1), temp.deletes.Load())

			states := rec.all()
			assert.Equal(t, []model.PipelineState{model.StateUploading, model.StateFailed, model.StateCapturing},
				states[len(states)-3:])
		})
	}
}

func TestSignaturePipeline_UploadSurvivesCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var uploadCtxErr error
	orders := &mockOrderClient{
		upload: func(uploadCtx context.Context, _ string, _ int64, _ string) (string, error) {
			cancel()
			uploadCtxErr = uploadCtx.Err()
			return "ok", nil
		},
	}
	pipeline := application.NewSignaturePipeline(orders, &mockTempStore{}, &mockCompressor{result: "C"})

	receipt, err := pipeline.Sign(ctx, "abc123", 5, capturing(validPayload))

	require.NoError(t, err)
	assert.Equal(t, "ok", receipt.Message)
	assert.NoError(t, uploadCtxErr)
}

func TestSignaturePipeline_OneSignatureInFlightPerOrder(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	orders := &mockOrderClient{
		upload: func(_ context.Context, _ string, id int64, _ string) (string, error) {
			if id == 5 {
				once.Do(func() {
					close(started)
					<-release
				})
			}
			return "", nil
		},
	}
	pipeline := application.NewSignaturePipeline(orders, &mockTempStore{}, &mockCompressor{result: "C"})

	done := make(chan error, 1)
	go func() {
		_, err := pipeline.Sign(context.Background(), "abc123", 5, capturing(validPayload))
		done <- err
	}()
	<-started

	assert.Equal(t, model.StateUploading, pipeline.State(5))
	assert.True(t, pipeline.State(5).Busy())

	touched := false
	second := surfaceFunc(func(context.Context) (model.CaptureResult, error) {
		touched = true
		return model.Captured(validPayload), nil
	})
	_, err := pipeline.Sign(context.Background(), "abc123", 5, second)
	assert.ErrorIs(t, err, application.ErrSignatureInFlight)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.False(t, touched, "the surface of a rejected attempt is never read")

	pipeline.Close(5)
	assert.Equal(t, model.StateUploading, pipeline.State(5), "close does not discard an upload in flight")

	_, err = pipeline.Sign(context.Background(), "abc123", 6, capturing(validPayload))
	assert.NoError(t, err, "other orders are not blocked")

	close(release)
	require.NoError(t, <-done)

	_, err = pipeline.Sign(context.Background(), "abc123", 5, capturing(validPayload))
	assert.NoError(t, err, "slot is released after completion")
}

func TestSignaturePipeline_OpenAndClose(t *testing.T) {
	pipeline := application.NewSignaturePipeline(&mockOrderClient{}, &mockTempStore{}, &mockCompressor{})

	pipeline.Open(7)
	assert.Equal(t, model.StateCapturing, pipeline.State(7))

	pipeline.Close(7)
	assert.Equal(t, model.StateIdle, pipeline.State(7))
}

// --- Real temp store and compressor ---

func signaturePNG(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 120, 40))
	for x := range 120 {
		img.SetGray(x, 20+(x%7), color.Gray{Y: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, (&png.Encoder{CompressionLevel: png.NoCompression}).Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newRealPipeline(t *testing.T, orders *mockOrderClient) (*application.SignaturePipeline, string) {
	t.Helper()
	dir := t.TempDir()
	temp, err := tempfile.NewStore(dir, nil)
	require.NoError(t, err)
	return application.NewSignaturePipeline(orders, temp, imaging.NewCompressor(nil)), dir
}

func TestSignaturePipeline_RealStoreCreatesAndDeletesOneFile(t *testing.T) {
	raw := signaturePNG(t)

	for name, uploadErr := range map[string]error{"upload succeeds": nil, "upload fails": errBoom} {
		t.Run(name, func(t *testing.T) {
			var filesDuringUpload int
			var dir string
			orders := &mockOrderClient{
				upload: func(context.Context, string, int64, string) (string, error) {
					entries, err := os.ReadDir(dir)
					require.NoError(t, err)
					filesDuringUpload = len(entries)
					return "", uploadErr
				},
			}
			var pipeline *application.SignaturePipeline
			pipeline, dir = newRealPipeline(t, orders)

			_, err := pipeline.Sign(context.Background(), "abc123", 5, capturing("data:image/png;base64,"+raw))
			if uploadErr == nil {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}

			assert.Zero(t, filesDuringUpload, "temp file is deleted before upload")
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)

			require.Len(t, orders.uploads, 1)
			uploaded := orders.uploads[0].Firma
			assert.NotEqual(t, raw, uploaded)

			decoded, err := base64.StdEncoding.DecodeString(uploaded)
			require.NoError(t, err)
			_, err = png.Decode(bytes.NewReader(decoded))
			assert.NoError(t, err)
		})
	}
}

func TestSignaturePipeline_RealStoreRejectsNonImage(t *testing.T) {
	orders := &mockOrderClient{}
	pipeline, dir := newRealPipeline(t, orders)

	text := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("this is not an image ", 5)))
	_, err := pipeline.Sign(context.Background(), "abc123", 5, capturing(text))

	assert.ErrorIs(t, err, model.ErrProcessing)
	assert.Zero(t, orders.uploadCount())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
