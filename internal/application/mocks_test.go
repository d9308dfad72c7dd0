package application_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
	"github.com/ericfisherdev/fieldorders/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockAuthClient struct {
	login func(ctx context.Context, username, password string) (model.LoginResult, error)
	calls int
}

func (m *mockAuthClient) Login(ctx context.Context, username, password string) (model.LoginResult, error) {
	m.calls++
	return m.login(ctx, username, password)
}

// memCredentialStore is an in-memory driven.CredentialStore.
type memCredentialStore struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

var _ driven.CredentialStore = (*memCredentialStore)(nil)

func newMemCredentialStore() *memCredentialStore {
	return &memCredentialStore{values: make(map[string]string)}
}

func (m *memCredentialStore) Set(_ context.Context, key, plaintext string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = plaintext
	return nil
}

func (m *memCredentialStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.values[key], nil
}

func (m *memCredentialStore) List(_ context.Context) ([]model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]model.Credential, 0, len(keys))
	for i, k := range keys {
		out = append(out, model.Credential{ID: int64(i + 1), Key: k})
	}
	return out, nil
}

func (m *memCredentialStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.values, key)
	return nil
}

type uploadCall struct {
	Token   string
	OrderID int64
	Firma   string
}

type mockOrderClient struct {
	orders  []model.WorkOrder
	err     error
	upload  func(ctx context.Context, token string, id int64, firma string) (string, error)
	mu      sync.Mutex
	uploads []uploadCall
	tokens  []string
}

func (m *mockOrderClient) ListOrders(_ context.Context, token string) ([]model.WorkOrder, error) {
	m.mu.Lock()
	m.tokens = append(m.tokens, token)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

func (m *mockOrderClient) GetOrder(_ context.Context, token string, id int64) (model.WorkOrder, error) {
	m.mu.Lock()
	m.tokens = append(m.tokens, token)
	m.mu.Unlock()
	if m.err != nil {
		return model.WorkOrder{}, m.err
	}
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return model.WorkOrder{}, &model.Error{Kind: model.ErrServer, Status: 404, Message: "No encontrada"}
}

func (m *mockOrderClient) UploadSignature(ctx context.Context, token string, id int64, firma string) (string, error) {
	m.mu.Lock()
	m.uploads = append(m.uploads, uploadCall{Token: token, OrderID: id, Firma: firma})
	m.mu.Unlock()
	if m.upload != nil {
		return m.upload(ctx, token, id, firma)
	}
	return "", nil
}

func (m *mockOrderClient) uploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

// mockTempStore records writes and deletes without touching disk.
type mockTempStore struct {
	writes   atomic.Int32
	deletes  atomic.Int32
	writeErr error
}

func (m *mockTempStore) WriteBase64(_ context.Context, _ string) (string, error) {
	if m.writeErr != nil {
		return "", m.writeErr
	}
	m.writes.Add(1)
	return "/tmp/fake-signature.png", nil
}

func (m *mockTempStore) Delete(_ context.Context, _ string) error {
	m.deletes.Add(1)
	return nil
}

type mockCompressor struct {
	calls  atomic.Int32
	result string
	err    error
}

func (m *mockCompressor) Compress(_ context.Context, _ string, _ float64) (string, error) {
	m.calls.Add(1)
	if m.err != nil {
		return "", m.err
	}
	return m.result, nil
}

// surfaceFunc adapts a function to driven.CaptureSurface.
type surfaceFunc func(ctx context.Context) (model.CaptureResult, error)

func (f surfaceFunc) Capture(ctx context.Context) (model.CaptureResult, error) {
	return f(ctx)
}

func capturing(payload string) surfaceFunc {
	return func(context.Context) (model.CaptureResult, error) {
		return model.Captured(payload), nil
	}
}

var errBoom = errors.New("boom")
