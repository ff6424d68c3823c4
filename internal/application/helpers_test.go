package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bnema/parley-cli/internal/domain"
	"github.com/bnema/parley-cli/internal/ports"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// memStorage is an in-memory ports.LocalStorage with optional per-operation
// failure injection.
type memStorage struct {
	mu        sync.Mutex
	data      map[string][]byte
	setErr    error
	deleteErr error
}

func newMemStorage() *memStorage {
	return &memStorage{data: map[string][]byte{}}
}

func (m *memStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *memStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.data, key)
	return nil
}

// fakeChatService satisfies ports.ChatService; health and register behavior
// are programmable, everything else returns zero values.
type fakeChatService struct {
	mu             sync.Mutex
	healthOK       bool
	healthErr      error
	healthDelay    time.Duration
	healthCalls    int
	registerResult ports.RegisterResult
	registerErr    error
	registerCalls  int
}

func (f *fakeChatService) HealthCheck(ctx context.Context) (bool, error) {
	f.mu.Lock()
	f.healthCalls++
	ok, err, delay := f.healthOK, f.healthErr, f.healthDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(delay):
		}
	}
	return ok, err
}

func (f *fakeChatService) Register(_ context.Context, _ ports.RegisterPayload) (ports.RegisterResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls++
	return f.registerResult, f.registerErr
}

func (f *fakeChatService) ListServers(context.Context) ([]domain.Server, error) { return nil, nil }
func (f *fakeChatService) CreateServer(context.Context, string) (domain.Server, error) {
	return domain.Server{}, nil
}
func (f *fakeChatService) ListCategories(context.Context, domain.ServerID) ([]domain.Category, error) {
	return nil, nil
}
func (f *fakeChatService) ListChannels(context.Context, domain.ServerID) ([]domain.Channel, error) {
	return nil, nil
}
func (f *fakeChatService) SendMessage(context.Context, domain.ChannelID, string) error { return nil }
func (f *fakeChatService) GetServerOrdering(context.Context) ([]domain.ServerID, error) {
	return nil, nil
}
func (f *fakeChatService) SetServerOrdering(context.Context, []domain.ServerID) error { return nil }
func (f *fakeChatService) GetChannelOrdering(context.Context, domain.ServerID) (domain.ChannelOrdering, error) {
	return domain.ChannelOrdering{}, nil
}
func (f *fakeChatService) UpdateChannelOrdering(context.Context, domain.ServerID, domain.ChannelOrdering) error {
	return nil
}

func (f *fakeChatService) healthCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthCalls
}

// fakeDialer hands out the configured service, recording the identities it
// was asked to bind.
type fakeDialer struct {
	mu         sync.Mutex
	service    *fakeChatService
	dialErr    error
	identities []domain.Identity
}

func (f *fakeDialer) Dial(_ context.Context, identity domain.Identity) (ports.ChatService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identities = append(f.identities, identity)
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	return f.service, nil
}

func (f *fakeDialer) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.identities)
}

func (f *fakeDialer) lastIdentity() domain.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.identities) == 0 {
		return domain.Identity{}
	}
	return f.identities[len(f.identities)-1]
}

var errBoom = errors.New("boom")
