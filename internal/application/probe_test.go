package application

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/parley-cli/internal/domain"
)

func TestProbeReachesReady(t *testing.T) {
	t.Parallel()

	dialer := &fakeDialer{service: &fakeChatService{healthOK: true}}
	probe := NewConnectionProbe(dialer, time.Second, zerolog.Nop())

	probe.Connect(context.Background(), domain.Identity{})

	state, err := probe.WaitSettled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ConnStateReady, state)

	service, err := probe.Service()
	require.NoError(t, err)
	assert.NotNil(t, service)
	assert.Empty(t, probe.LastError())
}

func TestProbeDialFailureSkipsHealthCheck(t *testing.T) {
	t.Parallel()

	service := &fakeChatService{healthOK: true}
	dialer := &fakeDialer{service: service, dialErr: errBoom}
	probe := NewConnectionProbe(dialer, time.Second, zerolog.Nop())

	probe.Connect(context.Background(), domain.Identity{})

	state, err := probe.WaitSettled(context.Background())
	assert.Equal(t, ConnStateError, state)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, service.healthCallCount())

	_, err = probe.Service()
	assert.ErrorIs(t, err, domain.ErrProbeNotReady)
}

func TestProbeHealthErrorIsUnreachable(t *testing.T) {
	t.Parallel()

	dialer := &fakeDialer{service: &fakeChatService{healthErr: errBoom}}
	probe := NewConnectionProbe(dialer, time.Second, zerolog.Nop())

	probe.Connect(context.Background(), domain.Identity{})

	state, err := probe.WaitSettled(context.Background())
	assert.Equal(t, ConnStateError, state)
	assert.ErrorIs(t, err, domain.ErrUnreachable)
}

func TestProbeHealthNotOKIsUnreachable(t *testing.T) {
	t.Parallel()

	dialer := &fakeDialer{service: &fakeChatService{healthOK: false}}
	probe := NewConnectionProbe(dialer, time.Second, zerolog.Nop())

	probe.Connect(context.Background(), domain.Identity{})

	state, err := probe.WaitSettled(context.Background())
	assert.Equal(t, ConnStateError, state)
	assert.ErrorIs(t, err, domain.ErrUnreachable)
}

func TestProbeSlowHealthCheckTimesOut(t *testing.T) {
	t.Parallel()

	dialer := &fakeDialer{service: &fakeChatService{healthOK: true, healthDelay: 500 * time.Millisecond}}
	probe := NewConnectionProbe(dialer, 20*time.Millisecond, zerolog.Nop())

	probe.Connect(context.Background(), domain.Identity{})

	state, err := probe.WaitSettled(context.Background())
	assert.Equal(t, ConnStateError, state)
	assert.ErrorIs(t, err, domain.ErrProbeTimeout)
}

func TestProbeRetryStartsFreshGeneration(t *testing.T) {
	t.Parallel()

	dialer := &fakeDialer{service: &fakeChatService{healthErr: errBoom}}
	probe := NewConnectionProbe(dialer, time.Second, zerolog.Nop())

	identity := domain.Identity{Token: "tok", AccountID: "alice"}
	probe.Connect(context.Background(), identity)
	state, _ := probe.WaitSettled(context.Background())
	require.Equal(t, ConnStateError, state)

	// The service recovers; a retry must dial again with the same identity.
	dialer.service.mu.Lock()
	dialer.service.healthErr = nil
	dialer.service.healthOK = true
	dialer.service.mu.Unlock()

	probe.Retry(context.Background())

	state, err := probe.WaitSettled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ConnStateReady, state)
	assert.Equal(t, 2, dialer.dialCount())
	assert.Equal(t, identity, dialer.lastIdentity())
}

func TestProbeSupersededGenerationCannotCommit(t *testing.T) {
	t.Parallel()

	slow := &fakeChatService{healthErr: errBoom, healthDelay: 200 * time.Millisecond}
	fast := &fakeChatService{healthOK: true}
	dialer := &fakeDialer{service: slow}
	probe := NewConnectionProbe(dialer, time.Second, zerolog.Nop())

	probe.Connect(context.Background(), domain.Identity{})

	// Supersede the slow failing probe before it settles.
	dialer.mu.Lock()
	dialer.service = fast
	dialer.mu.Unlock()
	probe.Connect(context.Background(), domain.Identity{Token: "tok"})

	state, err := probe.WaitSettled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ConnStateReady, state)

	// Give the stale generation time to finish and try to commit.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, ConnStateReady, probe.State())
	assert.Empty(t, probe.LastError())
}

func TestProbeWaitSettledHonorsContext(t *testing.T) {
	t.Parallel()

	dialer := &fakeDialer{service: &fakeChatService{healthOK: true, healthDelay: time.Second}}
	probe := NewConnectionProbe(dialer, 5*time.Second, zerolog.Nop())

	probe.Connect(context.Background(), domain.Identity{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	state, err := probe.WaitSettled(ctx)
	assert.Equal(t, ConnStateLoading, state)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProbeWaitBeforeConnect(t *testing.T) {
	t.Parallel()

	probe := NewConnectionProbe(&fakeDialer{}, time.Second, zerolog.Nop())

	state, err := probe.WaitSettled(context.Background())
	assert.Equal(t, ConnStateLoading, state)
	assert.Error(t, err)
}
