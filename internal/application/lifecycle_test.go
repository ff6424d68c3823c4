package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/parley-cli/internal/domain"
	"github.com/bnema/parley-cli/internal/ports"
)

type lifecycleFixture struct {
	storage   *memStorage
	dialer    *fakeDialer
	service   *fakeChatService
	sessions  *SessionStore
	probe     *ConnectionProbe
	lifecycle *AuthLifecycle
	now       time.Time
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	storage := newMemStorage()
	service := &fakeChatService{healthOK: true}
	dialer := &fakeDialer{service: service}
	clock := fixedClock{now: now}

	sessions := NewSessionStore(storage, clock, zerolog.Nop())
	probe := NewConnectionProbe(dialer, time.Second, zerolog.Nop())

	return &lifecycleFixture{
		storage:   storage,
		dialer:    dialer,
		service:   service,
		sessions:  sessions,
		probe:     probe,
		lifecycle: NewAuthLifecycle(sessions, probe, clock, zerolog.Nop()),
		now:       now,
	}
}

func (f *lifecycleFixture) storeSession(t *testing.T, session domain.Session) {
	t.Helper()
	require.NoError(t, f.sessions.Save(context.Background(), session))
}

func TestInitializeWithoutStoredSession(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	require.Equal(t, AuthStatusInitializing, f.lifecycle.Status())

	f.lifecycle.Initialize(context.Background())

	assert.Equal(t, AuthStatusUnauthenticated, f.lifecycle.Status())
	assert.Empty(t, f.lifecycle.LastError())
	// No stored session means no probe wait either.
	assert.Zero(t, f.dialer.dialCount())
}

func TestInitializeRestoresStoredSession(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	session := domain.Session{Token: "tok", AccountID: "alice", ExpiresAt: f.now.Add(time.Hour).UnixMilli()}
	f.storeSession(t, session)

	f.probe.Connect(context.Background(), domain.Identity{})
	f.lifecycle.Initialize(context.Background())

	assert.Equal(t, AuthStatusAuthenticated, f.lifecycle.Status())
	assert.Equal(t, domain.Identity{Token: "tok", AccountID: "alice"}, f.lifecycle.Identity())

	// Adoption rebinds the probe to the restored identity.
	state, err := f.probe.WaitSettled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ConnStateReady, state)
	assert.Equal(t, domain.Identity{Token: "tok", AccountID: "alice"}, f.dialer.lastIdentity())
}

func TestInitializeClearsExpiredSession(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)

	// Write the expired record directly; Save would be a no-op round trip and
	// Load would clear it before Initialize even saw it.
	raw, err := json.Marshal(sessionSchema{Token: "tok", ExpiresAt: f.now.Add(-time.Minute).UnixMilli()})
	require.NoError(t, err)
	require.NoError(t, f.storage.Set(context.Background(), ports.KeySession, raw))

	f.probe.Connect(context.Background(), domain.Identity{})
	f.lifecycle.Initialize(context.Background())

	assert.Equal(t, AuthStatusUnauthenticated, f.lifecycle.Status())
	_, err = f.storage.Get(context.Background(), ports.KeySession)
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestInitializeProbeErrorClearsSessionAndReportsIt(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	f.service.healthErr = errBoom
	f.storeSession(t, domain.Session{Token: "tok", ExpiresAt: f.now.Add(time.Hour).UnixMilli()})

	f.probe.Connect(context.Background(), domain.Identity{})
	f.lifecycle.Initialize(context.Background())

	assert.Equal(t, AuthStatusUnauthenticated, f.lifecycle.Status())
	assert.Contains(t, f.lifecycle.LastError(), "unreachable")
	_, err := f.storage.Get(context.Background(), ports.KeySession)
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestInitializeTimesOutAndClearsSession(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	f.service.healthDelay = time.Second
	f.storeSession(t, domain.Session{Token: "tok", ExpiresAt: f.now.Add(time.Hour).UnixMilli()})
	f.lifecycle.WithStartupTimeout(20 * time.Millisecond)

	f.probe.Connect(context.Background(), domain.Identity{})
	f.lifecycle.Initialize(context.Background())

	assert.Equal(t, AuthStatusUnauthenticated, f.lifecycle.Status())
	assert.Contains(t, f.lifecycle.LastError(), "timed out")
	_, err := f.storage.Get(context.Background(), ports.KeySession)
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestInitializeRunsAtMostOnce(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	f.lifecycle.Initialize(context.Background())
	require.Equal(t, AuthStatusUnauthenticated, f.lifecycle.Status())

	// A session stored afterwards must not be picked up by a second call.
	f.storeSession(t, domain.Session{Token: "tok", ExpiresAt: f.now.Add(time.Hour).UnixMilli()})
	f.lifecycle.Initialize(context.Background())

	assert.Equal(t, AuthStatusUnauthenticated, f.lifecycle.Status())
}

func TestInitializeStorageDeleteFailureLandsOnError(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	f.service.healthErr = errBoom
	f.storeSession(t, domain.Session{Token: "tok", ExpiresAt: f.now.Add(time.Hour).UnixMilli()})
	f.storage.deleteErr = errors.New("disk is read-only")

	f.probe.Connect(context.Background(), domain.Identity{})
	f.lifecycle.Initialize(context.Background())

	assert.Equal(t, AuthStatusError, f.lifecycle.Status())
	assert.Contains(t, f.lifecycle.LastError(), "read-only")
}

func TestLoginRequiresReadyProbe(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	f.lifecycle.Initialize(context.Background())

	_, err := f.lifecycle.Login(context.Background(), "alice", "secret")

	assert.ErrorIs(t, err, domain.ErrProbeNotReady)
	assert.Equal(t, AuthStatusUnauthenticated, f.lifecycle.Status())
	assert.Contains(t, f.lifecycle.LastError(), "not ready")
}

func TestLoginPersistsAndAdoptsSession(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	f.probe.Connect(context.Background(), domain.Identity{})
	_, err := f.probe.WaitSettled(context.Background())
	require.NoError(t, err)
	f.lifecycle.Initialize(context.Background())

	session, err := f.lifecycle.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "alice", session.AccountID)
	assert.Equal(t, f.now.Add(sessionLifetime).UnixMilli(), session.ExpiresAt)

	assert.Equal(t, AuthStatusAuthenticated, f.lifecycle.Status())
	assert.Equal(t, session.Token, f.lifecycle.Identity().Token)

	loaded := f.sessions.Load(context.Background())
	require.NotNil(t, loaded)
	assert.Equal(t, session, *loaded)
}

func TestLoginStorageFailureStaysUnauthenticated(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	f.probe.Connect(context.Background(), domain.Identity{})
	_, err := f.probe.WaitSettled(context.Background())
	require.NoError(t, err)
	f.storage.setErr = errBoom

	_, err = f.lifecycle.Login(context.Background(), "alice", "secret")

	assert.ErrorIs(t, err, errBoom)
	assert.NotEqual(t, AuthStatusAuthenticated, f.lifecycle.Status())
}

func TestRegisterSuccessChainsIntoLogin(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	f.service.registerResult = ports.RegisterResult{Success: true}
	f.probe.Connect(context.Background(), domain.Identity{})
	_, err := f.probe.WaitSettled(context.Background())
	require.NoError(t, err)

	session, err := f.lifecycle.Register(context.Background(), "alice", "alice@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", session.AccountID)
	assert.Equal(t, AuthStatusAuthenticated, f.lifecycle.Status())
}

func TestRegisterStructuredFailureMapsToTaxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code    string
		kind    domain.RegistrationErrorKind
		message string
	}{
		{"already_registered", domain.RegistrationAlreadyRegistered, "already exists"},
		{"username_taken", domain.RegistrationUsernameOrEmailTaken, "already taken"},
		{"email_taken", domain.RegistrationUsernameOrEmailTaken, "already taken"},
		{"mystery", domain.RegistrationUnknown, "try again"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()

			f := newLifecycleFixture(t)
			f.service.registerResult = ports.RegisterResult{Success: false, ErrorCode: tt.code}
			f.probe.Connect(context.Background(), domain.Identity{})
			_, err := f.probe.WaitSettled(context.Background())
			require.NoError(t, err)

			_, err = f.lifecycle.Register(context.Background(), "alice", "alice@example.com", "secret")

			var regErr *domain.RegistrationError
			require.ErrorAs(t, err, &regErr)
			assert.Equal(t, tt.kind, regErr.Kind)
			assert.Contains(t, f.lifecycle.LastError(), tt.message)
		})
	}
}

func TestRegisterRewritesRoleAssignmentTrap(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	f.service.registerErr = errors.New(`permission denied for role "anon": cannot assign role`)
	f.probe.Connect(context.Background(), domain.Identity{})
	_, err := f.probe.WaitSettled(context.Background())
	require.NoError(t, err)

	_, err = f.lifecycle.Register(context.Background(), "alice", "alice@example.com", "secret")

	var regErr *domain.RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, domain.RegistrationUnknown, regErr.Kind)
	assert.NotContains(t, f.lifecycle.LastError(), "role")
}

func TestRegisterPostLoginFailureSurfacesDedicatedError(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	f.service.registerResult = ports.RegisterResult{Success: true}
	f.probe.Connect(context.Background(), domain.Identity{})
	_, err := f.probe.WaitSettled(context.Background())
	require.NoError(t, err)

	// Registration succeeds, then persisting the login session fails.
	f.storage.setErr = errBoom

	_, err = f.lifecycle.Register(context.Background(), "alice", "alice@example.com", "secret")

	assert.ErrorIs(t, err, domain.ErrPostRegistrationLogin)
	assert.Contains(t, f.lifecycle.LastError(), "log in manually")
}

func TestLogoutClearsEverything(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	f.probe.Connect(context.Background(), domain.Identity{})
	_, err := f.probe.WaitSettled(context.Background())
	require.NoError(t, err)

	_, err = f.lifecycle.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	f.lifecycle.Logout(context.Background())

	assert.Equal(t, AuthStatusUnauthenticated, f.lifecycle.Status())
	assert.Equal(t, domain.Identity{}, f.lifecycle.Identity())
	assert.Nil(t, f.sessions.Load(context.Background()))

	// The probe rebinds anonymously.
	_, err = f.probe.WaitSettled(context.Background())
	require.NoError(t, err)
	assert.True(t, f.dialer.lastIdentity().Anonymous())
}

func TestClearErrorKeepsStatus(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	f.lifecycle.Initialize(context.Background())
	_, err := f.lifecycle.Login(context.Background(), "alice", "secret")
	require.Error(t, err)
	require.NotEmpty(t, f.lifecycle.LastError())

	f.lifecycle.ClearError()

	assert.Empty(t, f.lifecycle.LastError())
	assert.Equal(t, AuthStatusUnauthenticated, f.lifecycle.Status())
}
