package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/parley-cli/internal/domain"
	"github.com/bnema/parley-cli/internal/ports"
)

const (
	// DefaultStartupTimeout bounds session restoration: if the probe has not
	// settled by then, the lifecycle gives up and clears the stored session.
	DefaultStartupTimeout = 15 * time.Second

	// Sessions synthesized on login expire after a fixed week.
	sessionLifetime = 7 * 24 * time.Hour
)

type AuthStatus string

const (
	AuthStatusInitializing    AuthStatus = "initializing"
	AuthStatusAuthenticated   AuthStatus = "authenticated"
	AuthStatusUnauthenticated AuthStatus = "unauthenticated"
	AuthStatusError           AuthStatus = "error"
)

// AuthLifecycle owns the client's authentication state: it restores a
// persisted session at startup (racing the connection probe against a
// timeout), and handles login, register and logout. Initializing is the only
// start state and is never re-entered once left.
type AuthLifecycle struct {
	sessions       *SessionStore
	probe          *ConnectionProbe
	clock          ports.Clock
	log            zerolog.Logger
	startupTimeout time.Duration

	mu        sync.Mutex
	status    AuthStatus
	token     string
	accountID string
	lastError string
	restored  bool
}

func NewAuthLifecycle(sessions *SessionStore, probe *ConnectionProbe, clock ports.Clock, log zerolog.Logger) *AuthLifecycle {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &AuthLifecycle{
		sessions:       sessions,
		probe:          probe,
		clock:          clock,
		log:            log,
		startupTimeout: DefaultStartupTimeout,
		status:         AuthStatusInitializing,
	}
}

// WithStartupTimeout overrides the restoration timeout. Zero or negative
// keeps the default.
func (l *AuthLifecycle) WithStartupTimeout(timeout time.Duration) *AuthLifecycle {
	if timeout > 0 {
		l.startupTimeout = timeout
	}
	return l
}

// Initialize attempts session restoration at most once. Without a stored
// session it settles on unauthenticated immediately; with one it waits for
// the probe to settle, bounded by the startup timeout, then either adopts the
// session or clears it with a reason.
func (l *AuthLifecycle) Initialize(ctx context.Context) {
	l.mu.Lock()
	if l.restored {
		l.mu.Unlock()
		return
	}
	l.restored = true
	l.mu.Unlock()

	session := l.sessions.Load(ctx)
	if session == nil {
		l.transition(AuthStatusUnauthenticated, "")
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.startupTimeout)
	defer cancel()

	state, probeErr := l.probe.WaitSettled(waitCtx)
	if waitCtx.Err() != nil && ctx.Err() == nil {
		if l.clearStored(ctx, "initialization timed out") {
			l.transition(AuthStatusUnauthenticated, "initialization timed out before the connection settled")
		}
		return
	}

	switch state {
	case ConnStateReady:
		if session.Expired(l.clock.Now()) {
			if l.clearStored(ctx, "Session expired") {
				l.transition(AuthStatusUnauthenticated, domain.ErrSessionExpired.Error())
			}
			return
		}
		l.adopt(ctx, *session)
	case ConnStateError:
		if !l.clearStored(ctx, "connection error during initialization") {
			return
		}
		message := l.probe.LastError()
		if message == "" {
			message = domain.ErrUnreachable.Error()
		}
		l.transition(AuthStatusUnauthenticated, message)
	default:
		// The outer context died before the probe settled; treat like the
		// timeout path rather than staying in initializing forever.
		if !l.clearStored(ctx, "initialization aborted") {
			return
		}
		message := "initialization aborted before the connection settled"
		if probeErr != nil {
			message = probeErr.Error()
		}
		l.transition(AuthStatusUnauthenticated, message)
	}
}

// Login requires a ready probe. The observed remote interface has no
// server-side credential verification; the client synthesizes a session
// token with a fixed seven-day expiry and the identifier as account id.
func (l *AuthLifecycle) Login(ctx context.Context, identifier, password string) (domain.Session, error) {
	_ = password

	if _, err := l.probe.Service(); err != nil {
		l.transition(AuthStatusUnauthenticated, sanitizeAuthMessage(err))
		return domain.Session{}, err
	}

	token, err := newSessionToken()
	if err != nil {
		l.transition(AuthStatusUnauthenticated, sanitizeAuthMessage(err))
		return domain.Session{}, fmt.Errorf("generate session token: %w", err)
	}

	session := domain.Session{
		Token:     token,
		AccountID: identifier,
		ExpiresAt: l.clock.Now().Add(sessionLifetime).UnixMilli(),
	}

	if err := l.sessions.Save(ctx, session); err != nil {
		l.transition(AuthStatusUnauthenticated, sanitizeAuthMessage(err))
		return domain.Session{}, err
	}

	l.adopt(ctx, session)
	return session, nil
}

// Register submits the registration request and, on structural success,
// immediately logs in with the new credentials. A failed secondary login
// surfaces ErrPostRegistrationLogin instead of the raw login error.
func (l *AuthLifecycle) Register(ctx context.Context, username, email, password string) (domain.Session, error) {
	service, err := l.probe.Service()
	if err != nil {
		l.transition(AuthStatusUnauthenticated, sanitizeAuthMessage(err))
		return domain.Session{}, err
	}

	result, err := service.Register(ctx, ports.RegisterPayload{Username: username, Email: email, Password: password})
	if err != nil {
		if isRoleAssignmentTrap(err) {
			regErr := &domain.RegistrationError{Kind: domain.RegistrationUnknown}
			l.transition(AuthStatusUnauthenticated, regErr.UserMessage())
			return domain.Session{}, regErr
		}
		l.transition(AuthStatusUnauthenticated, sanitizeAuthMessage(err))
		return domain.Session{}, fmt.Errorf("submit registration: %w", err)
	}

	if !result.Success {
		regErr := domain.NewRegistrationError(result.ErrorCode)
		l.transition(AuthStatusUnauthenticated, regErr.UserMessage())
		return domain.Session{}, regErr
	}

	session, err := l.Login(ctx, email, password)
	if err != nil {
		l.log.Warn().Err(err).Msg("login after registration failed")
		l.transition(AuthStatusUnauthenticated, "Registration succeeded but automatic login failed. Please log in manually.")
		return domain.Session{}, domain.ErrPostRegistrationLogin
	}

	return session, nil
}

// Logout clears the stored session and all local auth state unconditionally.
func (l *AuthLifecycle) Logout(ctx context.Context) {
	if err := l.sessions.Clear(ctx); err != nil {
		l.log.Warn().Err(err).Msg("clear session on logout")
	}

	l.mu.Lock()
	l.token = ""
	l.accountID = ""
	l.status = AuthStatusUnauthenticated
	l.lastError = ""
	l.mu.Unlock()

	l.probe.Connect(ctx, domain.Identity{})
}

// ClearError drops the last error message without changing status.
func (l *AuthLifecycle) ClearError() {
	l.mu.Lock()
	l.lastError = ""
	l.mu.Unlock()
}

func (l *AuthLifecycle) Status() AuthStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *AuthLifecycle) LastError() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastError
}

// Identity returns the identity of the current authenticated session, or the
// anonymous identity.
func (l *AuthLifecycle) Identity() domain.Identity {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status != AuthStatusAuthenticated {
		return domain.Identity{}
	}
	return domain.Identity{Token: l.token, AccountID: l.accountID}
}

func (l *AuthLifecycle) adopt(ctx context.Context, session domain.Session) {
	l.mu.Lock()
	l.token = session.Token
	l.accountID = session.AccountID
	l.status = AuthStatusAuthenticated
	l.lastError = ""
	l.mu.Unlock()

	// The identity changed; the probe rebinds its capability handle.
	l.probe.Connect(ctx, domain.Identity{Token: session.Token, AccountID: session.AccountID})
}

func (l *AuthLifecycle) transition(status AuthStatus, message string) {
	l.mu.Lock()
	l.status = status
	l.lastError = message
	if status != AuthStatusAuthenticated {
		l.token = ""
		l.accountID = ""
	}
	l.mu.Unlock()
}

// clearStored clears the persisted session and reports whether the caller
// may continue its transition. Local storage refusing a delete leaves the
// client in a state it cannot repair on its own, so that lands on error.
func (l *AuthLifecycle) clearStored(ctx context.Context, reason string) bool {
	if err := l.sessions.ClearWithReason(ctx, reason); err != nil {
		l.transition(AuthStatusError, err.Error())
		l.log.Error().Err(err).Str("reason", reason).Msg("clear stored session")
		return false
	}
	return true
}

func newSessionToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Legacy deployments surface authorization/role-assignment traps as raw
// transport errors during signup. Those are recognized by phrase and must
// never reach the user verbatim.
func isRoleAssignmentTrap(err error) bool {
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "assign role") ||
		strings.Contains(message, "not authorized") ||
		strings.Contains(message, "permission denied for role")
}

func sanitizeAuthMessage(err error) string {
	if errors.Is(err, domain.ErrProbeNotReady) {
		return "The connection is not ready yet. Retry once the chat service is reachable."
	}
	return err.Error()
}
