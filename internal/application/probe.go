package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/parley-cli/internal/domain"
	"github.com/bnema/parley-cli/internal/ports"
)

// DefaultHealthTimeout bounds the single health-check call of a probe
// generation.
const DefaultHealthTimeout = 10 * time.Second

type ConnectionState string

const (
	ConnStateLoading ConnectionState = "loading"
	ConnStateReady   ConnectionState = "ready"
	ConnStateError   ConnectionState = "error"
)

// ConnectionProbe constructs a capability handle for the current identity and
// verifies the remote service answers a health check within the timeout.
// Every identity change or retry starts a new generation; a generation
// captures the counter at start and only commits its outcome while it is
// still the newest, so a slow stale probe can never overwrite a newer result.
type ConnectionProbe struct {
	dialer  ports.ChatDialer
	timeout time.Duration
	log     zerolog.Logger

	mu         sync.Mutex
	generation uint64
	identity   domain.Identity
	state      ConnectionState
	lastErr    error
	service    ports.ChatService
	settled    chan struct{}
}

func NewConnectionProbe(dialer ports.ChatDialer, timeout time.Duration, log zerolog.Logger) *ConnectionProbe {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}

	return &ConnectionProbe{
		dialer:  dialer,
		timeout: timeout,
		log:     log,
		state:   ConnStateLoading,
	}
}

// Connect begins a new probe generation bound to the given identity. Any
// in-flight generation is superseded immediately: its eventual outcome is
// discarded and waiters are moved onto the new generation.
func (p *ConnectionProbe) Connect(ctx context.Context, identity domain.Identity) {
	p.mu.Lock()
	if p.settled != nil && p.state == ConnStateLoading {
		// The previous generation is still in flight; release its waiters so
		// they re-queue on the new generation.
		close(p.settled)
	}
	p.generation++
	generation := p.generation
	p.identity = identity
	p.state = ConnStateLoading
	p.lastErr = nil
	p.service = nil
	p.settled = make(chan struct{})
	settled := p.settled
	p.mu.Unlock()

	p.log.Debug().Uint64("generation", generation).Bool("anonymous", identity.Anonymous()).Msg("probing chat service")
	go p.run(ctx, generation, identity, settled)
}

// Retry restarts handle construction and the health probe for the current
// identity. It never reuses a handle from a prior generation.
func (p *ConnectionProbe) Retry(ctx context.Context) {
	p.mu.Lock()
	identity := p.identity
	p.mu.Unlock()

	p.Connect(ctx, identity)
}

func (p *ConnectionProbe) run(ctx context.Context, generation uint64, identity domain.Identity, settled chan struct{}) {
	service, err := p.dialer.Dial(ctx, identity)
	if err != nil {
		p.finish(generation, settled, nil, fmt.Errorf("construct chat service handle: %w", err))
		return
	}

	healthCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ok, err := service.HealthCheck(healthCtx)
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		p.finish(generation, settled, nil, fmt.Errorf("%w: the chat service may not be running or is unresponsive", domain.ErrProbeTimeout))
	case err != nil:
		p.finish(generation, settled, nil, fmt.Errorf("%w: %v", domain.ErrUnreachable, err))
	case !ok:
		p.finish(generation, settled, nil, fmt.Errorf("%w: health check reported not ok", domain.ErrUnreachable))
	default:
		p.finish(generation, settled, service, nil)
	}
}

func (p *ConnectionProbe) finish(generation uint64, settled chan struct{}, service ports.ChatService, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if generation != p.generation {
		// Superseded. The generation that replaced us already closed our
		// settled channel; the result is discarded unseen.
		p.log.Debug().Uint64("generation", generation).Msg("discarding superseded probe result")
		return
	}

	if err != nil {
		p.state = ConnStateError
		p.lastErr = err
		p.log.Warn().Err(err).Uint64("generation", generation).Msg("probe failed")
	} else {
		p.state = ConnStateReady
		p.service = service
		p.log.Debug().Uint64("generation", generation).Msg("probe succeeded")
	}
	close(settled)
}

// WaitSettled blocks until the current generation reaches ready or error, or
// the context ends. A generation superseded mid-wait moves the wait onto its
// successor.
func (p *ConnectionProbe) WaitSettled(ctx context.Context) (ConnectionState, error) {
	for {
		p.mu.Lock()
		state := p.state
		lastErr := p.lastErr
		settled := p.settled
		p.mu.Unlock()

		if state != ConnStateLoading {
			return state, lastErr
		}
		if settled == nil {
			return ConnStateLoading, errors.New("probe has not been started")
		}

		select {
		case <-ctx.Done():
			return ConnStateLoading, ctx.Err()
		case <-settled:
		}
	}
}

func (p *ConnectionProbe) State() ConnectionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// LastError returns the message of the most recent probe failure, or the
// empty string.
func (p *ConnectionProbe) LastError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastErr == nil {
		return ""
	}
	return p.lastErr.Error()
}

// Service returns the capability handle of the current ready generation.
func (p *ConnectionProbe) Service() (ports.ChatService, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != ConnStateReady || p.service == nil {
		return nil, domain.ErrProbeNotReady
	}
	return p.service, nil
}
