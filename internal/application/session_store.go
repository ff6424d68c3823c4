package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bnema/parley-cli/internal/domain"
	"github.com/bnema/parley-cli/internal/ports"
)

// Expiry values above this magnitude are backend-native nanoseconds and get
// converted to milliseconds before persisting or comparing.
const nanosecondEpochThreshold = int64(1e15)

type sessionSchema struct {
	Token     string `json:"token"`
	AccountID string `json:"accountId,omitempty"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}

// SessionStore persists a single session record under the app_session key,
// normalizing time units on the way in and validating shape on the way out.
// Corrupt stored data is treated as an absent record, never a hard failure.
type SessionStore struct {
	storage ports.LocalStorage
	clock   ports.Clock
	log     zerolog.Logger
}

func NewSessionStore(storage ports.LocalStorage, clock ports.Clock, log zerolog.Logger) *SessionStore {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SessionStore{storage: storage, clock: clock, log: log}
}

// Save persists the session. An invalid record (empty token or negative
// expiry) is logged and dropped without error; only storage failures
// propagate. Nanosecond-scale expiries are normalized to milliseconds and a
// falsy account id is omitted from the persisted form.
func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	if !session.Valid() {
		s.log.Warn().Msg("refusing to save session without a token")
		return nil
	}
	if session.ExpiresAt < 0 {
		s.log.Warn().Int64("expires_at", session.ExpiresAt).Msg("refusing to save session with unrecognized expiry")
		return nil
	}

	record := sessionSchema{
		Token:     session.Token,
		AccountID: session.AccountID,
		ExpiresAt: normalizeEpochMillis(session.ExpiresAt),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	if err := s.storage.Set(ctx, ports.KeySession, data); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}

	return nil
}

// Load returns the stored session, or nil when nothing usable is stored:
// absent key, unparseable JSON, or a missing token. An expired record also
// returns nil and is cleared as a side effect.
func (s *SessionStore) Load(ctx context.Context) *domain.Session {
	data, err := s.storage.Get(ctx, ports.KeySession)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			s.log.Warn().Err(err).Msg("read session record")
		}
		return nil
	}

	var record sessionSchema
	if err := json.Unmarshal(data, &record); err != nil {
		s.log.Warn().Err(err).Msg("stored session record is not valid JSON, treating as absent")
		return nil
	}
	if record.Token == "" {
		s.log.Warn().Msg("stored session record has no token, treating as absent")
		return nil
	}

	session := domain.Session{
		Token:     record.Token,
		AccountID: record.AccountID,
		ExpiresAt: normalizeEpochMillis(record.ExpiresAt),
	}

	if session.Expired(s.clock.Now()) {
		s.ClearWithReason(ctx, "Session expired")
		return nil
	}

	return &session
}

// IsValid reports whether a restorable session is currently stored.
func (s *SessionStore) IsValid(ctx context.Context) bool {
	return s.Load(ctx) != nil
}

// Clear removes the stored session record unconditionally.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, ports.KeySession); err != nil {
		return fmt.Errorf("clear session record: %w", err)
	}
	return nil
}

// ClearWithReason clears the record and emits a diagnostic naming why.
func (s *SessionStore) ClearWithReason(ctx context.Context, reason string) error {
	s.log.Info().Str("reason", reason).Msg("clearing stored session")
	return s.Clear(ctx)
}

func normalizeEpochMillis(v int64) int64 {
	if v > nanosecondEpochThreshold {
		return v / 1e6
	}
	return v
}
