package domain

import "time"

// Session is the restorable authenticated state: an opaque token, an optional
// account identifier, and an expiry in epoch milliseconds. ExpiresAt of 0
// means the session never expires.
type Session struct {
	Token     string
	AccountID string
	ExpiresAt int64
}

func (s Session) Valid() bool {
	return s.Token != ""
}

func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && s.ExpiresAt < now.UnixMilli()
}

func (s Session) ExpiresAtTime() time.Time {
	if s.ExpiresAt <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.ExpiresAt)
}
