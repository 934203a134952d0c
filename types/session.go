// Package types defines core domain types shared across the emotes packages.
//
//nolint:revive // types is a common Go package naming convention
package types

import "errors"

// SessionMeta identifies one engine instance (one process lifetime).
// The session ID is stamped on every log line and published event so that
// logs from concurrent hosts sharing a mirror can be told apart.
type SessionMeta struct {
	// SessionID is a globally unique identifier for this engine instance.
	SessionID string
}

// Validate checks that the session identity is usable.
func (s *SessionMeta) Validate() error {
	if s == nil {
		return errors.New("session meta is required")
	}
	if s.SessionID == "" {
		return errors.New("session_id must be non-empty")
	}
	return nil
}
