package models

import (
	"fmt"
	"time"
)

// Session is the web service's per-browser state: the OAuth state token, the top tracks
// fetched after login and the last critique generated for them.
type Session struct {
	id         string
	sequence   int
	state      string
	tracks     []Track
	critique   string
	isFallback bool
	expiresAt  time.Time
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewSession creates a session that expires ttl from now.
func NewSession(sequence int, state string, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		sequence:  sequence,
		state:     state,
		tracks:    []Track{},
		expiresAt: now.Add(ttl),
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Session) ID() string            { return s.id }
func (s *Session) Sequence() int         { return s.sequence }
func (s *Session) State() string         { return s.state }
func (s *Session) Tracks() []Track       { return s.tracks }
func (s *Session) Critique() string      { return s.critique }
func (s *Session) IsFallback() bool      { return s.isFallback }
func (s *Session) ExpiresAt() time.Time  { return s.expiresAt }
func (s *Session) CreatedAt() time.Time  { return s.createdAt }
func (s *Session) UpdatedAt() time.Time  { return s.updatedAt }
func (s *Session) DeletedAt() *time.Time { return s.deletedAt }

func (s *Session) SetID(id string)           { s.id = id }
func (s *Session) SetSequence(n int)         { s.sequence = n }
func (s *Session) SetCreatedAt(t time.Time)  { s.createdAt = t }
func (s *Session) SetUpdatedAt(t time.Time)  { s.updatedAt = t }
func (s *Session) SetDeletedAt(t *time.Time) { s.deletedAt = t }
func (s *Session) SetExpiresAt(t time.Time)  { s.expiresAt = t }
func (s *Session) SetState(state string)     { s.state = state }

// SetTracks replaces the stored tracks. A nil slice is stored as empty.
func (s *Session) SetTracks(tracks []Track) {
	if tracks == nil {
		tracks = []Track{}
	}
	s.tracks = tracks
}

// SetCritique stores a generated critique.
func (s *Session) SetCritique(r CritiqueResult) {
	s.critique = r.Text
	s.isFallback = r.IsFallback
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.expiresAt)
}

// Validate checks required fields.
func (s *Session) Validate() error {
	if s.id == "" {
		return fmt.Errorf("session id is required")
	}
	if s.state == "" {
		return fmt.Errorf("session state is required")
	}
	if s.expiresAt.IsZero() {
		return fmt.Errorf("session expiry is required")
	}
	return nil
}
