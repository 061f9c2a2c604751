package models

import (
	"testing"
	"time"
)

func TestTrack(t *testing.T) {
	track := Track{Name: "Motion Sickness", Artist: "Phoebe Bridgers"}
	if got := track.String(); got != "Motion Sickness - Phoebe Bridgers" {
		t.Errorf("String() = %q", got)
	}
}

func TestSession(t *testing.T) {
	t.Run("NewSession", func(t *testing.T) {
		s := NewSession(1, "state", 20*time.Minute)
		if s.Tracks() == nil {
			t.Error("expected empty, non-nil tracks")
		}
		if s.Expired(time.Now()) {
			t.Error("new session should not be expired")
		}
		if !s.Expired(time.Now().Add(21 * time.Minute)) {
			t.Error("session should be expired after ttl")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		s := NewSession(1, "state", time.Minute)
		if err := s.Validate(); err == nil {
			t.Error("expected error without id")
		}

		s.SetID("abc")
		if err := s.Validate(); err != nil {
			t.Errorf("expected valid session, got %v", err)
		}

		s.SetState("")
		if err := s.Validate(); err == nil {
			t.Error("expected error without state")
		}
	})

	t.Run("SetCritique", func(t *testing.T) {
		s := NewSession(1, "state", time.Minute)
		s.SetCritique(CritiqueResult{Text: "bad", IsFallback: true})
		if s.Critique() != "bad" || !s.IsFallback() {
			t.Errorf("unexpected critique state %q %v", s.Critique(), s.IsFallback())
		}
	})

	t.Run("SetTracks nil", func(t *testing.T) {
		s := NewSession(1, "state", time.Minute)
		s.SetTracks(nil)
		if s.Tracks() == nil {
			t.Error("nil tracks should be stored as empty")
		}
	})
}

var _ Model = (*Session)(nil)
