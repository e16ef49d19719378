package session

import (
	"time"

	"talkgram/talkgram/services/genai"
)

// State is the explicit per-conversation state. The scattered booleans of the
// original UI (isLoading, hasActiveChat, cooldown) collapse into this enum;
// "no active chat" is simply the absence of a session record.
type State string

const (
	StateIdle     State = "idle"
	StateSending  State = "sending"
	StateCooldown State = "cooldown"
)

// ChatSession is the per-conversation transcript and state. It lives only in
// the session store, never in the user record.
type ChatSession struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	State         State           `json:"state"`
	History       []genai.Message `json:"history"`
	CooldownUntil time.Time       `json:"cooldown_until"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int64           `json:"version"` // optimistic locking in the store
}

// EffectiveState resolves an expired cooldown back to idle without writing.
func (s *ChatSession) EffectiveState(now time.Time) State {
	if s.State == StateCooldown && now.After(s.CooldownUntil) {
		return StateIdle
	}
	return s.State
}

// BeginSend validates the idle → sending transition. It rejects a submit
// while another turn is outstanding or the cooldown window is still open.
func (s *ChatSession) BeginSend(now time.Time) error {
	switch s.EffectiveState(now) {
	case StateSending:
		return ErrAlreadySending
	case StateCooldown:
		return ErrCooldownActive
	}
	s.State = StateSending
	return nil
}

// FinishSend closes the turn, entering the cooldown window when one is
// configured. Called on success and failure alike.
func (s *ChatSession) FinishSend(now time.Time, cooldown time.Duration) error {
	if s.State != StateSending {
		return ErrNotSending
	}
	if cooldown > 0 {
		s.State = StateCooldown
		s.CooldownUntil = now.Add(cooldown)
	} else {
		s.State = StateIdle
	}
	return nil
}

// Append adds one message to the transcript. Insertion order is the
// conversation order.
func (s *ChatSession) Append(role, text string) {
	s.History = append(s.History, genai.Message{Role: role, Text: text})
}
