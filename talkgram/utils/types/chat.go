package types

// ChatRequest is one user turn aimed at an active conversation.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

// ChatResponse carries the assistant reply for a turn.
type ChatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
}

// StartConversationResponse is returned when a new paid conversation opens.
type StartConversationResponse struct {
	SessionID        string `json:"session_id"`
	CreditsRemaining int    `json:"credits_remaining"`
}

// ErrorResponse is the wire shape for every error payload. Code is set for
// product-level conditions the front-end matches on (e.g. "SEM_CREDITO").
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
