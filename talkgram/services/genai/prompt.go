package genai

import (
	"strings"
)

// MaxHistory caps how many recent messages travel to the provider on each
// turn, so long conversations do not grow the request without bound.
const MaxHistory = 12

// Message is one conversation turn as the rest of the service sees it.
type Message struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// NormalizeRole lowercases a role and folds the provider's "model" back to
// "assistant".
func NormalizeRole(role string) string {
	r := strings.ToLower(role)
	if r == "model" {
		return "assistant"
	}
	return r
}

// providerRole maps the internal "assistant" role to the wire role the
// generation API expects.
func providerRole(role string) string {
	if NormalizeRole(role) == "assistant" {
		return "model"
	}
	return "user"
}

// TruncateHistory keeps the most recent max entries, preserving order.
func TruncateHistory(history []Message, max int) []Message {
	if max > 0 && len(history) > max {
		return history[len(history)-max:]
	}
	return history
}

// BuildContents assembles the role-tagged request body from the bounded
// recent history plus the new user message. Pure; history is not mutated.
func BuildContents(history []Message, newText string, max int) []Content {
	recent := TruncateHistory(history, max)
	contents := make([]Content, 0, len(recent)+1)
	for _, m := range recent {
		contents = append(contents, Content{
			Role:  providerRole(m.Role),
			Parts: []Part{{Text: m.Text}},
		})
	}
	contents = append(contents, Content{
		Role:  "user",
		Parts: []Part{{Text: newText}},
	})
	return contents
}

// BuildTranscript is the flattened-text variant of the same window: role
// labels, the new question, and a trailing cue for the assistant turn.
func BuildTranscript(history []Message, newText string, max int) string {
	recent := TruncateHistory(history, max)
	lines := make([]string, 0, len(recent)+2)
	for _, m := range recent {
		label := "Usuário"
		if NormalizeRole(m.Role) == "assistant" {
			label = "Assistente"
		}
		lines = append(lines, label+": "+m.Text)
	}
	lines = append(lines, "Usuário: "+newText)
	lines = append(lines, "Assistente:")
	return strings.Join(lines, "\n")
}
