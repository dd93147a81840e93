package session

import (
	"context"

	"github.com/hooch88/serene/internal/conversation"
)

// Wire roles understood by the generation service.
const (
	WireRoleUser  = "user"
	WireRoleModel = "model"
)

// PrimingAcknowledgment is the model half of the priming pair.
const PrimingAcknowledgment = "Understood. I am Serene. I will adhere to all my instructions and begin the conversation with the user."

// FallbackReply is recorded when the service returns no content.
const FallbackReply = "I'm sorry, I couldn't generate a response. Please try again."

// Message is one entry of a remote request.
type Message struct {
	Role  string
	Parts []string
}

// SafetyFilters toggles the service's four built-in content category blocks.
// true means the service filters that category.
type SafetyFilters struct {
	Harassment       bool
	HateSpeech       bool
	SexuallyExplicit bool
	DangerousContent bool
}

// Unfiltered disables every built-in block; configured guardrails are the only
// content policy.
var Unfiltered = SafetyFilters{}

// Result is the outcome of a successful dispatch. Empty is set when the
// service answered without any generated text.
type Result struct {
	Text  string
	Empty bool
}

// Generator is the remote generation capability.
type Generator interface {
	Generate(ctx context.Context, history []Message, safety SafetyFilters) (Result, error)
}

// BuildRequest returns the priming pair followed by history, with local roles
// translated to wire roles.
func BuildRequest(compiledPrompt string, history []conversation.Turn) []Message {
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs,
		Message{Role: WireRoleUser, Parts: []string{compiledPrompt}},
		Message{Role: WireRoleModel, Parts: []string{PrimingAcknowledgment}},
	)
	for _, t := range history {
		msgs = append(msgs, Message{Role: WireRole(t.Role), Parts: []string{t.Content}})
	}
	return msgs
}

// WireRole maps assistant to model; every other role is sent as user.
func WireRole(role string) string {
	if role == conversation.RoleAssistant {
		return WireRoleModel
	}
	return WireRoleUser
}
