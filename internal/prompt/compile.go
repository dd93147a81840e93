// Package prompt turns a chatbot configuration into the single instruction
// string delivered to the model at the start of every request.
//
// The output layout is fixed: core directive, persona & identity, safety
// guardrails, response style guide. Every section header is always present,
// so two configs that differ only in optional fields produce diffable output.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hooch88/serene/internal/config"
)

// Section headers.
const (
	PersonaHeader    = "--- PERSONA & IDENTITY ---"
	GuardrailsHeader = "--- SAFETY GUARDRAILS (Strictly Follow These Rules) ---"
	StyleHeader      = "--- RESPONSE STYLE GUIDE ---"
)

const (
	fixedResponseLead = "If this rule is triggered, you MUST immediately stop any other line of conversation and use this exact response:"
	templateLead      = "When this rule is triggered, you must use this response template:"
)

// Compile renders cfg. It is pure and never fails; a nil cfg renders as an
// empty configuration.
func Compile(cfg *config.Config) string {
	if cfg == nil {
		cfg = &config.Config{}
	}

	parts := []string{cfg.GetCoreDirective()}
	parts = append(parts, identityParts(cfg)...)
	parts = append(parts, guardrailParts(cfg.Guardrails)...)
	parts = append(parts, styleParts(cfg.ResponseStyle)...)

	return strings.Join(parts, "\n")
}

func identityParts(cfg *config.Config) []string {
	p := cfg.GetPersona()
	parts := []string{fmt.Sprintf("\n%s\nYour name is %s, and you are an %s. %s",
		PersonaHeader, p.GetName(), p.GetRole(), p.GetDescription())}

	for _, item := range cfg.Identity {
		if item.Capabilities != nil {
			parts = append(parts, "\nYour capabilities are:\n"+bullets(item.Capabilities))
		}
		if item.Limitations != nil {
			parts = append(parts, "\nYour non-negotiable limitations are:\n"+bullets(item.Limitations))
		}
	}
	return parts
}

func guardrailParts(rules []config.GuardrailRule) []string {
	parts := []string{"\n\n" + GuardrailsHeader}
	for i, rule := range rules {
		parts = append(parts, renderRule(i+1, rule))
	}
	return parts
}

// renderRule numbers rules by position; identifiers in the data are ignored.
func renderRule(n int, rule config.GuardrailRule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n# Guardrail Rule %d: %s\n", n, rule.GetRule())
	fmt.Fprintf(&b, "Description: %s\n", rule.GetDescription())

	if rule.ExampleUserPrompt != nil {
		fmt.Fprintf(&b, "Example Trigger: A user might say something like, '%s'\n", rule.GetExampleUserPrompt())
		steps := make([]string, len(rule.CorrectResponseLogic))
		for i, step := range rule.CorrectResponseLogic {
			steps[i] = "  - " + step
		}
		b.WriteString("Correct Response Logic:\n" + strings.Join(steps, "\n") + "\n")
	}
	if rule.Response != nil {
		b.WriteString(fixedResponseLead + "\n" + strings.Join(rule.Response, "\n") + "\n")
	}
	if rule.ResponseTemplate != nil {
		fmt.Fprintf(&b, "%s '%s'\n", templateLead, rule.GetResponseTemplate())
	}
	return b.String()
}

func styleParts(items []config.StyleItem) []string {
	parts := []string{"\n\n" + StyleHeader}
	for _, item := range items {
		if item.Tone != nil {
			parts = append(parts, "Tone: "+item.GetTone())
		}
		if item.Length != nil {
			parts = append(parts, "Length: "+item.GetLength())
		}
		if item.Techniques != nil {
			parts = append(parts, "Techniques to use:\n"+bullets(item.Techniques))
		}
	}
	return parts
}

// bullets renders items as "- item" lines. An empty list still yields the
// leading marker.
func bullets(items []string) string {
	return "- " + strings.Join(items, "\n- ")
}
