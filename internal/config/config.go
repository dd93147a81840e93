package config

// DefaultPath is where the chatbot configuration is looked up when no path is given.
const DefaultPath = "therapist_chatbot_prompt.yaml"

// Defaults applied when a field is absent from the document.
const (
	DefaultPersonaName = "AI"
	DefaultPersonaRole = "assistant"
	DefaultRuleTitle   = "No title"

	// Banner defaults. These only affect the chat header, not the compiled prompt.
	DefaultTitle   = "Chatbot"
	DefaultTagline = "This is a safe space to talk."
)

// Config is the typed view over a chatbot configuration document.
// Optional scalars are pointers and optional lists are nil when the key is absent,
// so presence can be told apart from an empty value.
type Config struct {
	SystemPrompt  []SystemPromptBlock `yaml:"system_prompt,omitempty"`
	Persona       *Persona            `yaml:"persona,omitempty"`
	Identity      []IdentityItem      `yaml:"identity,omitempty"`
	Guardrails    []GuardrailRule     `yaml:"guardrails,omitempty"`
	ResponseStyle []StyleItem         `yaml:"response_style,omitempty"`

	// Warnings lists fields that were dropped because they had the wrong shape.
	Warnings []string `yaml:"-" json:"-"`
}

// SystemPromptBlock is one entry of the system_prompt sequence. Only the first is used.
type SystemPromptBlock struct {
	Content *string `yaml:"content,omitempty"`
}

// Persona describes who the assistant is.
type Persona struct {
	Name        *string `yaml:"name,omitempty"`
	Role        *string `yaml:"role,omitempty"`
	Description *string `yaml:"description,omitempty"`
}

// IdentityItem contributes capability and/or limitation bullets.
type IdentityItem struct {
	Capabilities []string `yaml:"capabilities,omitempty"`
	Limitations  []string `yaml:"limitations,omitempty"`
}

// GuardrailRule is a safety policy entry. ExampleUserPrompt, Response and
// ResponseTemplate are independent; each one present is rendered.
type GuardrailRule struct {
	Rule                 *string  `yaml:"rule,omitempty"`
	Description          *string  `yaml:"description,omitempty"`
	ExampleUserPrompt    *string  `yaml:"example_user_prompt,omitempty"`
	CorrectResponseLogic []string `yaml:"correct_response_logic,omitempty"`
	Response             []string `yaml:"response,omitempty"`
	ResponseTemplate     *string  `yaml:"response_template,omitempty"`
}

// StyleItem is one entry of the response style guide.
type StyleItem struct {
	Tone       *string  `yaml:"tone,omitempty"`
	Length     *string  `yaml:"length,omitempty"`
	Techniques []string `yaml:"techniques,omitempty"`
}

func valueOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// GetCoreDirective returns the content of the first system_prompt block, or "".
func (c *Config) GetCoreDirective() string {
	if c == nil || len(c.SystemPrompt) == 0 {
		return ""
	}
	return c.SystemPrompt[0].GetContent()
}

// GetPersona never returns nil.
func (c *Config) GetPersona() *Persona {
	if c == nil || c.Persona == nil {
		return &Persona{}
	}
	return c.Persona
}

func (b SystemPromptBlock) GetContent() string { return valueOr(b.Content, "") }

func (p *Persona) GetName() string {
	if p == nil {
		return DefaultPersonaName
	}
	return valueOr(p.Name, DefaultPersonaName)
}

func (p *Persona) GetRole() string {
	if p == nil {
		return DefaultPersonaRole
	}
	return valueOr(p.Role, DefaultPersonaRole)
}

func (p *Persona) GetDescription() string {
	if p == nil {
		return ""
	}
	return valueOr(p.Description, "")
}

// Title is the name shown in the chat header.
func (p *Persona) Title() string {
	if p == nil {
		return DefaultTitle
	}
	return valueOr(p.Name, DefaultTitle)
}

// Tagline is the description shown under the chat header.
func (p *Persona) Tagline() string {
	if p == nil {
		return DefaultTagline
	}
	return valueOr(p.Description, DefaultTagline)
}

func (r GuardrailRule) GetRule() string              { return valueOr(r.Rule, DefaultRuleTitle) }
func (r GuardrailRule) GetDescription() string       { return valueOr(r.Description, "") }
func (r GuardrailRule) GetExampleUserPrompt() string { return valueOr(r.ExampleUserPrompt, "") }
func (r GuardrailRule) GetResponseTemplate() string  { return valueOr(r.ResponseTemplate, "") }

func (s StyleItem) GetTone() string   { return valueOr(s.Tone, "") }
func (s StyleItem) GetLength() string { return valueOr(s.Length, "") }
