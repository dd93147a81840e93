// Package gemini implements session.Generator on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/hooch88/serene/internal/session"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-1.5-flash"

// ConfigurationError reports a credential or client setup problem. It is fatal
// for the session.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("failed to configure the AI model, check your API key: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Client sends whole transcripts to one Gemini model.
type Client struct {
	client    *genai.Client
	modelName string
	log       logrus.FieldLogger
}

func NewClient(ctx context.Context, apiKey, modelName string, log logrus.FieldLogger) (*Client, error) {
	if err := ValidateKey(apiKey); err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{client: c, modelName: modelName, log: log.WithField("model", modelName)}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ValidateKey rejects keys that can never authenticate.
func ValidateKey(key string) error {
	if key == "" {
		return errors.New("API key is empty")
	}
	if strings.IndexFunc(key, func(r rune) bool { return r <= ' ' }) >= 0 {
		return errors.New("API key contains whitespace or control characters")
	}
	return nil
}

// Generate replays history through a fresh chat: every message but the last
// becomes chat history and the last one is sent. The last message must be a
// user message.
func (c *Client) Generate(ctx context.Context, history []session.Message, safety session.SafetyFilters) (session.Result, error) {
	past, last, err := splitRequest(history)
	if err != nil {
		return session.Result{}, err
	}

	model := c.client.GenerativeModel(c.modelName)
	model.SafetySettings = SafetySettings(safety)

	chat := model.StartChat()
	chat.History = past

	c.log.WithField("history", len(chat.History)).Debug("sending message")
	resp, err := chat.SendMessage(ctx, last...)
	return classify(resp, err)
}

// splitRequest separates the chat history from the parts of the message to send.
func splitRequest(history []session.Message) ([]*genai.Content, []genai.Part, error) {
	if len(history) == 0 {
		return nil, nil, errors.New("gemini: empty request")
	}
	last := history[len(history)-1]
	if last.Role != session.WireRoleUser {
		return nil, nil, fmt.Errorf("gemini: last message has role %q, want %q", last.Role, session.WireRoleUser)
	}
	return ToContents(history[:len(history)-1]), toParts(last.Parts), nil
}

// classify separates filtered or empty answers, which are normal outcomes,
// from real failures.
func classify(resp *genai.GenerateContentResponse, err error) (session.Result, error) {
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return session.Result{Empty: true}, nil
		}
		return session.Result{}, fmt.Errorf("gemini: %w", err)
	}
	text := getText(resp)
	if text == "" {
		return session.Result{Empty: true}, nil
	}
	return session.Result{Text: text}, nil
}

// SafetySettings maps the four category toggles onto Gemini thresholds.
func SafetySettings(f session.SafetyFilters) []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: threshold(f.Harassment)},
		{Category: genai.HarmCategoryHateSpeech, Threshold: threshold(f.HateSpeech)},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: threshold(f.SexuallyExplicit)},
		{Category: genai.HarmCategoryDangerousContent, Threshold: threshold(f.DangerousContent)},
	}
}

func threshold(on bool) genai.HarmBlockThreshold {
	if on {
		return genai.HarmBlockMediumAndAbove
	}
	return genai.HarmBlockNone
}

// ToContents converts request messages into SDK contents, keeping order and roles.
func ToContents(msgs []session.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, &genai.Content{Role: m.Role, Parts: toParts(m.Parts)})
	}
	return out
}

func toParts(parts []string) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		out = append(out, genai.Text(p))
	}
	return out
}

func getText(resp *genai.GenerateContentResponse) string {
	var text string
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				text += string(txt)
			}
		}
	}
	return text
}
