package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptSource asks the user for the key. Terminal input is not echoed.
type PromptSource struct {
	In  io.Reader
	Out io.Writer
}

func (s *PromptSource) Name() string { return "interactive prompt" }

func (s *PromptSource) Lookup(context.Context) (string, error) {
	if s.In == nil {
		return "", nil
	}
	out := s.Out
	if out == nil {
		out = io.Discard
	}
	fmt.Fprintln(out, "API Key not found. Please provide your key to continue.")
	fmt.Fprint(out, "Enter your Google API Key (from Google AI Studio): ")

	if f, ok := s.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := readLine(s.In)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readLine reads up to and including '\n' one byte at a time, so input meant
// for whoever reads r next is left in place.
func readLine(r io.Reader) (string, error) {
	var b strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return b.String(), nil
			}
			b.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
	}
}
