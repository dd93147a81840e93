// Package repl is the terminal chat surface: it prints the banner, reads one
// line per turn and prints each reply before accepting the next line.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hooch88/serene/internal/conversation"
	"github.com/hooch88/serene/internal/session"
)

const rule = "--------------------------------------------------"

// InputHint is shown once before the first prompt.
const InputHint = "How are you feeling today?"

// Turner handles one user turn to completion.
type Turner interface {
	HandleUserTurn(ctx context.Context, text string) (conversation.Turn, error)
}

// Banner is the header printed when the chat starts.
type Banner struct {
	Title   string
	Tagline string
}

// Run reads lines from in until EOF or ctx is done. Failed turns are reported
// inline and the loop continues; a halted session ends it.
func Run(ctx context.Context, t Turner, in io.Reader, out io.Writer, banner Banner) error {
	fmt.Fprintf(out, "%s: Your AI Wellness Companion\n", banner.Title)
	fmt.Fprintln(out, banner.Tagline)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, InputHint)

	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		reply, err := t.HandleUserTurn(ctx, scanner.Text())
		switch {
		case errors.Is(err, session.ErrEmptyInput):
			continue
		case errors.Is(err, session.ErrHalted):
			return err
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "An error occurred: %v\n", err)
			continue
		}

		fmt.Fprintln(out, rule)
		fmt.Fprintln(out, reply.Content)
		fmt.Fprintln(out, rule)
	}
	fmt.Fprintln(out)
	return scanner.Err()
}
