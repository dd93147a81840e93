package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hooch88/serene/internal/config"
	"github.com/hooch88/serene/internal/conversation"
	"github.com/hooch88/serene/internal/prompt"
	"github.com/hooch88/serene/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// fakeGenerator replays scripted outcomes and records every request.
type fakeGenerator struct {
	results []session.Result
	errs    []error
	calls   [][]session.Message
	safety  []session.SafetyFilters
}

func (f *fakeGenerator) Generate(_ context.Context, history []session.Message, safety session.SafetyFilters) (session.Result, error) {
	i := len(f.calls)
	f.calls = append(f.calls, history)
	f.safety = append(f.safety, safety)
	if i < len(f.errs) && f.errs[i] != nil {
		return session.Result{}, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return session.Result{Text: "ok"}, nil
}

func newSession(t *testing.T, gen session.Generator) *session.Session {
	t.Helper()
	cfg, err := config.Parse([]byte("persona: {name: Serene, role: listener}\n"), "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	logger, _ := test.NewNullLogger()
	return session.New(cfg, gen, session.WithLogger(logger))
}

func TestHandleUserTurn_HappyPath(t *testing.T) {
	gen := &fakeGenerator{results: []session.Result{{Text: "hello there"}}}
	s := newSession(t, gen)

	reply, err := s.HandleUserTurn(context.Background(), "hi")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if reply.Role != conversation.RoleAssistant || reply.Content != "hello there" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	h := s.History()
	if len(h) != 2 || h[0].Role != conversation.RoleUser || h[0].Content != "hi" || h[1] != reply {
		t.Fatalf("unexpected history: %+v", h)
	}
	if len(gen.calls) != 1 {
		t.Fatalf("want exactly one dispatch, got %d", len(gen.calls))
	}
	if gen.safety[0] != session.Unfiltered {
		t.Fatalf("dispatch must disable all built-in filters, got %+v", gen.safety[0])
	}
	if s.State() != session.Idle {
		t.Fatalf("want idle after turn, got %s", s.State())
	}
}

func TestHandleUserTurn_RequestCarriesPrimingAndFullHistory(t *testing.T) {
	gen := &fakeGenerator{results: []session.Result{{Text: "r1"}, {Text: "r2"}}}
	s := newSession(t, gen)
	ctx := context.Background()

	if _, err := s.HandleUserTurn(ctx, "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.HandleUserTurn(ctx, "second"); err != nil {
		t.Fatal(err)
	}

	req := gen.calls[1]
	want := []session.Message{
		{Role: "user", Parts: []string{s.Prompt()}},
		{Role: "model", Parts: []string{session.PrimingAcknowledgment}},
		{Role: "user", Parts: []string{"first"}},
		{Role: "model", Parts: []string{"r1"}},
		{Role: "user", Parts: []string{"second"}},
	}
	if len(req) != len(want) {
		t.Fatalf("want %d messages, got %d", len(want), len(req))
	}
	for i := range want {
		if req[i].Role != want[i].Role || len(req[i].Parts) != 1 || req[i].Parts[0] != want[i].Parts[0] {
			t.Fatalf("message %d: want %+v, got %+v", i, want[i], req[i])
		}
	}
	if !strings.Contains(req[0].Parts[0], "Your name is Serene, and you are an listener.") {
		t.Fatalf("priming prompt is not the compiled config: %q", req[0].Parts[0])
	}
}

func TestHandleUserTurn_EmptyInputIgnored(t *testing.T) {
	gen := &fakeGenerator{}
	s := newSession(t, gen)

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := s.HandleUserTurn(context.Background(), in)
		if !errors.Is(err, session.ErrEmptyInput) {
			t.Fatalf("input %q: want ErrEmptyInput, got %v", in, err)
		}
	}
	if len(s.History()) != 0 {
		t.Fatalf("empty input must not be recorded: %+v", s.History())
	}
	if len(gen.calls) != 0 {
		t.Fatalf("empty input must not dispatch, got %d calls", len(gen.calls))
	}
}

func TestHandleUserTurn_TransportErrorKeepsUserTurn(t *testing.T) {
	gen := &fakeGenerator{
		errs:    []error{errors.New("connection reset")},
		results: []session.Result{{}, {Text: "back again"}},
	}
	s := newSession(t, gen)
	ctx := context.Background()

	_, err := s.HandleUserTurn(ctx, "are you there?")
	var te *session.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("want *TransportError, got %T (%v)", err, err)
	}
	h := s.History()
	if len(h) != 1 || h[0].Role != conversation.RoleUser || h[0].Content != "are you there?" {
		t.Fatalf("want only the user turn recorded, got %+v", h)
	}
	if s.State() != session.Idle {
		t.Fatalf("session must return to idle, got %s", s.State())
	}

	reply, err := s.HandleUserTurn(ctx, "hello?")
	if err != nil {
		t.Fatalf("session should stay usable: %v", err)
	}
	if reply.Content != "back again" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	// The failed exchange is replayed as-is: two consecutive user turns.
	req := gen.calls[1]
	if len(req) != 4 || req[2].Parts[0] != "are you there?" || req[3].Parts[0] != "hello?" {
		t.Fatalf("unexpected replay: %+v", req)
	}
	if got := len(s.History()); got != 3 {
		t.Fatalf("want 3 turns, got %d", got)
	}
}

func TestHandleUserTurn_EmptyResultUsesFallback(t *testing.T) {
	tests := []struct {
		name string
		res  session.Result
	}{
		{"flagged_empty", session.Result{Empty: true}},
		{"blank_text", session.Result{Text: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, &fakeGenerator{results: []session.Result{tt.res}})
			reply, err := s.HandleUserTurn(context.Background(), "hi")
			if err != nil {
				t.Fatalf("empty result is not an error: %v", err)
			}
			if reply.Content != session.FallbackReply {
				t.Fatalf("want fallback, got %q", reply.Content)
			}
			h := s.History()
			if len(h) != 2 || h[1].Content != session.FallbackReply {
				t.Fatalf("fallback not recorded: %+v", h)
			}
		})
	}
}

func TestSession_PromptCompiledOnce(t *testing.T) {
	s := newSession(t, &fakeGenerator{})
	if s.State() != session.ConfigLoaded {
		t.Fatalf("want config_loaded before first use, got %s", s.State())
	}
	p1 := s.Prompt()
	if s.State() != session.PromptCompiled {
		t.Fatalf("want prompt_compiled, got %s", s.State())
	}
	if err := s.Ready(); err != nil {
		t.Fatal(err)
	}
	if s.State() != session.Idle {
		t.Fatalf("want idle, got %s", s.State())
	}
	if p2 := s.Prompt(); p1 != p2 {
		t.Fatal("prompt changed between calls")
	}
}

func TestSession_HaltIsTerminal(t *testing.T) {
	gen := &fakeGenerator{}
	s := newSession(t, gen)
	cause := errors.New("missing credential")
	s.Halt(cause)

	_, err := s.HandleUserTurn(context.Background(), "hi")
	if !errors.Is(err, session.ErrHalted) || !errors.Is(err, cause) {
		t.Fatalf("want ErrHalted wrapping cause, got %v", err)
	}
	if len(gen.calls) != 0 || len(s.History()) != 0 {
		t.Fatal("halted session must not record or dispatch")
	}
	s.Reset()
	if s.State() != session.Halted {
		t.Fatalf("reset must not revive a halted session, got %s", s.State())
	}
}

func TestSession_ResetClearsHistory(t *testing.T) {
	s := newSession(t, &fakeGenerator{})
	if _, err := s.HandleUserTurn(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	s.Reset()
	if len(s.History()) != 0 || s.State() != session.ConfigLoaded {
		t.Fatalf("unexpected state after reset: len=%d state=%s", len(s.History()), s.State())
	}
}

func TestSession_NoConfigCannotTakeTurns(t *testing.T) {
	s := session.New(nil, &fakeGenerator{})
	if s.State() != session.Uninitialized {
		t.Fatalf("want uninitialized, got %s", s.State())
	}
	if _, err := s.HandleUserTurn(context.Background(), "hi"); !errors.Is(err, session.ErrHalted) {
		t.Fatalf("want ErrHalted, got %v", err)
	}
}

func TestSession_LogsDoNotContainMessageText(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cfg := &config.Config{}
	s := session.New(cfg, &fakeGenerator{results: []session.Result{{Text: "secret reply"}}}, session.WithLogger(logger))

	if _, err := s.HandleUserTurn(context.Background(), "private thoughts"); err != nil {
		t.Fatal(err)
	}
	if len(hook.AllEntries()) == 0 {
		t.Fatal("expected debug entries")
	}
	for _, e := range hook.AllEntries() {
		line, _ := e.String()
		if strings.Contains(line, "private thoughts") || strings.Contains(line, "secret reply") {
			t.Fatalf("message text leaked into logs: %s", line)
		}
		if e.Data["session_id"] != s.ID() {
			t.Fatalf("entry missing session_id: %v", e.Data)
		}
	}
	if !strings.Contains(s.Prompt(), prompt.StyleHeader) {
		t.Fatal("compiled prompt missing style header")
	}
}

func TestWireRole(t *testing.T) {
	tests := map[string]string{
		conversation.RoleUser:      session.WireRoleUser,
		conversation.RoleAssistant: session.WireRoleModel,
		"system":                   session.WireRoleUser,
	}
	for in, want := range tests {
		if got := session.WireRole(in); got != want {
			t.Errorf("WireRole(%q) = %q, want %q", in, got, want)
		}
	}
}

// gatedGenerator blocks inside Generate until release is closed.
type gatedGenerator struct {
	started chan struct{}
	release chan struct{}
}

func newGatedGenerator() *gatedGenerator {
	return &gatedGenerator{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gatedGenerator) Generate(context.Context, []session.Message, session.SafetyFilters) (session.Result, error) {
	g.started <- struct{}{}
	<-g.release
	return session.Result{Text: "late reply"}, nil
}

type turnOutcome struct {
	turn conversation.Turn
	err  error
}

func startTurn(s *session.Session, text string) <-chan turnOutcome {
	done := make(chan turnOutcome, 1)
	go func() {
		turn, err := s.HandleUserTurn(context.Background(), text)
		done <- turnOutcome{turn, err}
	}()
	return done
}

func TestHandleUserTurn_AwaitingReplyIsObservable(t *testing.T) {
	gen := newGatedGenerator()
	s := newSession(t, gen)

	done := startTurn(s, "hi")
	<-gen.started

	if got := s.State(); got != session.AwaitingRemoteReply {
		t.Fatalf("want %s during dispatch, got %s", session.AwaitingRemoteReply, got)
	}
	if _, err := s.HandleUserTurn(context.Background(), "again"); !errors.Is(err, session.ErrTurnInProgress) {
		t.Fatalf("want ErrTurnInProgress, got %v", err)
	}
	if h := s.History(); len(h) != 1 || h[0].Content != "hi" {
		t.Fatalf("rejected turn must not be recorded: %+v", h)
	}

	close(gen.release)
	out := <-done
	if out.err != nil || out.turn.Content != "late reply" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if s.State() != session.Idle {
		t.Fatalf("want idle after reply, got %s", s.State())
	}
	if len(s.History()) != 2 {
		t.Fatalf("want 2 turns, got %+v", s.History())
	}
}

func TestHandleUserTurn_HaltDuringDispatch(t *testing.T) {
	gen := newGatedGenerator()
	s := newSession(t, gen)

	done := startTurn(s, "hi")
	<-gen.started
	s.Halt(errors.New("shutting down"))
	close(gen.release)

	out := <-done
	if !errors.Is(out.err, session.ErrHalted) {
		t.Fatalf("want ErrHalted, got %v", out.err)
	}
	if s.State() != session.Halted {
		t.Fatalf("halt must stick, got %s", s.State())
	}
	if h := s.History(); len(h) != 1 {
		t.Fatalf("reply must not be recorded after halt: %+v", h)
	}
}

func TestHandleUserTurn_ResetDuringDispatchDropsReply(t *testing.T) {
	gen := newGatedGenerator()
	s := newSession(t, gen)

	done := startTurn(s, "hi")
	<-gen.started
	s.Reset()
	close(gen.release)

	out := <-done
	if out.err != nil || out.turn.Content != "late reply" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if h := s.History(); len(h) != 0 {
		t.Fatalf("reply must not land in the cleared transcript: %+v", h)
	}
}
