package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hooch88/serene/internal/config"
	"github.com/hooch88/serene/internal/conversation"
	"github.com/hooch88/serene/internal/prompt"
	"github.com/sirupsen/logrus"
)

// Session owns the state of one conversation: the loaded config, the compiled
// prompt (computed once) and the transcript.
type Session struct {
	mu sync.Mutex

	id    string
	cfg   *config.Config
	gen   Generator
	store *conversation.Store
	log   logrus.FieldLogger

	compiled    string
	hasCompiled bool
	state       State
	haltErr     error
	// epoch changes on Reset so an in-flight reply can tell its transcript is gone.
	epoch uint64
}

type Option func(*Session)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.log = l }
}

func New(cfg *config.Config, gen Generator, opts ...Option) *Session {
	s := &Session{
		id:    uuid.NewString(),
		cfg:   cfg,
		gen:   gen,
		store: conversation.NewStore(),
		log:   logrus.StandardLogger(),
		state: Uninitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("session_id", s.id)
	if cfg != nil {
		s.state = ConfigLoaded
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Prompt returns the compiled instruction string, compiling it on first use.
func (s *Session) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promptLocked()
}

func (s *Session) promptLocked() string {
	if !s.hasCompiled {
		s.compiled = prompt.Compile(s.cfg)
		s.hasCompiled = true
		if s.state == ConfigLoaded {
			s.state = PromptCompiled
		}
		s.log.WithField("prompt_bytes", len(s.compiled)).Debug("compiled system prompt")
	}
	return s.compiled
}

// Ready compiles the prompt if needed and moves the session to Idle.
func (s *Session) Ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyLocked()
}

func (s *Session) readyLocked() error {
	switch s.state {
	case Halted:
		return s.haltedErr()
	case Uninitialized:
		return fmt.Errorf("%w: no configuration loaded", ErrHalted)
	}
	s.promptLocked()
	if s.state == PromptCompiled {
		s.state = Idle
	}
	return nil
}

// Halt stops the session for good. Later turns fail with ErrHalted.
func (s *Session) Halt(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Halted
	s.haltErr = cause
	s.log.WithError(cause).Error("session halted")
}

func (s *Session) haltedErr() error {
	if s.haltErr == nil {
		return ErrHalted
	}
	return fmt.Errorf("%w: %w", ErrHalted, s.haltErr)
}

// History returns a copy of the transcript.
func (s *Session) History() []conversation.Turn {
	return s.store.Snapshot()
}

// Reset clears the transcript and the cached prompt. A halted session stays halted.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Reset()
	s.epoch++
	s.compiled, s.hasCompiled = "", false
	if s.state != Halted && s.cfg != nil {
		s.state = ConfigLoaded
	}
}

// HandleUserTurn records text, dispatches the full transcript once and
// returns the assistant's reply.
//
// Blank input returns ErrEmptyInput without touching history. A dispatch
// failure returns a *TransportError; the user's turn stays recorded and no
// reply is added. The lock is released while the remote call runs, so State
// reports AwaitingRemoteReply and a second turn fails with ErrTurnInProgress.
func (s *Session) HandleUserTurn(ctx context.Context, text string) (conversation.Turn, error) {
	req, log, epoch, err := s.beginTurn(text)
	if err != nil {
		return conversation.Turn{}, err
	}
	log.WithField("messages", len(req)).Debug("dispatching request")
	res, err := s.gen.Generate(ctx, req, Unfiltered)
	return s.finishTurn(log, epoch, res, err)
}

func (s *Session) beginTurn(text string) ([]Message, logrus.FieldLogger, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Halted:
		return nil, nil, 0, s.haltedErr()
	case AwaitingRemoteReply:
		return nil, nil, 0, ErrTurnInProgress
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil, 0, ErrEmptyInput
	}
	if err := s.readyLocked(); err != nil {
		return nil, nil, 0, err
	}

	log := s.log.WithField("turn_id", uuid.NewString())
	s.store.Append(conversation.Turn{Role: conversation.RoleUser, Content: text})
	req := BuildRequest(s.compiled, s.store.Snapshot())
	s.state = AwaitingRemoteReply
	return req, log, s.epoch, nil
}

func (s *Session) finishTurn(log logrus.FieldLogger, epoch uint64, res Result, err error) (conversation.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == AwaitingRemoteReply {
		s.state = Idle
	}
	if s.state == Halted {
		return conversation.Turn{}, s.haltedErr()
	}
	if err != nil {
		log.WithError(err).Warn("generation failed; user turn kept without reply")
		var te *TransportError
		if errors.As(err, &te) {
			return conversation.Turn{}, te
		}
		return conversation.Turn{}, &TransportError{Err: err}
	}

	reply := res.Text
	if res.Empty || reply == "" {
		log.Info("empty generation result; using fallback reply")
		reply = FallbackReply
	}
	turn := conversation.Turn{Role: conversation.RoleAssistant, Content: reply}
	if s.epoch != epoch {
		log.Info("transcript reset during dispatch; reply not recorded")
		return turn, nil
	}
	s.store.Append(turn)

	log.WithFields(logrus.Fields{
		"history_len": s.store.Len(),
		"reply_bytes": len(reply),
	}).Debug("turn complete")
	return turn, nil
}
