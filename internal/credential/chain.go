// Package credential finds the API key for the generation service.
//
// Sources are tried in order and the first non-empty value wins:
//
//	hosted secret store (Supabase) -> process env / .env file -> interactive prompt
//
// A source that fails is logged and skipped; only the absence of any key is fatal.
package credential

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// KeyName is the name the API key is stored under in every source.
const KeyName = "GOOGLE_API_KEY"

// Source is one place a credential may come from. An unconfigured or empty
// source returns "" and a nil error.
type Source interface {
	Name() string
	Lookup(ctx context.Context) (string, error)
}

// Credential is a resolved secret and where it came from.
type Credential struct {
	Value  string
	Source string
}

// MissingCredentialError means no source produced a key.
type MissingCredentialError struct {
	Key   string
	Tried []string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s not found (tried: %s); please provide your key to start the chat",
		e.Key, strings.Join(e.Tried, ", "))
}

type Chain struct {
	key     string
	sources []Source
	log     logrus.FieldLogger
}

func NewChain(key string, log logrus.FieldLogger, sources ...Source) *Chain {
	if key == "" {
		key = KeyName
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Chain{key: key, sources: sources, log: log}
}

// Resolve walks the sources in order and stops at the first non-empty value.
func (c *Chain) Resolve(ctx context.Context) (Credential, error) {
	tried := make([]string, 0, len(c.sources))
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return Credential{}, err
		}
		tried = append(tried, src.Name())

		v, err := src.Lookup(ctx)
		if err != nil {
			c.log.WithError(err).WithField("source", src.Name()).Warn("credential source failed; trying next")
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			c.log.WithField("source", src.Name()).Info("API key loaded")
			return Credential{Value: v, Source: src.Name()}, nil
		}
		c.log.WithField("source", src.Name()).Debug("no API key in source")
	}
	return Credential{}, &MissingCredentialError{Key: c.key, Tried: tried}
}
