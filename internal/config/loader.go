package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// LoadError reports a configuration source that is missing, unreadable or
// cannot be parsed. Op is "read" or "parse".
type LoadError struct {
	Path string
	Op   string
	Err  error
}

func (e *LoadError) Error() string {
	switch {
	case errors.Is(e.Err, os.ErrNotExist):
		return fmt.Sprintf("configuration file %s was not found", e.Path)
	case e.Op == "read":
		return fmt.Sprintf("failed to read configuration file %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("failed to parse configuration file %s: %v", e.Path, e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

// FormatError reports a document that parsed but is not a mapping at the top level.
type FormatError struct {
	Path string
	Got  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("configuration file %s must contain a mapping at the top level, got %s", e.Path, e.Got)
}

// Loader reads a configuration document once and caches the outcome.
type Loader struct {
	path string

	once sync.Once
	cfg  *Config
	err  error
}

func NewLoader(path string) *Loader {
	if path == "" {
		path = DefaultPath
	}
	return &Loader{path: path}
}

func (l *Loader) Path() string { return l.path }

// Load returns the parsed configuration. Only the first call touches the file;
// later calls return the same *Config (or the same error).
func (l *Loader) Load() (*Config, error) {
	l.once.Do(func() {
		data, err := os.ReadFile(l.path)
		if err != nil {
			l.err = &LoadError{Path: l.path, Op: "read", Err: err}
			return
		}
		l.cfg, l.err = Parse(data, l.path)
	})
	return l.cfg, l.err
}

// Parse decodes a YAML or JSON document. Fields with the wrong shape are dropped
// and recorded in Config.Warnings instead of failing the whole load.
func Parse(data []byte, source string) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Path: source, Op: "parse", Err: err}
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == yaml.AliasNode && root.Alias != nil {
		root = root.Alias
	}
	if root.Kind != yaml.MappingNode {
		return nil, &FormatError{Path: source, Got: kindName(root)}
	}

	cfg := &Config{}
	if err := root.Decode(cfg); err != nil {
		var typeErr *yaml.TypeError
		if !errors.As(err, &typeErr) {
			return nil, &LoadError{Path: source, Op: "parse", Err: err}
		}
		cfg.Warnings = append(cfg.Warnings, typeErr.Errors...)
	}
	return cfg, nil
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "null"
		}
		return "a scalar"
	case yaml.DocumentNode, 0:
		return "an empty document"
	default:
		return "an unsupported node"
	}
}
