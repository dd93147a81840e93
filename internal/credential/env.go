package credential

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// EnvSource reads the key from the process environment, then from dotenv
// files. Values already in the environment take precedence.
type EnvSource struct {
	Key   string
	Files []string
}

func NewEnvSource(key string, files ...string) *EnvSource {
	if key == "" {
		key = KeyName
	}
	return &EnvSource{Key: key, Files: files}
}

func (s *EnvSource) Name() string { return "environment" }

func (s *EnvSource) Lookup(context.Context) (string, error) {
	if v := os.Getenv(s.Key); v != "" {
		return v, nil
	}
	for _, f := range s.Files {
		vars, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("failed to read %s: %w", f, err)
		}
		if v := vars[s.Key]; v != "" {
			return v, nil
		}
	}
	return "", nil
}
