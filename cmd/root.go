package cmd

import (
	"errors"
	"os"

	"github.com/hooch88/serene/internal/config"
	"github.com/hooch88/serene/internal/credential"
	"github.com/hooch88/serene/internal/gemini"
	"github.com/hooch88/serene/internal/logging"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// options carries the persistent flags shared by every command.
type options struct {
	configPath   string
	model        string
	envFile      string
	logLevel     string
	secretsTable string

	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "serene",
		Short: "Config-driven wellness companion chat backed by Gemini",
		Long: `serene compiles a persona, guardrails and a style guide from a YAML or JSON
configuration into one instruction prompt, then chats with a Gemini model,
replaying the full conversation on every turn.

The API key is taken from the first source that has one:
  1. Supabase secrets table (SUPABASE_URL, SUPABASE_KEY)
  2. GOOGLE_API_KEY in the environment or the .env file
  3. an interactive prompt`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Settings such as SUPABASE_URL may live in the dotenv file.
			if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := applyEnvDefaults(cmd); err != nil {
				return err
			}
			l, err := logging.New(opts.logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts.log = l
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", envOrDefault("SERENE_CONFIG", config.DefaultPath),
		"Chatbot configuration file (YAML or JSON)")
	f.StringVar(&opts.model, "model", envOrDefault("GEMINI_MODEL", gemini.DefaultModel),
		"Gemini model name")
	f.StringVar(&opts.envFile, "env-file", ".env",
		"Dotenv file to read settings and GOOGLE_API_KEY from")
	f.StringVar(&opts.logLevel, "log-level", envOrDefault("SERENE_LOG_LEVEL", "info"),
		"Log level: trace, debug, info, warn, error")
	f.StringVar(&opts.secretsTable, "secrets-table", envOrDefault("SUPABASE_SECRETS_TABLE", credential.DefaultSecretsTable),
		"Supabase table holding name/value secrets")

	cmd.AddCommand(newPromptCmd(opts))
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func Execute() error {
	return newRootCmd().Execute()
}

// loadConfig reads the chatbot configuration and logs dropped fields.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.NewLoader(opts.configPath).Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			opts.log.Info("Make sure the configuration file exists, or pass its location with --config.")
		}
		return nil, err
	}
	for _, w := range cfg.Warnings {
		opts.log.WithField("config", opts.configPath).Warn("ignored config field: " + w)
	}
	return cfg, nil
}

// envFlags maps flags to the variables that supply their default.
var envFlags = map[string]string{
	"config":        "SERENE_CONFIG",
	"model":         "GEMINI_MODEL",
	"log-level":     "SERENE_LOG_LEVEL",
	"secrets-table": "SUPABASE_SECRETS_TABLE",
}

// applyEnvDefaults re-reads flag defaults once the dotenv file is loaded.
// Flags set on the command line win.
func applyEnvDefaults(cmd *cobra.Command) error {
	flags := cmd.Flags()
	for name, key := range envFlags {
		if flags.Changed(name) {
			continue
		}
		if v := os.Getenv(key); v != "" {
			if err := flags.Set(name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
