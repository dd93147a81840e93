package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/hooch88/serene/internal/credential"
	"github.com/hooch88/serene/internal/gemini"
	"github.com/hooch88/serene/internal/repl"
	"github.com/hooch88/serene/internal/session"
	"github.com/spf13/cobra"
)

// runChat is the default command. Config and credential failures return
// before any session exists; per-turn failures are handled inside the loop.
func runChat(cmd *cobra.Command, opts *options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	chain := credential.NewChain(credential.KeyName, opts.log,
		&credential.SupabaseSource{
			URL:        os.Getenv("SUPABASE_URL"),
			ServiceKey: os.Getenv("SUPABASE_KEY"),
			Table:      opts.secretsTable,
		},
		credential.NewEnvSource(credential.KeyName, opts.envFile),
		&credential.PromptSource{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()},
	)
	cred, err := chain.Resolve(ctx)
	if err != nil {
		return err
	}

	client, err := gemini.NewClient(ctx, cred.Value, opts.model, opts.log)
	if err != nil {
		return err
	}
	defer client.Close()

	sess := session.New(cfg, client, session.WithLogger(opts.log))
	if err := sess.Ready(); err != nil {
		return err
	}
	opts.log.WithField("session_id", sess.ID()).Debug("session ready")

	p := cfg.GetPersona()
	return repl.Run(ctx, sess, cmd.InOrStdin(), cmd.OutOrStdout(), repl.Banner{
		Title:   p.Title(),
		Tagline: p.Tagline(),
	})
}
