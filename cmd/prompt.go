package cmd

import (
	"fmt"

	"github.com/hooch88/serene/internal/prompt"
	"github.com/spf13/cobra"
)

func newPromptCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the compiled instruction prompt",
		Long: `Compiles the configuration exactly as the chat would and prints the result.
The layout is stable, so the output can be diffed across configuration changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), prompt.Compile(cfg))
			return nil
		},
	}
}
