package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DamianAcri/menulink-sub001/internal/config"
)

// DefaultConfigPath is where init writes when --config is not given.
const DefaultConfigPath = "menulink.yaml"

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default menulink.yaml",
		Long: `Write the default configuration file. Existing files are never
overwritten.

Example:
  menulink init
  menulink init --config /etc/menulink/menulink.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			path := rootOpts.Config
			if path == "" {
				path = DefaultConfigPath
			}
			if err := config.WriteDefault(path); err != nil {
				return f.Fail(ExitCommandError, ErrCodeConfig, "failed to write config", err)
			}
			if f.JSON() {
				return f.Success(map[string]string{"path": path})
			}
			fmt.Fprintf(f.Writer, "✓ Wrote %s\n", path)
			return nil
		},
	}
}
