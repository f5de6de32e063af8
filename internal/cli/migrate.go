package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: `Open the configured SQLite database, creating it if needed, and apply
any pending schema migrations.

Example:
  menulink migrate --db ./menulink.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			setupLogging(rootOpts, cmd.ErrOrStderr())

			cfg, err := loadConfig(rootOpts, f)
			if err != nil {
				return err
			}
			st, err := openStore(cfg, f)
			if err != nil {
				return err
			}
			defer st.Close()

			version, err := st.SchemaVersion(cmd.Context())
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to read schema version", err)
			}
			if f.JSON() {
				return f.Success(map[string]any{
					"database":       cfg.Database.Path,
					"schema_version": version,
				})
			}
			fmt.Fprintf(f.Writer, "✓ %s at schema version %d\n", cfg.Database.Path, version)
			return nil
		},
	}
}
