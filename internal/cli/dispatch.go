package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DamianAcri/menulink-sub001/internal/dispatch"
)

// NewDispatchCommand creates the dispatch command.
func NewDispatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Send due scheduled emails once",
		Long: `Run a single dispatch sweep: every pending email whose send time has
passed (up to dispatch.batch_size) is rendered and handed to the
configured provider. Use this from an external scheduler when the
server's built-in dispatcher is disabled.

Exits 1 when a row could not be processed.

Example:
  menulink dispatch --config menulink.yaml
  menulink dispatch --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			logger := setupLogging(rootOpts, cmd.ErrOrStderr())

			cfg, err := loadConfig(rootOpts, f)
			if err != nil {
				return err
			}
			st, err := openStore(cfg, f)
			if err != nil {
				return err
			}
			defer st.Close()

			d, err := newDispatcher(cfg, st, logger)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeConfig, "failed to set up email provider", err)
			}

			res, err := d.Sweep(cmd.Context())
			if err != nil {
				if f.JSON() {
					_ = f.Error(ErrCodeDispatch, "sweep finished with errors", map[string]any{
						"result": res,
						"error":  err.Error(),
					})
				} else {
					printSweep(f, res)
					fmt.Fprintf(f.Writer, "✗ %v\n", err)
				}
				return WrapExitError(ExitFailure, "sweep finished with errors", err)
			}

			if f.JSON() {
				return f.Success(res)
			}
			printSweep(f, res)
			return nil
		},
	}
}

func printSweep(f *OutputFormatter, res dispatch.SweepResult) {
	fmt.Fprintf(f.Writer, "Scanned %d due email(s): %d sent, %d retrying, %d failed, %d cancelled, %d skipped\n",
		res.Scanned, res.Sent, res.Retrying, res.Failed, res.Cancelled, res.Skipped)
}
