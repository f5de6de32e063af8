package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
	"github.com/DamianAcri/menulink-sub001/internal/store"
)

// EmailsOptions holds flags for the emails command.
type EmailsOptions struct {
	*RootOptions
	Status       string
	RestaurantID string
	Limit        int
}

type emailsSummary struct {
	Counts map[domain.EmailStatus]int `json:"counts"`
	Emails []domain.ScheduledEmail    `json:"emails"`
}

// NewEmailsCommand creates the emails command.
func NewEmailsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EmailsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "emails",
		Short: "Inspect the scheduled email queue",
		Long: `List scheduled emails with their status, attempts and last error, plus
a count per status across the whole queue.

Example:
  menulink emails --status failed
  menulink emails --restaurant <id> --limit 20 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmails(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "only emails with this status (pending|sent|failed|cancelled)")
	cmd.Flags().StringVar(&opts.RestaurantID, "restaurant", "", "only emails of this restaurant id")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "maximum rows to list (0 for all)")

	return cmd
}

func runEmails(opts *EmailsOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	setupLogging(opts.RootOptions, cmd.ErrOrStderr())

	status := domain.EmailStatus(opts.Status)
	if status != "" && !status.Valid() {
		return f.Fail(ExitCommandError, ErrCodeInput, fmt.Sprintf("unknown status %q", opts.Status), nil)
	}

	cfg, err := loadConfig(opts.RootOptions, f)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, f)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	counts, err := st.CountEmailsByStatus(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to count emails", err)
	}
	emails, err := st.ListEmails(ctx, store.EmailFilter{
		RestaurantID: opts.RestaurantID,
		Status:       status,
		Limit:        opts.Limit,
	})
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to list emails", err)
	}

	if f.JSON() {
		if emails == nil {
			emails = []domain.ScheduledEmail{}
		}
		return f.Success(emailsSummary{Counts: counts, Emails: emails})
	}

	fmt.Fprintf(f.Writer, "pending %d, sent %d, failed %d, cancelled %d\n",
		counts[domain.EmailPending], counts[domain.EmailSent],
		counts[domain.EmailFailed], counts[domain.EmailCancelled])
	if len(emails) == 0 {
		fmt.Fprintln(f.Writer, "No emails.")
		return nil
	}

	fmt.Fprintln(f.Writer)
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tRECIPIENT\tSCHEDULED\tSTATUS\tATTEMPTS\tLAST ERROR")
	for _, e := range emails {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.ID, e.Kind, e.Recipient, e.ScheduledFor.UTC().Format(time.RFC3339),
			e.Status, e.Attempts, truncate(e.LastError, 60))
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
