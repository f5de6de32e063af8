package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DamianAcri/menulink-sub001/internal/api"
	"github.com/DamianAcri/menulink-sub001/internal/dispatch"
	"github.com/DamianAcri/menulink-sub001/internal/reservations"
)

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr         string
	NoDispatcher bool

	// listen overrides net.Listen (for testing).
	listen func(network, addr string) (net.Listener, error)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the email dispatcher",
		Long: `Start the MenuLink HTTP API. Unless disabled, the email dispatcher runs
in the same process and sweeps due emails every dispatch.poll_interval.

Ctrl-C or SIGTERM stops accepting requests, waits for in-flight requests
and stops the dispatcher.

Example:
  menulink serve --config menulink.yaml
  menulink serve --addr :9090 --no-dispatcher`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.NoDispatcher, "no-dispatcher", false, "do not run the background email dispatcher")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	logger := setupLogging(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions, f)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
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
	svc := reservations.New(st, d, reservations.WithLogger(logger))
	srv := api.New(st, svc, d,
		api.WithCronSecret(cfg.Server.CronSecret),
		api.WithLogger(logger),
	)
	if cfg.Server.CronSecret == "" {
		logger.Warn("cron endpoint disabled: no cron secret configured")
	}

	listen := opts.listen
	if listen == nil {
		listen = net.Listen
	}
	ln, err := listen("tcp", cfg.Server.Addr)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "failed to listen", err)
	}

	httpServer := &http.Server{
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var wg sync.WaitGroup
	if cfg.Dispatch.Enabled && !opts.NoDispatcher {
		runner := dispatch.NewRunner(d, cfg.Dispatch.PollInterval.Std())
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = runner.Run(ctx)
		}()
	} else {
		logger.Info("email dispatcher disabled")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()

	logger.Info("server listening", "addr", ln.Addr().String(), "db", cfg.Database.Path)
	fmt.Fprintf(cmd.OutOrStdout(), "MenuLink listening on %s\n", ln.Addr())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = WrapExitError(ExitFailure, "server error", err)
		}
		cancel()
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = WrapExitError(ExitFailure, "shutdown error", err)
	}
	wg.Wait()

	logger.Info("server stopped gracefully")
	return runErr
}
