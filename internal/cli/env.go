package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/DamianAcri/menulink-sub001/internal/config"
	"github.com/DamianAcri/menulink-sub001/internal/dispatch"
	"github.com/DamianAcri/menulink-sub001/internal/mail"
	"github.com/DamianAcri/menulink-sub001/internal/store"
)

// newFormatter returns the formatter for cmd. Diagnostics go to stderr so
// JSON on stdout stays parseable.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// setupLogging installs a text slog handler on w as the default logger.
// -v lowers the level to debug.
func setupLogging(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// loadConfig loads --config and applies the --db override.
func loadConfig(opts *RootOptions, f *OutputFormatter) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, f.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	return cfg, nil
}

// openStore opens (and migrates) the configured database.
func openStore(cfg config.Config, f *OutputFormatter) (*store.Store, error) {
	slog.Debug("opening database", "path", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	return st, nil
}

// newDispatcher wires the configured provider, the templates and the
// dispatch limits into a Dispatcher.
func newDispatcher(cfg config.Config, st *store.Store, logger *slog.Logger) (*dispatch.Dispatcher, error) {
	provider, err := cfg.Mail.NewProvider(logger)
	if err != nil {
		return nil, err
	}
	renderer, err := mail.NewRenderer()
	if err != nil {
		return nil, err
	}
	return dispatch.New(st, provider, renderer,
		dispatch.WithLogger(logger),
		dispatch.WithSender(cfg.Mail.Sender()),
		dispatch.WithBatchSize(cfg.Dispatch.BatchSize),
		dispatch.WithMaxAttempts(cfg.Dispatch.MaxAttempts),
	), nil
}
