package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kamar-Folarin/github-trending/internal/app"
	"github.com/Kamar-Folarin/github-trending/internal/config"
)

type options struct {
	interval string
	verbose  bool
	offline  bool
	db       string
	serve    string
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Github trending repos v1",
		Long: "Caches the most-starred GitHub repositories in a local database, " +
			"refreshes them on a timer and answers queries from an interactive prompt.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(errOut, opts.verbose)

			// Load environment variables
			if err := godotenv.Load(); err != nil {
				logger.Debug("No .env file found")
			}

			cfg, err := buildConfig(cmd, opts)
			if err != nil {
				logger.WithError(err).Error("Failed to load configuration")
				return err
			}
			if cfg.Verbose {
				logger.SetLevel(logrus.DebugLevel)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(cfg, logger)
			if err != nil {
				logger.WithError(err).Error("Failed to start")
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.WithError(err).Error("Failed to close")
				}
			}()

			a.Start(ctx)
			return a.Run(ctx, in, out)
		},
	}

	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.Flags()
	flags.StringVarP(&opts.interval, "time", "t", "5", "Set time interval in minutes to refetch the data")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Launch with logging")
	flags.BoolVarP(&opts.offline, "offline", "f", false, "Launch in offline mode. No data is fetched. Refresh is disabled")
	flags.StringVar(&opts.db, "db", "", "Database file, or a postgres:// connection string (default \"db.sqlite\")")
	flags.StringVar(&opts.serve, "serve", "", "Serve a read-only HTTP API on this address, e.g. :8080")

	return cmd
}

// buildConfig layers command-line flags over the environment
func buildConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("time") {
		cfg.Sync.Interval = config.ParseInterval(opts.interval)
	}
	if opts.verbose {
		cfg.Verbose = true
	}
	if opts.offline {
		cfg.Offline = true
	}
	if flags.Changed("db") && opts.db != "" {
		cfg.DBLocation = opts.db
	}
	if flags.Changed("serve") {
		cfg.HTTPAddr = opts.serve
	}

	return cfg, nil
}

func newLogger(out io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
