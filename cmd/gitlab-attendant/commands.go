package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/gitlab-attendant/internal/config"
	"github.com/ericfisherdev/gitlab-attendant/internal/logging"
)

// options holds the raw command-line values. They only override the loaded
// configuration when the corresponding flag was set explicitly.
type options struct {
	configPath     string
	host           string
	legacyIP       string
	token          string
	interval       string
	runImmediately bool
	mrStaleDays    int
	issueDueDays   int
	logLevel       string
	logFormat      string
	journal        string

	once  bool
	since time.Duration
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithOptions(&options{})
}

func newRootCmdWithOptions(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gitlab-attendant",
		Short: "Scheduled GitLab merge request and issue attendant",
		Long: `Periodically assigns reviewers to waiting merge requests and owners to
unassigned issues, nudges assignees of stale merge requests and of overdue or
upcoming issues, and removes merged branches from every project.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAttendantCmd(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	addConfigFlags(rootCmd, opts)
	addRunFlags(rootCmd, opts)

	rootCmd.AddCommand(newCmdRun(opts))
	rootCmd.AddCommand(newCmdCheck(opts))
	rootCmd.AddCommand(newCmdHistory(opts))

	return rootCmd
}

func addConfigFlags(cmd *cobra.Command, opts *options) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.host, "host", "", "GitLab host, with or without scheme")
	flags.StringVar(&opts.legacyIP, "ip", "", "GitLab host")
	_ = flags.MarkDeprecated("ip", "use --host instead")
	flags.StringVar(&opts.token, "token", "", "GitLab personal access token")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: json or text")
	flags.StringVar(&opts.journal, "journal", "", "path to the sqlite action journal (disabled when empty)")
}

func addRunFlags(cmd *cobra.Command, opts *options) {
	flags := cmd.Flags()
	flags.StringVar(&opts.interval, "interval", "", "time between ticks, as hours (24) or a duration (12h)")
	flags.BoolVar(&opts.runImmediately, "run-immediately", false, "run the first tick at startup instead of after one interval")
	flags.BoolVar(&opts.once, "once", false, "run a single tick and exit")
	flags.IntVar(&opts.mrStaleDays, "mr-stale-days", 0, "days before an assigned merge request is nudged")
	flags.IntVar(&opts.issueDueDays, "issue-due-days", 0, "days ahead of the due date an issue is nudged")
}

func newCmdRun(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the attendant on its schedule (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAttendantCmd(cmd, opts)
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}

func newCmdCheck(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the host and token by looking up the authenticated user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			user, err := checkCredentials(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "authenticated as @%s (id %d)\n", user.Username, user.ID)
			return err
		},
	}
}

func newCmdHistory(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print actions recorded in the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			if !cfg.HasJournal() {
				return fmt.Errorf("history requires a journal (--journal or %s)", config.EnvJournalPath)
			}
			if opts.since <= 0 {
				return fmt.Errorf("--since must be positive, got %s", opts.since)
			}

			actions, err := readHistory(cmd.Context(), cfg.JournalPath, time.Now().Add(-opts.since))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tKIND\tPROJECT\tTARGET\tMEMBER\tRESULT")
			for _, a := range actions {
				result := "ok"
				switch {
				case !a.Succeeded():
					result = "error: " + a.Error
				case a.Message != "":
					result = a.Message
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
					a.PerformedAt.Format(time.RFC3339), a.Kind, a.ProjectID, a.TargetIID, a.MemberID, result)
			}
			return w.Flush()
		},
	}
	cmd.Flags().DurationVar(&opts.since, "since", 24*time.Hour, "how far back to list actions")
	return cmd
}

func runAttendantCmd(cmd *cobra.Command, opts *options) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	return runAttendant(cmd.Context(), cfg, opts.once, logger)
}

// resolveConfig loads the configuration and applies explicitly set flags.
func resolveConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("ip") && !flags.Changed("host") {
		cfg.Host = opts.legacyIP
	}
	if flags.Changed("host") {
		cfg.Host = opts.host
	}
	if flags.Changed("token") {
		cfg.Token = opts.token
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if flags.Changed("journal") {
		cfg.JournalPath = opts.journal
	}
	if flags.Changed("interval") {
		interval, err := config.ParseInterval(opts.interval)
		if err != nil {
			return nil, fmt.Errorf("--interval: %w", err)
		}
		cfg.Interval = interval
	}
	if flags.Changed("run-immediately") {
		cfg.RunImmediately = opts.runImmediately
	}
	if flags.Changed("mr-stale-days") {
		cfg.MergeRequestStaleDays = opts.mrStaleDays
	}
	if flags.Changed("issue-due-days") {
		cfg.IssueDueDays = opts.issueDueDays
	}

	return cfg, nil
}

// newLogger builds the process logger and makes it the default so the final
// fatal line in main shares its format.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
