package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"igarchiver/pkg/archiver"
	"igarchiver/pkg/auth"
	"igarchiver/pkg/config"
	"igarchiver/pkg/logger"
	"igarchiver/pkg/ui"
)

var _ archiver.Reporter = (*ui.Console)(nil)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive <username>...",
	Short: "Archive one or more profiles",
	Long: `Archive the profile page and every post of each username.

Session cookies are optional for public profiles. When none are configured
the most recently stored account (see 'igarchiver auth login') is used, or
the one named with --account.

A profile whose page cannot be read is skipped without creating its
directory. When a later page fails, the posts already saved are kept and
the error is reported at the end.`,
	Example: `  # Archive two profiles into ./archive
  igarchiver archive alice bob -o ./archive

  # No courtesy delay, four download workers, first three follow-up pages only
  igarchiver archive alice --delay 0 --workers 4 --max-pages 3

  # Use a stored account and write prometheus metrics
  igarchiver archive alice --account me --metrics-file /var/lib/node_exporter/igarchiver.prom`,
	Args: cobra.MinimumNArgs(1),
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	addArchiveFlags(archiveCmd)
}

func addArchiveFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "output root; each profile gets <output>/<username>/")
	cmd.Flags().String("session-id", "", "sessionid cookie value")
	cmd.Flags().String("csrf-token", "", "csrftoken cookie value")
	cmd.Flags().StringP("account", "a", "", "use this stored account's cookies")
	cmd.Flags().String("strategy", "", "profile carving strategy (markers, script)")
	cmd.Flags().Duration("delay", 0, "pause between asset downloads, 0 disables (default 1s)")
	cmd.Flags().Int("workers", 0, "concurrent asset downloads per profile (default 1)")
	cmd.Flags().Int("max-pages", 0, "follow-up pages per profile, 0 for all")
	cmd.Flags().Int("parallel", 0, "profiles archived at once (default 2)")
	cmd.Flags().Bool("overwrite", false, "download assets again even when the file exists")
	cmd.Flags().String("metrics-file", "", "write prometheus metrics to this file after the run")
}

// flagOverrides returns the flags the user actually set, keyed the way
// config.MergeCommandLineFlags expects
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	fs := cmd.Flags()

	for _, name := range []string{"output", "session-id", "csrf-token", "strategy", "metrics-file", "log-level"} {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			v, _ := fs.GetString(name)
			flags[name] = v
		}
	}
	for _, name := range []string{"workers", "max-pages", "parallel"} {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			v, _ := fs.GetInt(name)
			flags[name] = v
		}
	}
	if fs.Lookup("delay") != nil && fs.Changed("delay") {
		v, _ := fs.GetDuration("delay")
		flags["delay"] = v
	}
	if fs.Lookup("overwrite") != nil && fs.Changed("overwrite") {
		v, _ := fs.GetBool("overwrite")
		flags["overwrite"] = v
	}

	return flags
}

// loadConfig resolves the configuration for cmd and fills in stored
// session cookies when none were given
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		return nil, err
	}

	if quiet && !cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = "error"
	}

	account, _ := cmd.Flags().GetString("account")
	if cfg.Instagram.SessionID == "" || account != "" {
		manager := auth.NewDefaultManager()
		if account != "" {
			cfg.Instagram.SessionID = ""
			cfg.Instagram.CSRFToken = ""
		}
		if err := manager.ApplyTo(&cfg.Instagram, account); err != nil {
			// anonymous access is fine unless an account was asked for
			if account != "" || !errors.Is(err, auth.ErrCredentialsNotFound) {
				return nil, fmt.Errorf("failed to load credentials: %w", err)
			}
		}
	}

	return cfg, nil
}

func runArchive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithFields(map[string]interface{}{
		"version":  version,
		"profiles": len(args),
		"output":   cfg.Output.BaseDirectory,
	}).Info("Archive run starting")

	opts := []archiver.Option{archiver.WithLogger(log)}
	if !quiet {
		ui.PrintBanner(version)
		opts = append(opts, archiver.WithReporter(ui.NewConsole(os.Stdout, verbose)))
	}
	a, err := archiver.New(cfg, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	stats, err := a.Archive(ctx, args)

	if !quiet {
		printSummary(stats, time.Since(start))
	}
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}
	return err
}

func printSummary(stats []archiver.Stats, elapsed time.Duration) {
	var posts, saved, skipped, failed int
	var size int64
	for _, s := range stats {
		posts += s.Posts
		saved += s.Saved
		skipped += s.Skipped
		failed += s.Failed
		size += s.Bytes
	}

	fmt.Println()
	ui.PrintInfo("Profiles", fmt.Sprintf("%d", len(stats)))
	ui.PrintInfo("Posts", fmt.Sprintf("%d", posts))
	ui.PrintInfo("Assets", fmt.Sprintf("%d saved, %d skipped, %d failed (%s)", saved, skipped, failed, ui.FormatBytes(size)))
	ui.PrintInfo("Elapsed", ui.FormatDuration(elapsed))
	if failed > 0 {
		ui.PrintWarning("Some assets failed to download", "run again to retry them")
	}
}
