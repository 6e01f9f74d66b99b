package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"igarchiver/pkg/ui"
)

var (
	// Version information
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
	verbose    bool
)

// rootCmd archives when given usernames, so "igarchiver alice bob" works
// without naming the archive subcommand
var rootCmd = &cobra.Command{
	Use:   "igarchiver [username...]",
	Short: "Archive Instagram profiles to disk",
	Long: `igarchiver saves the posts of Instagram profiles to a local directory.

For every profile it writes <output>/<username>/ containing:
  profile_pic.jpg      the profile picture
  description.json     id, username, full name, follower counts and biography
  <basename>_<n><ext>  every photo and video of each post, in gallery order
  <basename>.txt       the post caption
  <basename>.json      the post as returned by Instagram

<basename> is the post time as YYYY-MM-DD_HH-MM-SS in the local time zone.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runArchive(cmd, args)
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.igarchiver.yaml or ~/.config/igarchiver/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "print nothing but errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print a line for every asset")

	addArchiveFlags(rootCmd)

	rootCmd.SetVersionTemplate(`igarchiver {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
