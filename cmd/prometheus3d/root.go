// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for prometheus3d.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"prometheus3d-cli/internal/config"
	"prometheus3d-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// Verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// appConfig is the configuration loaded by initRootConfig. Commands fall
	// back to defaults when loading failed.
	appConfig *config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "prometheus3d",
		Short: "Generate 3D assets from text, images and multi-view captures",
		Long: TitleStyle.Render("prometheus3d") + SubtitleStyle.Render(" - 3D asset generation for AR") + `

prometheus3d drives generative 3D pipelines (Shap-E text/image-to-3D,
NeRF multi-view reconstruction, PBR material estimation) and packages
their mesh output into .usdz archives viewable on iPhone and Vision Pro.

` + SubtitleStyle.Render("Examples:") + `
  prometheus3d generate --prompt "a wooden chair"
  prometheus3d generate --mode image --image photo.png --prompt "chair"
  prometheus3d nerf --images ./captures --output ./out
  prometheus3d materials --mesh out/chair.ply --prompt "weathered oak"
  prometheus3d convert model.obj -o model.usdz
  prometheus3d config show`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/prometheus3d/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newNeRFCommand())
	rootCmd.AddCommand(newMaterialsCommand())
	rootCmd.AddCommand(newConvertCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newCompletionCommand())
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	cfg, err := config.Load()
	if err != nil {
		// Always surface config loading errors to the user
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		cfg = config.DefaultConfig()
	}
	appConfig = cfg

	// Apply verbose from config if not set via flag
	if !verbose {
		verbose = cfg.UI.Verbose
	}
}

// currentConfig returns the loaded configuration, falling back to defaults
// when commands run outside cobra's initialization (tests).
func currentConfig() *config.Config {
	if appConfig == nil {
		return config.DefaultConfig()
	}
	return appConfig
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderIssue prints the remediation card for the given issue on stderr.
// When markdown rendering fails the raw text is printed under a styled
// header so the remediation steps are never lost.
func renderIssue(id issue.Id) {
	i := issue.Get(id)
	rendered, err := i.Render("dark")
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"))
		fmt.Fprintln(os.Stderr, string(i.MarkdownMsg()))
		return
	}
	fmt.Fprint(os.Stderr, rendered)
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
