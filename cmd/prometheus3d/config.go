// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"prometheus3d-cli/internal/config"
	"prometheus3d-cli/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `prometheus3d config` command tree.
func newConfigCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage prometheus3d configuration",
		Long: `Manage prometheus3d configuration.

Configuration is stored in:
  - Linux: ~/.config/prometheus3d/config.cue
  - macOS: ~/Library/Application Support/prometheus3d/config.cue
  - Windows: %APPDATA%\prometheus3d\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})

	return cfgCmd
}

func showConfig() error {
	cfg, err := config.Load()
	if err != nil {
		renderIssue(issue.ConfigLoadFailedId)
		return err
	}

	keyStyle := KeyStyle
	valueStyle := SuccessStyle

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	if path, pathErr := config.ConfigFilePath(); pathErr == nil && fileExistsCheck(path) {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	fmt.Printf("%s: %s\n", keyStyle.Render("output_dir"), valueStyle.Render(cfg.OutputDir))
	fmt.Printf("%s: %s\n", keyStyle.Render("device"), valueStyle.Render(string(cfg.Device)))
	fmt.Printf("%s: %s\n", keyStyle.Render("python"), valueStyle.Render(cfg.Python))
	fmt.Printf("%s: %s\n", keyStyle.Render("scripts_dir"), valueStyle.Render(cfg.ScriptsDir))
	fmt.Printf("%s: %s\n", keyStyle.Render("model_dir"), valueStyle.Render(cfg.ModelDir))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("converter"))
	fmt.Printf("  tool: %s\n", valueStyle.Render(cfg.Converter.Tool))
	fmt.Printf("  disable_external: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Converter.DisableExternal)))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("ui"))
	fmt.Printf("  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Printf("Config directory: %s\n", cfgDir)
	fmt.Printf("Config file: %s/config.cue\n", cfgDir)
	return nil
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
