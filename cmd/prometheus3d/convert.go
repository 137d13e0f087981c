// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"prometheus3d-cli/internal/config"
	"prometheus3d-cli/internal/issue"
	"prometheus3d-cli/pkg/fspath"
	"prometheus3d-cli/pkg/obj"
	"prometheus3d-cli/pkg/usdz"

	"github.com/spf13/cobra"
)

// newConvertCommand creates the `prometheus3d convert` command.
func newConvertCommand() *cobra.Command {
	var (
		outputPath string
		verify     bool
		noExternal bool
		tool       string
	)

	convCmd := &cobra.Command{
		Use:   "convert <input.obj>",
		Short: "Convert an OBJ mesh to a .usdz AR archive",
		Long: `Convert an OBJ mesh to a .usdz archive viewable on iPhone and Vision Pro.

Conversion strategies are tried in order: the external converter tool
(usdzconvert by default) when it is on PATH, then the built-in packager,
which parses the OBJ geometry, serializes a USD scene and zips it into
the archive. The first strategy to succeed wins.`,
		Example: `  prometheus3d convert model.obj
  prometheus3d convert model.obj -o scene.usdz --verify
  prometheus3d convert model.obj --no-external`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objPath := args[0]
			if outputPath == "" {
				outputPath = fspath.ReplaceExt(objPath, ".usdz")
			}

			converters := converterChain(currentConfig(), tool, noExternal)
			if err := usdz.ConvertWith(cmd.Context(), converters, objPath, outputPath); err != nil {
				switch {
				case errors.Is(err, obj.ErrNoGeometry):
					renderIssue(issue.NoGeometryId)
				case errors.Is(err, usdz.ErrToolUnavailable):
					renderIssue(issue.ConverterUnavailableId)
				}
				return err
			}

			if verify {
				name, doc, err := usdz.ReadDocument(outputPath)
				if err != nil {
					return fmt.Errorf("archive verification: %w", err)
				}
				fmt.Fprintf(os.Stderr, "%s archive verified: %s (%s, %d bytes)\n",
					SuccessStyle.Render("✓"), outputPath, name, len(doc))
			}

			fmt.Fprintln(os.Stderr, SuccessStyle.Render("✓")+" conversion complete")
			fmt.Printf("%s: %s\n", "USDZ_PATH", outputPath)
			return nil
		},
	}

	convCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output archive path (default: input with .usdz extension)")
	convCmd.Flags().BoolVar(&verify, "verify", false, "re-open the archive after conversion and report its contents")
	convCmd.Flags().BoolVar(&noExternal, "no-external", false, "skip the external converter tool")
	convCmd.Flags().StringVar(&tool, "tool", "", "external converter binary (default from config)")

	return convCmd
}

// converterChain builds the ordered conversion strategy list from the
// configuration and command-line overrides.
func converterChain(cfg *config.Config, toolOverride string, noExternal bool) []usdz.Converter {
	if noExternal || cfg.Converter.DisableExternal {
		return []usdz.Converter{usdz.ArchiveConverter{}}
	}
	tool := cfg.Converter.Tool
	if toolOverride != "" {
		tool = toolOverride
	}
	return []usdz.Converter{
		usdz.NewExternalConverter(tool),
		usdz.ArchiveConverter{},
	}
}
