// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"prometheus3d-cli/internal/device"
	"prometheus3d-cli/internal/issue"
	"prometheus3d-cli/internal/pipeline"

	"github.com/spf13/cobra"
)

// newMaterialsCommand creates the `prometheus3d materials` command.
func newMaterialsCommand() *cobra.Command {
	var (
		meshPath  string
		prompt    string
		outputDir string
		modelDir  string
	)

	matCmd := &cobra.Command{
		Use:   "materials",
		Short: "Estimate PBR material maps for a mesh",
		Long: `Estimate PBR material maps (albedo, roughness, metallic, bump) for a mesh.

The full estimator pipeline needs CUDA; on other devices the command uses
simplified mode, which writes neutral 1024x1024 base maps that downstream
tooling can texture with. Map paths are printed to stdout as KEY: path
lines.`,
		Example: `  prometheus3d materials --mesh out/chair.ply --prompt "weathered oak"
  prometheus3d materials --mesh out/chair.ply --output maps --model-dir models`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := currentConfig()
			if modelDir == "" {
				modelDir = cfg.ModelDir
			}

			kind, err := device.Resolve(device.Kind(cfg.Device))
			if err != nil {
				return err
			}

			runner := pipeline.NewMaterial(modelDir, pipeline.WithMaterialDevice(kind))
			res, err := runner.Run(cmd.Context(), pipeline.Request{
				MeshPath:  meshPath,
				Prompt:    prompt,
				OutputDir: outputDir,
			})
			if err != nil {
				if errors.Is(err, pipeline.ErrModelsNotDownloaded) {
					renderIssue(issue.ModelsNotDownloadedId)
				}
				return err
			}

			fmt.Fprintln(os.Stderr, SuccessStyle.Render("✓")+" material maps generated")
			return res.Emit(os.Stdout)
		},
	}

	matCmd.Flags().StringVar(&meshPath, "mesh", "", "input mesh file (PLY or OBJ)")
	matCmd.Flags().StringVarP(&prompt, "prompt", "p", "", "text description of the desired materials")
	matCmd.Flags().StringVarP(&outputDir, "output", "o", "materials", "output directory for the maps")
	matCmd.Flags().StringVar(&modelDir, "model-dir", "", "pretrained model directory (default from config)")
	_ = matCmd.MarkFlagRequired("mesh")

	return matCmd
}
