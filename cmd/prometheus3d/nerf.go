// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"

	"prometheus3d-cli/internal/issue"
	"prometheus3d-cli/internal/pipeline"

	"github.com/spf13/cobra"
)

// newNeRFCommand creates the `prometheus3d nerf` command.
func newNeRFCommand() *cobra.Command {
	var (
		imagesDir   string
		outputDir   string
		datasetType string
		trainConfig string
	)

	nerfCmd := &cobra.Command{
		Use:   "nerf",
		Short: "Reconstruct a 3D scene from multi-view images",
		Long: `Reconstruct a 3D scene from multiple viewpoint images with NeRF.

The command validates the capture (at least 3 images, camera poses in
poses_bounds.npy) and writes the training configuration into the output
directory. The training backend itself is not wired up yet; the command
reports what a full run still needs.`,
		Example: `  prometheus3d nerf --images ./captures --output ./out
  prometheus3d nerf --images ./captures --dataset-type blender`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := currentConfig()
			if outputDir == "" {
				outputDir = cfg.OutputDir
			}

			res, err := pipeline.NewNeRF().Run(cmd.Context(), pipeline.Request{
				ImagesDir:   imagesDir,
				OutputDir:   outputDir,
				DatasetType: datasetType,
				ConfigFile:  trainConfig,
			})
			if res != nil {
				if emitErr := res.Emit(os.Stdout); emitErr != nil {
					return emitErr
				}
			}
			if errors.Is(err, pipeline.ErrTooFewImages) {
				renderIssue(issue.ImagesDirInvalidId)
			}
			return err
		},
	}

	nerfCmd.Flags().StringVar(&imagesDir, "images", "", "directory containing input images")
	nerfCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")
	nerfCmd.Flags().StringVar(&datasetType, "dataset-type", pipeline.DatasetLLFF, "dataset layout: llff, blender or deepvoxels")
	nerfCmd.Flags().StringVar(&trainConfig, "train-config", "", "pre-existing training config file")
	_ = nerfCmd.MarkFlagRequired("images")

	return nerfCmd
}
