// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"prometheus3d-cli/internal/device"
	"prometheus3d-cli/internal/issue"
	"prometheus3d-cli/internal/pipeline"

	"github.com/spf13/cobra"
)

// newGenerateCommand creates the `prometheus3d generate` command.
func newGenerateCommand() *cobra.Command {
	var (
		mode      string
		prompt    string
		imagePath string
		outputDir string
		materials bool
		modelDir  string
	)

	genCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a 3D model from a text prompt or an image",
		Long: `Generate a 3D model from a text prompt or an image using Shap-E.

The generator writes a PLY mesh into the output directory and, when
conversion succeeds, a .usdz archive next to it for AR viewing. Artifact
paths are printed to stdout as KEY: path lines; progress goes to stderr.`,
		Example: `  prometheus3d generate --prompt "a wooden chair"
  prometheus3d generate --mode image --image photo.png --prompt "a chair"
  prometheus3d generate --prompt "a vase" --materials`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := currentConfig()
			if outputDir == "" {
				outputDir = cfg.OutputDir
			}

			runner := pipeline.NewShapE(cfg.Python, cfg.ScriptsDir,
				pipeline.WithShapEConverters(converterChain(cfg, "", false)))
			if err := runner.Available(); err != nil {
				switch {
				case errors.Is(err, pipeline.ErrPythonNotFound):
					renderIssue(issue.PythonNotFoundId)
				case errors.Is(err, pipeline.ErrScriptNotFound):
					renderIssue(issue.PipelineScriptNotFoundId)
				}
				return err
			}

			res, err := runner.Run(cmd.Context(), pipeline.Request{
				Mode:      mode,
				Prompt:    prompt,
				ImagePath: imagePath,
				OutputDir: outputDir,
				Materials: materials,
			})
			if err != nil {
				return err
			}

			if materials && !res.Has("MATERIAL_ALBEDO") {
				if modelDir == "" {
					modelDir = cfg.ModelDir
				}
				runMaterialFallback(cmd.Context(), modelDir, prompt, outputDir, res)
			}

			fmt.Fprintln(os.Stderr, SuccessStyle.Render("✓")+" 3D model generated")
			return res.Emit(os.Stdout)
		},
	}

	genCmd.Flags().StringVar(&mode, "mode", pipeline.ModeText, "generation mode: text or image")
	genCmd.Flags().StringVarP(&prompt, "prompt", "p", "", "text prompt for generation")
	genCmd.Flags().StringVar(&imagePath, "image", "", "input image (required for image mode)")
	genCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")
	genCmd.Flags().BoolVar(&materials, "materials", false, "also estimate PBR material maps")
	genCmd.Flags().StringVar(&modelDir, "model-dir", "", "pretrained material models directory (default from config)")

	return genCmd
}

// runMaterialFallback estimates material maps for the generated mesh when
// the generator script did not produce them itself. Failures are warnings;
// the generated mesh stands on its own.
func runMaterialFallback(ctx context.Context, modelDir, prompt, outputDir string, res *pipeline.Result) {
	kind, err := device.Resolve(device.Kind(currentConfig().Device))
	if err != nil {
		kind = device.Detect()
	}

	mat := pipeline.NewMaterial(modelDir, pipeline.WithMaterialDevice(kind))
	matRes, err := mat.Run(ctx, pipeline.Request{
		MeshPath:  res.Get(pipeline.KeyOutputPath),
		Prompt:    prompt,
		OutputDir: filepath.Join(outputDir, "materials"),
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrModelsNotDownloaded) {
			renderIssue(issue.ModelsNotDownloadedId)
		}
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+
			"material generation failed: "+err.Error())
		return
	}
	for _, k := range matRes.Keys() {
		res.Set("MATERIAL_"+k, matRes.Get(k))
	}
}
