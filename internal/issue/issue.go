// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	PythonNotFoundId Id = iota + 1
	PipelineScriptNotFoundId
	ModelsNotDownloadedId
	ImagesDirInvalidId
	NoGeometryId
	ConverterUnavailableId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation links for the issue type
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	pythonNotFoundIssue = &Issue{
		id: PythonNotFoundId,
		mdMsg: `
# Python interpreter not found!

The generation pipelines run as Python subprocesses, but no usable
interpreter was found.

## Things you can try:
- Install Python 3.9+ and make sure it is on your PATH
- Point the tool at a specific interpreter in your config file:
~~~cue
python: "/usr/local/bin/python3"
~~~
- Or via the environment:
~~~
$ export PROMETHEUS3D_PYTHON=/usr/local/bin/python3
~~~`,
	}

	pipelineScriptNotFoundIssue = &Issue{
		id: PipelineScriptNotFoundId,
		mdMsg: `
# Pipeline script not found!

The generator script for the requested pipeline is missing from the
configured scripts directory.

## Expected scripts:
- shap_e_generator.py (text/image to 3D)
- nerf_generator.py (multi-view reconstruction)
- material_generator.py (PBR material maps)

## Things you can try:
- Set the scripts directory in your config file:
~~~cue
scripts_dir: "/path/to/pipelines"
~~~
- Or via the environment:
~~~
$ export PROMETHEUS3D_SCRIPTS_DIR=/path/to/pipelines
~~~
- Verify the pipeline checkout is complete:
~~~
$ ls $PROMETHEUS3D_SCRIPTS_DIR
~~~`,
	}

	modelsNotDownloadedIssue = &Issue{
		id: ModelsNotDownloadedId,
		mdMsg: `
# Pretrained material models not found!

Material generation needs the MaterialAnything estimator weights, which are
downloaded separately.

## Things you can try:
- Download the models:
~~~
$ ./download_material_models.sh
~~~
- Or point at an existing model directory:
~~~
$ prometheus3d materials --model-dir /path/to/pretrained_models ...
~~~

The directory must contain a ` + "`material_estimator`" + ` subdirectory.`,
	}

	imagesDirInvalidIssue = &Issue{
		id: ImagesDirInvalidId,
		mdMsg: `
# Not enough input images for reconstruction!

NeRF reconstruction needs a directory with at least 3 images (.png, .jpg or
.jpeg) of the scene, taken from different viewpoints.

## Things you can try:
- Check the directory path passed via --images
- Capture more viewpoints of the scene
- Generate camera poses with COLMAP or the LLFF tooling; reconstruction
  expects a ` + "`poses_bounds.npy`" + ` file next to the images`,
	}

	noGeometryIssue = &Issue{
		id: NoGeometryId,
		mdMsg: `
# Mesh contains no usable geometry!

The exported mesh file parsed to zero vertices or zero valid triangular
faces, so no archive can be packaged from it.

## Things you can try:
- Inspect the OBJ export; it should contain ` + "`v x y z`" + ` and ` + "`f a b c`" + ` lines
- Re-run the generation; occasional samples decode to degenerate meshes
- Try a different prompt or input image`,
	}

	converterUnavailableIssue = &Issue{
		id: ConverterUnavailableId,
		mdMsg: `
# USDZ conversion tool not available

The preferred converter (usdzconvert) was not found, and the built-in
fallback packager also failed.

## Things you can try:
- On macOS, install the Xcode USD tools (usdzconvert ships with them)
- Elsewhere, install Pixar's USD distribution: https://github.com/PixarAnimationStudios/OpenUSD
- Configure a different tool:
~~~cue
converter: {tool: "/opt/usd/bin/usdzconvert"}
~~~

The primary mesh output (.ply) is unaffected; only the AR archive is skipped.`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your config file contains syntax errors or invalid values.

## Things you can try:
- Check the error message above for the specific line/column
- Validate the CUE syntax with the cue command-line tool
- Show the resolved configuration:
~~~
$ prometheus3d config show
~~~
- Remove the config file to fall back to defaults:
~~~
$ rm $(prometheus3d config path)
~~~`,
	}

	issues = map[Id]*Issue{
		pythonNotFoundIssue.Id():         pythonNotFoundIssue,
		pipelineScriptNotFoundIssue.Id(): pipelineScriptNotFoundIssue,
		modelsNotDownloadedIssue.Id():    modelsNotDownloadedIssue,
		imagesDirInvalidIssue.Id():       imagesDirInvalidIssue,
		noGeometryIssue.Id():             noGeometryIssue,
		converterUnavailableIssue.Id():   converterUnavailableIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
	}
)

func Get(id Id) *Issue {
	return issues[id]
}
