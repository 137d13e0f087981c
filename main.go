// SPDX-License-Identifier: MPL-2.0

package main

import cmd "prometheus3d-cli/cmd/prometheus3d"

func main() {
	cmd.Execute()
}
