// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/installer/cmd/installer"

func main() {
	cmd.Execute()
}
