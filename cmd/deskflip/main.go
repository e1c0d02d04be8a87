// Deskflip CLI entry point
//
// Deskflip keeps several independent desktop profiles on one machine and
// switches the Desktop folder, icon layout and virtual desktop between them.
package main

import "github.com/jbctechsolutions/deskflip/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
