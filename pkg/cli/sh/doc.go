// Package sh is the interactive BIOS console. Command providers register
// more commands with AddCmds from their init funcs.
package sh
