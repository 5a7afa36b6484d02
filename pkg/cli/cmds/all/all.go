// Package all registers all console commands.
package all

import (
	_ "github.com/robotalks/biosboot/pkg/cli/cmds/methods"
	_ "github.com/robotalks/biosboot/pkg/cli/cmds/mem"
)
