package tcforge

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// overridden at build time
var (
	version   = "dev"
	buildDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tcforge %s (%s, built %s)\n", version, runtime.GOARCH, buildDate)
		},
	}
}
