package tcforge

import (
	"fmt"

	"github.com/gookit/color"
)

// color helpers
var (
	colInfo    = color.Info
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)

// Debug enables debugf output.
var Debug bool

// debugf prints debug messages when Debug is true
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}

// ReportError prints a fatal error in the standard highlighted style.
// The caller decides whether to terminate.
func ReportError(err error) {
	colArrow.Print("-> ")
	colError.Printf("Error: %v\n", err)
}
