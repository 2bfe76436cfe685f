// Package gcode builds the small command vocabulary the sender issues
// itself: real-time jogs, homing cycles and status requests. Job G-Code is
// opaque to the rest of the system; these helpers only cover the commands the
// console generates on behalf of the operator.
package gcode

import (
	"fmt"
	"strings"
)

// Axes supported by the controller. A is the optional rotary axis.
const Axes = "XYZA"

// ValidAxis reports whether axis names a single supported axis letter.
func ValidAxis(axis string) bool {
	return len(axis) == 1 && strings.Contains(Axes, strings.ToUpper(axis))
}

// Jog builds a relative real-time jog command, e.g. "$J=G91 X1.000 F1000".
// dist is signed millimetres, feed is mm/min.
func Jog(axis string, dist, feed float64) string {
	return fmt.Sprintf("$J=G91 %s%.3f F%g", strings.ToUpper(axis), dist, feed)
}

// HomeAll builds the full homing cycle command.
func HomeAll() string {
	return "$H"
}

// Home builds a single-axis homing command, e.g. "$HX".
func Home(axis string) string {
	return "$H" + strings.ToUpper(axis)
}

// StatusRequest builds the real-time status query.
func StatusRequest() string {
	return "?"
}
