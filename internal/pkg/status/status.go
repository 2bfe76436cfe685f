package status

import (
	"strconv"
	"strings"
)

// Tags recognised inside a status frame. Every other field (FS, Bf, Ov, Pn,
// WCO, ...) is passed over so newer controller firmware does not break parsing.
const (
	tagMachine = "MPos:"
	tagWork    = "WPos:"
)

// Report is the latest known pair of machine and work coordinates. The axis
// count mirrors whatever the controller sends (3 for XYZ, 4 with a rotary A).
type Report struct {
	MPos []float64
	WPos []float64
}

// IsFrame reports whether line looks like a status frame.
func IsFrame(line string) bool {
	return len(line) >= 2 && strings.HasPrefix(line, "<") && strings.HasSuffix(line, ">")
}

// Parse applies a single decoded line to prev and returns the resulting
// report. The second return value is true iff the line was a status frame;
// a frame carrying neither MPos nor WPos still counts and returns prev
// unchanged. A field whose numeric payload fails to parse is discarded as a
// whole, keeping any fields already applied from the same frame.
func Parse(line string, prev Report) (Report, bool) {
	if !IsFrame(line) {
		return prev, false
	}
	next := prev
	for _, field := range strings.Split(line[1:len(line)-1], "|") {
		switch {
		case strings.HasPrefix(field, tagMachine):
			if axes, err := parseAxes(field[len(tagMachine):]); err == nil {
				next.MPos = axes
			}
		case strings.HasPrefix(field, tagWork):
			if axes, err := parseAxes(field[len(tagWork):]); err == nil {
				next.WPos = axes
			}
		}
	}
	return next, true
}

func parseAxes(payload string) ([]float64, error) {
	parts := strings.Split(payload, ",")
	axes := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		axes[i] = v
	}
	return axes, nil
}
