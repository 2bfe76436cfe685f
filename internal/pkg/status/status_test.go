package status

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFullFrame(t *testing.T) {
	r, ok := Parse("<Idle|MPos:1.000,2.000,3.000|WPos:4.000,5.000,6.000>", Report{})
	require.True(t, ok)
	require.Equal(t, []float64{1, 2, 3}, r.MPos)
	require.Equal(t, []float64{4, 5, 6}, r.WPos)
}

func TestParseIdempotent(t *testing.T) {
	line := "<Run|MPos:10.5,-2.25,0.001|WPos:0.5,0.5,0.5>"
	first, ok := Parse(line, Report{})
	require.True(t, ok)
	second, ok := Parse(line, first)
	require.True(t, ok)
	require.Equal(t, first, second)
}

func TestParsePartialFrameKeepsOtherComponent(t *testing.T) {
	prev := Report{WPos: []float64{7, 8, 9}}
	r, ok := Parse("<MPos:1.0,2.0,3.0>", prev)
	require.True(t, ok)
	require.Equal(t, []float64{1, 2, 3}, r.MPos)
	require.Equal(t, []float64{7, 8, 9}, r.WPos)
}

func TestParseMalformedFieldSkipped(t *testing.T) {
	prev := Report{MPos: []float64{0, 0, 0}}
	r, ok := Parse("<MPos:1.0,x,3.0|WPos:4.0,5.0,6.0>", prev)
	require.True(t, ok)
	// The broken MPos field is dropped as a whole; WPos from the same
	// frame is still applied.
	require.Equal(t, []float64{0, 0, 0}, r.MPos)
	require.Equal(t, []float64{4, 5, 6}, r.WPos)
}

func TestParseUnknownFieldsIgnored(t *testing.T) {
	r, ok := Parse("<Idle|MPos:1,2,3|FS:500,8000|Ov:100,100,100>", Report{})
	require.True(t, ok)
	require.Equal(t, []float64{1, 2, 3}, r.MPos)
	require.Nil(t, r.WPos)
}

func TestParseFourAxes(t *testing.T) {
	r, ok := Parse("<MPos:1,2,3,90.0>", Report{})
	require.True(t, ok)
	require.Equal(t, []float64{1, 2, 3, 90}, r.MPos)
}

func TestParseNonFrame(t *testing.T) {
	prev := Report{MPos: []float64{1, 2, 3}}
	for _, line := range []string{"ok", "", "error:9", "<", "Grbl 3.7 ['$' for help]"} {
		r, ok := Parse(line, prev)
		require.False(t, ok, "line %q", line)
		require.Equal(t, prev, r)
	}
}

func TestParseFrameWithoutPositions(t *testing.T) {
	prev := Report{MPos: []float64{1, 2, 3}, WPos: []float64{4, 5, 6}}
	r, ok := Parse("<Idle|FS:0,0>", prev)
	require.True(t, ok)
	require.Equal(t, prev, r)
}
