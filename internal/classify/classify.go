// Package classify maps region densities to a fixed discrete color scale.
package classify

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a hex color string like "#FFEDA0".
type Color string

// boundaries are the bucket thresholds. Legend and Classify share this
// slice so the two can never drift apart.
var boundaries = []float64{10, 20, 50, 100, 200, 500, 1000}

// palette has len(boundaries)+1 entries, darkest last.
var palette = []Color{
	"#FFEDA0",
	"#FED976",
	"#FEB24C",
	"#FD8D3C",
	"#FC4E2A",
	"#E31A1C",
	"#BD0026",
	"#800026",
}

// BucketIndex returns the bucket for a density value. Total over all
// reals; anything at or below the lowest boundary lands in bucket 0.
func BucketIndex(v float64) int {
	for i := len(boundaries) - 1; i >= 0; i-- {
		if v > boundaries[i] {
			return i + 1
		}
	}
	return 0
}

// Classify returns the color for a density value.
func Classify(v float64) Color {
	return palette[BucketIndex(v)]
}

// Buckets reports the number of buckets in the scale.
func Buckets() int { return len(palette) }

// Palette returns the bucket colors, lightest first.
func Palette() []Color {
	out := make([]Color, len(palette))
	copy(out, palette)
	return out
}

// LegendRow is one legend entry.
type LegendRow struct {
	Color Color
	Label string
}

// Legend enumerates the scale using the same boundaries as Classify.
func Legend() []LegendRow {
	rows := make([]LegendRow, 0, len(palette))
	rows = append(rows, LegendRow{palette[0], fmt.Sprintf("0–%s", trim(boundaries[0]))})
	for i := 1; i < len(boundaries); i++ {
		rows = append(rows, LegendRow{palette[i], fmt.Sprintf("%s–%s", trim(boundaries[i-1]), trim(boundaries[i]))})
	}
	rows = append(rows, LegendRow{palette[len(palette)-1], trim(boundaries[len(boundaries)-1]) + "+"})
	return rows
}

// HighlightColor derives the emphasized shade for a bucket color by
// blending it toward white.
func HighlightColor(c Color) Color {
	base, err := colorful.Hex(string(c))
	if err != nil {
		return c
	}
	white, _ := colorful.Hex("#FFFFFF")
	return Color(strings.ToUpper(base.BlendLab(white, 0.45).Clamped().Hex()))
}

func trim(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	return s
}
