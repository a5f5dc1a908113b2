package render

import (
	"math"

	"github.com/matzehuels/grephite/pkg/colormap"
)

var (
	// Near is the gradient color at distance 0.
	Near = colormap.MustParseHex("#2ecc71")
	// Far is the gradient color at the largest finite distance.
	Far = colormap.MustParseHex("#e74c3c")
	// Unreachable marks nodes with an infinite distance.
	Unreachable = colormap.MustParseHex("#9e9e9e")
)

// DistanceGradient maps a distance onto the Near..Far gradient, scaled by
// maxDist. Infinite or NaN distances map to Unreachable.
func DistanceGradient(d, maxDist float64) colormap.Color {
	if math.IsInf(d, 0) || math.IsNaN(d) {
		return Unreachable
	}
	if maxDist <= 0 {
		return Near
	}
	return Near.Lerp(Far, d/maxDist)
}
