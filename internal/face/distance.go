// Package face compares face encodings and talks to the encoder sidecar.
package face

import (
	"math"

	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
)

// DistanceFunc returns a non-negative distance between two encodings.
type DistanceFunc func(a, b model.FaceEncoding) float64

// EuclideanDistance is the L2 norm of a-b. Encodings of unequal length are
// compared over the shorter prefix and the tail of the longer one counts in full.
func EuclideanDistance(a, b model.FaceEncoding) float64 {
	if len(a) < len(b) {
		a, b = b, a
	}
	var sum float64
	for i := range a {
		d := a[i]
		if i < len(b) {
			d -= b[i]
		}
		sum += d * d
	}
	return math.Sqrt(sum)
}
