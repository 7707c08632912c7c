package face

import "github.com/hamzaharrayhan/face-recognition-login/internal/model"

const (
	// Threshold is the strict upper bound on distance for a match.
	Threshold = 0.5
	// LibraryTolerance is the encoder library's own default tolerance. Its
	// verdict is reported by Compare but never decides a match.
	LibraryTolerance = 0.6
)

// MatchResult holds one verdict and one distance per reference, in order.
type MatchResult struct {
	Verdicts  []bool
	Distances []float64
	AnyMatch  bool
}

// Matcher classifies a probe encoding against reference encodings.
type Matcher struct {
	distance  DistanceFunc
	threshold float64
}

// NewMatcher returns a Matcher using Euclidean distance and Threshold.
func NewMatcher() *Matcher {
	return &Matcher{distance: EuclideanDistance, threshold: Threshold}
}

// NewMatcherWith returns a Matcher with a custom distance function.
func NewMatcherWith(distance DistanceFunc, threshold float64) *Matcher {
	if distance == nil {
		distance = EuclideanDistance
	}
	return &Matcher{distance: distance, threshold: threshold}
}

// Compare mirrors the library's compare_faces: distance <= LibraryTolerance.
func (m *Matcher) Compare(refs []model.FaceEncoding, probe model.FaceEncoding) []bool {
	out := make([]bool, len(refs))
	for i, r := range refs {
		out[i] = m.distance(r, probe) <= LibraryTolerance
	}
	return out
}

// Match computes distances and overrides the library verdicts with distance < threshold.
func (m *Matcher) Match(refs []model.FaceEncoding, probe model.FaceEncoding) MatchResult {
	res := MatchResult{
		Verdicts:  make([]bool, len(refs)),
		Distances: make([]float64, len(refs)),
	}
	for i, r := range refs {
		d := m.distance(r, probe)
		res.Distances[i] = d
		res.Verdicts[i] = d < m.threshold
		if res.Verdicts[i] {
			res.AnyMatch = true
		}
	}
	return res
}
