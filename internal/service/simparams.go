package service

import "math/rand"

// sampleDist draws one sample from a SimDist: a fixed value, or
// N(Mean, StdDev) for Gaussian. There is no pack library for sampling a
// distribution (this is a tiny numeric helper, not an I/O or protocol
// concern), so it is built directly on math/rand — see DESIGN.md.
func sampleDist(d SimDist) float64 {
	switch d.Kind {
	case SimGaussian:
		v := rand.NormFloat64()*d.StdDev + d.Mean
		if v < 0 {
			return 0
		}
		return v
	default:
		return d.Fixed
	}
}
