package spatialmath

import (
	"github.com/golang/geo/r3"
)

func r3VectorFromSlice(v []float64) r3.Vector {
	if len(v) < 3 {
		return r3.Vector{}
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}
