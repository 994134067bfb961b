package camera

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

func quatIdentity() quat.Number {
	return quat.Number{Real: 1}
}

func r3Vec(t [3]float64) r3.Vector {
	return r3.Vector{X: t[0], Y: t[1], Z: t[2]}
}
