// Package pointcloud defines the container for 3D point samples produced by
// dense stereo reconstruction.
//
// Samples are produced by one call, folded into an elevation grid once, and
// then discarded, so the container is an append-only slice rather than a
// position-keyed map.
package pointcloud

import (
	"image/color"
	"math"

	"github.com/golang/geo/r3"
)

// PointSample is a single 3D sample in the global frame, optionally colored.
type PointSample struct {
	Position r3.Vector
	Color    color.NRGBA
	HasColor bool
}

// MetaData is data about what's stored in the cloud.
type MetaData struct {
	HasColor bool

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns a meta data struct with properly initialized extrema.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64, MaxX: -math.MaxFloat64,
		MinY: math.MaxFloat64, MaxY: -math.MaxFloat64,
		MinZ: math.MaxFloat64, MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the meta data with the given sample.
func (meta *MetaData) Merge(s PointSample) {
	if s.HasColor {
		meta.HasColor = true
	}
	p := s.Position
	if p.X > meta.MaxX {
		meta.MaxX = p.X
	}
	if p.Y > meta.MaxY {
		meta.MaxY = p.Y
	}
	if p.Z > meta.MaxZ {
		meta.MaxZ = p.Z
	}
	if p.X < meta.MinX {
		meta.MinX = p.X
	}
	if p.Y < meta.MinY {
		meta.MinY = p.Y
	}
	if p.Z < meta.MinZ {
		meta.MinZ = p.Z
	}
}

// Cloud is an append-only collection of point samples.
type Cloud struct {
	samples []PointSample
	meta    MetaData
}

// New returns an empty cloud.
func New() *Cloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty cloud with capacity for size samples.
func NewWithPrealloc(size int) *Cloud {
	return &Cloud{
		samples: make([]PointSample, 0, size),
		meta:    NewMetaData(),
	}
}

// Size returns the number of samples in the cloud.
func (c *Cloud) Size() int {
	return len(c.samples)
}

// MetaData returns the cloud's meta data.
func (c *Cloud) MetaData() MetaData {
	return c.meta
}

// Append adds a sample to the cloud.
func (c *Cloud) Append(s PointSample) {
	c.samples = append(c.samples, s)
	c.meta.Merge(s)
}

// Merge appends all of other's samples to this cloud.
func (c *Cloud) Merge(other *Cloud) {
	if other == nil {
		return
	}
	for _, s := range other.samples {
		c.Append(s)
	}
}

// Samples returns the backing sample slice. Callers must not mutate it.
func (c *Cloud) Samples() []PointSample {
	return c.samples
}

// Iterate calls fn for every sample in insertion order until fn returns
// false.
func (c *Cloud) Iterate(fn func(s PointSample) bool) {
	for _, s := range c.samples {
		if !fn(s) {
			return
		}
	}
}
