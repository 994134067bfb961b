package pointcloud

import (
	"image/color"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestCloudBasic(t *testing.T) {
	c := New()
	test.That(t, c.Size(), test.ShouldEqual, 0)

	c.Append(PointSample{Position: r3.Vector{X: 1, Y: 2, Z: 3}})
	c.Append(PointSample{
		Position: r3.Vector{X: -4, Y: 0, Z: 9},
		Color:    color.NRGBA{R: 10, G: 20, B: 30, A: 255},
		HasColor: true,
	})
	test.That(t, c.Size(), test.ShouldEqual, 2)

	meta := c.MetaData()
	test.That(t, meta.HasColor, test.ShouldBeTrue)
	test.That(t, meta.MinX, test.ShouldEqual, -4.0)
	test.That(t, meta.MaxX, test.ShouldEqual, 1.0)
	test.That(t, meta.MinZ, test.ShouldEqual, 3.0)
	test.That(t, meta.MaxZ, test.ShouldEqual, 9.0)

	count := 0
	c.Iterate(func(s PointSample) bool {
		count++
		return true
	})
	test.That(t, count, test.ShouldEqual, 2)

	// early stop
	count = 0
	c.Iterate(func(s PointSample) bool {
		count++
		return false
	})
	test.That(t, count, test.ShouldEqual, 1)
}

func TestCloudMerge(t *testing.T) {
	a := New()
	a.Append(PointSample{Position: r3.Vector{X: 1}})
	b := New()
	b.Append(PointSample{Position: r3.Vector{X: 2}})
	b.Append(PointSample{Position: r3.Vector{X: 3, Z: 7}})

	a.Merge(b)
	a.Merge(nil)
	test.That(t, a.Size(), test.ShouldEqual, 3)
	test.That(t, a.MetaData().MaxX, test.ShouldEqual, 3.0)
	test.That(t, a.MetaData().MaxZ, test.ShouldEqual, 7.0)
}

func TestNewFromFileUnknownExtension(t *testing.T) {
	logger := golog.NewTestLogger(t)
	_, err := NewFromFile("cloud.xyz", logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewFromPLYFile("does-not-exist.ply", logger)
	test.That(t, err, test.ShouldNotBeNil)
}
