package rimage

import (
	"image"
	"image/color"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestToGray(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.SetNRGBA(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	g := ToGray(src)
	test.That(t, g.GrayAt(1, 1).Y, test.ShouldEqual, uint8(255))
	test.That(t, g.GrayAt(0, 0).Y, test.ShouldEqual, uint8(0))

	// already gray passes through
	test.That(t, ToGray(g), test.ShouldEqual, g)
}

func TestBilinearGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(1, 0, color.Gray{Y: 100})
	img.SetGray(0, 1, color.Gray{Y: 50})
	img.SetGray(1, 1, color.Gray{Y: 150})

	v, ok := BilinearGray(img, r2.Point{X: 0, Y: 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 0.0)

	v, ok = BilinearGray(img, r2.Point{X: 0.5, Y: 0.5})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 75.0)

	_, ok = BilinearGray(img, r2.Point{X: 1.5, Y: 0})
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = BilinearGray(img, r2.Point{X: -0.1, Y: 0})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestBilinearColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{R: 0, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 200, A: 255})

	c, ok := BilinearColor(img, r2.Point{X: 0.5, Y: 0.5})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, c.R, test.ShouldEqual, uint8(100))

	_, ok = BilinearColor(img, r2.Point{X: 1.5, Y: 0.5})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestNearestGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 3))
	img.SetGray(2, 1, color.Gray{Y: 42})
	v, ok := NearestGray(img, r2.Point{X: 1.6, Y: 1.2})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 42.0)
	_, ok = NearestGray(img, r2.Point{X: 3.0, Y: 0})
	test.That(t, ok, test.ShouldBeFalse)
}
