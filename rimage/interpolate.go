// Package rimage holds the image helpers the mapping pipeline needs:
// grayscale conversion and sub-pixel sampling.
package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
)

// ToGray converts any image to 8-bit grayscale.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// all three channels are equal after Grayscale
			out.SetGray(x, y, color.Gray{Y: nrgba.NRGBAAt(x, y).R})
		}
	}
	return out
}

// BilinearGray samples a grayscale image at a sub-pixel location. The second
// return is false when the location is too close to the border to
// interpolate.
func BilinearGray(img *image.Gray, p r2.Point) (float64, bool) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if p.X < 0 || p.Y < 0 || p.X >= float64(w-1) || p.Y >= float64(h-1) {
		return 0, false
	}
	x0, y0 := int(math.Floor(p.X)), int(math.Floor(p.Y))
	fx, fy := p.X-float64(x0), p.Y-float64(y0)

	v00 := float64(img.GrayAt(x0, y0).Y)
	v10 := float64(img.GrayAt(x0+1, y0).Y)
	v01 := float64(img.GrayAt(x0, y0+1).Y)
	v11 := float64(img.GrayAt(x0+1, y0+1).Y)

	top := v00*(1-fx) + v10*fx
	bottom := v01*(1-fx) + v11*fx
	return top*(1-fy) + bottom*fy, true
}

// BilinearColor samples a color image at a sub-pixel location. The second
// return is false when the location is too close to the border to
// interpolate.
func BilinearColor(img image.Image, p r2.Point) (color.NRGBA, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if p.X < 0 || p.Y < 0 || p.X >= float64(w-1) || p.Y >= float64(h-1) {
		return color.NRGBA{}, false
	}
	x0, y0 := int(math.Floor(p.X)), int(math.Floor(p.Y))
	fx, fy := p.X-float64(x0), p.Y-float64(y0)

	blend := func(ch [4]float64) float64 {
		top := ch[0]*(1-fx) + ch[1]*fx
		bottom := ch[2]*(1-fx) + ch[3]*fx
		return top*(1-fy) + bottom*fy
	}

	var rs, gs, bs [4]float64
	pts := [4][2]int{{x0, y0}, {x0 + 1, y0}, {x0, y0 + 1}, {x0 + 1, y0 + 1}}
	for i, q := range pts {
		r, g, bb, _ := img.At(b.Min.X+q[0], b.Min.Y+q[1]).RGBA()
		rs[i] = float64(r >> 8)
		gs[i] = float64(g >> 8)
		bs[i] = float64(bb >> 8)
	}
	return color.NRGBA{
		R: roundChan(blend(rs)),
		G: roundChan(blend(gs)),
		B: roundChan(blend(bs)),
		A: 255,
	}, true
}

// NearestGray samples a grayscale image at the nearest pixel.
func NearestGray(img *image.Gray, p r2.Point) (float64, bool) {
	x, y := int(math.Round(p.X)), int(math.Round(p.Y))
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if x < 0 || y < 0 || x >= w || y >= h {
		return 0, false
	}
	return float64(img.GrayAt(x, y).Y), true
}

func roundChan(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
