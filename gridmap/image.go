package gridmap

import (
	"image"
	"image/color"
)

// SetOrtho writes an RGB value into the ortho layers of a cell.
func (g *Grid) SetOrtho(row, col int, c color.NRGBA) {
	g.Set(LayerOrthoR, row, col, float64(c.R))
	g.Set(LayerOrthoG, row, col, float64(c.G))
	g.Set(LayerOrthoB, row, col, float64(c.B))
}

// OrthoAt returns the cell's ortho color and whether the cell has been set.
func (g *Grid) OrthoAt(row, col int) (color.NRGBA, bool) {
	r, ok := g.At(LayerOrthoR, row, col)
	if !ok {
		return color.NRGBA{}, false
	}
	gr, _ := g.At(LayerOrthoG, row, col)
	b, _ := g.At(LayerOrthoB, row, col)
	return color.NRGBA{R: clampChan(r), G: clampChan(gr), B: clampChan(b), A: 255}, true
}

// OrthoImage renders the ortho layers as an image, one pixel per cell.
// Undefined cells come out fully transparent.
func (g *Grid) OrthoImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.cols, g.rows))
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			if c, ok := g.OrthoAt(row, col); ok {
				img.SetNRGBA(col, row, c)
			}
		}
	}
	return img
}

func clampChan(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
