package gridmap

import (
	"image/color"
	"testing"

	"go.viam.com/test"
)

func newTestGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := NewGrid(Settings{
		CenterEasting:  0,
		CenterNorthing: 0,
		DeltaEasting:   10,
		DeltaNorthing:  10,
		Resolution:     1,
	})
	test.That(t, err, test.ShouldBeNil)
	return g
}

func TestSettingsValidate(t *testing.T) {
	_, err := NewGrid(Settings{DeltaEasting: 0, DeltaNorthing: 10, Resolution: 1})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewGrid(Settings{DeltaEasting: 10, DeltaNorthing: -1, Resolution: 1})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewGrid(Settings{DeltaEasting: 10, DeltaNorthing: 10, Resolution: 0})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGridDimensions(t *testing.T) {
	g := newTestGrid(t)
	test.That(t, g.Rows(), test.ShouldEqual, 21)
	test.That(t, g.Cols(), test.ShouldEqual, 21)
}

func TestWorldToCellBounds(t *testing.T) {
	g := newTestGrid(t)

	for _, bad := range [][2]float64{
		{10.001, 0}, {-10.001, 0}, {0, 10.001}, {0, -10.001}, {100, 100},
	} {
		_, _, err := g.WorldToCell(bad[0], bad[1])
		test.That(t, err, test.ShouldBeError, ErrOutOfBounds)
	}

	row, col, err := g.WorldToCell(0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, row, test.ShouldEqual, 10)
	test.That(t, col, test.ShouldEqual, 10)

	// boundary coordinates land exactly on the edge cell centers
	row, col, err = g.WorldToCell(10, -10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, row, test.ShouldEqual, 20)
	test.That(t, col, test.ShouldEqual, 20)

	row, col, err = g.WorldToCell(-10, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, row, test.ShouldEqual, 0)
	test.That(t, col, test.ShouldEqual, 0)
}

func TestWorldToCellInjective(t *testing.T) {
	g := newTestGrid(t)
	seen := map[[2]int]bool{}
	// one probe per cell center must hit each cell exactly once
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < g.Cols(); col++ {
			e, n := g.CellToWorld(row, col)
			gotRow, gotCol, err := g.WorldToCell(e, n)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, gotRow, test.ShouldEqual, row)
			test.That(t, gotCol, test.ShouldEqual, col)
			key := [2]int{gotRow, gotCol}
			test.That(t, seen[key], test.ShouldBeFalse)
			seen[key] = true
		}
	}
	test.That(t, len(seen), test.ShouldEqual, g.Rows()*g.Cols())
}

func TestLayerSetGetClear(t *testing.T) {
	g := newTestGrid(t)

	_, ok := g.At(LayerElevation, 3, 4)
	test.That(t, ok, test.ShouldBeFalse)

	g.Set(LayerElevation, 3, 4, 12.5)
	v, ok := g.At(LayerElevation, 3, 4)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 12.5)

	g.ClearLayer(LayerElevation)
	_, ok = g.At(LayerElevation, 3, 4)
	test.That(t, ok, test.ShouldBeFalse)

	// unknown layers read as unset
	_, ok = g.At("nope", 0, 0)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestObservationCounts(t *testing.T) {
	g := newTestGrid(t)
	test.That(t, g.Observations(5, 5), test.ShouldEqual, 0)
	g.IncrementObservation(5, 5)
	g.IncrementObservation(5, 5)
	test.That(t, g.Observations(5, 5), test.ShouldEqual, 2)
	test.That(t, g.Observations(5, 6), test.ShouldEqual, 0)
}

func TestOrthoHelpersAndImage(t *testing.T) {
	g := newTestGrid(t)
	_, ok := g.OrthoAt(0, 0)
	test.That(t, ok, test.ShouldBeFalse)

	c := color.NRGBA{R: 10, G: 200, B: 30, A: 255}
	g.SetOrtho(2, 3, c)
	got, ok := g.OrthoAt(2, 3)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got, test.ShouldResemble, c)

	img := g.OrthoImage()
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, g.Cols())
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, g.Rows())
	test.That(t, img.NRGBAAt(3, 2), test.ShouldResemble, c)
	test.That(t, img.NRGBAAt(0, 0).A, test.ShouldEqual, uint8(0))
}
