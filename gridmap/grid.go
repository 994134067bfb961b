// Package gridmap provides the geo-referenced raster shared by the DSM
// builder and the orthomosaic compositor: a bounded grid of cells with named
// scalar layers and per-cell observation counts.
package gridmap

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Layer names present in every grid.
const (
	// LayerElevation holds the digital surface model, meters.
	LayerElevation = "elevation"
	// LayerOrthoR/G/B back the orthomosaic; grayscale output replicates
	// the intensity across all three channels.
	LayerOrthoR = "ortho_r"
	LayerOrthoG = "ortho_g"
	LayerOrthoB = "ortho_b"
)

// ErrOutOfBounds is returned by WorldToCell for coordinates outside the
// configured bounding box.
var ErrOutOfBounds = errors.New("coordinate outside grid bounds")

// Settings fixes the grid geometry. Immutable once the grid is built.
type Settings struct {
	CenterEasting  float64
	CenterNorthing float64
	// Half-extents, meters from center to edge.
	DeltaEasting  float64
	DeltaNorthing float64
	// Cell edge length, meters.
	Resolution float64
}

// Validate rejects degenerate grid geometry.
func (s Settings) Validate() error {
	if s.DeltaEasting <= 0 || s.DeltaNorthing <= 0 {
		return errors.Errorf("grid extents must be positive, got (%f, %f)", s.DeltaEasting, s.DeltaNorthing)
	}
	if s.Resolution <= 0 {
		return errors.Errorf("grid resolution must be positive, got %f", s.Resolution)
	}
	return nil
}

// Grid is a fixed-geometry raster over an easting/northing bounding box.
// Row 0 is the northern edge, column 0 the western edge. Cell centers form
// a lattice that includes the bounding box corners, so an extent of ±10m at
// 1m resolution yields 21 cells per axis with centers at -10..10. Cells of
// all float layers are NaN until first written.
//
// Concurrency contract: concurrent writers must target disjoint cell sets;
// the grid itself does no locking.
type Grid struct {
	settings     Settings
	rows, cols   int
	minEasting   float64
	minNorthing  float64
	maxEasting   float64
	maxNorthing  float64
	layers       map[string]*mat.Dense
	observations []int
}

// NewGrid builds a grid for the given geometry with the standard layers.
func NewGrid(settings Settings) (*Grid, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	cols := int(math.Round(2*settings.DeltaEasting/settings.Resolution)) + 1
	rows := int(math.Round(2*settings.DeltaNorthing/settings.Resolution)) + 1
	if rows < 1 || cols < 1 {
		return nil, errors.Errorf("grid resolution %f too coarse for extents", settings.Resolution)
	}
	g := &Grid{
		settings:     settings,
		rows:         rows,
		cols:         cols,
		minEasting:   settings.CenterEasting - settings.DeltaEasting,
		maxEasting:   settings.CenterEasting + settings.DeltaEasting,
		minNorthing:  settings.CenterNorthing - settings.DeltaNorthing,
		maxNorthing:  settings.CenterNorthing + settings.DeltaNorthing,
		layers:       map[string]*mat.Dense{},
		observations: make([]int, rows*cols),
	}
	for _, name := range []string{LayerElevation, LayerOrthoR, LayerOrthoG, LayerOrthoB} {
		g.AddLayer(name)
	}
	return g, nil
}

// Settings returns the grid geometry.
func (g *Grid) Settings() Settings {
	return g.settings
}

// Rows returns the number of rows.
func (g *Grid) Rows() int {
	return g.rows
}

// Cols returns the number of columns.
func (g *Grid) Cols() int {
	return g.cols
}

// AddLayer creates a NaN-initialized layer; replaces any existing layer of
// the same name.
func (g *Grid) AddLayer(name string) {
	data := make([]float64, g.rows*g.cols)
	for i := range data {
		data[i] = math.NaN()
	}
	g.layers[name] = mat.NewDense(g.rows, g.cols, data)
}

// ClearLayer resets every cell of the layer to undefined.
func (g *Grid) ClearLayer(name string) {
	if _, ok := g.layers[name]; ok {
		g.AddLayer(name)
	}
}

// WorldToCell maps an easting/northing coordinate to the cell whose center
// is nearest, or ErrOutOfBounds if the coordinate is outside the bounding
// box.
func (g *Grid) WorldToCell(easting, northing float64) (int, int, error) {
	if easting < g.minEasting || easting > g.maxEasting ||
		northing < g.minNorthing || northing > g.maxNorthing {
		return 0, 0, ErrOutOfBounds
	}
	col := int(math.Floor((easting-g.minEasting)/g.settings.Resolution + 0.5))
	row := int(math.Floor((g.maxNorthing-northing)/g.settings.Resolution + 0.5))
	// guard against float rounding on the boundary
	if col >= g.cols {
		col = g.cols - 1
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return row, col, nil
}

// CellToWorld returns the world coordinate of the cell's center.
func (g *Grid) CellToWorld(row, col int) (float64, float64) {
	easting := g.minEasting + float64(col)*g.settings.Resolution
	northing := g.maxNorthing - float64(row)*g.settings.Resolution
	return easting, northing
}

// At returns the layer value at a cell and whether the cell has been set.
func (g *Grid) At(layer string, row, col int) (float64, bool) {
	l, ok := g.layers[layer]
	if !ok {
		return math.NaN(), false
	}
	v := l.At(row, col)
	return v, !math.IsNaN(v)
}

// Set writes the layer value at a cell.
func (g *Grid) Set(layer string, row, col int, v float64) {
	if l, ok := g.layers[layer]; ok {
		l.Set(row, col, v)
	}
}

// IsSet reports whether the cell of the layer has been written.
func (g *Grid) IsSet(layer string, row, col int) bool {
	_, ok := g.At(layer, row, col)
	return ok
}

// IncrementObservation bumps the cell's observation count.
func (g *Grid) IncrementObservation(row, col int) {
	g.observations[row*g.cols+col]++
}

// Observations returns the cell's observation count.
func (g *Grid) Observations(row, col int) int {
	return g.observations[row*g.cols+col]
}
