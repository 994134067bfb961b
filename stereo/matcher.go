package stereo

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// Strategy selects the dense matching algorithm.
type Strategy int

const (
	// StrategyBM is plain block matching: winner-take-all over a SAD window.
	StrategyBM Strategy = iota
	// StrategySGBM additionally aggregates matching cost along four scan
	// directions with smoothness penalties.
	StrategySGBM
)

// MatcherParams is a tagged variant carrying the parameters of the selected
// matching strategy. P1/P2 are only read for SGBM.
type MatcherParams struct {
	Strategy     Strategy
	BlockSize    int
	MaxDisparity int
	P1           int
	P2           int
}

// DefaultMatcherParams returns usable parameters for the given strategy.
func DefaultMatcherParams(strategy Strategy) MatcherParams {
	p := MatcherParams{
		Strategy:     strategy,
		BlockSize:    7,
		MaxDisparity: 64,
	}
	if strategy == StrategySGBM {
		p.P1 = 8 * p.BlockSize * p.BlockSize
		p.P2 = 32 * p.BlockSize * p.BlockSize
	}
	return p
}

// Validate rejects unusable matcher parameters.
func (p MatcherParams) Validate() error {
	if p.Strategy != StrategyBM && p.Strategy != StrategySGBM {
		return errors.Errorf("unknown matching strategy %d", p.Strategy)
	}
	if p.BlockSize < 3 || p.BlockSize%2 == 0 {
		return errors.Errorf("block size must be odd and >= 3, got %d", p.BlockSize)
	}
	if p.MaxDisparity < 1 {
		return errors.Errorf("max disparity must be positive, got %d", p.MaxDisparity)
	}
	if p.Strategy == StrategySGBM {
		if p.P1 <= 0 || p.P2 <= p.P1 {
			return errors.Errorf("SGBM requires 0 < P1 < P2, got P1=%d P2=%d", p.P1, p.P2)
		}
	}
	return nil
}

// DisparityMap holds per-pixel disparities of a rectified pair; negative
// values mark pixels with no valid match.
type DisparityMap struct {
	Width, Height int
	values        []float32
}

func newDisparityMap(w, h int) *DisparityMap {
	m := &DisparityMap{Width: w, Height: h, values: make([]float32, w*h)}
	for i := range m.values {
		m.values[i] = -1
	}
	return m
}

// At returns the disparity at a pixel and whether it is valid.
func (m *DisparityMap) At(x, y int) (float64, bool) {
	v := m.values[y*m.Width+x]
	return float64(v), v >= 0
}

func (m *DisparityMap) set(x, y int, v float32) {
	m.values[y*m.Width+x] = v
}

// computeDisparity runs the selected matching strategy on a rectified pair.
func computeDisparity(left, right *image.Gray, params MatcherParams) (*DisparityMap, error) {
	if left.Bounds() != right.Bounds() {
		return nil, errors.New("rectified images must share dimensions")
	}
	switch params.Strategy {
	case StrategyBM:
		return matchBM(left, right, params), nil
	case StrategySGBM:
		return matchSGBM(left, right, params), nil
	default:
		return nil, errors.Errorf("unknown matching strategy %d", params.Strategy)
	}
}

// sadCost is the sum of absolute differences between a window centered at
// (x, y) in left and (x-d, y) in right.
func sadCost(left, right *image.Gray, x, y, d, half int) int {
	cost := 0
	for dy := -half; dy <= half; dy++ {
		li := (y+dy)*left.Stride + (x - half)
		ri := (y+dy)*right.Stride + (x - d - half)
		for dx := 0; dx <= 2*half; dx++ {
			diff := int(left.Pix[li+dx]) - int(right.Pix[ri+dx])
			if diff < 0 {
				diff = -diff
			}
			cost += diff
		}
	}
	return cost
}

// matchBM is winner-take-all SAD block matching with a uniqueness check.
func matchBM(left, right *image.Gray, params MatcherParams) *DisparityMap {
	w, h := left.Bounds().Dx(), left.Bounds().Dy()
	out := newDisparityMap(w, h)
	half := params.BlockSize / 2

	for y := half; y < h-half; y++ {
		for x := half; x < w-half; x++ {
			maxD := params.MaxDisparity
			if x-half < maxD {
				maxD = x - half
			}
			if maxD < 1 {
				continue
			}
			best, second := math.MaxInt, math.MaxInt
			bestD := -1
			for d := 0; d <= maxD; d++ {
				c := sadCost(left, right, x, y, d, half)
				switch {
				case c < best:
					second = best
					best = c
					bestD = d
				case c < second:
					second = c
				}
			}
			if !disparityAccepted(bestD, maxD, best, second) {
				continue
			}
			out.set(x, y, float32(bestD))
		}
	}
	return out
}

// disparityAccepted filters border disparities and ambiguous winners.
func disparityAccepted(bestD, maxD, best, second int) bool {
	if bestD <= 0 || bestD >= maxD {
		return false
	}
	// uniqueness: winner must beat runner-up by a margin
	if second != math.MaxInt && second-best < (second+1)/20 {
		return false
	}
	return true
}

// matchSGBM computes a SAD cost volume and aggregates it along four scanline
// directions with P1/P2 smoothness penalties before the winner-take-all.
func matchSGBM(left, right *image.Gray, params MatcherParams) *DisparityMap {
	w, h := left.Bounds().Dx(), left.Bounds().Dy()
	out := newDisparityMap(w, h)
	half := params.BlockSize / 2
	nd := params.MaxDisparity + 1

	const invalidCost = math.MaxInt32 / 4
	cost := make([]int32, w*h*nd)
	for i := range cost {
		cost[i] = invalidCost
	}
	at := func(x, y, d int) int { return (y*w+x)*nd + d }

	for y := half; y < h-half; y++ {
		for x := half; x < w-half; x++ {
			maxD := params.MaxDisparity
			if x-half < maxD {
				maxD = x - half
			}
			for d := 0; d <= maxD; d++ {
				cost[at(x, y, d)] = int32(sadCost(left, right, x, y, d, half))
			}
		}
	}

	aggregated := make([]int64, w*h*nd)
	dirs := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for _, dir := range dirs {
		aggregateDirection(cost, aggregated, w, h, nd, dir[0], dir[1], int32(params.P1), int32(params.P2))
	}

	for y := half; y < h-half; y++ {
		for x := half; x < w-half; x++ {
			maxD := params.MaxDisparity
			if x-half < maxD {
				maxD = x - half
			}
			if maxD < 1 {
				continue
			}
			var best, second int64 = math.MaxInt64, math.MaxInt64
			bestD := -1
			for d := 0; d <= maxD; d++ {
				s := aggregated[at(x, y, d)]
				switch {
				case s < best:
					second = best
					best = s
					bestD = d
				case s < second:
					second = s
				}
			}
			if bestD <= 0 || bestD >= maxD {
				continue
			}
			if second != math.MaxInt64 && second-best < (second+1)/100 {
				continue
			}
			out.set(x, y, float32(bestD))
		}
	}
	return out
}

// aggregateDirection adds the dynamic-programming path cost along (dx, dy)
// into the aggregated volume.
func aggregateDirection(cost []int32, aggregated []int64, w, h, nd, dx, dy int, p1, p2 int32) {
	at := func(x, y, d int) int { return (y*w+x)*nd + d }
	prev := make([]int32, nd)
	cur := make([]int32, nd)

	traverse := func(x0, y0 int) {
		havePrev := false
		for x, y := x0, y0; x >= 0 && x < w && y >= 0 && y < h; x, y = x+dx, y+dy {
			if !havePrev {
				for d := 0; d < nd; d++ {
					cur[d] = cost[at(x, y, d)]
				}
			} else {
				var minPrev int32 = math.MaxInt32
				for d := 0; d < nd; d++ {
					if prev[d] < minPrev {
						minPrev = prev[d]
					}
				}
				for d := 0; d < nd; d++ {
					best := prev[d]
					if d > 0 && prev[d-1]+p1 < best {
						best = prev[d-1] + p1
					}
					if d < nd-1 && prev[d+1]+p1 < best {
						best = prev[d+1] + p1
					}
					if minPrev+p2 < best {
						best = minPrev + p2
					}
					cur[d] = cost[at(x, y, d)] + best - minPrev
				}
			}
			for d := 0; d < nd; d++ {
				aggregated[at(x, y, d)] += int64(cur[d])
			}
			prev, cur = cur, prev
			havePrev = true
		}
	}

	switch {
	case dx == 1:
		for y := 0; y < h; y++ {
			traverse(0, y)
		}
	case dx == -1:
		for y := 0; y < h; y++ {
			traverse(w-1, y)
		}
	case dy == 1:
		for x := 0; x < w; x++ {
			traverse(x, 0)
		}
	default:
		for x := 0; x < w; x++ {
			traverse(x, h-1)
		}
	}
}
