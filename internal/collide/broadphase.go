package collide

import (
	"math"
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// DefaultCellSize is the spatial grid cell edge used by Detect.
const DefaultCellSize = 5.0

// maxCellSpan is the number of cells a model may cover per axis before it is
// kept out of the grid and tested against everything.
const maxCellSpan = 4

// CellKey for spatial hashing
type CellKey struct {
	X, Y, Z int
}

func posToCell(pos rl.Vector3, size float32) CellKey {
	return CellKey{
		X: int(math.Floor(float64(pos.X / size))),
		Y: int(math.Floor(float64(pos.Y / size))),
		Z: int(math.Floor(float64(pos.Z / size))),
	}
}

// Grid is a uniform spatial hash over model bounds. It is reused between
// steps to avoid reallocating buckets.
type Grid struct {
	CellSize float32
	cells    map[CellKey][]int
	big      []int
	bounds   []AABB
}

func NewGrid(cellSize float32) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{CellSize: cellSize, cells: make(map[CellKey][]int)}
}

// rebuild clears and repopulates the grid
func (g *Grid) rebuild(models []*Model, margin float32) {
	for k, v := range g.cells {
		g.cells[k] = v[:0]
	}
	g.big = g.big[:0]
	g.bounds = g.bounds[:0]

	for i, m := range models {
		box := m.Bounds(margin)
		g.bounds = append(g.bounds, box)

		lo, hi := posToCell(box.Min, g.CellSize), posToCell(box.Max, g.CellSize)
		if hi.X-lo.X >= maxCellSpan || hi.Y-lo.Y >= maxCellSpan || hi.Z-lo.Z >= maxCellSpan {
			g.big = append(g.big, i)
			continue
		}
		for x := lo.X; x <= hi.X; x++ {
			for y := lo.Y; y <= hi.Y; y++ {
				for z := lo.Z; z <= hi.Z; z++ {
					key := CellKey{x, y, z}
					g.cells[key] = append(g.cells[key], i)
				}
			}
		}
	}
}

// Pairs returns every pair of models whose bounds, grown by margin, overlap.
// Pairs on the same body and pairs of two immovable bodies are skipped. The
// result is ordered by model index.
func (g *Grid) Pairs(models []*Model, margin float32) [][2]*Model {
	g.rebuild(models, margin)

	// Track checked pairs to avoid duplicate checks
	checked := make(map[[2]int]bool)
	var idx [][2]int
	try := func(i, j int) {
		if i == j {
			return
		}
		if i > j {
			i, j = j, i
		}
		key := [2]int{i, j}
		if checked[key] {
			return
		}
		checked[key] = true
		if !pairable(models[i], models[j]) || !g.bounds[i].Intersects(g.bounds[j]) {
			return
		}
		idx = append(idx, key)
	}

	for _, bucket := range g.cells {
		for a := 0; a < len(bucket); a++ {
			for b := a + 1; b < len(bucket); b++ {
				try(bucket[a], bucket[b])
			}
		}
	}
	for _, i := range g.big {
		for j := range models {
			try(i, j)
		}
	}

	sort.Slice(idx, func(a, b int) bool {
		if idx[a][0] != idx[b][0] {
			return idx[a][0] < idx[b][0]
		}
		return idx[a][1] < idx[b][1]
	})
	out := make([][2]*Model, len(idx))
	for k, p := range idx {
		out[k] = [2]*Model{models[p[0]], models[p[1]]}
	}
	return out
}

func pairable(a, b *Model) bool {
	if a.Body == b.Body {
		return false
	}
	return !(a.Body.Fixed && b.Body.Fixed)
}

// Detect runs the broad and narrow phase over models and returns candidates
// sorted by key. A fixed body is always placed on the B side; otherwise the
// lower model id is A.
func Detect(models []*Model, envelope float32) []Candidate {
	return NewGrid(DefaultCellSize).Detect(models, envelope)
}

// Detect is the grid-reusing form of the package level Detect.
func (g *Grid) Detect(models []*Model, envelope float32) []Candidate {
	var out []Candidate
	for _, p := range g.Pairs(models, envelope) {
		a, b := order(p[0], p[1])
		out = Narrow(a, b, envelope, out)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

func order(a, b *Model) (*Model, *Model) {
	switch {
	case a.Body.Fixed && !b.Body.Fixed:
		return b, a
	case b.Body.Fixed && !a.Body.Fixed:
		return a, b
	case b.ID < a.ID:
		return b, a
	}
	return a, b
}
