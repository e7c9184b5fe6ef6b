package village

import (
	"fmt"

	"github.com/napolitain/village-sim/internal/models"
)

// neighbourOffsets lists orthogonal neighbours in west, east, north, south order
var neighbourOffsets = [4]models.Position{{X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: 0, Y: 1}}

// Grid is a fixed square placement surface. Cells hold building ids.
type Grid struct {
	size  int
	cells []string
}

// NewGrid creates an empty size×size grid
func NewGrid(size int) *Grid {
	if size < 1 {
		size = DefaultGridSize
	}
	return &Grid{
		size:  size,
		cells: make([]string, size*size),
	}
}

// Size returns the side length of the grid
func (g *Grid) Size() int {
	return g.size
}

// InBounds reports whether x and y are both in [0, size)
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.size && y >= 0 && y < g.size
}

// CellAt returns the id of the building at x,y, if any
func (g *Grid) CellAt(x, y int) (string, bool, error) {
	if !g.InBounds(x, y) {
		return "", false, fmt.Errorf("%w: (%d,%d) on a %dx%d grid", models.ErrOutOfBounds, x, y, g.size, g.size)
	}
	id := g.cells[y*g.size+x]
	return id, id != "", nil
}

// Check returns the error Place would return, without placing anything
func (g *Grid) Check(x, y int) error {
	id, occupied, err := g.CellAt(x, y)
	if err != nil {
		return err
	}
	if occupied {
		return fmt.Errorf("%w: (%d,%d) holds %s", models.ErrCellOccupied, x, y, id)
	}
	return nil
}

// Place puts a building id in an empty cell
func (g *Grid) Place(id string, pos models.Position) error {
	if err := g.Check(pos.X, pos.Y); err != nil {
		return err
	}
	g.cells[pos.Y*g.size+pos.X] = id
	return nil
}

// Adjacent returns the ids of occupied orthogonal neighbours in west, east,
// north, south order. Out of bounds positions have no neighbours.
func (g *Grid) Adjacent(x, y int) []string {
	if !g.InBounds(x, y) {
		return nil
	}
	var ids []string
	for _, d := range neighbourOffsets {
		nx, ny := x+d.X, y+d.Y
		if !g.InBounds(nx, ny) {
			continue
		}
		if id := g.cells[ny*g.size+nx]; id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Occupied returns the number of filled cells
func (g *Grid) Occupied() int {
	n := 0
	for _, id := range g.cells {
		if id != "" {
			n++
		}
	}
	return n
}
