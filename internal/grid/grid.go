// Package grid projects a frame onto a fixed-size cell grid.
package grid

import (
	"iter"

	"github.com/pscheid92/snakepipe/internal/domain"
)

// Grid is a width x height matrix of cells stored row-major. A new Grid is
// built for every frame.
type Grid struct {
	width  int
	height int
	cells  []domain.Cell
}

func newGrid(width, height int) *Grid {
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]domain.Cell, width*height),
	}
}

// Project builds the grid for one frame. Tail segments are written first,
// then the head, then the fruit, so on overlap fruit wins over head and head
// over tail. Any entity outside the grid fails with ErrOutOfBounds.
func Project(cfg domain.Config, frame domain.Frame) (*Grid, error) {
	g := newGrid(int(cfg.Size.Width), int(cfg.Size.Height))

	for _, segment := range frame.Snake.Tail {
		if err := g.place(cfg, "tail", segment, domain.TailCell); err != nil {
			return nil, err
		}
	}
	if err := g.place(cfg, "head", frame.Snake.Head, domain.HeadCell(frame.Snake.Direction)); err != nil {
		return nil, err
	}
	if err := g.place(cfg, "fruit", frame.Fruit, domain.FruitCell); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *Grid) place(cfg domain.Config, entity string, p domain.Position, cell domain.Cell) error {
	if !cfg.Contains(p) {
		return &domain.ProjectionError{Entity: entity, Position: p, Size: cfg.Size}
	}
	g.cells[int(p.Y)*g.width+int(p.X)] = cell
	return nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// At returns the cell at column x, row y. It panics when out of range.
func (g *Grid) At(x, y int) domain.Cell {
	return g.cells[y*g.width+x]
}

// Rows yields each row top to bottom. The slices alias the grid.
func (g *Grid) Rows() iter.Seq2[int, []domain.Cell] {
	return func(yield func(int, []domain.Cell) bool) {
		for y := range g.height {
			if !yield(y, g.cells[y*g.width:(y+1)*g.width]) {
				return
			}
		}
	}
}

// Occupied counts non-empty cells.
func (g *Grid) Occupied() int {
	n := 0
	for _, c := range g.cells {
		if c.Kind != domain.CellEmpty {
			n++
		}
	}
	return n
}
