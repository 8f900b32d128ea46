// Package render draws projected grids as full-screen text frames.
package render

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/pscheid92/snakepipe/internal/domain"
	"github.com/pscheid92/snakepipe/internal/grid"
	"github.com/pscheid92/snakepipe/internal/metrics"
	"github.com/pscheid92/snakepipe/internal/stream"
)

const (
	clearScreen = "\x1b[2J"
	cursorHome  = "\x1b[H"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
	lineBreak   = "\r\n"
)

// Glyph maps a cell to the character drawn for it. Head direction is not
// drawn yet.
func Glyph(c domain.Cell) rune {
	switch c.Kind {
	case domain.CellSnakeHead:
		return 'H'
	case domain.CellSnakeTail:
		return 'T'
	case domain.CellFruit:
		return 'F'
	default:
		return ' '
	}
}

// Renderer redraws the whole surface for every grid. Not safe for
// concurrent use.
type Renderer struct {
	out *bufio.Writer
	row []rune
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{out: bufio.NewWriter(w)}
}

// Render clears the surface, homes and hides the cursor, then writes one
// line per grid row, flushing after each. The first write error is returned.
func (r *Renderer) Render(g *grid.Grid) error {
	if _, err := r.out.WriteString(clearScreen + cursorHome + hideCursor); err != nil {
		return fmt.Errorf("failed to clear screen: %w", err)
	}

	for y, cells := range g.Rows() {
		r.row = r.row[:0]
		for _, c := range cells {
			r.row = append(r.row, Glyph(c))
		}
		if _, err := r.out.WriteString(string(r.row) + lineBreak); err != nil {
			return fmt.Errorf("failed to write row %d: %w", y, err)
		}
		if err := r.out.Flush(); err != nil {
			return fmt.Errorf("failed to flush row %d: %w", y, err)
		}
	}

	metrics.FramesRenderedTotal.Inc()
	return nil
}

// Restore makes the cursor visible again.
func (r *Renderer) Restore() error {
	if _, err := r.out.WriteString(showCursor); err != nil {
		return fmt.Errorf("failed to show cursor: %w", err)
	}
	if err := r.out.Flush(); err != nil {
		return fmt.Errorf("failed to show cursor: %w", err)
	}
	return nil
}

// Run projects and draws every frame of s until the stream ends, ctx is
// cancelled, or a frame fails to project or draw. Cancellation is checked
// between frames and is not an error.
func Run(ctx context.Context, s *stream.Stream, r *Renderer) (err error) {
	defer func() {
		if restoreErr := r.Restore(); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	cfg := s.Config()
	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, ok := s.Next()
		if !ok {
			return s.Err()
		}

		g, err := grid.Project(cfg, frame)
		if err != nil {
			return fmt.Errorf("failed to project frame: %w", err)
		}
		if err := r.Render(g); err != nil {
			return err
		}
	}
}
