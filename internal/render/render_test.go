package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pscheid92/snakepipe/internal/domain"
	"github.com/pscheid92/snakepipe/internal/grid"
	"github.com/pscheid92/snakepipe/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	configLine = `{"frameDuration":100,"size":{"width":3,"height":3}}`
	frameLine  = `{"snake":{"direction":"Up","head":{"x":1,"y":1},"tail":[{"x":1,"y":2}]},"fruit":{"x":0,"y":0},"score":0,"over":false,"paused":false}`
	badLine    = `{"snake":{"direction":"Up","head":{"x":3,"y":1},"tail":[]},"fruit":{"x":0,"y":0},"score":0,"over":false,"paused":false}`
)

// failingWriter accepts n bytes and then fails every write.
type failingWriter struct {
	n int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, errors.New("terminal gone")
	}
	if len(p) > w.n {
		written := w.n
		w.n = 0
		return written, errors.New("terminal gone")
	}
	w.n -= len(p)
	return len(p), nil
}

func scenarioGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.Project(domain.Config{Size: domain.Size{Width: 3, Height: 3}}, domain.Frame{
		Snake: domain.Snake{Direction: domain.DirectionUp, Head: domain.Position{X: 1, Y: 1}, Tail: []domain.Position{{X: 1, Y: 2}}},
		Fruit: domain.Position{X: 0, Y: 0},
	})
	require.NoError(t, err)
	return g
}

func TestGlyph(t *testing.T) {
	assert.Equal(t, ' ', Glyph(domain.EmptyCell))
	assert.Equal(t, 'T', Glyph(domain.TailCell))
	assert.Equal(t, 'F', Glyph(domain.FruitCell))
	for _, d := range []domain.Direction{domain.DirectionUp, domain.DirectionRight, domain.DirectionDown, domain.DirectionLeft} {
		assert.Equal(t, 'H', Glyph(domain.HeadCell(d)))
	}
}

func TestRender_Scenario(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	require.NoError(t, r.Render(scenarioGrid(t)))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, clearScreen+cursorHome+hideCursor))
	body := strings.TrimPrefix(out, clearScreen+cursorHome+hideCursor)
	assert.Equal(t, "F  \r\n H \r\n T \r\n", body)
}

func TestRender_FullRedrawEachFrame(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)
	g := scenarioGrid(t)

	require.NoError(t, r.Render(g))
	require.NoError(t, r.Render(g))

	assert.Equal(t, 2, strings.Count(buf.String(), clearScreen))
	assert.Equal(t, 6, strings.Count(buf.String(), lineBreak))
}

func TestRender_WriteErrorPropagates(t *testing.T) {
	r := NewRenderer(&failingWriter{n: 20})

	err := r.Render(scenarioGrid(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal gone")
}

func TestRestore(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf).Restore())
	assert.Equal(t, showCursor, buf.String())
}

func TestRun_RendersAllFrames(t *testing.T) {
	s, err := stream.Decode(strings.NewReader(configLine + "\n" + frameLine + "\nnot json\n" + frameLine + "\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Run(context.Background(), s, NewRenderer(&buf)))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, clearScreen))
	assert.Equal(t, 2, strings.Count(out, "F  \r\n H \r\n T \r\n"))
	assert.True(t, strings.HasSuffix(out, showCursor))
}

func TestRun_OutOfBoundsStopsLoop(t *testing.T) {
	s, err := stream.Decode(strings.NewReader(configLine + "\n" + frameLine + "\n" + badLine + "\n" + frameLine + "\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	err = Run(context.Background(), s, NewRenderer(&buf))
	require.ErrorIs(t, err, domain.ErrOutOfBounds)
	assert.Equal(t, 1, strings.Count(buf.String(), clearScreen))
	assert.True(t, strings.HasSuffix(buf.String(), showCursor))
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, err := stream.Decode(strings.NewReader(configLine + "\n" + frameLine + "\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	require.NoError(t, Run(ctx, s, NewRenderer(&buf)))
	assert.Equal(t, showCursor, buf.String())
}
