package domain

// Size is the fixed grid size for the lifetime of a stream.
type Size struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Config is the first message of every stream. It is decoded once and never
// mutated afterwards.
type Config struct {
	FrameDuration uint32 `json:"frameDuration"` // milliseconds
	Size          Size   `json:"size"`
}

// Contains reports whether p lies inside the grid described by c.
func (c Config) Contains(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && int64(p.X) < int64(c.Size.Width) && int64(p.Y) < int64(c.Size.Height)
}

// Cells returns the number of cells of a grid built from c.
func (c Config) Cells() int {
	return int(c.Size.Width) * int(c.Size.Height)
}
