package domain

import (
	"encoding/json"
	"fmt"
)

type Direction string

const (
	DirectionUp    Direction = "Up"
	DirectionRight Direction = "Right"
	DirectionDown  Direction = "Down"
	DirectionLeft  Direction = "Left"
)

// Valid reports whether d is one of the four known directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionUp, DirectionRight, DirectionDown, DirectionLeft:
		return true
	default:
		return false
	}
}

// UnmarshalJSON rejects anything but the four direction names.
func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("direction must be a string: %w", err)
	}
	dir := Direction(s)
	if !dir.Valid() {
		return fmt.Errorf("unknown direction %q", s)
	}
	*d = dir
	return nil
}

type Position struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

type Snake struct {
	Direction Direction  `json:"direction"`
	Head      Position   `json:"head"`
	Tail      []Position `json:"tail"`
}

// Frame is one snapshot of the game. A frame is consumed once, by the
// renderer or the broadcaster, and then dropped.
type Frame struct {
	Snake  Snake    `json:"snake"`
	Fruit  Position `json:"fruit"`
	Score  uint32   `json:"score"`
	Over   bool     `json:"over"`
	Paused bool     `json:"paused"`
}
