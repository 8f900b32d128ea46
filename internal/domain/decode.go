package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errNotObject = errors.New("expected a JSON object")

// decodeStrict unmarshals data into v after checking that every named
// member is present under its exact key and is not null. encoding/json on
// its own zero-fills absent members and folds key case.
func decodeStrict(data []byte, v any, fields ...string) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	if members == nil {
		return errNotObject
	}
	for _, name := range fields {
		raw, ok := members[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return fmt.Errorf("missing field %q", name)
		}
	}
	return json.Unmarshal(data, v)
}

// The plain* types drop the UnmarshalJSON methods so decodeStrict can hand
// the body back to encoding/json without recursing.
type (
	plainSize     Size
	plainConfig   Config
	plainPosition Position
	plainSnake    Snake
	plainFrame    Frame
)

func (s *Size) UnmarshalJSON(data []byte) error {
	if err := decodeStrict(data, (*plainSize)(s), "width", "height"); err != nil {
		return fmt.Errorf("size: %w", err)
	}
	return nil
}

func (c *Config) UnmarshalJSON(data []byte) error {
	if err := decodeStrict(data, (*plainConfig)(c), "frameDuration", "size"); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (p *Position) UnmarshalJSON(data []byte) error {
	if err := decodeStrict(data, (*plainPosition)(p), "x", "y"); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	return nil
}

func (s *Snake) UnmarshalJSON(data []byte) error {
	if err := decodeStrict(data, (*plainSnake)(s), "direction", "head", "tail"); err != nil {
		return fmt.Errorf("snake: %w", err)
	}
	return nil
}

func (f *Frame) UnmarshalJSON(data []byte) error {
	if err := decodeStrict(data, (*plainFrame)(f), "snake", "fruit", "score", "over", "paused"); err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	return nil
}
