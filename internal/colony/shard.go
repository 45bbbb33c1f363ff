package colony

import (
	"fmt"
	"strconv"
	"strings"
)

// Shard identifies a fixed-size rectangular partition of the world grid.
// Coordinates are world-grid positions of the shard's top-left corner.
// A shard is immutable once created and owned by exactly one worker at a
// time; ownership is recorded in the cluster topology.
type Shard struct {
	X      int32 `json:"x"`
	Y      int32 `json:"y"`
	Width  int32 `json:"width"`
	Height int32 `json:"height"`
}

// ID renders the canonical shard id, "x_y_width_height".
func (s Shard) ID() string {
	return fmt.Sprintf("%d_%d_%d_%d", s.X, s.Y, s.Width, s.Height)
}

// ParseShardID parses a canonical "x_y_width_height" shard id.
func ParseShardID(id string) (Shard, error) {
	parts := strings.Split(id, "_")
	if len(parts) != 4 {
		return Shard{}, fmt.Errorf("invalid shard id %q: want x_y_width_height", id)
	}
	vals := make([]int32, 4)
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 32)
		if err != nil {
			return Shard{}, fmt.Errorf("invalid shard id %q: %w", id, err)
		}
		vals[i] = int32(v)
	}
	s := Shard{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	if s.Width <= 0 || s.Height <= 0 {
		return Shard{}, fmt.Errorf("invalid shard id %q: non-positive dimensions", id)
	}
	return s, nil
}

// Adjacent reports whether two shards share an edge or a corner. A shard is
// not adjacent to itself.
func (s Shard) Adjacent(o Shard) bool {
	if s == o {
		return false
	}
	// Ranges touching (including at a single point) count as adjacent.
	xTouch := s.X <= o.X+o.Width && o.X <= s.X+s.Width
	yTouch := s.Y <= o.Y+o.Height && o.Y <= s.Y+s.Height
	return xTouch && yTouch
}

// ContainsGlobal reports whether a world-grid coordinate lies inside the
// shard's interior.
func (s Shard) ContainsGlobal(x, y int32) bool {
	return x >= s.X && x < s.X+s.Width && y >= s.Y && y < s.Y+s.Height
}
