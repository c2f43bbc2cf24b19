package tree

import "github.com/colewyeth/paqmix/bit"

// Direction names which child an edge bit selects.
type Direction bool

const (
	Left  Direction = false
	Right Direction = true
)

// FromBit maps a bit onto the direction it selects.
func FromBit(b bit.Bit) Direction { return Direction(b) }

// Bit is the inverse of FromBit.
func (d Direction) Bit() bit.Bit { return bit.Bit(d) }

// Opposite flips the direction.
func (d Direction) Opposite() Direction { return !d }
