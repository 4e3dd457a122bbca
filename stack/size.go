package stack

import (
	"fmt"

	"github.com/chazu/methodgen/descriptor"
)

// Size is the stack effect of an operation relative to the height it starts
// at: Net is the change in height, Max the largest growth reached while the
// operation runs.
type Size struct {
	Net int
	Max int
}

// Zero is the effect of an operation that leaves the stack untouched.
var Zero = Size{}

// Aggregate returns the effect of s followed by next.
func (s Size) Aggregate(next Size) Size {
	return Size{
		Net: s.Net + next.Net,
		Max: max(s.Max, s.Net+next.Max),
	}
}

func (s Size) String() string {
	return fmt.Sprintf("(net %d, max %d)", s.Net, s.Max)
}

// StackSize is the number of slots a value occupies.
type StackSize int

const (
	ZeroSlots   StackSize = 0
	SingleSlot  StackSize = 1
	DoubleSlots StackSize = 2
)

// SizeOfType returns the slots taken by a value of t.
func SizeOfType(t *descriptor.Type) StackSize {
	return StackSize(t.Width())
}

// Increasing returns the effect of pushing a value of this size.
func (s StackSize) Increasing() Size {
	return Size{Net: int(s), Max: int(s)}
}

// Decreasing returns the effect of popping a value of this size.
func (s StackSize) Decreasing() Size {
	return Size{Net: -int(s)}
}

// Maximum returns the larger of two stack sizes.
func (s StackSize) Maximum(other StackSize) StackSize {
	return max(s, other)
}

// effect builds the size of a single instruction with the given net change.
func effect(net int) Size {
	return Size{Net: net, Max: max(net, 0)}
}
