// Package indexalg implements the two-layer index algebra that lets a
// flow node address a sub-rectangle of its own output independently of
// the sub-rectangle its construction-time slice already carved out of
// its producer (spec.md §4.4). A Selector addresses one axis; a
// Request combines one Selector per dimension, by name or by position,
// or stands in for a metadata-only probe that never touches data.
package indexalg

import "fmt"

// Kind discriminates the three selector shapes the grammar allows for
// a single axis: the full axis, a single collapsing index, or a
// start:stop:step range.
type Kind uint8

const (
	KFull Kind = iota
	KIndex
	KRange
)

// Selector addresses one axis of a node's output. The zero value is
// KFull (select the entire axis), matching the grammar's default when
// an axis is omitted from an index request.
type Selector struct {
	Kind    Kind
	Index   int // meaningful when Kind == KIndex
	Start   int // meaningful when Kind == KRange
	Stop    int // meaningful when Kind == KRange && HasStop
	HasStop bool
	Step    int // meaningful when Kind == KRange; 0 means 1
}

// Full selects an entire axis.
func Full() Selector { return Selector{Kind: KFull} }

// At selects a single position, collapsing the axis out of the result.
func At(i int) Selector { return Selector{Kind: KIndex, Index: i} }

// Range selects start:stop:step. hasStop false means "to the end" (or
// to the beginning, when step is negative).
func Range(start, stop int, hasStop bool, step int) Selector {
	if step == 0 {
		step = 1
	}
	return Selector{Kind: KRange, Start: start, Stop: stop, HasStop: hasStop, Step: step}
}

// Resolve normalizes sel against an axis of the given size into an
// absolute (start, step, length) triple: the first addressed position,
// the stride between addressed positions, and how many positions the
// selector addresses.
func Resolve(sel Selector, size int) (start, step, length int) {
	switch sel.Kind {
	case KIndex:
		return sel.Index, 1, 1
	case KRange:
		s := sel.Step
		if s == 0 {
			s = 1
		}
		if s > 0 {
			stop := size
			if sel.HasStop && sel.Stop < stop {
				stop = sel.Stop
			}
			n := 0
			if stop > sel.Start {
				n = (stop - sel.Start + s - 1) / s
			}
			return sel.Start, s, n
		}
		stop := -1
		if sel.HasStop {
			stop = sel.Stop
		}
		n := 0
		if sel.Start > stop {
			n = (sel.Start - stop + (-s) - 1) / (-s)
		}
		return sel.Start, s, n
	default: // KFull
		return 0, 1, size
	}
}

// Compose folds a request-time Selector (inner) through a
// construction-time Selector (outer, already resolved against an axis
// of length outerSize) into a single Selector expressed in the
// producer's absolute coordinates. This is the "multiply strides, fold
// offsets, clip bounds" step spec.md §4.4 requires of every ReadNode.
func Compose(outer, inner Selector, outerSize int) Selector {
	oStart, oStep, oLen := Resolve(outer, outerSize)
	iStart, iStep, iLen := Resolve(inner, oLen)
	start := oStart + iStart*oStep
	step := oStep * iStep
	if step == 0 {
		step = oStep
	}
	return Selector{
		Kind:    KRange,
		Start:   start,
		Step:    step,
		HasStop: true,
		Stop:    start + iLen*step,
	}
}

// Len returns the number of positions sel addresses on an axis of the
// given producer size.
func Len(sel Selector, size int) int {
	_, _, n := Resolve(sel, size)
	return n
}

// Collapses reports whether sel removes its axis from the result
// shape (true only for a single-index selector).
func (s Selector) Collapses() bool { return s.Kind == KIndex }

func (s Selector) String() string {
	switch s.Kind {
	case KIndex:
		return fmt.Sprintf("%d", s.Index)
	case KRange:
		stop := ""
		if s.HasStop {
			stop = fmt.Sprintf("%d", s.Stop)
		}
		return fmt.Sprintf("%d:%s:%d", s.Start, stop, s.Step)
	default:
		return ":"
	}
}
