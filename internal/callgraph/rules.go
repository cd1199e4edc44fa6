package callgraph

import "github.com/snoopflow/snoopflow/internal/snoop"

// slot is one classified line in the walker window. index is 0-based and
// negative when the slot lies outside the trace.
type slot struct {
	ev    snoop.Event
	index int
}

var absent = slot{index: -1}

func (s slot) present() bool {
	return s.index >= 0
}

func (s slot) is(kinds ...snoop.Kind) bool {
	for _, k := range kinds {
		if s.ev.Is(k) {
			return true
		}
	}
	return false
}

// window holds the two lines before the current one and the line after it.
type window struct {
	prev2, prev, cur, next slot
}

// shift moves the window one line forward, pulling in incoming as next.
func (w *window) shift(incoming slot) {
	w.prev2, w.prev, w.cur, w.next = w.prev, w.cur, w.next, incoming
}

// transition names the context change a SourcePath line stands for.
type transition int

const (
	transitionNone transition = iota
	// transitionDescent: a line in the caller is followed by a call one level deeper.
	transitionDescent
	// transitionReturn: a return and its value are followed by a shallower line.
	transitionReturn
	// transitionSwap: a return at the same depth is directly followed by a call,
	// as when an attribute access resolves into another file.
	transitionSwap
)

func (t transition) String() string {
	switch t {
	case transitionDescent:
		return "descent"
	case transitionReturn:
		return "return"
	case transitionSwap:
		return "swap"
	default:
		return "none"
	}
}

// classifyTransition picks the rule for the SourcePath in w.cur. Rules are
// tried in a fixed order and the first match wins.
func classifyTransition(w window) transition {
	switch {
	case isDescent(w):
		return transitionDescent
	case isReturn(w):
		return transitionReturn
	case isSwap(w):
		return transitionSwap
	default:
		return transitionNone
	}
}

func isDescent(w window) bool {
	level := w.cur.ev.Level
	return w.prev.is(snoop.KindLineExec) &&
		w.next.is(snoop.KindCall) &&
		w.prev.ev.Level == level-1 &&
		w.next.ev.Level == level
}

func isReturn(w window) bool {
	level := w.cur.ev.Level
	return w.prev2.is(snoop.KindReturn) &&
		w.prev.is(snoop.KindReturnValue) &&
		w.next.is(snoop.KindLineExec, snoop.KindReturn) &&
		w.prev2.ev.Level == w.prev.ev.Level &&
		w.prev.ev.Level > level &&
		w.next.ev.Level == level
}

func isSwap(w window) bool {
	level := w.cur.ev.Level
	return w.prev2.is(snoop.KindReturn) &&
		w.prev.is(snoop.KindReturnValue) &&
		w.next.is(snoop.KindCall) &&
		w.prev2.ev.Level == level &&
		w.prev.ev.Level == level &&
		w.next.ev.Level == level
}
