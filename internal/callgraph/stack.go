package callgraph

// ContextStack tracks the nesting of source files entered by the trace.
// The bottom is the first file seen, the top the file currently executing.
type ContextStack struct {
	items []string
	ops   int
}

// NewContextStack returns an empty stack.
func NewContextStack() *ContextStack {
	return &ContextStack{}
}

// Push enters a file context. An empty token is a programming error.
func (s *ContextStack) Push(token string) {
	if token == "" {
		panic("callgraph: push of empty context token")
	}
	s.ops++
	s.items = append(s.items, token)
}

// Pop leaves the current file context. Popping an empty stack still counts
// towards the balance and reports ok=false.
func (s *ContextStack) Pop() (string, bool) {
	s.ops--
	if len(s.items) == 0 {
		return "", false
	}
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return top, true
}

// PopExpect pops and reports whether the popped token equals expected.
func (s *ContextStack) PopExpect(expected string) (string, bool) {
	matched := s.IsTop(expected)
	token, _ := s.Pop()
	return token, matched
}

// Top returns the current context, or def when the stack is empty.
func (s *ContextStack) Top(def string) string {
	if len(s.items) == 0 {
		return def
	}
	return s.items[len(s.items)-1]
}

// Second returns the context just below the top, or def.
func (s *ContextStack) Second(def string) string {
	if len(s.items) < 2 {
		return def
	}
	return s.items[len(s.items)-2]
}

// IsTop reports whether token is the current context.
func (s *ContextStack) IsTop(token string) bool {
	return len(s.items) > 0 && s.items[len(s.items)-1] == token
}

// Size returns the number of open contexts.
func (s *ContextStack) Size() int {
	return len(s.items)
}

// Balance returns pushes minus pops performed so far.
func (s *ContextStack) Balance() int {
	return s.ops
}
