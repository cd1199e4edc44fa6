package callgraph

// CallEdge is one reconstructed caller to callee relationship.
type CallEdge struct {
	Seq     int    // 1-based emission order
	LogLine int    // 1-based index of the call line in the trace
	Caller  string // caller file
	Callee  string // callee file
	Level   int    // indent level of the call line
	LineNo  int    // source line number of the call
	Code    string // source text of the call line
}

// Self reports whether the call stays inside one file.
func (e CallEdge) Self() bool {
	return e.Caller == e.Callee
}
