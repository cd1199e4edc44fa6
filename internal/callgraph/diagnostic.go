package callgraph

import "fmt"

// Code is a stable identifier for a diagnostic.
type Code string

const (
	// CodeUnmatchedSourcePath: a SourcePath line fits none of the transition rules.
	CodeUnmatchedSourcePath Code = "UNMATCHED_SOURCE_PATH"
	// CodeReturnMismatch: after a return the new top is not the file returned to.
	CodeReturnMismatch Code = "RETURN_TARGET_MISMATCH"
	// CodeMissingContext: an edge endpoint was needed but the stack had none.
	CodeMissingContext Code = "MISSING_CONTEXT"
	// CodeUnbalanced: pushes and pops do not cancel out at end of trace.
	CodeUnbalanced Code = "UNBALANCED_TRACE"
)

// Severity captures how much a diagnostic affects the reconstructed graph.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Diagnostic is a non-fatal finding recorded while walking a trace.
type Diagnostic struct {
	Code     Code     `json:"code" yaml:"code" toml:"code"`
	Severity Severity `json:"severity" yaml:"severity" toml:"severity"`
	Line     int      `json:"line,omitempty" yaml:"line,omitempty" toml:"line,omitempty"` // 1-based, 0 for whole-trace findings
	Message  string   `json:"message" yaml:"message" toml:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s [%s]", d.Severity, d.Line, d.Message, d.Code)
	}
	return fmt.Sprintf("%s: %s [%s]", d.Severity, d.Message, d.Code)
}
