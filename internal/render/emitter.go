// Package render turns call edges into Mermaid flowchart text and the HTML
// document that displays it.
package render

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/snoopflow/snoopflow/internal/callgraph"
)

// selfEdgeStyle marks calls that stay inside one file.
const selfEdgeStyle = ` style="color:olive"`

// Mermaid cannot render < and > inside edge labels
// (https://github.com/mermaid-js/mermaid/issues/4390).
var delimiterReplacer = strings.NewReplacer("<", "^", ">", "^")

// Sanitize replaces the characters Mermaid reserves in labels and node ids.
func Sanitize(s string) string {
	return delimiterReplacer.Replace(s)
}

// FormatEdge renders one edge statement, without indentation or newline.
func FormatEdge(e callgraph.CallEdge) string {
	style := ""
	if e.Self() {
		style = selfEdgeStyle
	}

	tooltip := Sanitize(fmt.Sprintf("CALLSTACK=%d: %s CALL %s LINE=%d, CODE=%s",
		e.Level, e.Caller, e.Callee, e.LineNo, e.Code))
	caller := Sanitize(e.Caller)
	callee := Sanitize(e.Callee)
	calleeName := Sanitize(filepath.Base(e.Callee))
	code := Sanitize(e.Code)

	return fmt.Sprintf(`%s --> |<span title="%s"%s> #<b>%d</b> &%d: %s %d, %s</span>| %s`,
		caller, tooltip, style, e.Seq, e.LogLine, calleeName, e.LineNo, code, callee)
}

// EdgeEmitter writes edge statements to w as they arrive.
type EdgeEmitter struct {
	w io.Writer
}

// NewEdgeEmitter creates an emitter writing to w.
func NewEdgeEmitter(w io.Writer) *EdgeEmitter {
	return &EdgeEmitter{w: w}
}

// Emit writes one indented edge statement.
func (em *EdgeEmitter) Emit(e callgraph.CallEdge) error {
	_, err := fmt.Fprintf(em.w, "  %s\n", FormatEdge(e))
	return err
}
