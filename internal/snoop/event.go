// Package snoop recognises the lines of a PySnooper-style trace log.
package snoop

import "fmt"

// Kind identifies which trace line pattern an Event came from.
type Kind int

const (
	// KindNone marks a line that matches no pattern.
	KindNone Kind = iota
	// KindSourcePath is a "Source path:... <file>" line.
	KindSourcePath
	// KindLineExec is a "[line N]" execution line.
	KindLineExec
	// KindCall is a "[call N]" line.
	KindCall
	// KindReturn is a "[return N]" line.
	KindReturn
	// KindArguments is a "Pass arguments:" marker.
	KindArguments
	// KindReturnValue is a "Return value:.." marker.
	KindReturnValue
)

var kindNames = map[Kind]string{
	KindNone:        "none",
	KindSourcePath:  "source_path",
	KindLineExec:    "line",
	KindCall:        "call",
	KindReturn:      "return",
	KindArguments:   "arguments",
	KindReturnValue: "return_value",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is one classified trace line. Only the fields relevant to Kind are set.
type Event struct {
	Kind      Kind
	Level     int    // indent repetitions / 4
	Path      string // SourcePath
	LineNo    int    // LineExec, Call, Return
	Code      string // source text, or the value repr for Return
	Timestamp string // HH:MM:SS.ffffff
}

// Is reports whether the event is of kind k.
func (e Event) Is(k Kind) bool {
	return e.Kind == k
}

func (e Event) String() string {
	switch e.Kind {
	case KindNone:
		return "none"
	case KindSourcePath:
		return fmt.Sprintf("%s@%d %s", e.Kind, e.Level, e.Path)
	case KindLineExec, KindCall, KindReturn:
		return fmt.Sprintf("%s@%d %d", e.Kind, e.Level, e.LineNo)
	default:
		return fmt.Sprintf("%s@%d", e.Kind, e.Level)
	}
}
