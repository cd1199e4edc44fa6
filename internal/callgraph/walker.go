// Package callgraph rebuilds file-level call edges from a classified trace.
package callgraph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/snoopflow/snoopflow/internal/snoop"
	"github.com/snoopflow/snoopflow/internal/utils"
)

// UnknownContext names an edge endpoint the trace never introduced.
const UnknownContext = "unknown"

// EdgeSink receives edges in emission order as soon as they are resolved.
type EdgeSink interface {
	Emit(edge CallEdge) error
}

// EdgeSinkFunc adapts a function to EdgeSink.
type EdgeSinkFunc func(edge CallEdge) error

// Emit calls f(edge).
func (f EdgeSinkFunc) Emit(edge CallEdge) error {
	return f(edge)
}

// Result summarises one walk.
type Result struct {
	Lines       int
	Edges       int
	SelfEdges   int
	MaxDepth    int
	Files       int
	Balance     int
	Diagnostics []Diagnostic
}

// Walker replays a trace against a ContextStack. A Walker is not safe for
// concurrent use; each Walk starts from a fresh stack.
type Walker struct {
	classifier *snoop.Classifier
	logger     zerolog.Logger

	reader  *bufio.Reader
	read    int
	win     window
	stack   *ContextStack
	sink    EdgeSink
	first   string
	files   map[string]struct{}
	result  *Result
}

// NewWalker creates a walker using classifier for every line.
func NewWalker(classifier *snoop.Classifier, logger zerolog.Logger) *Walker {
	return &Walker{
		classifier: classifier,
		logger:     logger,
	}
}

// Walk reads the whole trace from r and hands every resolved edge to sink.
// Structural problems are collected as diagnostics; only format violations,
// read errors and sink errors abort the walk.
func (w *Walker) Walk(r io.Reader, sink EdgeSink) (*Result, error) {
	w.reader = bufio.NewReader(r)
	w.read = 0
	w.stack = NewContextStack()
	w.sink = sink
	w.first = ""
	w.files = make(map[string]struct{})
	w.result = &Result{}
	w.win = window{prev2: absent, prev: absent, cur: absent, next: absent}

	// Prime cur and next.
	for i := 0; i < 2; i++ {
		if err := w.advance(); err != nil {
			return nil, err
		}
	}

	for w.win.cur.present() {
		if err := w.step(); err != nil {
			return nil, err
		}
		if err := w.advance(); err != nil {
			return nil, err
		}
	}

	w.finish()
	return w.result, nil
}

// advance shifts the window by one line.
func (w *Walker) advance() error {
	incoming := absent
	line, ok, err := w.readLine()
	if err != nil {
		return err
	}
	if ok {
		ev, err := w.classifier.Classify(line)
		if err != nil {
			return utils.NewLineValidationError(w.read+1, "indent-char", err)
		}
		incoming = slot{ev: ev, index: w.read}
		w.read++
	}
	w.win.shift(incoming)
	return nil
}

// readLine returns the next line without its terminator. Lines have no
// length limit.
func (w *Walker) readLine() (string, bool, error) {
	line, err := w.reader.ReadString('\n')
	if errors.Is(err, io.EOF) {
		return line, line != "", nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read trace: %w", err)
	}
	return strings.TrimSuffix(line, "\n"), true, nil
}

func (w *Walker) step() error {
	cur := w.win.cur
	switch cur.ev.Kind {
	case snoop.KindSourcePath:
		return w.sourcePath(cur)
	case snoop.KindCall:
		top := w.endpoint(w.stack.Top(""), cur, "caller")
		return w.emit(cur, top, top)
	default:
		return nil
	}
}

func (w *Walker) sourcePath(cur slot) error {
	path := cur.ev.Path
	w.files[path] = struct{}{}

	if cur.index == 0 {
		w.push(path)
		w.first = path
		w.logger.Debug().Int("line", 1).Str("file", path).Msg("entered trace root")
		return nil
	}

	rule := classifyTransition(w.win)
	w.logger.Debug().
		Int("line", cur.index+1).
		Str("file", path).
		Stringer("rule", rule).
		Int("depth", w.stack.Size()).
		Msg("source path")

	switch rule {
	case transitionDescent:
		w.push(path)
		return w.consumeCall()

	case transitionReturn:
		w.stack.Pop()
		if !w.stack.IsTop(path) {
			w.diagnose(Diagnostic{
				Code:     CodeReturnMismatch,
				Severity: SeverityWarning,
				Line:     cur.index + 1,
				Message:  fmt.Sprintf("returned to %s but the active context is %s", path, w.stack.Top(UnknownContext)),
			})
		}
		return nil

	case transitionSwap:
		w.stack.Pop()
		w.push(path)
		return w.consumeCall()

	default:
		w.diagnose(Diagnostic{
			Code:     CodeUnmatchedSourcePath,
			Severity: SeverityWarning,
			Line:     cur.index + 1,
			Message: fmt.Sprintf("source path %s matches no context transition (before: %s, %s; after: %s)",
				path, w.win.prev2.ev, w.win.prev.ev, w.win.next.ev),
		})
		return nil
	}
}

// consumeCall turns the Call line following a SourcePath into an edge from
// the previous context to the one just entered, and skips past it.
func (w *Walker) consumeCall() error {
	call := w.win.next
	caller := w.endpoint(w.stack.Second(""), call, "caller")
	callee := w.stack.Top(UnknownContext)
	if err := w.advance(); err != nil {
		return err
	}
	return w.emit(call, caller, callee)
}

func (w *Walker) endpoint(token string, at slot, role string) string {
	if token != "" {
		return token
	}
	w.diagnose(Diagnostic{
		Code:     CodeMissingContext,
		Severity: SeverityWarning,
		Line:     at.index + 1,
		Message:  fmt.Sprintf("no %s context for call at line %d", role, at.ev.LineNo),
	})
	return UnknownContext
}

func (w *Walker) emit(call slot, caller, callee string) error {
	w.result.Edges++
	edge := CallEdge{
		Seq:     w.result.Edges,
		LogLine: call.index + 1,
		Caller:  caller,
		Callee:  callee,
		Level:   call.ev.Level,
		LineNo:  call.ev.LineNo,
		Code:    call.ev.Code,
	}
	if edge.Self() {
		w.result.SelfEdges++
	}

	w.logger.Debug().
		Int("seq", edge.Seq).
		Int("line", edge.LogLine).
		Str("caller", caller).
		Str("callee", callee).
		Msg("call edge")

	if err := w.sink.Emit(edge); err != nil {
		return fmt.Errorf("failed to emit edge %d: %w", edge.Seq, err)
	}
	return nil
}

func (w *Walker) push(path string) {
	w.stack.Push(path)
	if w.stack.Size() > w.result.MaxDepth {
		w.result.MaxDepth = w.stack.Size()
	}
}

func (w *Walker) diagnose(d Diagnostic) {
	w.result.Diagnostics = append(w.result.Diagnostics, d)
	w.logger.Debug().
		Str("code", string(d.Code)).
		Int("line", d.Line).
		Msg(d.Message)
}

// finish undoes the root push and checks the push/pop balance.
func (w *Walker) finish() {
	if w.first != "" {
		if token, ok := w.stack.PopExpect(w.first); !ok {
			if token == "" {
				token = UnknownContext
			}
			w.diagnose(Diagnostic{
				Code:     CodeReturnMismatch,
				Severity: SeverityNote,
				Message:  fmt.Sprintf("trace ended in %s instead of %s", token, w.first),
			})
		}
	} else {
		w.stack.Pop()
	}

	w.result.Lines = w.read
	w.result.Files = len(w.files)
	w.result.Balance = w.stack.Balance()
	if w.result.Balance != 0 {
		w.diagnose(Diagnostic{
			Code:     CodeUnbalanced,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("unbalanced call-return pair, %d", w.result.Balance),
		})
	}
}
