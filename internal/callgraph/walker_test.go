package callgraph

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snoopflow/snoopflow/internal/snoop"
	"github.com/snoopflow/snoopflow/internal/utils"
)

func walk(t *testing.T, lines ...string) ([]CallEdge, *Result) {
	t.Helper()
	c, err := snoop.NewClassifier("-")
	require.NoError(t, err)

	var edges []CallEdge
	sink := EdgeSinkFunc(func(e CallEdge) error {
		edges = append(edges, e)
		return nil
	})
	res, err := NewWalker(c, zerolog.Nop()).Walk(strings.NewReader(strings.Join(lines, "\n")), sink)
	require.NoError(t, err)
	return edges, res
}

func codes(diags []Diagnostic) []Code {
	out := make([]Code, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

// A descent into b.py, a nested call inside b.py, and the return to a.py.
var balancedTrace = []string{
	"----Source path:... a.py",
	"----12:00:00.000000 [line 5] x = f()",
	"--------Source path:... b.py",
	"--------12:00:00.000001 [call 1] def f():",
	"--------12:00:00.000002 [line 2] return g()",
	"------------12:00:00.000003 [call 3] def g():",
	"------------12:00:00.000004 [line 4] return 1",
	"------------12:00:00.000005 [return 4] return 1",
	"------------Return value:.. 1",
	"--------12:00:00.000006 [return 2] return g()",
	"--------Return value:.. 1",
	"----Source path:... a.py",
	"----12:00:00.000007 [line 6] print(x)",
}

func TestWalkBalancedTrace(t *testing.T) {
	edges, res := walk(t, balancedTrace...)

	require.Len(t, edges, 2)
	assert.Equal(t, CallEdge{Seq: 1, LogLine: 4, Caller: "a.py", Callee: "b.py", Level: 2, LineNo: 1, Code: "def f():"}, edges[0])
	assert.Equal(t, CallEdge{Seq: 2, LogLine: 6, Caller: "b.py", Callee: "b.py", Level: 3, LineNo: 3, Code: "def g():"}, edges[1])
	assert.True(t, edges[1].Self())

	assert.Equal(t, 0, res.Balance)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, 2, res.Edges)
	assert.Equal(t, 1, res.SelfEdges)
	assert.Equal(t, 2, res.MaxDepth)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, len(balancedTrace), res.Lines)
}

func TestWalkSequenceNumbers(t *testing.T) {
	edges, _ := walk(t, balancedTrace...)
	for i, e := range edges {
		assert.Equal(t, i+1, e.Seq)
	}
}

func TestWalkSingleSourcePath(t *testing.T) {
	edges, res := walk(t, "----Source path:... a.py")

	assert.Empty(t, edges)
	assert.Equal(t, 0, res.Balance)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, 1, res.MaxDepth)
}

func TestWalkDescentIntoNewFile(t *testing.T) {
	edges, res := walk(t,
		"----Source path:... a.py",
		"----12:00:00.000000 [line 5] x=1",
		"--------Source path:... b.py",
		"--------12:00:00.000001 [call 6] f()",
	)

	require.Len(t, edges, 1)
	assert.Equal(t, "a.py", edges[0].Caller)
	assert.Equal(t, "b.py", edges[0].Callee)
	assert.Equal(t, 6, edges[0].LineNo)
	assert.Equal(t, 1, edges[0].Seq)
	assert.Equal(t, 4, edges[0].LogLine)

	// b.py is never returned from.
	assert.Equal(t, 1, res.Balance)
	assert.Equal(t, []Code{CodeReturnMismatch, CodeUnbalanced}, codes(res.Diagnostics))
}

func TestWalkBareCallIsSelfEdge(t *testing.T) {
	edges, res := walk(t,
		"----Source path:... a.py",
		"----12:00:00.000000 [call 3] def main():",
		"----12:00:00.000001 [line 4] pass",
	)

	require.Len(t, edges, 1)
	assert.Equal(t, "a.py", edges[0].Caller)
	assert.Equal(t, "a.py", edges[0].Callee)
	assert.True(t, edges[0].Self())
	assert.Equal(t, 1, res.SelfEdges)
	assert.Empty(t, res.Diagnostics)
}

func TestWalkSameLevelSwap(t *testing.T) {
	edges, res := walk(t,
		"----Source path:... a.py",
		"----12:00:00.000000 [line 5] y = obj.attr",
		"--------Source path:... b.py",
		"--------12:00:00.000001 [call 10] def attr(self):",
		"--------12:00:00.000002 [return 11] return self._x",
		"--------Return value:.. 3",
		"--------Source path:... c.py",
		"--------12:00:00.000003 [call 20] def h():",
		"--------12:00:00.000004 [return 21] return 0",
		"--------Return value:.. 0",
		"----Source path:... a.py",
		"----12:00:00.000005 [line 6] print(y)",
	)

	require.Len(t, edges, 2)
	assert.Equal(t, "b.py", edges[0].Callee)
	assert.Equal(t, "a.py", edges[1].Caller)
	assert.Equal(t, "c.py", edges[1].Callee)
	assert.Equal(t, 8, edges[1].LogLine)
	assert.Equal(t, 0, res.Balance)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, 3, res.Files)
}

func TestWalkReturnEmitsNoEdge(t *testing.T) {
	// Without the return, the walk would end two contexts deep.
	edges, res := walk(t, balancedTrace[:11]...)
	require.Len(t, edges, 2)
	assert.Equal(t, 1, res.Balance)

	edges, res = walk(t, balancedTrace...)
	require.Len(t, edges, 2)
	assert.Equal(t, 0, res.Balance)
}

func TestWalkUnmatchedSourcePath(t *testing.T) {
	edges, res := walk(t,
		"----Source path:... a.py",
		"----12:00:00.000000 [line 1] import b",
		"----Source path:... b.py",
		"----12:00:00.000001 [call 2] def f():",
	)

	// The SourcePath does not change the context, so the call stays in a.py.
	require.Len(t, edges, 1)
	assert.Equal(t, "a.py", edges[0].Caller)
	assert.Equal(t, "a.py", edges[0].Callee)
	assert.Equal(t, 4, edges[0].LogLine)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, CodeUnmatchedSourcePath, res.Diagnostics[0].Code)
	assert.Equal(t, 3, res.Diagnostics[0].Line)
	assert.Equal(t, 0, res.Balance)
}

func TestWalkReturnMismatch(t *testing.T) {
	_, res := walk(t,
		"----Source path:... a.py",
		"----12:00:00.000000 [line 5] x = f()",
		"--------Source path:... b.py",
		"--------12:00:00.000001 [call 1] def f():",
		"--------12:00:00.000002 [return 2] return 1",
		"--------Return value:.. 1",
		"----Source path:... z.py",
		"----12:00:00.000003 [line 6] print(x)",
	)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, CodeReturnMismatch, res.Diagnostics[0].Code)
	assert.Equal(t, 7, res.Diagnostics[0].Line)
	assert.Equal(t, 0, res.Balance)
}

func TestWalkWithoutRootContext(t *testing.T) {
	edges, res := walk(t,
		"----12:00:00.000000 [call 1] def main():",
	)

	require.Len(t, edges, 1)
	assert.Equal(t, UnknownContext, edges[0].Caller)
	assert.Equal(t, UnknownContext, edges[0].Callee)
	assert.Equal(t, []Code{CodeMissingContext, CodeUnbalanced}, codes(res.Diagnostics))
	assert.Equal(t, -1, res.Balance)
}

func TestWalkEmptyTrace(t *testing.T) {
	edges, res := walk(t)
	assert.Empty(t, edges)
	assert.Equal(t, 0, res.Lines)
}

func TestWalkIndentViolationIsFatal(t *testing.T) {
	c, err := snoop.NewClassifier("-")
	require.NoError(t, err)

	trace := "----Source path:... a.py\n-----12:00:00.000000 [call 1] f()\n"
	_, err = NewWalker(c, zerolog.Nop()).Walk(strings.NewReader(trace), EdgeSinkFunc(func(CallEdge) error { return nil }))
	require.Error(t, err)
	assert.ErrorIs(t, err, snoop.ErrIndent)
	assert.Contains(t, err.Error(), "line 2")

	var verr *utils.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 2, verr.Line)
	assert.Equal(t, "indent-char", verr.Field)
}

func TestWalkLongValueDump(t *testing.T) {
	dump := strings.Repeat("x", 17<<20)
	edges, res := walk(t,
		"----Source path:... a.py",
		"----12:00:00.000000 [line 5] x = f()",
		"--------Source path:... b.py",
		"--------12:00:00.000001 [call 1] def f():",
		"--------12:00:00.000002 [return 2] return big",
		"--------Return value:.. '"+dump+"'",
		"----Source path:... a.py",
		"----12:00:00.000003 [line 6] print(x)",
	)

	require.Len(t, edges, 1)
	assert.Equal(t, "b.py", edges[0].Callee)
	assert.Equal(t, 0, res.Balance)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, 8, res.Lines)
}

func TestWalkDescentWithoutRootSourcePath(t *testing.T) {
	edges, res := walk(t,
		"----12:00:00.000000 [line 5] x=1",
		"--------Source path:... b.py",
		"--------12:00:00.000001 [call 6] f()",
	)

	require.Len(t, edges, 1)
	assert.Equal(t, UnknownContext, edges[0].Caller)
	assert.Equal(t, "b.py", edges[0].Callee)
	assert.Equal(t, 6, edges[0].LineNo)
	assert.Equal(t, 1, edges[0].Seq)
	assert.Equal(t, 3, edges[0].LogLine)

	// The final pop undoes the descent.
	assert.Equal(t, 0, res.Balance)
	assert.Equal(t, []Code{CodeMissingContext}, codes(res.Diagnostics))
}

func TestWalkReturnPopsOneContext(t *testing.T) {
	c, err := snoop.NewClassifier("-")
	require.NoError(t, err)
	w := NewWalker(c, zerolog.Nop())

	var depths []int
	sink := EdgeSinkFunc(func(CallEdge) error {
		depths = append(depths, w.stack.Size())
		return nil
	})

	lines := append(append([]string{}, balancedTrace...), "----12:00:00.000008 [call 9] def h():")
	res, err := w.Walk(strings.NewReader(strings.Join(lines, "\n")), sink)
	require.NoError(t, err)

	// Edges 1 and 2 run inside b.py; edge 3 follows the return to a.py.
	assert.Equal(t, []int{2, 2, 1}, depths)
	assert.Equal(t, depths[1]-1, depths[2])
	assert.Equal(t, 0, res.Balance)
}

func TestWalkSinkErrorAborts(t *testing.T) {
	c, err := snoop.NewClassifier("-")
	require.NoError(t, err)

	boom := errors.New("disk full")
	trace := strings.Join(balancedTrace, "\n")
	_, err = NewWalker(c, zerolog.Nop()).Walk(strings.NewReader(trace), EdgeSinkFunc(func(CallEdge) error { return boom }))
	assert.ErrorIs(t, err, boom)
}

func TestWalkerIsReusable(t *testing.T) {
	c, err := snoop.NewClassifier("-")
	require.NoError(t, err)
	w := NewWalker(c, zerolog.Nop())
	discard := EdgeSinkFunc(func(CallEdge) error { return nil })

	first, err := w.Walk(strings.NewReader(strings.Join(balancedTrace, "\n")), discard)
	require.NoError(t, err)
	second, err := w.Walk(strings.NewReader(strings.Join(balancedTrace, "\n")), discard)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWalkDiagnosticsStayOffInfoLog(t *testing.T) {
	c, err := snoop.NewClassifier("-")
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
	trace := "----12:00:00.000000 [call 1] def main():"
	res, err := NewWalker(c, logger).Walk(strings.NewReader(trace), EdgeSinkFunc(func(CallEdge) error { return nil }))
	require.NoError(t, err)

	assert.NotEmpty(t, res.Diagnostics)
	assert.Empty(t, buf.String())
}
