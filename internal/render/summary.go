package render

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/TyphonHill/go-mermaid/diagrams/flowchart"

	"github.com/snoopflow/snoopflow/internal/callgraph"
)

type fileStats struct {
	path     string
	calledBy int // calls arriving from another file
	self     int // calls inside the file
	outgoing int // calls made into other files
}

type filePair struct {
	caller, callee string
}

// Summary aggregates the streamed edges into a file-level call graph. Unlike
// the edge stream it keeps one entry per distinct file and caller/callee pair.
type Summary struct {
	files []*fileStats
	index map[string]*fileStats
	pairs []filePair
	seen  map[filePair]bool
}

// NewSummary creates an empty summary.
func NewSummary() *Summary {
	return &Summary{
		index: make(map[string]*fileStats),
		seen:  make(map[filePair]bool),
	}
}

// Emit records one edge. It never fails.
func (s *Summary) Emit(e callgraph.CallEdge) error {
	caller := s.file(e.Caller)
	callee := s.file(e.Callee)

	if e.Self() {
		callee.self++
		return nil
	}
	caller.outgoing++
	callee.calledBy++

	pair := filePair{caller: e.Caller, callee: e.Callee}
	if !s.seen[pair] {
		s.seen[pair] = true
		s.pairs = append(s.pairs, pair)
	}
	return nil
}

func (s *Summary) file(path string) *fileStats {
	if st, ok := s.index[path]; ok {
		return st
	}
	st := &fileStats{path: path}
	s.index[path] = st
	s.files = append(s.files, st)
	return st
}

// Files returns the number of distinct files seen.
func (s *Summary) Files() int {
	return len(s.files)
}

// Links returns the number of distinct cross-file caller/callee pairs.
func (s *Summary) Links() int {
	return len(s.pairs)
}

// Mermaid renders the file graph as a fenced Mermaid flowchart, files in
// order of first appearance.
func (s *Summary) Mermaid() string {
	diagram := flowchart.NewFlowchart()
	diagram.EnableMarkdownFence()
	diagram.SetDirection(flowchart.FlowchartDirectionTopDown)
	diagram.Config.SetHtmlLabels(true)

	nodes := make(map[string]*flowchart.Node, len(s.files))
	for _, st := range s.files {
		node := diagram.AddNode(formatFileLabel(st))
		applyFileShape(node, st)
		if style := fileStyle(st); style != nil {
			node.SetStyle(style)
		}
		nodes[st.path] = node
	}

	for _, pair := range s.pairs {
		diagram.AddLink(nodes[pair.caller], nodes[pair.callee])
	}

	return diagram.String()
}

// WriteMarkdown writes a titled Markdown document holding the diagram.
func (s *Summary) WriteMarkdown(w io.Writer, title string) error {
	if title == "" {
		title = "Call summary"
	}
	_, err := fmt.Fprintf(w, "# %s\n\n%d files, %d cross-file links\n\n%s\n", title, s.Files(), s.Links(), s.Mermaid())
	return err
}

func formatFileLabel(st *fileStats) string {
	name := Sanitize(filepath.Base(st.path))
	return fmt.Sprintf("%s<br/>in: %d, out: %d, self: %d", name, st.calledBy, st.outgoing, st.self)
}

// applyFileShape draws entry files, which nothing calls into, as terminals.
func applyFileShape(node *flowchart.Node, st *fileStats) {
	if st.calledBy == 0 {
		node.SetShape(flowchart.NodeShapeTerminal)
		return
	}
	node.SetShape(flowchart.NodeShapeProcess)
}

func fileStyle(st *fileStats) *flowchart.NodeStyle {
	if st.self == 0 {
		return nil
	}
	style := flowchart.NewNodeStyle()
	style.StrokeWidth = 1
	style.Fill = "#f0f4c3"
	style.Stroke = "#808000"
	return style
}
