package render

import (
	_ "embed"
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/viewer.html.tmpl
var viewerTemplate string

const (
	DefaultMermaidURL = "https://unpkg.com/mermaid@10/dist/mermaid.esm.min.mjs"
	DefaultPanzoomURL = "https://unpkg.com/panzoom@9.4/dist/panzoom.min.js"
)

// DocumentOptions fills the variable parts of the viewer page.
type DocumentOptions struct {
	Title      string
	MermaidURL string
	PanzoomURL string
}

// Document is the HTML viewer shell. The edge statements are streamed
// between WriteHead and WriteFoot.
type Document struct {
	tmpl *template.Template
	opts DocumentOptions
}

// NewDocument parses the embedded viewer template.
func NewDocument(opts DocumentOptions) (*Document, error) {
	if opts.MermaidURL == "" {
		opts.MermaidURL = DefaultMermaidURL
	}
	if opts.PanzoomURL == "" {
		opts.PanzoomURL = DefaultPanzoomURL
	}

	tmpl, err := template.New("viewer").Funcs(sprig.TxtFuncMap()).Parse(viewerTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse viewer template: %w", err)
	}
	return &Document{tmpl: tmpl, opts: opts}, nil
}

// WriteHead writes everything up to and including the flowchart header line.
func (d *Document) WriteHead(w io.Writer) error {
	if err := d.tmpl.ExecuteTemplate(w, "head", d.opts); err != nil {
		return fmt.Errorf("failed to render viewer head: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFoot closes the diagram and the page.
func (d *Document) WriteFoot(w io.Writer) error {
	if err := d.tmpl.ExecuteTemplate(w, "foot", d.opts); err != nil {
		return fmt.Errorf("failed to render viewer foot: %w", err)
	}
	return nil
}
