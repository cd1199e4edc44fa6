// Package report writes a machine-readable summary of one conversion run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/snoopflow/snoopflow/internal/callgraph"
)

// Format is a report encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the report format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported report extension %q (use .json, .yaml or .toml)", filepath.Ext(path))
	}
}

// RunReport describes one trace conversion.
type RunReport struct {
	Input       string                 `json:"input" yaml:"input" toml:"input"`
	Output      string                 `json:"output" yaml:"output" toml:"output"`
	Summary     string                 `json:"summary,omitempty" yaml:"summary,omitempty" toml:"summary,omitempty"`
	GeneratedAt time.Time              `json:"generated_at" yaml:"generated_at" toml:"generated_at"`
	DurationMs  int64                  `json:"duration_ms" yaml:"duration_ms" toml:"duration_ms"`
	Lines       int                    `json:"lines" yaml:"lines" toml:"lines"`
	Edges       int                    `json:"edges" yaml:"edges" toml:"edges"`
	SelfEdges   int                    `json:"self_edges" yaml:"self_edges" toml:"self_edges"`
	Files       int                    `json:"files" yaml:"files" toml:"files"`
	MaxDepth    int                    `json:"max_depth" yaml:"max_depth" toml:"max_depth"`
	Balance     int                    `json:"balance" yaml:"balance" toml:"balance"`
	Diagnostics []callgraph.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" toml:"diagnostics,omitempty"`
}

// FromResult fills the walk statistics of a report.
func FromResult(res *callgraph.Result) *RunReport {
	return &RunReport{
		Lines:       res.Lines,
		Edges:       res.Edges,
		SelfEdges:   res.SelfEdges,
		Files:       res.Files,
		MaxDepth:    res.MaxDepth,
		Balance:     res.Balance,
		Diagnostics: res.Diagnostics,
	}
}

// Balanced reports whether every entered file was left again.
func (r *RunReport) Balanced() bool {
	return r.Balance == 0
}

// Reporter encodes run reports in one format.
type Reporter struct {
	format Format
}

// NewReporter creates a new reporter
func NewReporter(format Format) *Reporter {
	return &Reporter{format: format}
}

// Generate encodes rep and writes it to w.
func (r *Reporter) Generate(rep *RunReport, w io.Writer) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(rep)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}
