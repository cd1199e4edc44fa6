// Package config resolves snoopflow run options from flags, environment and
// the optional config file.
package config

import (
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/snoopflow/snoopflow/internal/report"
	"github.com/snoopflow/snoopflow/internal/utils"
)

// Viper keys. Environment variables use the SNOOPFLOW_ prefix, e.g.
// SNOOPFLOW_INDENT_CHAR.
const (
	KeyInputFile   = "inputfile"
	KeyOutputFile  = "outputfile"
	KeyIndentChar  = "indent_char"
	KeySummaryFile = "summary"
	KeyReportFile  = "report"
	KeyTitle       = "title"
	KeyStrict      = "strict"
	KeyDebug       = "debug"
	KeyVerbose     = "verbose"

	KeyTrace         = "trace"
	KeyTraceExporter = "trace_exporter"
	KeyTraceEndpoint = "trace_endpoint"
	KeyTraceSample   = "trace_sample"
	KeyMermaidURL  = "mermaid_url"
	KeyPanzoomURL  = "panzoom_url"
)

const (
	DefaultIndentChar = "-"
	documentExt       = ".html"
)

// Options holds everything one conversion run needs.
type Options struct {
	InputFile   string
	OutputFile  string
	IndentChar  string
	SummaryFile string
	ReportFile  string
	Title       string
	Strict      bool
	MermaidURL  string
	PanzoomURL  string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyIndentChar, DefaultIndentChar)
	v.SetDefault(KeyStrict, false)
	v.SetDefault(KeyTraceExporter, "console")
	v.SetDefault(KeyTraceSample, 1.0)
}

// Load reads the options from v, validates them and fills derived defaults.
func Load(v *viper.Viper) (*Options, error) {
	opts := &Options{
		InputFile:   v.GetString(KeyInputFile),
		OutputFile:  v.GetString(KeyOutputFile),
		IndentChar:  v.GetString(KeyIndentChar),
		SummaryFile: v.GetString(KeySummaryFile),
		ReportFile:  v.GetString(KeyReportFile),
		Title:       v.GetString(KeyTitle),
		Strict:      v.GetBool(KeyStrict),
		MermaidURL:  v.GetString(KeyMermaidURL),
		PanzoomURL:  v.GetString(KeyPanzoomURL),
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()
	return opts, nil
}

// Validate checks the options that have no usable default.
func (o *Options) Validate() error {
	if o.InputFile == "" {
		return utils.NewValidationError("inputfile", "is required")
	}
	if o.IndentChar == "" {
		return utils.NewValidationError("indent-char", "cannot be empty")
	}
	if o.ReportFile != "" {
		if _, err := report.FormatFromPath(o.ReportFile); err != nil {
			return utils.NewValidationError("report", err.Error())
		}
	}
	return nil
}

func (o *Options) applyDefaults() {
	if o.OutputFile == "" {
		o.OutputFile = utils.ReplaceExt(o.InputFile, documentExt)
	}
	if o.Title == "" {
		o.Title = filepath.Base(o.InputFile)
	}
}
