// Package pipeline runs one trace-to-diagram conversion end to end.
package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/snoopflow/snoopflow/internal/callgraph"
	"github.com/snoopflow/snoopflow/internal/config"
	"github.com/snoopflow/snoopflow/internal/render"
	"github.com/snoopflow/snoopflow/internal/report"
	"github.com/snoopflow/snoopflow/internal/snoop"
	"github.com/snoopflow/snoopflow/internal/utils"
)

const tracerName = "github.com/snoopflow/snoopflow/internal/pipeline"

// ErrDiagnostics is returned in strict mode when the walk recorded any
// diagnostic. All outputs are still written.
var ErrDiagnostics = errors.New("trace reconstruction reported diagnostics")

// Pipeline converts the trace named by its options.
type Pipeline struct {
	opts   *config.Options
	logger zerolog.Logger
}

// New creates a pipeline for opts.
func New(opts *config.Options, logger zerolog.Logger) *Pipeline {
	return &Pipeline{opts: opts, logger: logger}
}

// Run reads the trace, streams the diagram document and writes the optional
// summary and report. The returned report is non-nil whenever the document
// was written, including in the ErrDiagnostics case.
func (p *Pipeline) Run(ctx context.Context) (*report.RunReport, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "snoopflow.convert")
	defer span.End()
	span.SetAttributes(
		attribute.String("snoopflow.input", p.opts.InputFile),
		attribute.String("snoopflow.output", p.opts.OutputFile),
	)

	rep, err := p.run()
	if rep != nil {
		span.SetAttributes(
			attribute.Int("snoopflow.edges", rep.Edges),
			attribute.Int("snoopflow.diagnostics", len(rep.Diagnostics)),
			attribute.Int("snoopflow.balance", rep.Balance),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return rep, err
}

func (p *Pipeline) run() (*report.RunReport, error) {
	start := time.Now()

	classifier, err := snoop.NewClassifier(p.opts.IndentChar)
	if err != nil {
		return nil, err
	}

	in, err := os.Open(p.opts.InputFile)
	if err != nil {
		return nil, utils.NewUserError("Cannot read trace file", "Check the --inputfile path", err)
	}
	defer in.Close()

	var summary *render.Summary
	sinks := make([]callgraph.EdgeSink, 0, 2)
	if p.opts.SummaryFile != "" {
		summary = render.NewSummary()
		sinks = append(sinks, summary)
	}

	res, err := p.writeDocument(classifier, in, sinks)
	if err != nil {
		return nil, err
	}

	if summary != nil {
		if err := p.writeSummary(summary); err != nil {
			return nil, err
		}
	}

	rep := report.FromResult(res)
	rep.Input = p.opts.InputFile
	rep.Output = p.opts.OutputFile
	rep.Summary = p.opts.SummaryFile
	rep.GeneratedAt = start.UTC()
	rep.DurationMs = time.Since(start).Milliseconds()

	if p.opts.ReportFile != "" {
		if err := p.writeReport(rep); err != nil {
			return nil, err
		}
	}

	p.logger.Info().
		Str("output", p.opts.OutputFile).
		Int("edges", rep.Edges).
		Int("diagnostics", len(rep.Diagnostics)).
		Int64("duration_ms", rep.DurationMs).
		Msg("diagram written")

	if p.opts.Strict && len(rep.Diagnostics) > 0 {
		return rep, fmt.Errorf("%w: %d", ErrDiagnostics, len(rep.Diagnostics))
	}
	return rep, nil
}

// writeDocument streams the viewer head, one statement per edge, and the foot.
// A failed document is removed rather than left half written.
func (p *Pipeline) writeDocument(classifier *snoop.Classifier, in io.Reader, extra []callgraph.EdgeSink) (res *callgraph.Result, err error) {
	doc, err := render.NewDocument(render.DocumentOptions{
		Title:      p.opts.Title,
		MermaidURL: p.opts.MermaidURL,
		PanzoomURL: p.opts.PanzoomURL,
	})
	if err != nil {
		return nil, err
	}

	out, err := utils.CreateFile(p.opts.OutputFile)
	if err != nil {
		return nil, utils.NewUserError("Cannot create output file", "Check the --outputfile path and permissions", err)
	}
	defer func() {
		out.Close()
		if err != nil {
			if rmErr := os.Remove(p.opts.OutputFile); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				p.logger.Warn().Err(rmErr).Str("output", p.opts.OutputFile).Msg("failed to remove partial document")
			}
		}
	}()

	bw := bufio.NewWriter(out)
	if err := doc.WriteHead(bw); err != nil {
		return nil, err
	}

	sinks := append([]callgraph.EdgeSink{render.NewEdgeEmitter(bw)}, extra...)
	res, err = callgraph.NewWalker(classifier, p.logger).Walk(in, fanOut(sinks))
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", p.opts.InputFile, err)
	}

	if err := doc.WriteFoot(bw); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", p.opts.OutputFile, err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s: %w", p.opts.OutputFile, err)
	}
	return res, nil
}

func (p *Pipeline) writeSummary(summary *render.Summary) error {
	f, err := utils.CreateFile(p.opts.SummaryFile)
	if err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}
	defer f.Close()

	if err := summary.WriteMarkdown(f, p.opts.Title); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return f.Close()
}

func (p *Pipeline) writeReport(rep *report.RunReport) error {
	format, err := report.FormatFromPath(p.opts.ReportFile)
	if err != nil {
		return err
	}

	f, err := utils.CreateFile(p.opts.ReportFile)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	if err := report.NewReporter(format).Generate(rep, f); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}

func fanOut(sinks []callgraph.EdgeSink) callgraph.EdgeSink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return callgraph.EdgeSinkFunc(func(edge callgraph.CallEdge) error {
		for _, s := range sinks {
			if err := s.Emit(edge); err != nil {
				return err
			}
		}
		return nil
	})
}
