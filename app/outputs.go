package app

import (
	"context"
	"fmt"
	"io"

	"leavingrate/adapters/excel"
	"leavingrate/domain/metrics"
	"leavingrate/internal/dataset"
	"leavingrate/internal/errors"
	"leavingrate/internal/report"
)

// output is one file of a run
type output struct {
	name  string
	write func(w io.Writer) error
}

func csvOutput(table excel.Table) output {
	return output{name: table.Name + ".csv", write: func(w io.Writer) error { return excel.WriteCSV(w, table) }}
}

func workbookOutput(name string, tables ...excel.Table) output {
	return output{name: name, write: func(w io.Writer) error { return excel.WriteWorkbook(w, tables) }}
}

// markdownOutputs writes a report and, when enabled, its HTML rendering
func markdownOutputs(base, title, md string, opts report.Options) []output {
	outs := []output{{name: base + ".md", write: func(w io.Writer) error {
		_, err := io.WriteString(w, md)
		return err
	}}}
	if opts.HTML {
		outs = append(outs, output{name: base + ".html", write: func(w io.Writer) error {
			_, err := w.Write(report.ToHTML(title, md))
			return err
		}})
	}
	return outs
}

func replicationOutputs(r *RunResult, opts report.Options) []output {
	sessions := sessionTable("sessions", r.SessionMetrics(), opts.Tolerance)
	aggregates := aggregateTable(r.Aggregates)
	fits := fitsTable(r.Fits)
	describe := describeTable(r.Describe)
	tables := []excel.Table{sessions, aggregates, fits, describe}
	if r.Curve != nil {
		tables = append(tables, curveTable(*r.Curve))
	}

	outs := []output{csvOutput(sessions), csvOutput(aggregates), csvOutput(fits), csvOutput(describe)}
	outs = append(outs, workbookOutput("replication.xlsx", tables...))

	title := "Leaving-rate replication"
	md := report.BatchReport(report.BatchSummary{
		Title:      title,
		Manifest:   r.Manifest,
		Aggregates: r.Aggregates,
		Fits:       r.Fits,
		Curve:      r.Curve,
		Describe:   r.Describe,
		Failures:   r.Failures(),
	}, opts)
	return append(outs, markdownOutputs("replication", title, md, opts)...)
}

func sessionOutputs(r *RunResult, opts report.Options) []output {
	summary := sessionTable("session_summary", r.SessionMetrics(), opts.Tolerance)
	exits := exitTable(r.Sessions)

	outs := []output{csvOutput(summary), csvOutput(exits), workbookOutput("sessions.xlsx", summary, exits)}
	used := make(map[string]int)
	for _, s := range r.Sessions {
		if s.Err != nil {
			continue
		}
		base := uniqueName(used, reportName(s.Analysis.Key))
		outs = append(outs, markdownOutputs(base, report.SessionTitle(s.Analysis), report.SessionReport(s.Analysis, opts), opts)...)
	}

	title := "Leaving-rate session summary"
	md := report.BatchReport(report.BatchSummary{
		Title:    title,
		Manifest: r.Manifest,
		Sessions: r.SessionMetrics(),
		Failures: r.Failures(),
	}, opts)
	return append(outs, markdownOutputs("session_summary", title, md, opts)...)
}

func reportName(k metrics.SessionKey) string {
	base := fmt.Sprintf("report_P%s_C%s_S%s", k.Participant, k.Condition, k.Session)
	if k.Option != 1 {
		base += fmt.Sprintf("_O%d", k.Option)
	}
	return base
}

// uniqueName suffixes repeats of base with _2, _3, ... in the order seen.
// Sessions with the same key can come from different directories or formats.
func uniqueName(used map[string]int, base string) string {
	used[base]++
	if n := used[base]; n > 1 {
		return fmt.Sprintf("%s_%d", base, n)
	}
	return base
}

func matchingOutputs(r *RunResult, opts report.Options) []output {
	saccades := sessionTable("saccade_sessions", r.SessionMetrics(), opts.Tolerance)
	visits := visitTable(r.VisitMetrics())
	aggregates := aggregateTable(r.Aggregates)
	aggregates.Name = "saccade_aggregates"
	visitAggregates := visitAggregateTable(r.VisitAggregates)
	pairs := pairsTable(r.Pairs)
	fits := fitsTable(r.Fits)
	describe := describeTable(r.Describe)

	tables := []excel.Table{saccades, visits, aggregates, visitAggregates, pairs, fits, describe}
	outs := make([]output, 0, len(tables)+3)
	for _, t := range tables {
		outs = append(outs, csvOutput(t))
	}
	outs = append(outs, workbookOutput("matching.xlsx", tables...))

	title := "Leaving-rate matching: saccades and fixations"
	md := report.BatchReport(report.BatchSummary{
		Title:    title,
		Manifest: r.Manifest,
		Sessions: r.SessionMetrics(),
		Visits:   r.VisitMetrics(),
		Pairs:    r.Pairs,
		Fits:     r.Fits,
		Describe: r.Describe,
		Failures: r.Failures(),
	}, opts)
	return append(outs, markdownOutputs("matching", title, md, opts)...)
}

// writeOutputs writes every output into the run's storage
func (s *AnalysisService) writeOutputs(ctx context.Context, result *RunResult, outs []output) error {
	storage := dataset.NewLocalFileStorage(s.config.Storage, result.Manifest.RunID)
	for _, o := range outs {
		path, err := writeOutput(ctx, storage, o)
		if err != nil {
			return err
		}
		result.Outputs = append(result.Outputs, path)
	}
	s.logger.Info("wrote %d files to %s", len(outs), storage.Dir())
	return nil
}

func writeOutput(ctx context.Context, storage dataset.OutputStorage, o output) (string, error) {
	w, path, err := storage.Create(ctx, o.name)
	if err != nil {
		return "", errors.OutputError(o.name, err)
	}
	if err := o.write(w); err != nil {
		w.Close()
		return "", errors.OutputError(o.name, err)
	}
	if err := w.Close(); err != nil {
		return "", errors.OutputError(o.name, err)
	}
	return path, nil
}
