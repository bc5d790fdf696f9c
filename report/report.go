// Package report summarises a finished run: one line per sample on the
// terminal, a CSV table and an HTML chart of sequencing depth.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/gmaffy/whisper-pipe/alignment"
	"github.com/gmaffy/whisper-pipe/pipeline"
)

const (
	CSVName  = "pipeline_summary.csv"
	HTMLName = "pipeline_report.html"
)

// Summary is what a run hands to Write.
type Summary struct {
	RunID    string
	Outcomes []pipeline.SampleOutcome
	Logger   *slog.Logger
}

type row struct {
	outcome  pipeline.SampleOutcome
	coverage alignment.CoverageSummary
	hasCov   bool
}

// Write prints the per-sample summary to w and writes the CSV and HTML
// reports into dir.
func Write(w io.Writer, dir string, s Summary) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	all := &pipeline.RunResult{RunID: s.RunID, Outcomes: s.Outcomes}
	succeeded := len(all.Succeeded())
	rows := make([]row, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		r := row{outcome: o}
		if path, ok := o.Artifacts["coverage"]; ok && o.Status == pipeline.StatusSucceeded {
			cov, err := alignment.SummarizeCoverageFile(path)
			if err != nil {
				logger.Warn("coverage summary unavailable", "sample", o.Sample, "error", err)
			} else {
				r.coverage, r.hasCov = cov, true
			}
		}
		rows = append(rows, r)
	}

	for _, r := range rows {
		o := r.outcome
		switch {
		case o.Status == pipeline.StatusSucceeded && r.hasCov:
			fmt.Fprintf(w, "  %-20s %-10s mean depth %.2f, breadth %.1f%%\n", o.Sample, o.Status, r.coverage.Mean, 100*r.coverage.Breadth())
		case o.Status == pipeline.StatusSucceeded:
			fmt.Fprintf(w, "  %-20s %s\n", o.Sample, o.Status)
		case o.FailedStage != "":
			fmt.Fprintf(w, "  %-20s %-10s at %s: %v\n", o.Sample, o.Status, o.FailedStage, o.Err)
		case o.LastStage() != "":
			fmt.Fprintf(w, "  %-20s %-10s after %s: %v\n", o.Sample, o.Status, o.LastStage(), o.Err)
		default:
			fmt.Fprintf(w, "  %-20s %-10s %v\n", o.Sample, o.Status, o.Err)
		}
	}
	fmt.Fprintf(w, "Pipeline finished: %d samples, %d succeeded, %d failed\n", len(rows), succeeded, len(rows)-succeeded)

	if err := writeCSV(filepath.Join(dir, CSVName), s.RunID, rows); err != nil {
		return fmt.Errorf("summary table: %w", err)
	}
	if err := writeHTML(filepath.Join(dir, HTMLName), s.RunID, rows); err != nil {
		return fmt.Errorf("summary chart: %w", err)
	}
	return nil
}

func writeCSV(path, runID string, rows []row) error {
	n := len(rows)
	var (
		samples  = make([]string, n)
		statuses = make([]string, n)
		stages   = make([]string, n)
		errs     = make([]string, n)
		means    = make([]float64, n)
		medians  = make([]float64, n)
		sds      = make([]float64, n)
		breadths = make([]float64, n)
		lasts    = make([]string, n)
		runs     = make([]string, n)
	)
	for i, r := range rows {
		samples[i] = r.outcome.Sample
		statuses[i] = string(r.outcome.Status)
		stages[i] = r.outcome.FailedStage
		if r.outcome.Err != nil {
			errs[i] = r.outcome.Err.Error()
		}
		lasts[i] = r.outcome.LastStage()
		runs[i] = runID
		if r.hasCov {
			means[i], medians[i], sds[i], breadths[i] = r.coverage.Mean, r.coverage.Median, r.coverage.StdDev, r.coverage.Breadth()
		} else {
			means[i], medians[i], sds[i], breadths[i] = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		}
	}

	df := dataframe.New(
		series.New(samples, series.String, "sample"),
		series.New(statuses, series.String, "status"),
		series.New(stages, series.String, "failed_stage"),
		series.New(errs, series.String, "error"),
		series.New(means, series.Float, "mean_depth"),
		series.New(medians, series.Float, "median_depth"),
		series.New(sds, series.Float, "sd_depth"),
		series.New(breadths, series.Float, "breadth"),
		series.New(lasts, series.String, "last_stage"),
		series.New(runs, series.String, "run_id"),
	)
	if df.Err != nil {
		return df.Err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := df.WriteCSV(f); err != nil {
		return err
	}
	return f.Close()
}

func barChart(title, yName string, names []string, values []float64) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Sample"}),
	)
	data := make([]opts.BarData, 0, len(values))
	for _, v := range values {
		data = append(data, opts.BarData{Value: v})
	}
	bar.SetXAxis(names).AddSeries(yName, data)
	return bar
}

func writeHTML(path, runID string, rows []row) error {
	var names []string
	var means, breadths []float64
	for _, r := range rows {
		if !r.hasCov {
			continue
		}
		names = append(names, r.outcome.Sample)
		means = append(means, r.coverage.Mean)
		breadths = append(breadths, 100*r.coverage.Breadth())
	}

	page := components.NewPage()
	page.PageTitle = "Pipeline run " + runID
	page.AddCharts(
		barChart("Mean depth", "depth", names, means),
		barChart("Breadth of coverage", "% positions covered", names, breadths),
	)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return err
	}
	return f.Close()
}
