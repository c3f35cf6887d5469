// Package pipeline sequences one full run: extract the raw source,
// transform it, hold it against the check battery, and only on a clean
// report load it into the sink.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/quarrydata/sift/blobstore"
	"github.com/quarrydata/sift/dataset"
	"github.com/quarrydata/sift/extract"
	"github.com/quarrydata/sift/sink"
	"github.com/quarrydata/sift/transform"
	"github.com/quarrydata/sift/validate"
	"github.com/quarrydata/sift/validate/check"
	"github.com/quarrydata/sift/validate/report"
)

// Result summarizes a pipeline run.
type Result struct {
	// Report holds every check result: the data checks, plus the load
	// check when the gate opened.
	Report        *validate.Report
	RowsExtracted int
	RowsLoaded    int
	// GatePassed records the data-check verdict that decided whether to
	// load. The final report can still fail on the load check.
	GatePassed bool
	StartTime  time.Time
	EndTime    time.Time
}

// Run drives one pipeline pass. Failed checks are findings, not errors:
// they close the gate and come back in the Result with a nil error.
// Configuration and infrastructure failures (missing source, bad config,
// sink trouble) abort with an error and no Result.
func Run(
	ctx context.Context,
	cfg *Config,
	logger zerolog.Logger,
	store blobstore.Store,
	snk sink.Sink,
	reporter report.Reporter,
) (*Result, error) {
	ret := &Result{StartTime: time.Now()}

	if cfg.Sink.Table == "" {
		return nil, errors.New("config has no sink table")
	}

	extracted, transformed, err := stage(ctx, cfg, logger, store)
	if err != nil {
		return nil, err
	}
	ret.RowsExtracted = extracted.NumRows()

	dataChecks, loadChecks := splitChecks(cfg.Suite())
	rep, err := validate.New(dataChecks, logger).Run(transformed, extracted, reporter)
	if err != nil {
		return nil, err
	}
	ret.Report = rep
	ret.GatePassed = rep.AllPassed()
	if !ret.GatePassed {
		ret.EndTime = time.Now()
		logger.Warn().
			Int("failed", rep.NumFailed()).
			Msgf("validation gate closed; not loading")
		return ret, nil
	}

	written, err := snk.Replace(ctx, cfg.Sink.Table, transformed)
	if err != nil {
		return nil, errors.Wrap(err, "loading validated data")
	}
	ret.RowsLoaded = written

	if loadChecks.Len() > 0 {
		persisted, err := snk.Count(ctx, cfg.Sink.Table)
		if err != nil {
			return nil, errors.Wrap(err, "counting persisted rows")
		}
		loadRep, err := validate.New(loadChecks, logger).Run(
			transformed, extracted, reporter, validate.WithLoadCount(persisted))
		if err != nil {
			return nil, err
		}
		rep.Append(loadRep.Results()...)
	}

	if err := previewLoaded(ctx, cfg, snk, reporter); err != nil {
		return nil, err
	}

	ret.EndTime = time.Now()
	logger.Info().
		Dur("duration", ret.EndTime.Sub(ret.StartTime)).
		Int("rows", written).
		Msgf("pipeline complete")
	return ret, nil
}

// Validate runs the gate alone: extract, transform, data checks. No sink
// is touched, so load checks that need a persisted count stay out.
func Validate(
	ctx context.Context,
	cfg *Config,
	logger zerolog.Logger,
	store blobstore.Store,
	reporter report.Reporter,
) (*Result, error) {
	ret := &Result{StartTime: time.Now()}

	extracted, transformed, err := stage(ctx, cfg, logger, store)
	if err != nil {
		return nil, err
	}
	ret.RowsExtracted = extracted.NumRows()

	dataChecks, _ := splitChecks(cfg.Suite())
	rep, err := validate.New(dataChecks, logger).Run(transformed, extracted, reporter)
	if err != nil {
		return nil, err
	}
	ret.Report = rep
	ret.GatePassed = rep.AllPassed()
	ret.EndTime = time.Now()
	return ret, nil
}

// stage runs the two stages ahead of the gate.
func stage(
	ctx context.Context, cfg *Config, logger zerolog.Logger, store blobstore.Store,
) (extracted, transformed *dataset.Dataset, _ error) {
	types, err := cfg.ColumnTypes()
	if err != nil {
		return nil, nil, err
	}
	extracted, err = extract.Extract(ctx, logger, store, cfg.Source, extract.Options{Types: types})
	if err != nil {
		return nil, nil, err
	}
	transformed, err = transform.Apply(logger, extracted, cfg.Transform)
	if err != nil {
		return nil, nil, err
	}
	return extracted, transformed, nil
}

// splitChecks partitions a suite into the checks that gate the load and
// the checks that need the persisted row count afterwards.
func splitChecks(suite *check.Suite) (data, load *check.Registry) {
	data, load = check.NewRegistry(), check.NewRegistry()
	for _, c := range suite.Registry().Checks() {
		if _, ok := c.(check.LoadCheck); ok {
			load.Register(c)
		} else {
			data.Register(c)
		}
	}
	return data, load
}

// previewLoaded reads the first rows back out of the sink and streams them
// through the reporter, proof the load round-trips.
func previewLoaded(
	ctx context.Context, cfg *Config, snk sink.Sink, reporter report.Reporter,
) error {
	pv, err := snk.Preview(ctx, cfg.Sink.Table, cfg.PreviewRows())
	if err != nil {
		return errors.Wrap(err, "previewing loaded rows")
	}
	if reporter == nil {
		return nil
	}
	reporter.Report(report.Status{
		Info: fmt.Sprintf("first %d rows of %s: %s",
			pv.NumRows(), cfg.Sink.Table, strings.Join(pv.ColumnNames(), ", ")),
	})
	for i := 0; i < pv.NumRows(); i++ {
		cells := make([]string, pv.NumColumns())
		for c, v := range pv.Row(i) {
			cells[c] = v.String()
		}
		reporter.Report(report.Status{Info: strings.Join(cells, ", ")})
	}
	return nil
}
