// Package validate runs an ordered registry of data-quality checks against
// a dataset and assembles the results into a Report. The engine is the
// gate of the pipeline: loading only proceeds when every check passes.
package validate

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/quarrydata/sift/dataset"
	"github.com/quarrydata/sift/validate/check"
	"github.com/quarrydata/sift/validate/report"
)

var (
	checksRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sift",
		Subsystem: "validate",
		Name:      "checks_run",
		Help:      "Number of checks evaluated",
	}, []string{"check"})
	checksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sift",
		Subsystem: "validate",
		Name:      "checks_failed",
		Help:      "Number of checks that produced a failed result",
	}, []string{"check"})
)

type runOpts struct {
	loadCount    int
	hasLoadCount bool
}

// RunOption customizes a single Run invocation.
type RunOption func(*runOpts)

// WithLoadCount supplies the persisted row count so load checks can run.
// Without it, executing a load check is a configuration error.
func WithLoadCount(n int) RunOption {
	return func(o *runOpts) {
		o.loadCount = n
		o.hasLoadCount = true
	}
}

// Engine executes checks strictly sequentially, in registration order.
// It is stateless between runs; the Report belongs to the caller.
type Engine struct {
	registry *check.Registry
	logger   zerolog.Logger
}

func New(reg *check.Registry, logger zerolog.Logger) *Engine {
	return &Engine{registry: reg, logger: logger}
}

// Run evaluates every registered check against the transformed dataset,
// streaming each result to the reporter as it is produced and collecting
// them into the returned Report.
//
// Data-quality findings never stop the run: all checks execute and all
// results land in the Report. Configuration errors (a check aimed at a
// missing column, a load check with no load count, an internally
// inconsistent dataset) abort immediately with no partial Report.
func (e *Engine) Run(
	transformed, reference *dataset.Dataset,
	reporter report.Reporter,
	opts ...RunOption,
) (*Report, error) {
	o := &runOpts{}
	for _, apply := range opts {
		apply(o)
	}
	if transformed == nil {
		return nil, errors.New("validation requires a dataset")
	}
	if err := transformed.Validate(); err != nil {
		return nil, errors.Wrap(err, "dataset failed consistency check")
	}
	if reference != nil {
		if err := reference.Validate(); err != nil {
			return nil, errors.Wrap(err, "reference dataset failed consistency check")
		}
	}

	rep := &Report{}
	for _, c := range e.registry.Checks() {
		start := time.Now()
		var res check.Result
		var err error
		switch c := c.(type) {
		case check.DatasetCheck:
			res, err = c.Evaluate(transformed, reference)
		case check.LoadCheck:
			if !o.hasLoadCount {
				return nil, errors.Newf(
					"check %q needs a persisted row count; run with WithLoadCount", c.Name())
			}
			res, err = c.EvaluateCount(transformed.NumRows(), o.loadCount)
		default:
			return nil, errors.AssertionFailedf(
				"check %q implements no evaluation capability", c.Name())
		}
		if err != nil {
			return nil, errors.Wrapf(err, "running check %q", c.Name())
		}
		checksRun.WithLabelValues(res.Check).Inc()
		if !res.Passed {
			checksFailed.WithLabelValues(res.Check).Inc()
		}
		e.logger.Debug().
			Str("check", c.Name()).
			Bool("passed", res.Passed).
			Dur("duration", time.Since(start)).
			Msg("check complete")
		if reporter != nil {
			reporter.Report(res)
		}
		rep.Append(res)
	}
	return rep, nil
}
