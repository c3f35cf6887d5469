// Package report streams validation progress to interested observers while
// the engine runs. Reporters receive check results as they are produced so
// an operator tailing logs sees findings before the run completes.
package report

import (
	"github.com/rs/zerolog"

	"github.com/quarrydata/sift/validate/check"
)

// ReportableObject is an object a Reporter can accept.
type ReportableObject any

// Status is a free-form progress note, e.g. which phase is starting.
type Status struct {
	Info string
}

// Reporter reports objects streamed during a validation run.
type Reporter interface {
	Report(obj ReportableObject)
	Close()
}

// LogReporter renders reportable objects to a zerolog logger: passing
// checks at info, failing checks at warn, details as structured fields.
type LogReporter struct {
	zerolog.Logger
}

func (l LogReporter) Report(obj ReportableObject) {
	switch obj := obj.(type) {
	case check.Result:
		if obj.Passed {
			l.Info().Str("check", obj.Check).Msg(obj.Message)
			return
		}
		ev := l.Warn().Str("check", obj.Check)
		if len(obj.Details) > 0 {
			ev = ev.Strs("details", obj.Details)
		}
		ev.Msg(obj.Message)
	case Status:
		l.Info().Msg(obj.Info)
	default:
		l.Error().Msgf("unknown reportable object: %#v", obj)
	}
}

func (l LogReporter) Close() {}

// CombinedReporter fans every object out to multiple reporters.
type CombinedReporter struct {
	Reporters []Reporter
}

func (c CombinedReporter) Report(obj ReportableObject) {
	for _, r := range c.Reporters {
		r.Report(obj)
	}
}

func (c CombinedReporter) Close() {
	for _, r := range c.Reporters {
		r.Close()
	}
}
