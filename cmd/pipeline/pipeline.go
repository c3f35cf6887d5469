package pipeline

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/quarrydata/sift/blobstore"
	"github.com/quarrydata/sift/cmd/internal/cmdutil"
	"github.com/quarrydata/sift/pipeline"
	"github.com/quarrydata/sift/sink"
	"github.com/quarrydata/sift/validate/report"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the full extract, transform, validate, load pipeline.",
		Long:  `Pipeline extracts the raw source, applies the transform rules, runs the data quality checks against the result, and loads it into the sink table only when every check passes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := cmdutil.Logger()
			if err != nil {
				return err
			}
			cmdutil.RunMetricsServer(logger)

			ctx := context.Background()
			cfg, err := cmdutil.LoadPipelineConfig()
			if err != nil {
				return err
			}

			reporter := report.CombinedReporter{}
			reporter.Reporters = append(reporter.Reporters, report.LogReporter{Logger: logger})
			defer reporter.Close()

			store, srcPath, err := blobstore.Dial(ctx, logger, cfg.Source)
			if err != nil {
				return err
			}
			// Dial resolved the scheme; extract opens the in-store path.
			cfg.Source = srcPath

			snk, err := sink.Connect(ctx, logger, cfg.Sink.URL)
			if err != nil {
				return err
			}
			defer func() {
				if err := snk.Close(ctx); err != nil {
					logger.Err(err).Msgf("error closing sink")
				}
			}()

			reporter.Report(report.Status{Info: "pipeline run in progress"})
			res, err := pipeline.Run(ctx, cfg, logger, store, snk, reporter)
			if err != nil {
				return errors.Wrapf(err, "error running pipeline")
			}
			reporter.Report(report.Status{Info: "pipeline run complete"})

			err = cmdutil.WriteReport(logger, res.Report)
			if !res.Report.AllPassed() {
				err = errors.CombineErrors(errors.Newf(
					"%d of %d data quality checks failed",
					res.Report.NumFailed(), res.Report.Total(),
				), err)
			}
			return err
		},
	}
	cmdutil.RegisterConfigFlags(cmd)
	cmdutil.RegisterReportFlags(cmd)
	cmdutil.RegisterLoggerFlags(cmd)
	cmdutil.RegisterMetricsFlags(cmd)
	return cmd
}
