package validate

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/quarrydata/sift/blobstore"
	"github.com/quarrydata/sift/cmd/internal/cmdutil"
	"github.com/quarrydata/sift/pipeline"
	"github.com/quarrydata/sift/validate/report"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the data quality checks without loading.",
		Long:  `Validate extracts and transforms the source, then runs the data quality checks and reports the verdict. The sink is never touched, so checks needing a persisted row count stay out.`,
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
			cfg.Source = srcPath

			reporter.Report(report.Status{Info: "validation in progress"})
			res, err := pipeline.Validate(ctx, cfg, logger, store, reporter)
			if err != nil {
				return errors.Wrapf(err, "error validating")
			}
			reporter.Report(report.Status{Info: "validation complete"})

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
