package cmdutil

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quarrydata/sift/validate"
)

type reportConfig struct {
	path string
}

var reportCfg = reportConfig{}

func RegisterReportFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&reportCfg.path,
		"report",
		reportCfg.path,
		"if set, file to write the rendered data quality report to",
	)
}

// WriteReport writes the rendered report to the --report path. Without
// the flag the report only streams through the log reporter.
func WriteReport(logger zerolog.Logger, rep *validate.Report) error {
	if reportCfg.path == "" {
		return nil
	}
	if err := os.WriteFile(reportCfg.path, []byte(rep.Render()), 0644); err != nil {
		return errors.Wrapf(err, "writing report to %s", reportCfg.path)
	}
	logger.Info().Str("path", reportCfg.path).Msgf("report written")
	return nil
}
