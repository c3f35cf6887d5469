package cmd

import (
	"fmt"
	"os"

	"github.com/quarrydata/sift/cmd/pipeline"
	"github.com/quarrydata/sift/cmd/validate"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sift",
	Short: "Staged ETL with a data-quality gate",
	Long:  `sift moves one table of typed records from a raw file source through cleaning and derivation rules, runs a battery of data-quality checks against the result, and persists it to a warehouse table only when every check passes.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(pipeline.Command())
	rootCmd.AddCommand(validate.Command())
}
