package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/quarrydata/sift/pipeline"
)

type configFlags struct {
	path      string
	source    string
	sinkURL   string
	sinkTable string
}

var configFlagsInst = configFlags{}

func RegisterConfigFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&configFlagsInst.path,
		"config",
		configFlagsInst.path,
		"path to the pipeline config file; defaults to the stock sales pipeline",
	)
	cmd.PersistentFlags().StringVar(
		&configFlagsInst.source,
		"source",
		configFlagsInst.source,
		"raw source URL (local path, file://, s3:// or gs://)",
	)
	cmd.PersistentFlags().StringVar(
		&configFlagsInst.sinkURL,
		"sink-url",
		configFlagsInst.sinkURL,
		"sink connection URL (sqlite://, postgres:// or mysql://)",
	)
	cmd.PersistentFlags().StringVar(
		&configFlagsInst.sinkTable,
		"sink-table",
		configFlagsInst.sinkTable,
		"table to load validated rows into",
	)
}

// LoadPipelineConfig resolves the run configuration: the config file (or
// the stock defaults when --config is not given), overlaid with SIFT_*
// environment variables, overlaid with flags. Flags win.
func LoadPipelineConfig() (*pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if configFlagsInst.path != "" {
		loaded, err := pipeline.Load(configFlagsInst.path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	envCfg, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	for _, override := range []struct {
		dst *string
		val string
	}{
		{&cfg.Source, envCfg.Source},
		{&cfg.Sink.URL, envCfg.SinkURL},
		{&cfg.Sink.Table, envCfg.SinkTable},
		{&cfg.Source, configFlagsInst.source},
		{&cfg.Sink.URL, configFlagsInst.sinkURL},
		{&cfg.Sink.Table, configFlagsInst.sinkTable},
	} {
		if override.val != "" {
			*override.dst = override.val
		}
	}
	return cfg, nil
}
