package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/config"
	"github.com/a3tai/mcp-form-fields/internal/logging"
)

// app carries what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "form-fields",
		Short: "Reconstruct the fields of two-column form PDFs",
		Long: `form-fields reads fixed-template proposal PDFs with a column of field labels
on the left and free text on the right, and rebuilds the (label, value) fields
of every page.

It also:
  - recovers which checklist items were ticked from embedded checkbox images
  - resolves narrative sections to ontology concepts with the BioPortal annotator
  - writes field and concept tables as csv, json or yaml
  - optionally stores every scan in MongoDB
  - serves all of the above to MCP clients

Every flag can also be set as FORM_FIELDS_<FLAG> (e.g. FORM_FIELDS_API_KEY)
or in a YAML file passed with --config.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	config.BindFlags(rootCmd.PersistentFlags(), config.DefaultConfig())

	rootCmd.AddCommand(
		newExtractCmd(a),
		newAnnotateCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if version != "dev" {
		cfg.Version = version
	}

	// Only an HTTP server logs JSON; everything else is read by a person on a terminal.
	console := cmd.Name() != "serve" || cfg.IsStdioMode()
	logger, err := logging.New(cfg.LogLevel, console)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)

	a.cfg = cfg
	a.logger = logger
	if cfg.IsDebug() {
		logger.Debug("configuration loaded", zap.Stringer("config", cfg))
	}
	return nil
}
