package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/pipeline"
	"github.com/a3tai/mcp-form-fields/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Process form PDFs as they arrive in a directory",
		Long: `Watch a directory (default: --dir) and process every PDF written into it once
it has been unchanged for --settle. Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.PDFDirectory
			if len(args) == 1 {
				dir = args[0]
			}

			ctx := cmd.Context()
			p, err := pipeline.Build(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := p.Close(context.Background()); err != nil {
					a.logger.Warn("failed to release pipeline", zap.Error(err))
				}
			}()

			handler := func(ctx context.Context, path string) error {
				_, err := p.Process(ctx, path)
				return err
			}
			return watch.New(dir, a.cfg.Settle, handler, a.logger.Named("watch")).Run(ctx)
		},
	}
}
