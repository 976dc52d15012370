package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/mcp"
	"github.com/a3tai/mcp-form-fields/internal/pipeline"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the form tools over MCP",
		Long: `Serve the form tools to MCP clients, over standard I/O (--mode=stdio, the
default) or HTTP with server-sent events (--mode=server).

Examples:
  form-fields serve --dir=~/proposals
  form-fields serve --mode=server --host=0.0.0.0 --port=9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			server, err := mcp.NewServer(a.cfg, p, a.logger.Named("mcp"))
			if err != nil {
				return err
			}
			if err := server.Run(ctx); err != nil {
				return err
			}
			a.logger.Info("server stopped")
			return nil
		},
	}
}
