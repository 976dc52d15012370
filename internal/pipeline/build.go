package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/checkbox"
	"github.com/a3tai/mcp-form-fields/internal/concepts"
	"github.com/a3tai/mcp-form-fields/internal/config"
	"github.com/a3tai/mcp-form-fields/internal/fields"
	"github.com/a3tai/mcp-form-fields/internal/pdf"
	"github.com/a3tai/mcp-form-fields/internal/raster"
	"github.com/a3tai/mcp-form-fields/internal/store"
)

// Build wires a pipeline from cfg. A configured Mongo store is connected here; Close
// disconnects it.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := cfg.FieldOptions()
	engine := checkbox.NewEngine(opts.Checkbox, raster.NewDecoder(), logger.Named("checkbox"))

	c := Components{
		Provider: pdf.NewProvider(cfg.MaxFileSize, pdf.DefaultTextOptions(), logger.Named("pdf")),
		Scanner:  fields.NewScanner(opts, engine, logger.Named("fields")),
		Files:    cfg.ExportFiles(),
		Search:   pdf.NewSearch(cfg.MaxFileSize),
	}

	if cfg.Annotator.Enabled {
		client, err := concepts.NewClient(cfg.ClientConfig(), &http.Client{}, logger.Named("annotator"))
		if err != nil {
			return nil, fmt.Errorf("failed to create annotator client: %w", err)
		}
		c.Resolver = concepts.NewResolver(client, cfg.ResolverConfig(), logger.Named("concepts"))
	}

	var closers []func(context.Context) error
	if cfg.Store.Enabled() {
		mongo, err := store.Connect(ctx, cfg.Store, logger.Named("store"))
		if err != nil {
			return nil, err
		}
		c.Sink = mongo
		closers = append(closers, mongo.Close)
	}

	p, err := New(c, logger)
	if err != nil {
		return nil, err
	}
	p.closers = closers
	return p, nil
}
