// Package pipeline runs a form PDF through field reconstruction, concept resolution and
// the configured outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/concepts"
	"github.com/a3tai/mcp-form-fields/internal/export"
	"github.com/a3tai/mcp-form-fields/internal/fields"
	"github.com/a3tai/mcp-form-fields/internal/layout"
	"github.com/a3tai/mcp-form-fields/internal/pdf"
)

// Sink persists scan results.
type Sink interface {
	Save(ctx context.Context, doc *fields.Document, report *concepts.Report) error
}

// Components are the parts a Pipeline drives. Provider and Scanner are required.
type Components struct {
	Provider layout.Provider
	Scanner  *fields.Scanner
	// Resolver is nil when annotation is disabled.
	Resolver *concepts.Resolver
	// Sink is nil when storage is disabled.
	Sink Sink
	// Files without formats writes nothing.
	Files  export.Files
	Search *pdf.Search
}

// Result is the outcome of one processed file.
type Result struct {
	Path     string
	Document *fields.Document
	Report   *concepts.Report
	Outputs  []string
	Elapsed  time.Duration
	Err      error
}

// Pipeline processes form PDFs.
type Pipeline struct {
	provider layout.Provider
	scanner  *fields.Scanner
	resolver *concepts.Resolver
	sink     Sink
	files    export.Files
	search   *pdf.Search
	logger   *zap.Logger
	closers  []func(context.Context) error
}

// New creates a pipeline over c.
func New(c Components, logger *zap.Logger) (*Pipeline, error) {
	if c.Provider == nil || c.Scanner == nil {
		return nil, errors.New("pipeline requires a provider and a scanner")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		provider: c.Provider,
		scanner:  c.Scanner,
		resolver: c.Resolver,
		sink:     c.Sink,
		files:    c.Files,
		search:   c.Search,
		logger:   logger,
	}, nil
}

// Annotates reports whether concept resolution is enabled.
func (p *Pipeline) Annotates() bool {
	return p.resolver != nil
}

// Extract scans the fields of the PDF at path.
func (p *Pipeline) Extract(ctx context.Context, path string) (*fields.Document, error) {
	src, err := p.provider.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			p.logger.Warn("failed to close document", zap.String("path", path), zap.Error(cerr))
		}
	}()
	return p.scanner.Scan(ctx, src, path)
}

// Annotate resolves the sections of doc. It returns nil when annotation is disabled.
func (p *Pipeline) Annotate(ctx context.Context, doc *fields.Document) *concepts.Report {
	if p.resolver == nil {
		return nil
	}
	return p.resolver.Resolve(ctx, doc)
}

// Write renders doc and report in every configured format and returns the written paths.
func (p *Pipeline) Write(doc *fields.Document, report *concepts.Report) ([]string, error) {
	if len(p.files.Formats) == 0 {
		return nil, nil
	}
	outputs, err := p.files.Write(doc, report)
	if err != nil {
		return outputs, fmt.Errorf("failed to write outputs for %s: %w", doc.Source, err)
	}
	return outputs, nil
}

// Process extracts, annotates, writes and stores the PDF at path. When writing or storing
// fails the returned result still carries the document and report.
func (p *Pipeline) Process(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	res := &Result{Path: path}

	doc, err := p.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	res.Document = doc
	res.Report = p.Annotate(ctx, doc)

	res.Outputs, err = p.Write(doc, res.Report)
	if err != nil {
		return res, err
	}
	if p.sink != nil {
		if err := p.sink.Save(ctx, doc, res.Report); err != nil {
			return res, err
		}
	}

	res.Elapsed = time.Since(start)
	p.logger.Info("form processed",
		zap.String("path", path),
		zap.String("scan_id", doc.ScanID),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("fields", doc.FieldCount()),
		zap.Strings("outputs", res.Outputs),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// ProcessDir processes every PDF under dir whose name matches query (empty for all).
// A failing file is reported in its Result and does not stop the batch; cancellation does.
func (p *Pipeline) ProcessDir(ctx context.Context, dir, query string) ([]*Result, error) {
	if p.search == nil {
		return nil, errors.New("directory search is not configured")
	}
	files, err := p.search.FindPDFs(dir, query, 0)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := p.Process(ctx, f.Path)
		if err != nil {
			p.logger.Warn("form failed", zap.String("path", f.Path), zap.Error(err))
			if res == nil {
				res = &Result{Path: f.Path}
			}
			res.Err = err
		}
		results = append(results, res)
	}
	return results, nil
}

// Close releases the resources acquired by Build.
func (p *Pipeline) Close(ctx context.Context) error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c(ctx))
	}
	return errors.Join(errs...)
}
