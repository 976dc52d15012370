package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/concepts"
	"github.com/a3tai/mcp-form-fields/internal/export"
	"github.com/a3tai/mcp-form-fields/internal/pipeline"
)

func newExtractCmd(a *app) *cobra.Command {
	var stdout string
	cmd := &cobra.Command{
		Use:   "extract PATH...",
		Short: "Extract the fields of form PDFs",
		Long: `Extract the fields of every given PDF, and of every PDF under every given
directory, and write the field tables in the configured formats.

Examples:
  form-fields extract proposal.pdf
  form-fields extract --formats=csv,json --output-dir=out inbox/
  form-fields extract --stdout=yaml proposal.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Annotator.Enabled = false
			return a.process(cmd, args, stdout)
		},
	}
	cmd.Flags().StringVar(&stdout, "stdout", "", "Also print the tables to stdout in this format (csv, json, yaml)")
	return cmd
}

func newAnnotateCmd(a *app) *cobra.Command {
	var stdout string
	cmd := &cobra.Command{
		Use:   "annotate PATH...",
		Short: "Extract fields and resolve sections to ontology concepts",
		Long: `Extract the fields of every given PDF, resolve the configured sections to
canonical concepts with the annotator, and write field and concept tables.

Examples:
  FORM_FIELDS_API_KEY=... form-fields annotate proposal.pdf
  form-fields annotate --ontologies=DOID --discard=disease,syndrome inbox/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Annotator.Enabled = true
			if a.cfg.Annotator.APIKey == "" {
				a.logger.Warn("no annotator API key; set FORM_FIELDS_API_KEY or --api-key")
			}
			return a.process(cmd, args, stdout)
		},
	}
	cmd.Flags().StringVar(&stdout, "stdout", "", "Also print the tables to stdout in this format (csv, json, yaml)")
	return cmd
}

// process runs every path through the pipeline. Directories are processed as batches.
func (a *app) process(cmd *cobra.Command, paths []string, stdout string) error {
	var format export.Format
	if stdout != "" {
		f, err := export.ParseFormat(stdout)
		if err != nil {
			return err
		}
		format = f
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

	var results []*pipeline.Result
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("cannot access %s: %w", path, err)
		}
		if info.IsDir() {
			batch, err := p.ProcessDir(ctx, path, "")
			results = append(results, batch...)
			if err != nil {
				return err
			}
			continue
		}
		res, err := p.Process(ctx, path)
		if res == nil {
			res = &pipeline.Result{Path: path}
		}
		res.Err = err
		results = append(results, res)
	}

	return report(cmd.OutOrStdout(), results, format)
}

// report prints one line per result, or the tables themselves when format is set, and
// fails when any file failed.
func report(w io.Writer, results []*pipeline.Result, format export.Format) error {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(w, "FAILED %s: %v\n", res.Path, res.Err)
			continue
		}
		if format != "" {
			if err := export.WriteFields(w, res.Document, format); err != nil {
				return err
			}
			if res.Report != nil {
				if err := export.WriteConcepts(w, res.Report, format); err != nil {
					return err
				}
			}
			continue
		}
		line := fmt.Sprintf("%s: %d fields on %d pages", res.Path, res.Document.FieldCount(), len(res.Document.Pages))
		if res.Report != nil {
			line += fmt.Sprintf(", %d sections resolved", countResolved(res))
		}
		fmt.Fprintln(w, line)
		for _, out := range res.Outputs {
			fmt.Fprintf(w, "  wrote %s\n", out)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func countResolved(res *pipeline.Result) int {
	n := 0
	for _, s := range res.Report.Sections {
		if s.Status == concepts.StatusResolved {
			n++
		}
	}
	return n
}
