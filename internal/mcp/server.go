package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/concepts"
	"github.com/a3tai/mcp-form-fields/internal/config"
	"github.com/a3tai/mcp-form-fields/internal/descriptions"
	"github.com/a3tai/mcp-form-fields/internal/fields"
	"github.com/a3tai/mcp-form-fields/internal/pdf"
	"github.com/a3tai/mcp-form-fields/internal/pipeline"
)

const (
	shutdownTimeout = 5 * time.Second
	infoFileLimit   = 10
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	pipeline  *pipeline.Pipeline
	validator *pdf.Validator
	search    *pdf.Search
	guard     *pdf.PathGuard
	mcpServer *server.MCPServer
	logger    *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, p *pipeline.Pipeline, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if p == nil {
		return nil, errors.New("pipeline cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	guard, err := pdf.NewPathGuard(cfg.PDFDirectory)
	if err != nil {
		return nil, err
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		pipeline:  p,
		validator: pdf.NewValidator(cfg.MaxFileSize),
		search:    pdf.NewSearch(cfg.MaxFileSize),
		guard:     guard,
		mcpServer: mcpServer,
		logger:    logger,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractTool := mcp.NewTool(
		descriptions.ToolExtractFields,
		mcp.WithDescription(descriptions.ExtractFieldsDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the form PDF, absolute or relative to the configured directory"),
		),
		mcp.WithBoolean("write_outputs",
			mcp.Description("Also write the field table in the configured formats"),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleExtractFields)

	annotateTool := mcp.NewTool(
		descriptions.ToolAnnotateSections,
		mcp.WithDescription(descriptions.AnnotateSectionsDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the form PDF, absolute or relative to the configured directory"),
		),
		mcp.WithBoolean("write_outputs",
			mcp.Description("Also write the field and concept tables in the configured formats"),
		),
	)
	s.mcpServer.AddTool(annotateTool, s.handleAnnotateSections)

	validateTool := mcp.NewTool(
		descriptions.ToolValidateFile,
		mcp.WithDescription(descriptions.ValidateFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidateFile)

	searchTool := mcp.NewTool(
		descriptions.ToolSearchDirectory,
		mcp.WithDescription(descriptions.SearchDirectoryDescription),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchDirectory)

	infoTool := mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	)
	s.mcpServer.AddTool(infoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleExtractFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.requirePath(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.pipeline.Extract(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := formatDocument(doc)
	if request.GetBool("write_outputs", false) {
		outputs, err := s.pipeline.Write(doc, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text += formatOutputs(outputs)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleAnnotateSections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.pipeline.Annotates() {
		return mcp.NewToolResultError("concept annotation is disabled (--annotate=false)"), nil
	}
	path, err := s.requirePath(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.pipeline.Extract(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report := s.pipeline.Annotate(ctx, doc)

	text := formatReport(doc.Source, report)
	if request.GetBool("write_outputs", false) {
		outputs, err := s.pipeline.Write(doc, report)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text += formatOutputs(outputs)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.requirePath(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := s.validator.ValidateFile(path)

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable (%d pages)", result.Path, result.Pages)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleSearchDirectory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	directory := s.guard.Root() // default
	if dir := request.GetString("directory", ""); dir != "" {
		resolved, err := s.guard.Resolve(dir)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		directory = resolved
	}
	query := request.GetString("query", "")

	files, err := s.search.FindPDFs(directory, query, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if len(files) == 0 {
		responseText = fmt.Sprintf("No PDF files found in directory: %s", directory)
		if query != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", query)
		}
	} else {
		responseText = formatSearchResult(directory, query, files)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.search.FindPDFs(s.guard.Root(), "", 0)
	if err != nil {
		// An empty or missing directory is not an error for server info
		s.logger.Debug("directory listing unavailable", zap.Error(err))
		files = nil
	}
	return mcp.NewToolResultText(s.formatServerInfo(files)), nil
}

func (s *Server) requirePath(request mcp.CallToolRequest) (string, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return "", err
	}
	return s.guard.Resolve(path)
}

// Formatting methods
func formatDocument(doc *fields.Document) string {
	text := fmt.Sprintf("Fields of %s (scan %s)\n", doc.Source, doc.ScanID)
	text += fmt.Sprintf("Pages with fields: %d, fields: %d\n", len(doc.Pages), doc.FieldCount())

	for _, page := range doc.Pages {
		text += fmt.Sprintf("\nPage %d\n", page.PageID)
		for _, f := range page.Fields {
			value := f.Text
			if value == "" {
				value = "(empty)"
			}
			text += fmt.Sprintf("• %s: %s\n", f.Label, value)
		}
		if page.Checklist != nil {
			text += fmt.Sprintf("  Checkboxes found: %d, selected items: %d\n",
				len(page.Checklist.Marks), len(page.Checklist.Items))
		}
	}
	return text
}

func formatReport(source string, report *concepts.Report) string {
	text := fmt.Sprintf("Concepts of %s\n", source)
	if report.DocumentID != "" {
		text += fmt.Sprintf("Document ID: %s\n", report.DocumentID)
	}

	for _, section := range report.Sections {
		text += fmt.Sprintf("\n%s [%s]", section.Section, section.Status)
		if section.Page > 0 {
			text += fmt.Sprintf(" (page %d)", section.Page)
		}
		text += "\n"
		switch section.Status {
		case concepts.StatusResolved:
			for _, c := range section.Concepts {
				text += fmt.Sprintf("  • %s\n", c)
			}
		case concepts.StatusFailed:
			text += fmt.Sprintf("  Reason: %s\n", section.Reason)
		}
		if n := len(section.LookupErrors); n > 0 {
			text += fmt.Sprintf("  %d concept lookup(s) failed\n", n)
		}
	}
	return text
}

func formatOutputs(outputs []string) string {
	if len(outputs) == 0 {
		return "\nNo output formats configured\n"
	}
	text := "\nOutputs written:\n"
	for _, path := range outputs {
		text += fmt.Sprintf("  %s\n", path)
	}
	return text
}

func formatSearchResult(directory, query string, files []pdf.FileInfo) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", len(files), directory)
	if query != "" {
		text += fmt.Sprintf("Search query: %s\n", query)
	}
	text += "\nFiles:\n"

	for i, file := range files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(files)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatServerInfo(files []pdf.FileInfo) string {
	cfg := s.config
	text := fmt.Sprintf("%s v%s - Server Information\n", cfg.ServerName, cfg.Version)
	text += fmt.Sprintf("Default Directory: %s\n", s.guard.Root())
	text += fmt.Sprintf("Max File Size: %d MB\n", cfg.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Concept Annotation: %t", s.pipeline.Annotates())
	if s.pipeline.Annotates() {
		text += fmt.Sprintf(" (ontologies: %s, sections: %d)", cfg.Annotator.Ontologies, len(cfg.Annotator.Sections))
	}
	text += "\n"
	text += fmt.Sprintf("Output Formats: %v\n", cfg.Output.Formats)
	text += fmt.Sprintf("MongoDB Storage: %t\n\n", cfg.Store.Enabled())

	// Directory contents
	if len(files) > 0 {
		text += fmt.Sprintf("Directory Contents (%d PDF files found):\n", len(files))
		for i, file := range files {
			if i >= infoFileLimit {
				text += fmt.Sprintf("   ... and %d more files\n", len(files)-infoFileLimit)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "Directory Contents: No PDF files found in default directory\n\n"
	}

	// Available tools
	text += "Available Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		usage := descriptions.ToolUsage[name]
		text += fmt.Sprintf("\n• %s\n", name)
		text += fmt.Sprintf("  Usage: %s\n", usage[0])
		text += fmt.Sprintf("  Parameters: %s\n", usage[1])
	}

	text += "\nTypical workflow: form_search_directory → form_validate_file → form_extract_fields → form_annotate_sections\n"
	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(ctx context.Context) error {
	return s.serveStdio(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serveStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Debug("starting MCP server in stdio mode", zap.String("directory", s.guard.Root()))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over HTTP with server-sent events until ctx is done
func (s *Server) runServerMode(ctx context.Context) error {
	sse := server.NewSSEServer(s.mcpServer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(s.config.Address())
	}()
	s.logger.Info("MCP server listening", zap.String("address", s.config.Address()))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		return nil
	}
}
