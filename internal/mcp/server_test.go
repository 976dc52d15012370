package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"codeberg.org/go-pdf/fpdf"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-fields/internal/concepts"
	"github.com/a3tai/mcp-form-fields/internal/config"
	"github.com/a3tai/mcp-form-fields/internal/fields"
	"github.com/a3tai/mcp-form-fields/internal/pdf"
	"github.com/a3tai/mcp-form-fields/internal/pipeline"
)

const pageHeight = 842.0

type keywordAnnotator struct{}

func (keywordAnnotator) Annotate(_ context.Context, text string) ([]concepts.AnnotatedClass, error) {
	idx := strings.Index(strings.ToLower(text), "diabetes")
	if idx < 0 {
		return nil, nil
	}
	from := utf8.RuneCountInString(text[:idx]) + 1
	return []concepts.AnnotatedClass{{
		Reference:   "doid:9351",
		Annotations: []concepts.Annotation{{From: from, To: from + 7, Text: "DIABETES"}},
	}}, nil
}

func (keywordAnnotator) Lookup(context.Context, string) (concepts.Concept, error) {
	return concepts.Concept{PreferredLabel: "diabetes"}, nil
}

// writeForm renders a one-page two-column form into dir.
func writeForm(t *testing.T, dir string) string {
	t.Helper()
	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetFont("Helvetica", "", 10)
	doc.AddPage()
	place := func(x, top float64, s string) { doc.Text(x, pageHeight-(top-10), s) }
	place(50, 700, "Elevator pitch")
	place(250, 650, "Screening for diabetes")
	place(50, 500, "Market Need")
	place(250, 300, "Large")
	path := filepath.Join(dir, "proposal.pdf")
	require.NoError(t, doc.OutputFileAndClose(path))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.PDFDirectory = t.TempDir()
	cfg.ServerName = "test-server"
	cfg.Annotator.Sections = []string{"Elevator pitch", "SWOT"}
	cfg.Output.Formats = []string{"csv"}
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, annotate bool) *Server {
	t.Helper()
	c := pipeline.Components{
		Provider: pdf.NewProvider(cfg.MaxFileSize, pdf.DefaultTextOptions(), nil),
		Scanner:  fields.NewScanner(cfg.FieldOptions(), nil, nil),
		Files:    cfg.ExportFiles(),
		Search:   pdf.NewSearch(cfg.MaxFileSize),
	}
	if annotate {
		c.Resolver = concepts.NewResolver(keywordAnnotator{}, cfg.ResolverConfig(), nil)
	}
	p, err := pipeline.New(c, nil)
	require.NoError(t, err)

	server, err := NewServer(cfg, p, nil)
	require.NoError(t, err)
	return server
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestNewServer(t *testing.T) {
	cfg := testConfig(t)
	p, err := pipeline.New(pipeline.Components{
		Provider: pdf.NewProvider(0, pdf.DefaultTextOptions(), nil),
		Scanner:  fields.NewScanner(fields.DefaultOptions(), nil, nil),
	}, nil)
	require.NoError(t, err)

	tests := []struct {
		name        string
		config      *config.Config
		pipeline    *pipeline.Pipeline
		expectError bool
	}{
		{name: "valid stdio mode config", config: cfg, pipeline: p},
		{name: "nil config", pipeline: p, expectError: true},
		{name: "nil pipeline", config: cfg, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(tt.config, tt.pipeline, nil)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Same(t, tt.config, server.config)
			assert.NotNil(t, server.mcpServer)
			assert.Equal(t, tt.config.PDFDirectory, server.guard.Root())
		})
	}
}

func TestServer_HandleExtractFields(t *testing.T) {
	cfg := testConfig(t)
	path := writeForm(t, cfg.PDFDirectory)
	server := newTestServer(t, cfg, false)

	result, err := server.handleExtractFields(context.Background(), callRequest(map[string]interface{}{
		"path":          "proposal.pdf",
		"write_outputs": true,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Page 1")
	assert.Contains(t, text, "• Elevator pitch: Screening for diabetes")
	assert.Contains(t, text, "• Market Need: Large")
	assert.Contains(t, text, "Outputs written:")
	assert.FileExists(t, filepath.Join(cfg.PDFDirectory, "proposal.fields.csv"))
	assert.NoFileExists(t, filepath.Join(cfg.PDFDirectory, "proposal.concepts.csv"))
	assert.Contains(t, text, path)
}

func TestServer_HandleExtractFields_Errors(t *testing.T) {
	cfg := testConfig(t)
	server := newTestServer(t, cfg, false)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{name: "missing path", args: map[string]interface{}{}, want: "path"},
		{name: "outside directory", args: map[string]interface{}{"path": "/etc/passwd"}, want: "outside configured directory"},
		{name: "missing file", args: map[string]interface{}{"path": "absent.pdf"}, want: "absent.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleExtractFields(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.want)
		})
	}
}

func TestServer_HandleAnnotateSections(t *testing.T) {
	cfg := testConfig(t)
	writeForm(t, cfg.PDFDirectory)
	server := newTestServer(t, cfg, true)

	result, err := server.handleAnnotateSections(context.Background(), callRequest(map[string]interface{}{
		"path":          "proposal.pdf",
		"write_outputs": true,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Elevator pitch [resolved] (page 1)")
	assert.Contains(t, text, "  • diabetes")
	assert.Contains(t, text, "SWOT [not_found]")
	assert.FileExists(t, filepath.Join(cfg.PDFDirectory, "proposal.concepts.csv"))
}

func TestServer_HandleAnnotateSections_Disabled(t *testing.T) {
	cfg := testConfig(t)
	writeForm(t, cfg.PDFDirectory)
	server := newTestServer(t, cfg, false)

	result, err := server.handleAnnotateSections(context.Background(), callRequest(map[string]interface{}{
		"path": "proposal.pdf",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractTextFromResult(result), "disabled")
}

func TestServer_HandleValidateFile(t *testing.T) {
	cfg := testConfig(t)
	writeForm(t, cfg.PDFDirectory)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.PDFDirectory, "fake.pdf"), make([]byte, 1024), 0o600))
	server := newTestServer(t, cfg, false)

	tests := []struct {
		path string
		want string
	}{
		{path: "proposal.pdf", want: "is valid and readable (1 pages)"},
		{path: "fake.pdf", want: "PDF validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result, err := server.handleValidateFile(context.Background(), callRequest(map[string]interface{}{
				"path": tt.path,
			}))
			require.NoError(t, err)
			assert.Contains(t, extractTextFromResult(result), tt.want)
		})
	}
}

func TestServer_HandleSearchDirectory(t *testing.T) {
	cfg := testConfig(t)
	for _, filename := range []string{"doc1.pdf", "doc2.pdf", "report.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.PDFDirectory, filename), make([]byte, 1024), 0o600))
	}
	server := newTestServer(t, cfg, false)

	result, err := server.handleSearchDirectory(context.Background(), callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "Found 2 PDF file(s)")
	assert.NotContains(t, text, "report.txt")

	result, err = server.handleSearchDirectory(context.Background(), callRequest(map[string]interface{}{
		"query": "doc2",
	}))
	require.NoError(t, err)
	text = extractTextFromResult(result)
	assert.Contains(t, text, "Found 1 PDF file(s)")
	assert.Contains(t, text, "Search query: doc2")

	result, err = server.handleSearchDirectory(context.Background(), callRequest(map[string]interface{}{
		"query": "missing",
	}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "No PDF files found")

	result, err = server.handleSearchDirectory(context.Background(), callRequest(map[string]interface{}{
		"directory": "/",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleServerInfo(t *testing.T) {
	cfg := testConfig(t)
	writeForm(t, cfg.PDFDirectory)
	server := newTestServer(t, cfg, true)

	result, err := server.handleServerInfo(context.Background(), callRequest(nil))
	require.NoError(t, err)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "test-server v1.0.0")
	assert.Contains(t, text, "Concept Annotation: true (ontologies: DOID, sections: 2)")
	assert.Contains(t, text, "1. proposal.pdf")
	for _, tool := range []string{"form_extract_fields", "form_annotate_sections", "form_validate_file", "form_search_directory", "form_server_info"} {
		assert.Contains(t, text, tool)
	}
}

func TestFormatReport(t *testing.T) {
	report := &concepts.Report{
		DocumentID: "EIT-17",
		Sections: []concepts.SectionResult{
			{Section: "Elevator pitch", Status: concepts.StatusFailed, Page: 2, Reason: "timeout"},
			{Section: "SWOT", Status: concepts.StatusEmpty, Page: 3},
		},
	}
	text := formatReport("proposal.pdf", report)
	assert.Contains(t, text, "Document ID: EIT-17")
	assert.Contains(t, text, "Elevator pitch [failed] (page 2)\n  Reason: timeout")
	assert.Contains(t, text, "SWOT [empty] (page 3)")
}

func TestFormatOutputs(t *testing.T) {
	assert.Contains(t, formatOutputs(nil), "No output formats configured")
	out := formatOutputs([]string{"/tmp/a.fields.csv"})
	assert.Contains(t, out, "/tmp/a.fields.csv")
}

// Helper function to extract text from MCP result
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	var parts []string
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			parts = append(parts, textContent.Text)
		}
	}
	return strings.Join(parts, "\n")
}
