// Package export renders scanned documents and concept reports as CSV, JSON or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/a3tai/mcp-form-fields/internal/concepts"
	"github.com/a3tai/mcp-form-fields/internal/fields"
)

// Format is an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts csv, json, yaml or yml, in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format: %q", s)
}

// FieldView is one field as written out.
type FieldView struct {
	Label string `json:"label" yaml:"label"`
	Text  string `json:"text" yaml:"text"`
}

// PageView is one page as written out.
type PageView struct {
	Page      int         `json:"page" yaml:"page"`
	Fields    []FieldView `json:"fields" yaml:"fields"`
	Checklist []string    `json:"checklist,omitempty" yaml:"checklist,omitempty"`
}

// DocumentView is a scanned document as written out.
type DocumentView struct {
	ScanID string     `json:"scan_id" yaml:"scan_id"`
	Source string     `json:"source" yaml:"source"`
	Pages  []PageView `json:"pages" yaml:"pages"`
}

// SectionView is one resolved section as written out.
type SectionView struct {
	Section  string   `json:"section" yaml:"section"`
	Page     int      `json:"page" yaml:"page"`
	Status   string   `json:"status" yaml:"status"`
	Text     string   `json:"text,omitempty" yaml:"text,omitempty"`
	Concepts []string `json:"concepts" yaml:"concepts"`
	Reason   string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ReportView is a concept report as written out. Sections absent from the document are omitted.
type ReportView struct {
	DocumentID string        `json:"document_id" yaml:"document_id"`
	Sections   []SectionView `json:"sections" yaml:"sections"`
}

// NewDocumentView flattens doc for encoding.
func NewDocumentView(doc *fields.Document) DocumentView {
	v := DocumentView{ScanID: doc.ScanID, Source: doc.Source, Pages: make([]PageView, 0, len(doc.Pages))}
	for _, p := range doc.Pages {
		pv := PageView{Page: p.PageID, Fields: make([]FieldView, 0, len(p.Fields))}
		for _, f := range p.Fields {
			pv.Fields = append(pv.Fields, FieldView{Label: f.Label, Text: f.Text})
		}
		if p.Checklist != nil {
			pv.Checklist = p.Checklist.Items
		}
		v.Pages = append(v.Pages, pv)
	}
	return v
}

// NewReportView flattens report for encoding.
func NewReportView(report *concepts.Report) ReportView {
	v := ReportView{DocumentID: report.DocumentID, Sections: []SectionView{}}
	for _, s := range report.Found() {
		v.Sections = append(v.Sections, SectionView{
			Section:  s.Label,
			Page:     s.Page,
			Status:   s.Status.String(),
			Text:     s.Text,
			Concepts: append([]string{}, s.Concepts...),
			Reason:   s.Reason,
		})
	}
	return v
}

// WriteFields writes the field table of doc to w.
func WriteFields(w io.Writer, doc *fields.Document, format Format) error {
	if format == FormatCSV {
		return writeFieldsCSV(w, doc)
	}
	return encode(w, format, NewDocumentView(doc))
}

// WriteConcepts writes the concept table of report to w.
func WriteConcepts(w io.Writer, report *concepts.Report, format Format) error {
	if format == FormatCSV {
		return writeConceptsCSV(w, report)
	}
	return encode(w, format, NewReportView(report))
}

func encode(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// cell keeps the separator out of free text.
func cell(s string) string {
	return strings.ReplaceAll(s, ";", " ")
}

func newCSV(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	return cw
}

// writeFieldsCSV writes "page;label;text" rows with a blank line after each page.
func writeFieldsCSV(w io.Writer, doc *fields.Document) error {
	cw := newCSV(w)
	if err := cw.Write([]string{"page", "label", "text"}); err != nil {
		return err
	}
	for _, p := range doc.Pages {
		page := strconv.Itoa(p.PageID)
		for _, f := range p.Fields {
			if err := cw.Write([]string{page, cell(f.Label), cell(f.Text)}); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{""}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeConceptsCSV writes "id;section;text;concepts" rows, concepts joined by ", ".
func writeConceptsCSV(w io.Writer, report *concepts.Report) error {
	cw := newCSV(w)
	if err := cw.Write([]string{"id", "section", "text", "concepts"}); err != nil {
		return err
	}
	for _, s := range report.Found() {
		row := []string{cell(report.DocumentID), cell(s.Label), cell(s.Text), cell(strings.Join(s.Concepts, ", "))}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Files writes field and concept tables next to each other in a directory.
type Files struct {
	Dir     string
	Formats []Format
}

// FieldsPath returns where the field table of source goes for format.
func (f Files) FieldsPath(source string, format Format) string {
	return filepath.Join(f.dir(source), baseName(source)+".fields."+string(format))
}

// ConceptsPath returns where the concept table of source goes for format.
func (f Files) ConceptsPath(source string, format Format) string {
	return filepath.Join(f.dir(source), baseName(source)+".concepts."+string(format))
}

func (f Files) dir(source string) string {
	if f.Dir != "" {
		return f.Dir
	}
	return filepath.Dir(source)
}

func baseName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Write renders doc and, when report is not nil, report in every format. It returns the
// written paths.
func (f Files) Write(doc *fields.Document, report *concepts.Report) ([]string, error) {
	if err := os.MkdirAll(f.dir(doc.Source), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	var written []string
	for _, format := range f.Formats {
		path := f.FieldsPath(doc.Source, format)
		if err := writeFile(path, func(w io.Writer) error { return WriteFields(w, doc, format) }); err != nil {
			return written, err
		}
		written = append(written, path)

		if report == nil {
			continue
		}
		path = f.ConceptsPath(doc.Source, format)
		if err := writeFile(path, func(w io.Writer) error { return WriteConcepts(w, report, format) }); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, render func(io.Writer) error) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := render(out); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
