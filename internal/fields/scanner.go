package fields

import (
	"context"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/checkbox"
	"github.com/a3tai/mcp-form-fields/internal/layout"
)

// ChecklistResolver recovers the selected items of a checklist band.
type ChecklistResolver interface {
	Resolve(elements []layout.Element, band checkbox.Band) checkbox.Result
}

// Scanner reconstructs form fields page by page.
type Scanner struct {
	opts      Options
	checklist ChecklistResolver
	assoc     *Associator
	logger    *zap.Logger
}

// NewScanner creates a scanner. A nil checklist resolver leaves checklist fields empty.
func NewScanner(opts Options, checklist ChecklistResolver, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		opts:      opts,
		checklist: checklist,
		assoc:     NewAssociator(logger),
		logger:    logger,
	}
}

// Scan folds every page of src into a new Document. The first page error aborts the scan.
func (s *Scanner) Scan(ctx context.Context, src layout.Source, name string) (*Document, error) {
	doc := NewDocument(name)
	var cursor Cursor
	for page, err := range src.Pages(ctx) {
		if err != nil {
			return nil, err
		}
		cursor, err = s.ScanPage(doc, cursor, page)
		if err != nil {
			return nil, err
		}
	}
	s.logger.Info("scan complete",
		zap.String("source", name),
		zap.String("scan_id", doc.ScanID),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("fields", doc.FieldCount()))
	return doc, nil
}

// ScanPage classifies, associates and assembles one page into doc, returning the cursor
// to carry into the next page.
func (s *Scanner) ScanPage(doc *Document, cursor Cursor, page *layout.Page) (Cursor, error) {
	if err := page.Validate(); err != nil {
		return cursor, err
	}

	classified := Classify(page, s.opts)
	bands := BuildIntervals(classified.Labels, s.opts)
	assoc := s.assoc.Associate(doc, cursor, page.ID, bands, classified.Content)

	var state *ChecklistState
	if bands.IsChecklist() {
		state = s.resolveChecklist(page, bands, assoc)
	}

	if err := doc.Assemble(page.ID, assoc.Records, state); err != nil {
		return cursor, err
	}
	s.logger.Debug("page scanned",
		zap.Int("page", page.ID),
		zap.Int("labels", len(classified.Labels)),
		zap.Int("content", len(classified.Content)),
		zap.Bool("checklist", state != nil))
	return assoc.Cursor, nil
}

func (s *Scanner) resolveChecklist(page *layout.Page, bands *Bands, assoc Association) *ChecklistState {
	idx := bands.ChecklistIndex
	state := &ChecklistState{Index: idx}
	if s.checklist == nil {
		s.logger.Warn("checklist page without checkbox engine", zap.Int("page", page.ID))
		return state
	}
	res := s.checklist.Resolve(page.Elements, bands.Band(idx))
	state.Marks = res.Marks
	state.Items = res.Items
	assoc.Records[idx].Text = res.Text
	s.logger.Debug("checklist band resolved",
		zap.Int("page", page.ID),
		zap.Strings("items", res.Items))
	return state
}
