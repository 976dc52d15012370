package fields

import (
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/layout"
	"github.com/a3tai/mcp-form-fields/internal/textnorm"
)

// Cursor points at the field most recently matched by an interval.
// The zero value points nowhere.
type Cursor struct {
	PageID int  `json:"page"`
	Field  int  `json:"field"`
	Set    bool `json:"set"`
}

// Association is the outcome of routing one page's content.
type Association struct {
	// Records has one entry per anchor, sentinel included.
	Records []*FieldRecord
	Cursor  Cursor
}

// Associator routes content runs to fields.
type Associator struct {
	logger *zap.Logger
}

// NewAssociator creates an associator; a nil logger disables logging.
func NewAssociator(logger *zap.Logger) *Associator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Associator{logger: logger}
}

// Associate routes every content run of page in a single top-down pass.
// Text that matches no interval continues the field under cursor, which may live in doc
// on an earlier page; on the first page such text is dropped. The returned cursor
// reflects the last interval match.
func (a *Associator) Associate(
	doc *Document, cursor Cursor, pageID int, bands *Bands, content []*layout.TextRun,
) Association {
	out := Association{Cursor: cursor}
	out.Records = make([]*FieldRecord, len(bands.Anchors))
	for i, anchor := range bands.Anchors {
		out.Records[i] = &FieldRecord{Label: anchor.Label}
	}

	for _, run := range content {
		text := textnorm.Clean(run.Text)

		if !bands.HasLabels() {
			a.continueField(doc, &out, pageID, text)
			continue
		}

		if i, ok := bands.Match(run.Box.Top()); ok {
			// The checkbox engine reads the checklist band from the element tree.
			if bands.IsChecklist() && i == bands.ChecklistIndex {
				continue
			}
			out.Records[i].Append(text)
			out.Cursor = Cursor{PageID: pageID, Field: i, Set: true}
			continue
		}

		if pageID > 1 {
			a.continueField(doc, &out, pageID, text)
			continue
		}
		a.logger.Debug("dropping unmatched content on first page",
			zap.Int("page", pageID), zap.Float64("top", run.Box.Top()))
	}
	return out
}

func (a *Associator) continueField(doc *Document, out *Association, pageID int, text string) {
	target := a.cursorTarget(doc, out, pageID)
	if target == nil {
		a.logger.Debug("dropping content with no field to continue", zap.Int("page", pageID))
		return
	}
	target.Append(text)
}

func (a *Associator) cursorTarget(doc *Document, out *Association, pageID int) *FieldRecord {
	c := out.Cursor
	if !c.Set {
		return nil
	}
	if c.PageID == pageID {
		return out.Records[c.Field]
	}
	if doc == nil {
		return nil
	}
	f, ok := doc.Field(c.PageID, c.Field)
	if !ok {
		return nil
	}
	return f
}
