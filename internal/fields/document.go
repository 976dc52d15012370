package fields

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-form-fields/internal/checkbox"
	"github.com/a3tai/mcp-form-fields/internal/textnorm"
)

// FieldRecord is one label and the text accumulated for it.
type FieldRecord struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Append adds text to the record, space separated.
func (f *FieldRecord) Append(text string) {
	f.Text = textnorm.Join(f.Text, text)
}

// ChecklistState is what the checkbox engine recovered on a checklist page.
type ChecklistState struct {
	Index int             `json:"index"`
	Marks []checkbox.Mark `json:"marks"`
	Items []string        `json:"items"`
}

// PageFields is the ordered field list of one page.
type PageFields struct {
	PageID    int             `json:"page"`
	Fields    []*FieldRecord  `json:"fields"`
	Checklist *ChecklistState `json:"checklist,omitempty"`
}

// Document is the page-ordered result of one scan.
type Document struct {
	ScanID string        `json:"scan_id"`
	Source string        `json:"source"`
	Pages  []*PageFields `json:"pages"`
	index  map[int]int
}

// NewDocument starts an empty document for source.
func NewDocument(source string) *Document {
	return &Document{
		ScanID: uuid.NewString(),
		Source: source,
		index:  make(map[int]int),
	}
}

// Assemble stores a finished page. The last record belongs to the sentinel anchor and is
// dropped. Page ids must increase.
func (d *Document) Assemble(pageID int, records []*FieldRecord, checklist *ChecklistState) error {
	if n := len(d.Pages); n > 0 && pageID <= d.Pages[n-1].PageID {
		return fmt.Errorf("page %d after page %d: page ids must increase", pageID, d.Pages[n-1].PageID)
	}
	if len(records) > 0 {
		records = records[:len(records)-1]
	}
	d.index[pageID] = len(d.Pages)
	d.Pages = append(d.Pages, &PageFields{PageID: pageID, Fields: records, Checklist: checklist})
	return nil
}

// Page returns the fields stored for pageID.
func (d *Document) Page(pageID int) (*PageFields, bool) {
	i, ok := d.index[pageID]
	if !ok {
		return nil, false
	}
	return d.Pages[i], true
}

// Field returns the record at index i of page pageID.
func (d *Document) Field(pageID, i int) (*FieldRecord, bool) {
	p, ok := d.Page(pageID)
	if !ok || i < 0 || i >= len(p.Fields) {
		return nil, false
	}
	return p.Fields[i], true
}

// FindLabel returns the first record, in page order, whose label equals label
// ignoring case and whitespace.
func (d *Document) FindLabel(label string) (*FieldRecord, int, bool) {
	key := textnorm.Key(label)
	for _, p := range d.Pages {
		for _, f := range p.Fields {
			if textnorm.Key(f.Label) == key {
				return f, p.PageID, true
			}
		}
	}
	return nil, 0, false
}

// FindLabelContaining returns the first record whose label contains marker ignoring case.
func (d *Document) FindLabelContaining(marker string) (*FieldRecord, bool) {
	for _, p := range d.Pages {
		for _, f := range p.Fields {
			if textnorm.Contains(f.Label, marker) {
				return f, true
			}
		}
	}
	return nil, false
}

// FieldCount returns the number of records across all pages.
func (d *Document) FieldCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Fields)
	}
	return n
}
