package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/a3tai/mcp-form-fields/internal/concepts"
	"github.com/a3tai/mcp-form-fields/internal/fields"
)

func TestNewRecord(t *testing.T) {
	doc := fields.NewDocument("forms/p.pdf")
	require.NoError(t, doc.Assemble(1, []*fields.FieldRecord{{Label: "SWOT", Text: "strong"}, {}}, nil))
	require.NoError(t, doc.Assemble(4, []*fields.FieldRecord{{Label: "Thematic Areas Addressed", Text: "A"}, {}},
		&fields.ChecklistState{Items: []string{"A"}}))
	report := &concepts.Report{DocumentID: "P-1", Sections: []concepts.SectionResult{
		{Section: "SWOT", Label: "SWOT", Page: 1, Status: concepts.StatusResolved, Concepts: []string{"strength"}},
		{Section: "Market Need", Status: concepts.StatusNotFound},
	}}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	rec := NewRecord(doc, report, at)

	abs, err := filepath.Abs("forms/p.pdf")
	require.NoError(t, err)
	assert.Equal(t, abs, rec.ID)
	assert.Equal(t, doc.ScanID, rec.ScanID)
	assert.Equal(t, "P-1", rec.DocumentID)
	assert.Equal(t, time.UTC, rec.ScannedAt.Location())
	require.Len(t, rec.Pages, 2)
	assert.Equal(t, 4, rec.Pages[1].Page)
	assert.Equal(t, []string{"A"}, rec.Pages[1].Checklist)
	assert.Equal(t, []SectionRecord{{Section: "SWOT", Page: 1, Status: "resolved", Concepts: []string{"strength"}}}, rec.Sections)

	raw, err := bson.Marshal(rec)
	require.NoError(t, err)
	id, err := bson.Raw(raw).LookupErr("_id")
	require.NoError(t, err)
	assert.Equal(t, abs, id.StringValue())
}

func TestNewRecord_WithoutReport(t *testing.T) {
	doc := fields.NewDocument("/tmp/x.pdf")
	rec := NewRecord(doc, nil, time.Now())
	assert.Empty(t, rec.DocumentID)
	assert.Nil(t, rec.Sections)
	assert.NotNil(t, rec.Pages)
}

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{URI: "mongodb://localhost:27017"}.Enabled())
}
