// Package store persists scan results to MongoDB.
package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/concepts"
	"github.com/a3tai/mcp-form-fields/internal/fields"
)

// Config locates the collection. An empty URI disables the store.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Enabled reports whether a URI is configured.
func (c Config) Enabled() bool {
	return c.URI != ""
}

type FieldRecord struct {
	Label string `bson:"label"`
	Text  string `bson:"text"`
}

type PageRecord struct {
	Page      int           `bson:"page"`
	Fields    []FieldRecord `bson:"fields"`
	Checklist []string      `bson:"checklist,omitempty"`
}

type SectionRecord struct {
	Section  string   `bson:"section"`
	Page     int      `bson:"page"`
	Status   string   `bson:"status"`
	Concepts []string `bson:"concepts"`
	Reason   string   `bson:"reason,omitempty"`
}

// Record is the stored form of one scanned file, keyed by its absolute path.
type Record struct {
	ID         string          `bson:"_id"`
	ScanID     string          `bson:"scan_id"`
	Source     string          `bson:"source"`
	DocumentID string          `bson:"document_id"`
	ScannedAt  time.Time       `bson:"scanned_at"`
	Pages      []PageRecord    `bson:"pages"`
	Sections   []SectionRecord `bson:"sections,omitempty"`
}

// NewRecord maps a scan and its optional concept report to a Record.
func NewRecord(doc *fields.Document, report *concepts.Report, at time.Time) Record {
	id := doc.Source
	if abs, err := filepath.Abs(doc.Source); err == nil {
		id = abs
	}
	rec := Record{
		ID:        id,
		ScanID:    doc.ScanID,
		Source:    doc.Source,
		ScannedAt: at.UTC(),
		Pages:     make([]PageRecord, 0, len(doc.Pages)),
	}
	for _, p := range doc.Pages {
		pr := PageRecord{Page: p.PageID, Fields: make([]FieldRecord, 0, len(p.Fields))}
		for _, f := range p.Fields {
			pr.Fields = append(pr.Fields, FieldRecord{Label: f.Label, Text: f.Text})
		}
		if p.Checklist != nil {
			pr.Checklist = p.Checklist.Items
		}
		rec.Pages = append(rec.Pages, pr)
	}
	if report != nil {
		rec.DocumentID = report.DocumentID
		for _, s := range report.Found() {
			rec.Sections = append(rec.Sections, SectionRecord{
				Section:  s.Section,
				Page:     s.Page,
				Status:   s.Status.String(),
				Concepts: append([]string{}, s.Concepts...),
				Reason:   s.Reason,
			})
		}
	}
	return rec
}

// Mongo upserts records into one collection.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
	now    func() time.Time
}

// Connect opens a client for cfg and pings the server.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Mongo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("error creating MongoDB client: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("error reaching MongoDB: %w", err)
	}
	return &Mongo{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		logger: logger,
		now:    time.Now,
	}, nil
}

// Save replaces the record of doc's source, inserting it when absent.
func (m *Mongo) Save(ctx context.Context, doc *fields.Document, report *concepts.Report) error {
	rec := NewRecord(doc, report, m.now())
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", rec.ID, err)
	}
	m.logger.Debug("scan stored", zap.String("id", rec.ID), zap.String("scan_id", rec.ScanID))
	return nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
