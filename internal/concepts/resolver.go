package concepts

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-form-fields/internal/fields"
	"github.com/a3tai/mcp-form-fields/internal/textnorm"
)

// DefaultIDMarker identifies the field that holds the document identifier.
const DefaultIDMarker = "Generated Proposal ID"

// DefaultSections are the proposal sections resolved by default.
var DefaultSections = []string{
	"Thematic Areas Addressed",
	"Elevator pitch",
	"Short Activity Description",
	"Activity Description",
	"Knowledge triangle intregration",
	"Link to Campus",
	"Link to Accelerator",
	"Societal Impact",
	"What added value does EIT Health provide?",
	"Why are EIT Health resources needed for the Activity?",
	"Why is the Activity relevant for EIT Health's core mission?",
	"How will the Activity contribute to EIT Health's KPI's",
	"Innovative Outputs",
	"Market Need",
	"Estimated market size",
	"Market introduction strategy / deployment plan",
	"Innovation barriers",
	"TRL Before and After the Activity",
	"SWOT",
	"Technological Risk",
	"Commercial Risk",
}

// ResolverConfig selects what the resolver looks at.
type ResolverConfig struct {
	Sections    []string
	Discard     []string
	IDMarker    string
	Concurrency int
}

// DefaultResolverConfig returns the proposal defaults with an empty discard set.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Sections:    append([]string(nil), DefaultSections...),
		IDMarker:    DefaultIDMarker,
		Concurrency: 4,
	}
}

// Resolver maps document sections to canonical concept labels.
type Resolver struct {
	annotator Annotator
	config    ResolverConfig
	discard   map[string]struct{}
	logger    *zap.Logger
}

// NewResolver creates a resolver over annotator.
func NewResolver(annotator Annotator, config ResolverConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	discard := make(map[string]struct{}, len(config.Discard))
	for _, d := range config.Discard {
		discard[textnorm.Key(d)] = struct{}{}
	}
	return &Resolver{annotator: annotator, config: config, discard: discard, logger: logger}
}

// DocumentID returns the text of the first field whose label contains the id marker,
// or "" when there is none.
func (r *Resolver) DocumentID(doc *fields.Document) string {
	if r.config.IDMarker == "" {
		return ""
	}
	if f, ok := doc.FindLabelContaining(r.config.IDMarker); ok {
		return f.Text
	}
	return ""
}

// Resolve annotates every configured section of doc. Sections run concurrently up to the
// configured limit; results keep section order. Failures are reported per section and
// never returned as an error.
func (r *Resolver) Resolve(ctx context.Context, doc *fields.Document) *Report {
	report := &Report{
		DocumentID: r.DocumentID(doc),
		Sections:   make([]SectionResult, len(r.config.Sections)),
	}

	var g errgroup.Group
	g.SetLimit(r.config.Concurrency)
	for i, section := range r.config.Sections {
		report.Sections[i] = SectionResult{Section: section, Status: StatusNotFound}
		f, pageID, ok := doc.FindLabel(section)
		if !ok {
			continue
		}
		g.Go(func() error {
			report.Sections[i] = r.resolveSection(ctx, section, f, pageID)
			return nil
		})
	}
	_ = g.Wait()

	for _, s := range report.Sections {
		if s.Status == StatusFailed {
			r.logger.Warn("section annotation failed",
				zap.String("document_id", report.DocumentID),
				zap.String("section", s.Section),
				zap.Error(s.Err))
		}
	}
	return report
}

func (r *Resolver) resolveSection(ctx context.Context, section string, f *fields.FieldRecord, pageID int) SectionResult {
	res := SectionResult{
		Section: section,
		Label:   f.Label,
		Page:    pageID,
		Text:    f.Text,
		Status:  StatusEmpty,
	}
	if f.Text == "" {
		return res
	}

	classes, err := r.annotator.Annotate(ctx, f.Text)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Reason = err.Error()
		return res
	}

	source := []rune(f.Text)
	seen := make(map[string]struct{})
	for _, class := range classes {
		concept, err := r.annotator.Lookup(ctx, class.Reference)
		if err != nil {
			r.logger.Debug("concept lookup failed",
				zap.String("section", section),
				zap.String("reference", class.Reference),
				zap.Error(err))
			res.LookupErrors = append(res.LookupErrors, err)
			continue
		}
		if r.discarded(concept) {
			continue
		}
		for _, ann := range class.Annotations {
			if !spanMatches(source, ann, concept.PreferredLabel) {
				continue
			}
			res.Annotations = append(res.Annotations, ConceptAnnotation{
				From:           ann.From,
				To:             ann.To,
				SurfaceText:    ann.Text,
				CanonicalLabel: concept.PreferredLabel,
			})
			if _, dup := seen[concept.PreferredLabel]; !dup {
				seen[concept.PreferredLabel] = struct{}{}
				res.Concepts = append(res.Concepts, concept.PreferredLabel)
			}
		}
	}
	if len(res.Concepts) > 0 {
		res.Status = StatusResolved
	}
	return res
}

func (r *Resolver) discarded(c Concept) bool {
	if _, ok := r.discard[textnorm.Key(c.PreferredLabel)]; ok {
		return true
	}
	for _, s := range c.Synonyms {
		if _, ok := r.discard[textnorm.Key(s)]; ok {
			return true
		}
	}
	return false
}

// spanMatches reports whether the source text at the 1-based inclusive span equals label
// or its capitalized form exactly.
func spanMatches(source []rune, ann Annotation, label string) bool {
	if label == "" || ann.From < 1 || ann.To < ann.From || ann.To > len(source) {
		return false
	}
	span := string(source[ann.From-1 : ann.To])
	return span == label || span == textnorm.Capitalize(label)
}
