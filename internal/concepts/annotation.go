// Package concepts resolves form sections to canonical ontology concepts through a
// semantic annotation service.
package concepts

import (
	"context"
	"errors"
)

var (
	// ErrMissingAPIKey is returned for every call when no API key is configured.
	ErrMissingAPIKey = errors.New("annotator api key not configured")
	// ErrInvalidResponse marks a response body that does not match its schema.
	ErrInvalidResponse = errors.New("invalid annotator response")
	// ErrNoClassLink is returned by Lookup for a class the service gave no REST link for.
	ErrNoClassLink = errors.New("annotated class has no class link")
)

// Annotation is one span the service matched in the submitted text.
// From and To are 1-based inclusive character offsets.
type Annotation struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Text string `json:"text"`
}

// AnnotatedClass groups the annotations the service attributed to one concept.
// Reference is the class's REST link and is empty when the service sent none.
type AnnotatedClass struct {
	ID          string       `json:"id"`
	Reference   string       `json:"reference"`
	Annotations []Annotation `json:"annotations"`
}

// Concept is the canonical record behind a concept reference.
type Concept struct {
	PreferredLabel string   `json:"pref_label"`
	Synonyms       []string `json:"synonyms,omitempty"`
}

// Annotator is the external annotation service.
type Annotator interface {
	Annotate(ctx context.Context, text string) ([]AnnotatedClass, error)
	Lookup(ctx context.Context, reference string) (Concept, error)
}

// ConceptAnnotation is a kept annotation with its canonical label.
type ConceptAnnotation struct {
	From           int    `json:"from"`
	To             int    `json:"to"`
	SurfaceText    string `json:"surface_text"`
	CanonicalLabel string `json:"canonical_label"`
}

// Status is the outcome of resolving one section.
type Status int

const (
	// StatusNotFound means no page carries the section label.
	StatusNotFound Status = iota
	// StatusEmpty means the section was annotated but no concept survived filtering.
	StatusEmpty
	// StatusResolved means at least one concept was kept.
	StatusResolved
	// StatusFailed means the annotation call failed; Err holds the reason.
	StatusFailed
)

var statusNames = map[Status]string{
	StatusNotFound: "not_found",
	StatusEmpty:    "empty",
	StatusResolved: "resolved",
	StatusFailed:   "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SectionResult is the resolution of one target section.
type SectionResult struct {
	Section     string              `json:"section"`
	Label       string              `json:"label,omitempty"`
	Page        int                 `json:"page,omitempty"`
	Text        string              `json:"text,omitempty"`
	Status      Status              `json:"status"`
	Concepts    []string            `json:"concepts,omitempty"`
	Annotations []ConceptAnnotation `json:"annotations,omitempty"`
	Err         error               `json:"-"`
	Reason      string              `json:"reason,omitempty"`
	// LookupErrors are the secondary lookups that failed; they do not fail the section.
	LookupErrors []error `json:"-"`
}

// Report is the resolution of every target section of one document, in target order.
type Report struct {
	DocumentID string          `json:"document_id"`
	Sections   []SectionResult `json:"sections"`
}

// Found returns the sections present in the document.
func (r *Report) Found() []SectionResult {
	var out []SectionResult
	for _, s := range r.Sections {
		if s.Status != StatusNotFound {
			out = append(out, s)
		}
	}
	return out
}
