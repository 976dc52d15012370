package layout

import (
	"context"
	"iter"
)

// Source is an opened document yielding its pages in order.
// Pages may be ranged over once per call; each call restarts from the first page.
type Source interface {
	Pages(ctx context.Context) iter.Seq2[*Page, error]
	Close() error
}

// Provider opens documents into page sources.
type Provider interface {
	Open(path string) (Source, error)
}

// StaticSource serves pages held in memory.
type StaticSource struct {
	PageList []*Page
}

// NewStaticSource wraps pages in a Source
func NewStaticSource(pages ...*Page) *StaticSource {
	return &StaticSource{PageList: pages}
}

// Pages yields the held pages in order, stopping early if ctx is done.
func (s *StaticSource) Pages(ctx context.Context) iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		for _, p := range s.PageList {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

// Close is a no-op
func (s *StaticSource) Close() error { return nil }
