package fields

import (
	"github.com/a3tai/mcp-form-fields/internal/layout"
	"github.com/a3tai/mcp-form-fields/internal/textnorm"
)

// Classified holds a page's top-level text runs split by column, in encounter order.
type Classified struct {
	Labels  []*layout.TextRun
	Content []*layout.TextRun
}

// Classify splits the page's top-level text runs into label candidates and content.
// Images and groups are left to the checkbox engine. Runs starting exactly on the
// threshold belong to neither column.
func Classify(page *layout.Page, opts Options) Classified {
	var c Classified
	for _, e := range page.Elements {
		run, ok := e.(*layout.TextRun)
		if !ok {
			continue
		}
		x0 := run.Box.Left()
		switch {
		case x0 < opts.ColumnThreshold:
			c.Labels = append(c.Labels, run)
		case x0 > opts.ColumnThreshold:
			if isArtifact(run.Text, opts.ArtifactLabels) {
				continue
			}
			c.Content = append(c.Content, run)
		}
	}
	return c
}

func isArtifact(text string, artifacts []string) bool {
	clean := textnorm.Clean(text)
	for _, a := range artifacts {
		if clean == a {
			return true
		}
	}
	return false
}
