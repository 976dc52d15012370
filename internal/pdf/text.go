package pdf

import (
	"math"
	"slices"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-form-fields/internal/layout"
)

// TextOptions controls how glyphs are grouped into lines and runs.
type TextOptions struct {
	// RowTolerance is the largest baseline difference between glyphs of one line.
	RowTolerance float64
	// GapFactor times the font size is the horizontal gap that splits a line in two.
	GapFactor float64
	// SpaceFactor times the font size is the gap that reads as a word break.
	SpaceFactor float64
	// IndentTolerance is the largest left edge difference between lines of one run.
	IndentTolerance float64
	// LeadingFactor times the font size is the largest vertical gap between lines of one run.
	LeadingFactor float64
}

// DefaultTextOptions returns grouping settings that keep label and content columns apart.
func DefaultTextOptions() TextOptions {
	return TextOptions{
		RowTolerance:    2,
		GapFactor:       3,
		SpaceFactor:     0.2,
		IndentTolerance: 2,
		LeadingFactor:   0.8,
	}
}

type glyph struct {
	x, y, w, size float64
	s             string
}

type row struct {
	y      float64
	glyphs []glyph
}

type segment struct {
	text           string
	x0, x1, y, top float64
	size           float64
}

// buildRuns groups positioned glyphs into text runs, top to bottom.
func buildRuns(texts []pdf.Text, opts TextOptions) []*layout.TextRun {
	segments := buildSegments(rowsOf(texts, opts.RowTolerance), opts)
	var runs []*layout.TextRun
	open := make([]*layout.TextRun, 0)
	for _, seg := range segments {
		line := layout.Line{
			Text: seg.text,
			Box:  layout.BoundingBox{X0: seg.x0, Y0: seg.y, X1: seg.x1, Y1: seg.top},
		}
		if run := continuing(open, seg, opts); run != nil {
			run.Lines = append(run.Lines, line)
			run.Text += "\n" + line.Text
			run.Box = run.Box.Union(line.Box)
			continue
		}
		run := &layout.TextRun{Text: line.Text, Box: line.Box, Lines: []layout.Line{line}}
		runs = append(runs, run)
		open = append(open, run)
	}
	return runs
}

// continuing returns the open run the segment extends, if any.
func continuing(open []*layout.TextRun, seg segment, opts TextOptions) *layout.TextRun {
	for i := len(open) - 1; i >= 0; i-- {
		run := open[i]
		last := run.Lines[len(run.Lines)-1].Box
		if math.Abs(last.X0-seg.x0) > opts.IndentTolerance {
			continue
		}
		if gap := last.Y0 - seg.top; gap >= -opts.RowTolerance && gap <= seg.size*opts.LeadingFactor {
			return run
		}
	}
	return nil
}

func rowsOf(texts []pdf.Text, tolerance float64) []*row {
	var rows []*row
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		g := glyph{x: t.X, y: t.Y, w: t.W, size: t.FontSize, s: t.S}
		var target *row
		for _, r := range rows {
			if math.Abs(r.y-g.y) <= tolerance {
				target = r
				break
			}
		}
		if target == nil {
			target = &row{y: g.y}
			rows = append(rows, target)
		}
		target.glyphs = append(target.glyphs, g)
	}
	slices.SortStableFunc(rows, func(a, b *row) int {
		switch {
		case a.y > b.y:
			return -1
		case a.y < b.y:
			return 1
		}
		return 0
	})
	for _, r := range rows {
		slices.SortStableFunc(r.glyphs, func(a, b glyph) int {
			switch {
			case a.x < b.x:
				return -1
			case a.x > b.x:
				return 1
			}
			return 0
		})
	}
	return rows
}

func buildSegments(rows []*row, opts TextOptions) []segment {
	var out []segment
	for _, r := range rows {
		var b strings.Builder
		var cur segment
		started := false
		flush := func() {
			if !started {
				return
			}
			cur.text = strings.TrimSpace(b.String())
			if cur.text != "" {
				out = append(out, cur)
			}
			b.Reset()
			started = false
		}
		for _, g := range r.glyphs {
			size := g.size
			if size <= 0 {
				size = 1
			}
			if started {
				gap := g.x - cur.x1
				if gap > size*opts.GapFactor {
					flush()
				} else if gap > size*opts.SpaceFactor && !strings.HasSuffix(b.String(), " ") && g.s != " " {
					b.WriteByte(' ')
				}
			}
			if !started {
				cur = segment{x0: g.x, x1: g.x, y: r.y, top: r.y + size, size: size}
				started = true
			}
			b.WriteString(g.s)
			cur.x1 = math.Max(cur.x1, g.x+g.w)
			cur.top = math.Max(cur.top, g.y+size)
			cur.size = math.Max(cur.size, size)
		}
		flush()
	}
	return out
}
