package pdf

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// word lays s out one glyph per rune, advancing by advance per glyph.
func word(s string, x, y, advance float64) []pdf.Text {
	var out []pdf.Text
	for i, r := range s {
		out = append(out, pdf.Text{FontSize: 10, X: x + float64(i)*advance, Y: y, W: advance, S: string(r)})
	}
	return out
}

func TestBuildRuns_SplitsColumns(t *testing.T) {
	var glyphs []pdf.Text
	glyphs = append(glyphs, word("Budget", 250, 690, 5)...)
	glyphs = append(glyphs, word("Label", 50, 690.5, 5)...)

	runs := buildRuns(glyphs, DefaultTextOptions())
	require.Len(t, runs, 2)
	assert.Equal(t, "Label", runs[0].Text)
	assert.Equal(t, "Budget", runs[1].Text)
	assert.InDelta(t, 700.5, runs[0].Box.Top(), 1e-9)
	assert.InDelta(t, 280, runs[1].Box.X1, 1e-9)
}

func TestBuildRuns_InsertsWordBreaks(t *testing.T) {
	var glyphs []pdf.Text
	glyphs = append(glyphs, word("Early", 250, 600, 5)...)
	glyphs = append(glyphs, word("stage", 278, 600, 5)...)

	runs := buildRuns(glyphs, DefaultTextOptions())
	require.Len(t, runs, 1)
	assert.Equal(t, "Early stage", runs[0].Text)
}

func TestBuildRuns_MergesParagraphLines(t *testing.T) {
	var glyphs []pdf.Text
	glyphs = append(glyphs, word("first line", 250, 600, 5)...)
	glyphs = append(glyphs, word("second", 250, 588, 5)...)
	// Far below: a new run.
	glyphs = append(glyphs, word("other", 250, 500, 5)...)

	runs := buildRuns(glyphs, DefaultTextOptions())
	require.Len(t, runs, 2)
	assert.Equal(t, "first line\nsecond", runs[0].Text)
	require.Len(t, runs[0].Lines, 2)
	assert.Equal(t, "second", runs[0].Lines[1].Text)
	assert.InDelta(t, 588, runs[0].Box.Y0, 1e-9)
	assert.InDelta(t, 610, runs[0].Box.Y1, 1e-9)
	assert.Equal(t, "other", runs[1].Text)
}

func TestBuildRuns_KeepsStreamOrderForZeroWidthGlyphs(t *testing.T) {
	glyphs := word("abc", 100, 400, 0)
	runs := buildRuns(glyphs, DefaultTextOptions())
	require.Len(t, runs, 1)
	assert.Equal(t, "abc", runs[0].Text)
}

func TestBuildRuns_SkipsBlankGlyphs(t *testing.T) {
	runs := buildRuns([]pdf.Text{{FontSize: 10, X: 1, Y: 1, S: ""}, {FontSize: 10, X: 1, Y: 1, S: " "}}, DefaultTextOptions())
	assert.Empty(t, runs)
}

func TestMatrix(t *testing.T) {
	scale := matrix{10, 0, 0, 20, 0, 0}
	move := matrix{1, 0, 0, 1, 100, 200}

	box := scale.mul(move).unitBox()
	assert.Equal(t, 100.0, box.X0)
	assert.Equal(t, 200.0, box.Y0)
	assert.Equal(t, 110.0, box.X1)
	assert.Equal(t, 220.0, box.Y1)

	x, y := identity.apply(3, 4)
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)

	flip := matrix{-1, 0, 0, -1, 0, 0}.unitBox()
	assert.Equal(t, -1.0, flip.X0)
	assert.Equal(t, 0.0, flip.X1)
}
