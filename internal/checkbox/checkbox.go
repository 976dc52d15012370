// Package checkbox recovers the ticked items of a checklist rendered as embedded glyph images.
//
// A checklist item is drawn as a small raster image (filled or empty box) followed by a line
// of text. Marks are detected by sampling a square window at the image center and counting
// dark pixels; each checked mark is then paired with the text line that starts next to it.
package checkbox

import (
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/layout"
	"github.com/a3tai/mcp-form-fields/internal/raster"
	"github.com/a3tai/mcp-form-fields/internal/textnorm"
)

// Default calibration for the proposal template.
const (
	DefaultDarkThreshold   = 128
	DefaultSampleHalfWidth = 3
	DefaultItemToleranceX  = 20.0
	DefaultItemToleranceY  = 5.0
	DefaultDelimiter       = ". "
)

// Config holds the template-specific calibration of the engine.
type Config struct {
	// DarkThreshold: a pixel is dark when its intensity is strictly below it.
	DarkThreshold uint8
	// SampleHalfWidth h samples [cx-h, cx+h) x [cy-h, cy+h) around the image center.
	SampleHalfWidth int
	ItemToleranceX  float64
	ItemToleranceY  float64
	// Delimiter joins selected item texts.
	Delimiter string
}

// DefaultConfig returns the calibration used for the proposal template
func DefaultConfig() Config {
	return Config{
		DarkThreshold:   DefaultDarkThreshold,
		SampleHalfWidth: DefaultSampleHalfWidth,
		ItemToleranceX:  DefaultItemToleranceX,
		ItemToleranceY:  DefaultItemToleranceY,
		Delimiter:       DefaultDelimiter,
	}
}

// ImageDecoder turns embedded image bytes into an intensity grid.
type ImageDecoder interface {
	Decode(raw layout.RawImage) (*raster.Grid, error)
}

// Band is the vertical interval occupied by the checklist field: Lower < y <= Upper.
type Band struct {
	Lower float64
	Upper float64
}

// Holds reports Lower < y <= Upper.
func (b Band) Holds(y float64) bool {
	return y > b.Lower && y <= b.Upper
}

// filter accepts images whose top lies in the band and descends into anything overlapping it.
func (b Band) filter() layout.Filter {
	return func(e layout.Element) bool {
		box := e.Bounds()
		if _, ok := e.(*layout.ImageRegion); ok {
			return b.Holds(box.Top())
		}
		return box.OverlapsVertically(b.Lower, b.Upper)
	}
}

// Mark is the anchor of a checked box image.
type Mark struct {
	X   float64 `json:"x"`
	Top float64 `json:"top"`
}

// Result is the outcome of scanning one checklist band.
type Result struct {
	Marks []Mark   `json:"marks"`
	Items []string `json:"items"`
	// Text is the items joined with the configured delimiter.
	Text string `json:"text"`
}

// Engine detects checked marks and the item text next to them.
type Engine struct {
	config  Config
	decoder ImageDecoder
	logger  *zap.Logger
}

// NewEngine creates an engine; a nil logger disables logging.
func NewEngine(config Config, decoder ImageDecoder, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{config: config, decoder: decoder, logger: logger}
}

// Sample counts dark pixels in the center window of g and returns the number sampled.
// The window is clipped to the grid.
func (c Config) Sample(g *raster.Grid) (dark, sampled int) {
	cx, cy := g.Width/2, g.Height/2
	h := c.SampleHalfWidth
	for y := max(cy-h, 0); y < min(cy+h, g.Height); y++ {
		for x := max(cx-h, 0); x < min(cx+h, g.Width); x++ {
			sampled++
			if g.At(x, y) < c.DarkThreshold {
				dark++
			}
		}
	}
	return dark, sampled
}

// IsChecked reports whether more than half of the sampled window is dark.
func (c Config) IsChecked(g *raster.Grid) bool {
	dark, sampled := c.Sample(g)
	return sampled > 0 && 2*dark > sampled
}

// DetectMarks walks the band and returns the anchors of checked images in document order.
func (e *Engine) DetectMarks(elements []layout.Element, band Band) []Mark {
	var marks []Mark
	layout.Walk(elements, band.filter(), layout.ImageVisitor(func(img *layout.ImageRegion) {
		grid, err := e.decoder.Decode(img.Image)
		if err != nil {
			e.logger.Warn("skipping undecodable checkbox image",
				zap.String("image", img.Image.Name), zap.Error(err))
			return
		}
		if !e.config.IsChecked(grid) {
			return
		}
		marks = append(marks, Mark{X: img.Box.Left(), Top: img.Box.Top()})
	}))
	return marks
}

// MatchItems returns, for each mark in order, the text of the first line that starts near it.
// Marks without a nearby line contribute nothing.
func (e *Engine) MatchItems(elements []layout.Element, band Band, marks []Mark) []string {
	var lines []layout.Line
	layout.Walk(elements, band.filter(), layout.TextVisitor(func(t *layout.TextRun) {
		lines = append(lines, t.TextLines()...)
	}))

	var items []string
	for _, m := range marks {
		for _, l := range lines {
			if layout.Near(l.Box.Left(), m.X, e.config.ItemToleranceX) &&
				layout.Near(l.Box.Top(), m.Top, e.config.ItemToleranceY) {
				if text := textnorm.Clean(l.Text); text != "" {
					items = append(items, text)
				}
				break
			}
		}
	}
	return items
}

// Resolve runs both passes over the band.
func (e *Engine) Resolve(elements []layout.Element, band Band) Result {
	marks := e.DetectMarks(elements, band)
	items := e.MatchItems(elements, band, marks)
	e.logger.Debug("checklist resolved",
		zap.Int("checked", len(marks)), zap.Int("items", len(items)))
	return Result{
		Marks: marks,
		Items: items,
		Text:  strings.Join(items, e.config.Delimiter),
	}
}
