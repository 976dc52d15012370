package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/require"
)

const (
	pageW    = 595.0
	pageH    = 842.0
	fontSize = 10.0
)

type fixtureText struct {
	x, top float64
	s      string
}

type fixtureImage struct {
	name       string
	x, top, sz float64
	dark       bool
}

type fixturePage struct {
	texts  []fixtureText
	images []fixtureImage
}

// squarePNG returns a 10x10 PNG, black when dark, white otherwise.
func squarePNG(t *testing.T, dark bool) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	c := color.Gray{Y: 255}
	if dark {
		c = color.Gray{Y: 0}
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetGray(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// writeFixture renders pages into a PDF in a temp dir. Text is placed so that its
// baseline sits fontSize below top, in PDF coordinates.
func writeFixture(t *testing.T, pages ...fixturePage) string {
	t.Helper()
	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", fontSize)
	for _, p := range pages {
		doc.AddPageFormat("P", fpdf.SizeType{Wd: pageW, Ht: pageH})
		for _, tx := range p.texts {
			doc.Text(tx.x, pageH-(tx.top-fontSize), tx.s)
		}
		for _, im := range p.images {
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			doc.RegisterImageOptionsReader(im.name, opts, bytes.NewReader(squarePNG(t, im.dark)))
			doc.ImageOptions(im.name, im.x, pageH-im.top, im.sz, im.sz, false, opts, 0, "")
		}
	}
	path := filepath.Join(t.TempDir(), "proposal.pdf")
	require.NoError(t, doc.OutputFileAndClose(path))
	return path
}
