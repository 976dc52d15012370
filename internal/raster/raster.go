// Package raster decodes embedded page images into single-channel intensity grids.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/a3tai/mcp-form-fields/internal/layout"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrShortData         = errors.New("image data shorter than declared size")
	ErrEmptyImage        = errors.New("image has no pixels")
)

// Grid is a row-major grid of intensities, 0 = black, 255 = white.
type Grid struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewGrid allocates a white grid
func NewGrid(width, height int) *Grid {
	g := &Grid{Width: width, Height: height, Pix: make([]uint8, width*height)}
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	return g
}

// At returns the intensity at (x, y); out-of-range coordinates read as white.
func (g *Grid) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return 255
	}
	return g.Pix[y*g.Width+x]
}

// Set writes the intensity at (x, y), ignoring out-of-range coordinates.
func (g *Grid) Set(x, y int, v uint8) {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return
	}
	g.Pix[y*g.Width+x] = v
}

// FromImage converts any decoded image to a grid, compositing transparency over white.
func FromImage(img image.Image) *Grid {
	b := img.Bounds()
	g := &Grid{Width: b.Dx(), Height: b.Dy(), Pix: make([]uint8, b.Dx()*b.Dy())}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g.Pix[(y-b.Min.Y)*g.Width+(x-b.Min.X)] = intensity(img.At(x, y))
		}
	}
	return g
}

// intensity returns the luma of c composited over a white page.
// Soft-masked images arrive with the mask as alpha; a transparent pixel is paper.
func intensity(c color.Color) uint8 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	y := (19595*uint32(n.R) + 38470*uint32(n.G) + 7471*uint32(n.B) + 1<<15) >> 16
	a := uint32(n.A)
	return uint8((y*a + 255*(255-a) + 127) / 255)
}

// Decoder turns raw embedded image bytes into grids.
type Decoder struct{}

// NewDecoder creates a decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes raw by its declared format.
func (d *Decoder) Decode(raw layout.RawImage) (*Grid, error) {
	if len(raw.Data) == 0 {
		return nil, fmt.Errorf("image %q: %w", raw.Name, ErrEmptyImage)
	}

	var (
		img image.Image
		err error
	)
	switch strings.ToLower(raw.Format) {
	case "png":
		img, err = png.Decode(bytes.NewReader(raw.Data))
	case "jpg", "jpeg":
		img, err = jpeg.Decode(bytes.NewReader(raw.Data))
	case "tif", "tiff":
		img, err = tiff.Decode(bytes.NewReader(raw.Data))
	case "raw":
		return decodeSamples(raw)
	default:
		img, _, err = image.Decode(bytes.NewReader(raw.Data))
		if err != nil {
			return nil, fmt.Errorf("image %q (%s): %w", raw.Name, raw.Format, ErrUnsupportedFormat)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %q: %w", raw.Name, err)
	}
	return FromImage(img), nil
}

// decodeSamples interprets uncompressed PDF image samples.
func decodeSamples(raw layout.RawImage) (*Grid, error) {
	if raw.Width <= 0 || raw.Height <= 0 {
		return nil, fmt.Errorf("image %q: %w", raw.Name, ErrEmptyImage)
	}
	bpc := raw.BitsPerComponent
	if bpc == 0 {
		bpc = 8
	}
	comps := raw.Components
	if comps == 0 {
		comps = 1
	}
	if comps != 1 && bpc != 8 {
		return nil, fmt.Errorf("image %q: %d components at %d bits: %w", raw.Name, comps, bpc, ErrUnsupportedFormat)
	}
	switch bpc {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("image %q: %d bits per component: %w", raw.Name, bpc, ErrUnsupportedFormat)
	}

	// Rows are padded to whole bytes.
	stride := (raw.Width*comps*bpc + 7) / 8
	if len(raw.Data) < stride*raw.Height {
		return nil, fmt.Errorf("image %q: need %d bytes, have %d: %w",
			raw.Name, stride*raw.Height, len(raw.Data), ErrShortData)
	}

	g := &Grid{Width: raw.Width, Height: raw.Height, Pix: make([]uint8, raw.Width*raw.Height)}
	for y := 0; y < raw.Height; y++ {
		row := raw.Data[y*stride : (y+1)*stride]
		for x := 0; x < raw.Width; x++ {
			g.Pix[y*raw.Width+x] = sampleIntensity(row, x, comps, bpc)
		}
	}
	return g, nil
}

func sampleIntensity(row []byte, x, comps, bpc int) uint8 {
	if bpc < 8 {
		perByte := 8 / bpc
		b := row[x/perByte]
		shift := uint(8 - bpc*(x%perByte+1))
		maxVal := (1 << uint(bpc)) - 1
		v := int(b>>shift) & maxVal
		return uint8(v * 255 / maxVal)
	}

	px := row[x*comps : x*comps+comps]
	switch comps {
	case 3:
		return color.GrayModel.Convert(color.RGBA{R: px[0], G: px[1], B: px[2], A: 255}).(color.Gray).Y
	case 4:
		r, g, b := color.CMYKToRGB(px[0], px[1], px[2], px[3])
		return color.GrayModel.Convert(color.RGBA{R: r, G: g, B: b, A: 255}).(color.Gray).Y
	default:
		return px[0]
	}
}
