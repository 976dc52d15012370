package pdf

import (
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/layout"
)

// imageStore serves decoded-ready image bytes per page, keyed by resource name.
type imageStore struct {
	ctx    *model.Context
	logger *zap.Logger
}

func openImageStore(f *os.File, logger *zap.Logger) (*imageStore, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	return &imageStore{ctx: ctx, logger: logger}, nil
}

// page returns the images of pageNr; a nil store or a failed extraction yields none.
func (s *imageStore) page(pageNr int) map[string]layout.RawImage {
	out := make(map[string]layout.RawImage)
	if s == nil {
		return out
	}
	images, err := pdfcpu.ExtractPageImages(s.ctx, pageNr, false)
	if err != nil {
		s.logger.Warn("image extraction failed", zap.Int("page", pageNr), zap.Error(err))
		return out
	}
	for _, img := range images {
		data, err := io.ReadAll(img)
		if err != nil {
			s.logger.Warn("image read failed",
				zap.Int("page", pageNr), zap.String("name", img.Name), zap.Error(err))
			continue
		}
		out[img.Name] = layout.RawImage{
			Name:   img.Name,
			Format: img.FileType,
			Width:  img.Width,
			Height: img.Height,
			Data:   data,
		}
	}
	return out
}

// rawSamples reads an image XObject's decoded stream as raw samples. Streams whose
// filters the reader cannot undo come back without data.
func rawSamples(name string, obj pdf.Value) (img layout.RawImage) {
	img = layout.RawImage{
		Name:             name,
		Format:           "raw",
		Width:            int(obj.Key("Width").Int64()),
		Height:           int(obj.Key("Height").Int64()),
		BitsPerComponent: 8,
		Components:       components(obj.Key("ColorSpace")),
	}
	if bpc := obj.Key("BitsPerComponent"); !bpc.IsNull() {
		img.BitsPerComponent = int(bpc.Int64())
	}
	if obj.Key("ImageMask").Bool() {
		img.BitsPerComponent = 1
		img.Components = 1
	}

	defer func() {
		if recover() != nil {
			img.Data = nil
		}
	}()
	rc := obj.Reader()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err == nil {
		img.Data = data
	}
	return img
}

func components(cs pdf.Value) int {
	switch cs.Kind() {
	case pdf.Name:
		switch cs.Name() {
		case "DeviceRGB", "CalRGB":
			return 3
		case "DeviceCMYK":
			return 4
		}
	case pdf.Array:
		if cs.Len() > 1 && cs.Index(0).Name() == "ICCBased" {
			if n := int(cs.Index(1).Key("N").Int64()); n > 0 {
				return n
			}
		}
	}
	return 1
}
