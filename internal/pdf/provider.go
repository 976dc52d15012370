package pdf

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"slices"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/layout"
)

// Provider opens PDF files as layout sources.
type Provider struct {
	validator *Validator
	text      TextOptions
	logger    *zap.Logger
}

// NewProvider creates a provider that accepts files up to maxFileSize bytes.
func NewProvider(maxFileSize int64, text TextOptions, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		validator: NewValidator(maxFileSize),
		text:      text,
		logger:    logger,
	}
}

// Open validates and opens path. The returned source must be closed.
func (p *Provider) Open(path string) (layout.Source, error) {
	if err := p.validator.Check(path); err != nil {
		return nil, &LayoutError{Path: path, Op: "open", Err: err}
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, &LayoutError{Path: path, Op: "open", Err: err}
	}

	images, err := openImageStore(f, p.logger)
	if err != nil {
		p.logger.Warn("embedded images unavailable, using raw streams",
			zap.String("path", path), zap.Error(err))
		images = nil
	}

	return &document{
		path:   path,
		file:   f,
		reader: r,
		images: images,
		text:   p.text,
		logger: p.logger,
	}, nil
}

type document struct {
	path   string
	file   *os.File
	reader *pdf.Reader
	images *imageStore
	text   TextOptions
	logger *zap.Logger
}

// Pages yields every page from the first, with the page number as id.
func (d *document) Pages(ctx context.Context) iter.Seq2[*layout.Page, error] {
	return func(yield func(*layout.Page, error) bool) {
		for n := 1; n <= d.reader.NumPage(); n++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			page, err := d.page(n)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}
		}
	}
}

func (d *document) Close() error {
	return d.file.Close()
}

func (d *document) page(n int) (page *layout.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			page = nil
			err = &LayoutError{Path: d.path, Page: n, Op: "interpret", Err: fmt.Errorf("%v", r)}
		}
	}()

	p := d.reader.Page(n)
	if p.V.IsNull() {
		return nil, &LayoutError{Path: d.path, Page: n, Op: "read", Err: errors.New("missing page object")}
	}

	runs := buildRuns(p.Content().Text, d.text)

	named := d.images.page(n)
	pl := &placer{lookup: func(name string, obj pdf.Value) layout.RawImage {
		if img, ok := named[name]; ok {
			return img
		}
		return rawSamples(name, obj)
	}}
	placed := pl.place(p.V.Key("Contents"), p.Resources())

	elements := make([]layout.Element, 0, len(runs)+len(placed))
	for _, r := range runs {
		elements = append(elements, r)
	}
	elements = append(elements, placed...)
	slices.SortStableFunc(elements, func(a, b layout.Element) int {
		ta, tb := a.Bounds().Top(), b.Bounds().Top()
		switch {
		case ta > tb:
			return -1
		case ta < tb:
			return 1
		}
		return 0
	})

	d.logger.Debug("page laid out",
		zap.String("path", d.path),
		zap.Int("page", n),
		zap.Int("runs", len(runs)),
		zap.Int("xobjects", len(placed)))
	return &layout.Page{ID: n, Elements: elements}, nil
}
