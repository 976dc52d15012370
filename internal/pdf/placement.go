package pdf

import (
	"math"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-form-fields/internal/layout"
)

const maxFormDepth = 8

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m followed by n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// unitBox maps the unit square through m.
func (m matrix) unitBox() layout.BoundingBox {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		x, y := m.apply(c[0], c[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return layout.BoundingBox{X0: minX, Y0: minY, X1: maxX, Y1: maxY}
}

func matrixOf(v pdf.Value) matrix {
	if v.Kind() != pdf.Array || v.Len() != 6 {
		return identity
	}
	var m matrix
	for i := range m {
		m[i] = v.Index(i).Float64()
	}
	return m
}

// imageLookup resolves an image XObject to its bytes.
type imageLookup func(name string, obj pdf.Value) layout.RawImage

// placer walks content streams and places image and form XObjects.
type placer struct {
	lookup imageLookup
}

// place interprets contents with resources and returns the placed elements in stream order.
func (p *placer) place(contents, resources pdf.Value) []layout.Element {
	return p.walk(contents, resources, identity, 0)
}

func (p *placer) walk(contents, resources pdf.Value, base matrix, depth int) []layout.Element {
	var out []layout.Element
	ctm := base
	var saved []matrix

	xobjects := resources.Key("XObject")
	do := func(stk *pdf.Stack, op string) {
		switch op {
		case "q":
			saved = append(saved, ctm)
		case "Q":
			if n := len(saved); n > 0 {
				ctm = saved[n-1]
				saved = saved[:n-1]
			}
		case "cm":
			if stk.Len() < 6 {
				return
			}
			var m matrix
			for i := 5; i >= 0; i-- {
				m[i] = stk.Pop().Float64()
			}
			ctm = m.mul(ctm)
		case "Do":
			if stk.Len() < 1 {
				return
			}
			name := stk.Pop().Name()
			if e := p.xobject(name, xobjects.Key(name), resources, ctm, depth); e != nil {
				out = append(out, e)
			}
		}
	}

	if contents.Kind() == pdf.Array {
		for i := 0; i < contents.Len(); i++ {
			pdf.Interpret(contents.Index(i), do)
		}
	} else {
		pdf.Interpret(contents, do)
	}
	return out
}

func (p *placer) xobject(name string, obj, parentResources pdf.Value, ctm matrix, depth int) layout.Element {
	if obj.IsNull() {
		return nil
	}
	switch obj.Key("Subtype").Name() {
	case "Image":
		img := p.lookup(name, obj)
		return &layout.ImageRegion{Box: ctm.unitBox(), Image: img}
	case "Form":
		if depth >= maxFormDepth {
			return nil
		}
		resources := obj.Key("Resources")
		if resources.IsNull() {
			resources = parentResources
		}
		children := p.walk(obj, resources, matrixOf(obj.Key("Matrix")).mul(ctm), depth+1)
		if len(children) == 0 {
			return nil
		}
		return layout.NewGroup(children...)
	}
	return nil
}
