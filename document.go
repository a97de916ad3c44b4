// Copyright 2025 Matthew Gall <me@matthewgall.dev>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"
)

// TextAlign positions text horizontally around its anchor
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// TextStyle describes one run of text on a page
type TextStyle struct {
	Size  float64 // points
	Color color.Color
	Align TextAlign
}

// DocumentBuilder composes a paged document. Coordinates are millimetres
// from the top-left corner of the page. A new document already has its
// first page.
type DocumentBuilder interface {
	AddPage()
	PageCount() int
	PageSize() (width, height float64)
	DrawImage(img image.Image, rect RectMM) error
	DrawText(text string, x, y float64, style TextStyle) error
	DrawLine(x0, y0, x1, y1 float64, clr color.Color) error
	TextWidth(text string, style TextStyle) float64
	Save(w io.Writer) error
}

// pdfDocument is an A4 portrait DocumentBuilder on top of vgpdf
type pdfDocument struct {
	canvas *vgpdf.Canvas
	width  vg.Length
	height vg.Length
	pages  int
}

// NewPDFDocument creates an empty A4 portrait document
func NewPDFDocument() DocumentBuilder {
	w := vg.Length(pageWidthMM) * vg.Millimeter
	h := vg.Length(pageHeightMM) * vg.Millimeter
	return &pdfDocument{
		canvas: vgpdf.New(w, h),
		width:  w,
		height: h,
		pages:  1,
	}
}

func (d *pdfDocument) AddPage() {
	d.canvas.NextPage()
	d.pages++
}

func (d *pdfDocument) PageCount() int {
	return d.pages
}

func (d *pdfDocument) PageSize() (float64, float64) {
	return pageWidthMM, pageHeightMM
}

func mm(v float64) vg.Length {
	return vg.Length(v) * vg.Millimeter
}

// point flips a top-left millimetre position into vg's bottom-left space
func (d *pdfDocument) point(x, y float64) vg.Point {
	return vg.Point{X: mm(x), Y: d.height - mm(y)}
}

func (d *pdfDocument) DrawImage(img image.Image, r RectMM) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	if r.W <= 0 || r.H <= 0 {
		return fmt.Errorf("empty placement %.1fx%.1fmm", r.W, r.H)
	}
	d.canvas.DrawImage(vg.Rectangle{
		Min: d.point(r.X, r.Y+r.H),
		Max: d.point(r.X+r.W, r.Y),
	}, img)
	return nil
}

func (d *pdfDocument) textStyle(style TextStyle) draw.TextStyle {
	sty := draw.TextStyle{
		Color:   style.Color,
		Font:    plot.DefaultFont,
		Handler: plot.DefaultTextHandler,
		YAlign:  draw.YTop,
	}
	if sty.Color == nil {
		sty.Color = color.Black
	}
	sty.Font.Size = vg.Points(style.Size)
	switch style.Align {
	case AlignCenter:
		sty.XAlign = draw.XCenter
	case AlignRight:
		sty.XAlign = draw.XRight
	default:
		sty.XAlign = draw.XLeft
	}
	return sty
}

// DrawText places a single line with its top edge at y
func (d *pdfDocument) DrawText(text string, x, y float64, style TextStyle) error {
	if style.Size <= 0 {
		return fmt.Errorf("invalid font size %v", style.Size)
	}
	dc := draw.New(d.canvas)
	dc.FillText(d.textStyle(style), d.point(x, y), winAnsi(text))
	return nil
}

func (d *pdfDocument) DrawLine(x0, y0, x1, y1 float64, clr color.Color) error {
	dc := draw.New(d.canvas)
	a, b := d.point(x0, y0), d.point(x1, y1)
	dc.StrokeLine2(draw.LineStyle{
		Color: clr,
		Width: vg.Points(0.5),
	}, a.X, a.Y, b.X, b.Y)
	return nil
}

// TextWidth measures text in millimetres
func (d *pdfDocument) TextWidth(text string, style TextStyle) float64 {
	w := d.textStyle(style).Width(winAnsiRunes(text))
	return float64(w / vg.Millimeter)
}

func (d *pdfDocument) Save(w io.Writer) error {
	if _, err := d.canvas.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// winAnsi encodes text as Windows-1252, the encoding vgpdf declares for its
// fonts. Runes outside the code page become '?'.
func winAnsi(text string) string {
	buf := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		buf = append(buf, b)
	}
	return string(buf)
}

// winAnsiRunes is the text as it will appear once encoded, kept as UTF-8
// so glyph widths can be measured
func winAnsiRunes(text string) string {
	var sb strings.Builder
	for _, b := range []byte(winAnsi(text)) {
		sb.WriteRune(charmap.Windows1252.DecodeByte(b))
	}
	return sb.String()
}

// WrapText breaks text into lines no wider than maxWidth millimetres
func WrapText(doc DocumentBuilder, text string, maxWidth float64, style TextStyle) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		candidate := line + " " + w
		if doc.TextWidth(candidate, style) > maxWidth {
			lines = append(lines, line)
			line = w
			continue
		}
		line = candidate
	}
	return append(lines, line)
}
