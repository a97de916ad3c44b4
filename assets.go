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
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// RectMM is a rectangle in millimetres, origin at the top-left of the page
type RectMM struct {
	X, Y, W, H float64
}

// mmToPx converts a length to pixels at the given resolution
func mmToPx(mm, dpi float64) int {
	return int(mm/25.4*dpi + 0.5)
}

// PageAssets are the decorations shared by every page of a report. Either
// image may be nil.
type PageAssets struct {
	Background image.Image // page-sized, already faded
	Logo       image.Image
	LogoRect   RectMM
	DPI        float64
}

// loadImage decodes a PNG, JPEG or WebP file
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// PrepareBackground scales src to cover a w×h pixel page, centre-cropping
// the overflow, and fades it onto white at the given opacity
func PrepareBackground(src image.Image, w, h int, opacity float64) image.Image {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, coverRect(src.Bounds(), w, h), draw.Src, nil)

	faded := image.NewRGBA(scaled.Bounds())
	draw.Draw(faded, faded.Bounds(), image.White, image.Point{}, draw.Src)
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(faded, faded.Bounds(), scaled, image.Point{}, mask, image.Point{}, draw.Over)
	return faded
}

// coverRect returns the centred part of b with the aspect ratio of w×h
func coverRect(b image.Rectangle, w, h int) image.Rectangle {
	sw, sh := float64(b.Dx()), float64(b.Dy())
	target := float64(w) / float64(h)
	if sw/sh > target {
		cropW := int(sh * target)
		x0 := b.Min.X + (b.Dx()-cropW)/2
		return image.Rect(x0, b.Min.Y, x0+cropW, b.Max.Y)
	}
	cropH := int(sw / target)
	y0 := b.Min.Y + (b.Dy()-cropH)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+cropH)
}

// PrepareLogo rasterises src to widthMM at dpi, height proportional
func PrepareLogo(src image.Image, widthMM, dpi float64) (image.Image, float64) {
	b := src.Bounds()
	heightMM := widthMM * float64(b.Dy()) / float64(b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, mmToPx(widthMM, dpi), mmToPx(heightMM, dpi)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst, heightMM
}

// LoadPageAssets prepares background and logo once per report. Each asset
// is best effort: a failure is reported and the asset left nil.
func LoadPageAssets(cfg *Config) (*PageAssets, []error) {
	assets := &PageAssets{DPI: cfg.RasterDPI}
	var errs []error

	if cfg.BackgroundImage != "" {
		src, err := loadImage(cfg.BackgroundImage)
		if err != nil {
			errs = append(errs, &AssetError{Asset: "background", Path: cfg.BackgroundImage, Err: err})
		} else {
			w, h := mmToPx(pageWidthMM, cfg.RasterDPI), mmToPx(pageHeightMM, cfg.RasterDPI)
			assets.Background = PrepareBackground(src, w, h, cfg.BackgroundOpacity)
		}
	}

	if cfg.LogoImage != "" {
		src, err := loadImage(cfg.LogoImage)
		if err != nil {
			errs = append(errs, &AssetError{Asset: "logo", Path: cfg.LogoImage, Err: err})
		} else if src.Bounds().Dx() == 0 || src.Bounds().Dy() == 0 {
			errs = append(errs, &AssetError{Asset: "logo", Path: cfg.LogoImage, Err: errors.New("empty image")})
		} else {
			logo, heightMM := PrepareLogo(src, cfg.LogoWidthMM, cfg.RasterDPI)
			assets.Logo = logo
			assets.LogoRect = RectMM{
				X: pageWidthMM - pageMarginMM - cfg.LogoWidthMM,
				Y: logoTopMM,
				W: cfg.LogoWidthMM,
				H: heightMM,
			}
		}
	}

	return assets, errs
}

// FitRect places an imgW×imgH image inside box, keeping its aspect ratio.
// It shrinks to the box width first, then to the height, and centres the
// result horizontally at the top of the box.
func FitRect(imgW, imgH int, box RectMM) RectMM {
	if imgW <= 0 || imgH <= 0 || box.W <= 0 || box.H <= 0 {
		return RectMM{X: box.X, Y: box.Y}
	}
	ratio := float64(imgH) / float64(imgW)
	w := box.W
	h := w * ratio
	if h > box.H {
		h = box.H
		w = h / ratio
	}
	return RectMM{
		X: box.X + (box.W-w)/2,
		Y: box.Y,
		W: w,
		H: h,
	}
}

var errNoBackground = errors.New("no background to composite over")

// ComposeOverBackground crops the part of the page background under rect
// and draws the chart on top. The result has the chart's pixel size, so
// the background shows through transparent chart pixels once placed.
func ComposeOverBackground(bg, chartImg image.Image, rect RectMM, dpi float64) (image.Image, error) {
	if bg == nil {
		return nil, errNoBackground
	}
	region := image.Rect(
		mmToPx(rect.X, dpi), mmToPx(rect.Y, dpi),
		mmToPx(rect.X+rect.W, dpi), mmToPx(rect.Y+rect.H, dpi),
	).Add(bg.Bounds().Min).Intersect(bg.Bounds())
	if region.Empty() {
		return nil, errors.New("chart area lies outside the background")
	}

	cb := chartImg.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, cb.Dx(), cb.Dy()))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), bg, region, draw.Src, nil)
	draw.Draw(dst, dst.Bounds(), chartImg, cb.Min, draw.Over)
	return dst, nil
}
