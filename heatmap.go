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
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// MapRenderer turns surveyed locations into a density image
type MapRenderer interface {
	RenderHeatmap(points []Ubicacion) (image.Image, error)
}

// HeatmapRenderer bins locations on a regular grid and paints the counts
type HeatmapRenderer struct {
	Grid   int
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// NewHeatmapRenderer creates a heatmap renderer with a square grid
func NewHeatmapRenderer(grid int) *HeatmapRenderer {
	if grid <= 0 {
		grid = 40
	}
	return &HeatmapRenderer{
		Grid:   grid,
		Width:  16 * vg.Centimeter,
		Height: 12 * vg.Centimeter,
		DPI:    150,
	}
}

// geoPoint is a parsed location
type geoPoint struct {
	lat, lng float64
}

// parseLocations keeps only coordinates that parse and lie on the globe
func parseLocations(points []Ubicacion) []geoPoint {
	out := make([]geoPoint, 0, len(points))
	for _, u := range points {
		lat, err := strconv.ParseFloat(strings.TrimSpace(string(u.Latitud)), 64)
		if err != nil {
			continue
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(string(u.Longitud)), 64)
		if err != nil {
			continue
		}
		if math.Abs(lat) > 90 || math.Abs(lng) > 180 {
			continue
		}
		out = append(out, geoPoint{lat: lat, lng: lng})
	}
	return out
}

// densityGrid implements plotter.GridXYZ over longitude (X) and latitude (Y)
type densityGrid struct {
	cols, rows int
	minX, minY float64
	dx, dy     float64
	z          []float64
}

func newDensityGrid(pts []geoPoint, n int) *densityGrid {
	minX, maxX := pts[0].lng, pts[0].lng
	minY, maxY := pts[0].lat, pts[0].lat
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.lng)
		maxX = math.Max(maxX, p.lng)
		minY = math.Min(minY, p.lat)
		maxY = math.Max(maxY, p.lat)
	}
	spanX := maxX - minX
	spanY := maxY - minY
	if spanX == 0 {
		spanX = 0.01
	}
	if spanY == 0 {
		spanY = 0.01
	}
	// 5% margin so edge points do not sit on the frame
	minX -= spanX * 0.05
	minY -= spanY * 0.05
	spanX *= 1.1
	spanY *= 1.1

	g := &densityGrid{
		cols: n,
		rows: n,
		minX: minX,
		minY: minY,
		dx:   spanX / float64(n),
		dy:   spanY / float64(n),
		z:    make([]float64, n*n),
	}
	for _, p := range pts {
		c := clampIndex(int((p.lng-g.minX)/g.dx), n)
		r := clampIndex(int((p.lat-g.minY)/g.dy), n)
		g.z[r*n+c]++
	}
	return g
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (g *densityGrid) Dims() (c, r int) { return g.cols, g.rows }

// Z reports empty cells as NaN so they stay transparent
func (g *densityGrid) Z(c, r int) float64 {
	v := g.z[r*g.cols+c]
	if v == 0 {
		return math.NaN()
	}
	return v
}

func (g *densityGrid) X(c int) float64 { return g.minX + (float64(c)+0.5)*g.dx }
func (g *densityGrid) Y(r int) float64 { return g.minY + (float64(r)+0.5)*g.dy }

func (g *densityGrid) total() float64 {
	var sum float64
	for _, v := range g.z {
		sum += v
	}
	return sum
}

func (g *densityGrid) maxCount() float64 {
	var max float64
	for _, v := range g.z {
		max = math.Max(max, v)
	}
	return max
}

// RenderHeatmap draws the density of the given locations
func (hr *HeatmapRenderer) RenderHeatmap(points []Ubicacion) (img image.Image, err error) {
	pts := parseLocations(points)
	if len(pts) == 0 {
		return nil, ErrNoLocations
	}

	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = &RenderError{Kind: "heatmap", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	grid := newDensityGrid(pts, hr.Grid)

	hm := plotter.NewHeatMap(grid, palette.Heat(16, 0.85))
	hm.NaN = color.Transparent
	hm.Min = 1
	hm.Max = grid.maxCount()
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Ubicaciones encuestadas (%d)", len(pts))
	p.X.Label.Text = "Longitud"
	p.Y.Label.Text = "Latitud"
	p.BackgroundColor = color.Transparent
	p.Add(hm)

	c := vgimg.NewWith(
		vgimg.UseWH(hr.Width, hr.Height),
		vgimg.UseDPI(hr.DPI),
		vgimg.UseBackgroundColor(color.Transparent),
	)
	p.Draw(draw.New(c))
	return c.Image(), nil
}
