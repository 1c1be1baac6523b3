/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package previews renders schematic slide thumbnails: the frame as a card
// and its member elements as solid boxes. No text or stroke styles; the
// thumbnails exist so a slide strip can be told apart at a glance.
package previews

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"

	"drawdeck/internal/domain"
	"drawdeck/internal/frames"
	"drawdeck/internal/viewport"
)

// Options controls thumbnail rendering.
type Options struct {
	Width  int
	Height int
	Theme  string // "light" (default) | "dark"
}

const (
	defaultWidth  = 320
	defaultHeight = 180

	// renderScale is the oversampling factor of the intermediate raster
	// before downscaling to the requested size.
	renderScale = 2
)

func (o Options) normalized() Options {
	if o.Width <= 0 {
		o.Width = defaultWidth
	}
	if o.Height <= 0 {
		o.Height = defaultHeight
	}
	if o.Theme != "dark" {
		o.Theme = "light"
	}
	return o
}

type palette struct {
	background color.RGBA
	card       color.RGBA
	box        color.RGBA
	border     color.RGBA
}

func paletteFor(theme string) palette {
	if theme == "dark" {
		return palette{
			background: color.RGBA{18, 18, 18, 255},
			card:       color.RGBA{35, 35, 38, 255},
			box:        color.RGBA{120, 120, 128, 255},
			border:     color.RGBA{70, 70, 76, 255},
		}
	}
	return palette{
		background: color.RGBA{245, 245, 245, 255},
		card:       color.RGBA{255, 255, 255, 255},
		box:        color.RGBA{180, 180, 188, 255},
		border:     color.RGBA{210, 210, 214, 255},
	}
}

// FramePNG renders a thumbnail of one frame of the scene and returns PNG bytes.
func FramePNG(scene []domain.Element, frame domain.Element, opt Options) ([]byte, error) {
	if !frame.IsFrame() {
		return nil, fmt.Errorf("element %q is not a frame", frame.ID)
	}
	bounds := viewport.ElementBounds(frame)
	members := frames.Members(frame, scene)
	return renderPNG(bounds, members, opt)
}

// DrawingPNG renders a thumbnail of the whole drawing (all live elements).
func DrawingPNG(scene []domain.Element, opt Options) ([]byte, error) {
	bounds, ok := viewport.BoundsOf(scene)
	if !ok {
		// Blank card for an empty drawing.
		bounds = viewport.Rect{X: 0, Y: 0, W: 1, H: 1}
	}
	var live []domain.Element
	for _, el := range scene {
		if !el.IsDeleted && !el.IsFrame() {
			live = append(live, el)
		}
	}
	return renderPNG(bounds, live, opt)
}

func renderPNG(bounds viewport.Rect, content []domain.Element, opt Options) ([]byte, error) {
	opt = opt.normalized()
	pal := paletteFor(opt.Theme)

	srcW := opt.Width * renderScale
	srcH := opt.Height * renderScale
	src := image.NewRGBA(image.Rect(0, 0, srcW, srcH))
	draw.Draw(src, src.Bounds(), &image.Uniform{C: pal.background}, image.Point{}, draw.Src)

	// World-to-raster mapping that letterboxes the frame into the canvas.
	if bounds.W <= 0 {
		bounds.W = 1
	}
	if bounds.H <= 0 {
		bounds.H = 1
	}
	scale := math.Min(float64(srcW)/bounds.W, float64(srcH)/bounds.H)
	offX := (float64(srcW) - bounds.W*scale) / 2
	offY := (float64(srcH) - bounds.H*scale) / 2
	toPx := func(x, y float64) (int, int) {
		return int(math.Round((x-bounds.X)*scale + offX)),
			int(math.Round((y-bounds.Y)*scale + offY))
	}

	// Card for the frame area itself.
	cx0, cy0 := toPx(bounds.X, bounds.Y)
	cx1, cy1 := toPx(bounds.MaxX(), bounds.MaxY())
	fillRect(src, cx0, cy0, cx1-1, cy1-1, pal.card)
	strokeRect(src, cx0, cy0, cx1-1, cy1-1, pal.border)

	for _, el := range content {
		x0, y0 := toPx(el.X, el.Y)
		x1, y1 := toPx(el.X+el.Width, el.Y+el.Height)
		if x1 <= x0 {
			x1 = x0 + 1
		}
		if y1 <= y0 {
			y1 = y0 + 1
		}
		fillRect(src, x0, y0, x1-1, y1-1, pal.box)
	}

	// Downscale to the requested size.
	dst := image.NewRGBA(image.Rect(0, 0, opt.Width, opt.Height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}
