package seatmap

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// MaxFrameSide bounds either side of a rasterised frame, in pixels.
const MaxFrameSide = 8192

var (
	// ErrEmptyScene is returned when a scene has no pixels to encode.
	ErrEmptyScene = errors.New("seatmap: empty scene")
	// ErrSceneTooLarge is returned when a side exceeds MaxFrameSide or is not finite.
	ErrSceneTooLarge = errors.New("seatmap: scene too large")
)

const (
	circleSegments = 24
	minTextPixels  = 5.0
	maxTextPixels  = 64.0
)

var (
	colorBackground = color.RGBA{250, 250, 250, 255}

	fontOnce sync.Once
	fontErr  error
	goFont   *opentype.Font
)

// EncodePNG rasterises the scene.  Shapes are filled polygons (circles
// are approximated), strokes are one pixel wide, and text is always
// drawn upright at its anchor.
func EncodePNG(w io.Writer, s Scene) error {
	// written so NaN fails too
	if !(s.Width <= MaxFrameSide && s.Height <= MaxFrameSide) {
		return ErrSceneTooLarge
	}
	width, height := int(math.Round(s.Width)), int(math.Round(s.Height))
	if width <= 0 || height <= 0 {
		return ErrEmptyScene
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	r := &raster{img: img, z: vector.NewRasterizer(width, height), t: s.Transform, faces: map[int]font.Face{}}
	for i := range s.Commands {
		c := &s.Commands[i]
		switch c.Op {
		case OpRect:
			pts := r.project(c.Frame, [][2]float64{{c.X, c.Y}, {c.X + c.W, c.Y}, {c.X + c.W, c.Y + c.H}, {c.X, c.Y + c.H}})
			r.fill(pts, c.Fill, c.Opacity)
			r.stroke(pts, c.Stroke, c.Opacity)
		case OpCircle:
			local := make([][2]float64, circleSegments)
			for k := range local {
				sin, cos := math.Sincos(2 * math.Pi * float64(k) / circleSegments)
				local[k] = [2]float64{c.X + c.R*cos, c.Y + c.R*sin}
			}
			pts := r.project(c.Frame, local)
			r.fill(pts, c.Fill, c.Opacity)
			r.stroke(pts, c.Stroke, c.Opacity)
		case OpText:
			if err := r.text(c); err != nil {
				return err
			}
		}
	}
	return png.Encode(w, img)
}

// raster holds per-encode state.  Font faces are not safe for
// concurrent use, so each encode keeps its own.
type raster struct {
	img   *image.RGBA
	z     *vector.Rasterizer
	t     Transform
	faces map[int]font.Face
}

func (r *raster) project(f Frame, local [][2]float64) [][2]float32 {
	out := make([][2]float32, len(local))
	for i, p := range local {
		wx, wy := f.ToWorld(p[0], p[1])
		sx, sy := r.t.WorldToScreen(wx, wy)
		out[i] = [2]float32{float32(sx), float32(sy)}
	}
	return out
}

func (r *raster) visible(pts [][2]float32) bool {
	b := r.img.Bounds()
	minX, minY := float32(math.Inf(1)), float32(math.Inf(1))
	maxX, maxY := float32(math.Inf(-1)), float32(math.Inf(-1))
	for _, p := range pts {
		minX, maxX = min(minX, p[0]), max(maxX, p[0])
		minY, maxY = min(minY, p[1]), max(maxY, p[1])
	}
	return maxX >= 0 && maxY >= 0 && minX <= float32(b.Dx()) && minY <= float32(b.Dy())
}

func (r *raster) fill(pts [][2]float32, hex string, opacity float64) {
	col, ok := paint(hex, opacity)
	if !ok || len(pts) < 3 || !r.visible(pts) {
		return
	}
	b := r.img.Bounds()
	r.z.Reset(b.Dx(), b.Dy())
	r.z.DrawOp = draw.Over
	r.z.MoveTo(pts[0][0], pts[0][1])
	for _, p := range pts[1:] {
		r.z.LineTo(p[0], p[1])
	}
	r.z.ClosePath()
	r.z.Draw(r.img, b, image.NewUniform(col), image.Point{})
}

// stroke draws each polygon edge as a one-pixel quad.
func (r *raster) stroke(pts [][2]float32, hex string, opacity float64) {
	if _, ok := paint(hex, opacity); !ok || !r.visible(pts) {
		return
	}
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		dx, dy := b[0]-a[0], b[1]-a[1]
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*0.5, dx/l*0.5
		r.fill([][2]float32{
			{a[0] + nx, a[1] + ny}, {b[0] + nx, b[1] + ny},
			{b[0] - nx, b[1] - ny}, {a[0] - nx, a[1] - ny},
		}, hex, opacity)
	}
}

func (r *raster) text(c *Command) error {
	if c.Text == "" {
		return nil
	}
	px := c.FontSize * r.t.Scale
	if px < minTextPixels {
		return nil
	}
	face, err := r.face(math.Min(px, maxTextPixels))
	if err != nil {
		return err
	}
	col, ok := paint(c.Fill, c.Opacity)
	if !ok {
		return nil
	}
	wx, wy := c.Frame.ToWorld(c.X, c.Y)
	sx, sy := r.t.WorldToScreen(wx, wy)
	adv := font.MeasureString(face, c.Text)
	m := face.Metrics()
	d := font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(sx*64) - adv/2,
			Y: fixed.Int26_6(sy*64) + (m.Ascent-m.Descent)/2,
		},
	}
	d.DrawString(c.Text)
	return nil
}

func (r *raster) face(px float64) (font.Face, error) {
	fontOnce.Do(func() {
		goFont, fontErr = opentype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fontErr
	}
	size := int(math.Round(px))
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(goFont, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	r.faces[size] = f
	return f, nil
}

// paint converts a #rrggbb colour and opacity into a colour.  Empty or
// malformed colours are not painted.
func paint(hex string, opacity float64) (color.NRGBA, bool) {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return color.NRGBA{}, false
	}
	a := math.Max(0, math.Min(1, opacity))
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(a * 255))}, true
}
