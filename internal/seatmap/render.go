package seatmap

import (
	"math"
	"strconv"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

// Default edge length for sections without explicit width or height.
const (
	DefaultSectionSize = 40.0
	DefaultDetailSize  = 100.0
)

const (
	seatFill      = 0.8
	labelFontSize = 12.0
	rowFontSize   = 10.0
)

// Op is a draw primitive.
type Op string

const (
	OpRect   Op = "rect"
	OpCircle Op = "circle"
	OpText   Op = "text"
)

// Target says what a click on a command selects.  Commands without a
// target are transparent to hit testing.
type Target string

const (
	TargetNone    Target = ""
	TargetSection Target = "section"
	TargetSeat    Target = "seat"
)

// Frame is a section's local coordinate system: origin at (X, Y) in
// venue space, rotated by Rotation degrees about that origin.
type Frame struct {
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	Rotation float64 `json:"rotation,omitempty" msgpack:"rotation,omitempty"`
}

// ToWorld maps a frame-local point to venue coordinates.
func (f Frame) ToWorld(lx, ly float64) (float64, float64) {
	sin, cos := math.Sincos(f.Rotation * math.Pi / 180)
	return f.X + lx*cos - ly*sin, f.Y + lx*sin + ly*cos
}

// ToLocal maps a venue point into the frame.
func (f Frame) ToLocal(wx, wy float64) (float64, float64) {
	sin, cos := math.Sincos(f.Rotation * math.Pi / 180)
	dx, dy := wx-f.X, wy-f.Y
	return dx*cos + dy*sin, -dx*sin + dy*cos
}

// Command is one immediate-mode draw instruction.  Geometry is in the
// command's Frame: rects use X, Y (top-left) with W, H; circles use
// X, Y (centre) with R; text is anchored at its centre X, Y and rotated
// by TextRotate about the anchor.
type Command struct {
	Op          Op               `json:"op" msgpack:"op"`
	Frame       Frame            `json:"frame" msgpack:"frame"`
	X           float64          `json:"x" msgpack:"x"`
	Y           float64          `json:"y" msgpack:"y"`
	W           float64          `json:"w,omitempty" msgpack:"w,omitempty"`
	H           float64          `json:"h,omitempty" msgpack:"h,omitempty"`
	R           float64          `json:"r,omitempty" msgpack:"r,omitempty"`
	Fill        string           `json:"fill,omitempty" msgpack:"fill,omitempty"`
	Stroke      string           `json:"stroke,omitempty" msgpack:"stroke,omitempty"`
	Opacity     float64          `json:"opacity" msgpack:"opacity"`
	Text        string           `json:"text,omitempty" msgpack:"text,omitempty"`
	TextRotate  float64          `json:"text_rotate,omitempty" msgpack:"text_rotate,omitempty"`
	FontSize    float64          `json:"font_size,omitempty" msgpack:"font_size,omitempty"`
	Target      Target           `json:"target,omitempty" msgpack:"target,omitempty"`
	Section     string           `json:"section,omitempty" msgpack:"section,omitempty"`
	Row         string           `json:"row,omitempty" msgpack:"row,omitempty"`
	Seat        string           `json:"seat,omitempty" msgpack:"seat,omitempty"`
	Status      model.SeatStatus `json:"status,omitempty" msgpack:"status,omitempty"`
	Selected    bool             `json:"selected,omitempty" msgpack:"selected,omitempty"`
	Interactive bool             `json:"interactive,omitempty" msgpack:"interactive,omitempty"`
	Cursor      string           `json:"cursor,omitempty" msgpack:"cursor,omitempty"`
}

// Scene is the output of one render pass.
type Scene struct {
	Width     float64   `json:"width" msgpack:"width"`
	Height    float64   `json:"height" msgpack:"height"`
	Transform Transform `json:"transform" msgpack:"transform"`
	Tier      Tier      `json:"tier" msgpack:"tier"`
	Commands  []Command `json:"commands" msgpack:"commands"`
}

// Input bundles everything a render pass reads.  Tier defaults to the
// tier of Transform.Scale; Colors and Selection may be nil.
type Input struct {
	Venue     *model.Venue
	Transform Transform
	Tier      Tier
	Width     float64
	Height    float64
	Selection Selection
	Colors    *ColorCache
}

// Render produces the draw commands for a venue.  It has no side effects
// beyond filling the colour cache.  A zero-sized viewport or a nil venue
// renders nothing.
func Render(in Input) Scene {
	tier := in.Tier
	if tier == "" {
		tier = DetailTier(in.Transform.Scale)
	}
	scene := Scene{
		Width:     in.Width,
		Height:    in.Height,
		Transform: in.Transform,
		Tier:      tier,
		Commands:  []Command{},
	}
	if in.Venue == nil || in.Width <= 0 || in.Height <= 0 || in.Transform.Scale <= 0 {
		return scene
	}
	colors := in.Colors
	if colors == nil {
		colors = NewColorCache()
	}
	sel := in.Selection
	if sel == nil {
		sel = SeatSet{}
	}

	for i := range in.Venue.Sections {
		sec := &in.Venue.Sections[i]
		switch tier {
		case TierSeat:
			scene.Commands = appendSeats(scene.Commands, sec, sel)
		case TierRow:
			scene.Commands = appendRows(scene.Commands, sec, colors)
		default:
			scene.Commands = appendSection(scene.Commands, sec, colors)
		}
	}
	return scene
}

func frameOf(sec *model.Section) Frame {
	return Frame{X: sec.X, Y: sec.Y, Rotation: sec.Rotation}
}

func appendSection(cmds []Command, sec *model.Section, colors *ColorCache) []Command {
	w, h := sec.Size(DefaultSectionSize)
	f := frameOf(sec)
	cmds = append(cmds, Command{
		Op: OpRect, Frame: f, W: w, H: h,
		Fill: colors.SectionColor(sec), Stroke: OutlineColor, Opacity: 1,
		Target: TargetSection, Section: sec.ID, Interactive: true, Cursor: "pointer",
	})
	cmds = append(cmds,
		Command{
			Op: OpText, Frame: f, X: w / 2, Y: h/2 - labelFontSize/2,
			Fill: LabelColor, Opacity: 1, Text: sec.Name, TextRotate: -sec.Rotation,
			FontSize: labelFontSize, Section: sec.ID,
		},
		Command{
			Op: OpText, Frame: f, X: w / 2, Y: h/2 + labelFontSize/2 + 2,
			Fill: LabelColor, Opacity: 1, Text: formatPrice(sec.Price), TextRotate: -sec.Rotation,
			FontSize: labelFontSize - 2, Section: sec.ID,
		},
	)
	return cmds
}

func appendRows(cmds []Command, sec *model.Section, colors *ColorCache) []Command {
	w, h := sec.Size(DefaultDetailSize)
	f := frameOf(sec)
	// The dimmed background takes section clicks; rows are not targets.
	cmds = append(cmds, Command{
		Op: OpRect, Frame: f, W: w, H: h,
		Fill: DimColor, Stroke: OutlineColor, Opacity: 0.3,
		Target: TargetSection, Section: sec.ID, Interactive: true, Cursor: "pointer",
	})
	rows := sec.Rows()
	if len(rows) == 0 {
		return cmds
	}
	rowH := h / float64(len(rows))
	font := math.Min(rowFontSize, rowH*0.6)
	for i, row := range rows {
		y := float64(i) * rowH
		cmds = append(cmds,
			Command{
				Op: OpRect, Frame: f, Y: y, W: w, H: rowH,
				Fill: colors.RowColor(sec.ID, row), Stroke: "#ffffff", Opacity: 1,
				Section: sec.ID, Row: row.Label,
			},
			Command{
				Op: OpText, Frame: f, X: w / 2, Y: y + rowH/2,
				Fill: LabelColor, Opacity: 1, Text: "Row " + row.Label, TextRotate: -sec.Rotation,
				FontSize: font, Section: sec.ID, Row: row.Label,
			},
		)
	}
	return cmds
}

func appendSeats(cmds []Command, sec *model.Section, sel Selection) []Command {
	w, h := sec.Size(DefaultDetailSize)
	f := frameOf(sec)
	cmds = append(cmds, Command{
		Op: OpRect, Frame: f, W: w, H: h,
		Stroke: OutlineColor, Opacity: 1, Section: sec.ID,
	})
	rows := sec.Rows()
	if len(rows) == 0 {
		return cmds
	}
	rowH := h / float64(len(rows))
	for i, row := range rows {
		colW := w / float64(len(row.Seats))
		r := math.Min(colW, rowH) * seatFill / 2
		cy := (float64(i) + 0.5) * rowH
		for j, seat := range row.Seats {
			selected := sel.Contains(seat.ID)
			interactive := seat.Status == model.SeatAvailable || selected
			opacity := 1.0
			if seat.Status == model.SeatSold && !selected {
				opacity = SoldOpacity
			}
			cursor := "pointer"
			if !interactive {
				cursor = "not-allowed"
			}
			cmds = append(cmds, Command{
				Op: OpCircle, Frame: f, X: (float64(j) + 0.5) * colW, Y: cy, R: r,
				Fill: SeatColor(seat.Status, selected), Opacity: opacity,
				Target: TargetSeat, Section: sec.ID, Row: row.Label, Seat: seat.ID,
				Status: seat.Status, Selected: selected, Interactive: interactive, Cursor: cursor,
			})
		}
	}
	return cmds
}

func formatPrice(p float64) string {
	if p == math.Trunc(p) {
		return "$" + strconv.FormatFloat(p, 'f', 0, 64)
	}
	return "$" + strconv.FormatFloat(p, 'f', 2, 64)
}
