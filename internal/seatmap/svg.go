package seatmap

import (
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
)

// EncodeSVG writes the scene as a standalone SVG document.  The venue is
// wrapped in one group carrying the viewport transform; every command
// carries its section frame.
func EncodeSVG(w io.Writer, s Scene) error {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" data-tier="%s">`+"\n",
		formatFloat(s.Width), formatFloat(s.Height), formatFloat(s.Width), formatFloat(s.Height), s.Tier)
	fmt.Fprintf(&b, `  <g transform="translate(%s %s) scale(%s)">`+"\n",
		formatFloat(s.Transform.X), formatFloat(s.Transform.Y), formatFloat(s.Transform.Scale))
	for i := range s.Commands {
		b.WriteString("    ")
		writeSVGCommand(&b, &s.Commands[i])
		b.WriteString("\n")
	}
	b.WriteString("  </g>\n</svg>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSVGCommand(b *strings.Builder, c *Command) {
	frame := "translate(" + formatFloat(c.Frame.X) + " " + formatFloat(c.Frame.Y) + ")"
	if c.Frame.Rotation != 0 {
		frame += " rotate(" + formatFloat(c.Frame.Rotation) + ")"
	}
	switch c.Op {
	case OpRect:
		fmt.Fprintf(b, `<rect transform="%s" x="%s" y="%s" width="%s" height="%s"`,
			frame, formatFloat(c.X), formatFloat(c.Y), formatFloat(c.W), formatFloat(c.H))
		writePaint(b, c)
		b.WriteString("/>")
	case OpCircle:
		fmt.Fprintf(b, `<circle transform="%s" cx="%s" cy="%s" r="%s"`,
			frame, formatFloat(c.X), formatFloat(c.Y), formatFloat(c.R))
		writePaint(b, c)
		b.WriteString("/>")
	case OpText:
		if c.TextRotate != 0 {
			frame += " rotate(" + formatFloat(c.TextRotate) + " " + formatFloat(c.X) + " " + formatFloat(c.Y) + ")"
		}
		fmt.Fprintf(b, `<text transform="%s" x="%s" y="%s" font-size="%s" text-anchor="middle" dominant-baseline="middle" pointer-events="none"`,
			frame, formatFloat(c.X), formatFloat(c.Y), formatFloat(c.FontSize))
		writePaint(b, c)
		b.WriteString(">" + html.EscapeString(c.Text) + "</text>")
	}
}

func writePaint(b *strings.Builder, c *Command) {
	fill := c.Fill
	if fill == "" {
		fill = "none"
	}
	b.WriteString(` fill="` + html.EscapeString(fill) + `"`)
	if c.Stroke != "" {
		b.WriteString(` stroke="` + html.EscapeString(c.Stroke) + `"`)
	}
	if c.Opacity != 1 {
		b.WriteString(` opacity="` + formatFloat(c.Opacity) + `"`)
	}
	if c.Section != "" {
		b.WriteString(` data-section="` + html.EscapeString(c.Section) + `"`)
	}
	if c.Seat != "" {
		b.WriteString(` data-seat="` + html.EscapeString(c.Seat) + `"`)
	}
	if c.Cursor != "" {
		b.WriteString(` style="cursor:` + c.Cursor + `"`)
	}
	if c.Target == TargetNone && c.Op != OpText {
		b.WriteString(` pointer-events="none"`)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
