package seatmap

// Hit describes the topmost clickable command under a screen point.
type Hit struct {
	Target      Target `json:"target"`
	Section     string `json:"section,omitempty"`
	Seat        string `json:"seat,omitempty"`
	Interactive bool   `json:"interactive"`
}

// HitTest finds the command under the screen point (sx, sy).  Commands
// are checked topmost first and commands without a target are skipped,
// so row overlays fall through to their section background.  Hit testing
// uses the same frames as drawing, so rotated sections line up.
func (s Scene) HitTest(sx, sy float64) (Hit, bool) {
	if s.Transform.Scale <= 0 {
		return Hit{}, false
	}
	wx, wy := s.Transform.ScreenToWorld(sx, sy)
	for i := len(s.Commands) - 1; i >= 0; i-- {
		c := &s.Commands[i]
		if c.Target == TargetNone {
			continue
		}
		lx, ly := c.Frame.ToLocal(wx, wy)
		if !c.contains(lx, ly) {
			continue
		}
		return Hit{Target: c.Target, Section: c.Section, Seat: c.Seat, Interactive: c.Interactive}, true
	}
	return Hit{}, false
}

func (c *Command) contains(lx, ly float64) bool {
	switch c.Op {
	case OpRect:
		return lx >= c.X && lx <= c.X+c.W && ly >= c.Y && ly <= c.Y+c.H
	case OpCircle:
		dx, dy := lx-c.X, ly-c.Y
		return dx*dx+dy*dy <= c.R*c.R
	}
	return false
}
