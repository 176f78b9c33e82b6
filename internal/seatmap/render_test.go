package seatmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

func TestRenderSectionTier(t *testing.T) {
	sec := makeSection("1", 100, 50, 0, 0, 1, 4) // no explicit size
	sec.Rotation = 315
	sec.Price = 49.5
	venue := &model.Venue{ID: "v", Sections: []model.Section{sec}}

	scene := Render(Input{Venue: venue, Transform: Transform{Scale: 1}, Width: 800, Height: 600})

	assert.Equal(t, TierSection, scene.Tier)
	require.Len(t, scene.Commands, 3)
	rect := scene.Commands[0]
	assert.Equal(t, OpRect, rect.Op)
	assert.Equal(t, TargetSection, rect.Target)
	assert.Equal(t, DefaultSectionSize, rect.W)
	assert.Equal(t, DefaultSectionSize, rect.H)
	assert.Equal(t, Frame{X: 100, Y: 50, Rotation: 315}, rect.Frame)
	assert.Equal(t, BaseColor, rect.Fill)

	label, price := scene.Commands[1], scene.Commands[2]
	assert.Equal(t, "Section 1", label.Text)
	assert.Equal(t, "$49.50", price.Text)
	assert.Equal(t, -315.0, label.TextRotate)
	assert.Equal(t, -315.0, price.TextRotate)
	assert.Equal(t, TargetNone, label.Target)
}

func TestRenderRowTier(t *testing.T) {
	sec := makeSection("2", 0, 0, 0, 0, 4, 3)
	setStatus(&sec, model.SeatSold, "2-B1", "2-B2", "2-B3")
	venue := &model.Venue{Sections: []model.Section{sec}}

	scene := Render(Input{Venue: venue, Transform: Transform{Scale: 2}, Width: 100, Height: 100})

	assert.Equal(t, TierRow, scene.Tier)
	bg := scene.Commands[0]
	assert.Equal(t, TargetSection, bg.Target)
	assert.Equal(t, DefaultDetailSize, bg.W)
	assert.Equal(t, 0.3, bg.Opacity)

	rows := commandsFor(scene, OpRect, TargetNone)
	require.Len(t, rows, 4)
	for i, r := range rows {
		assert.Equal(t, 25.0, r.H)
		assert.Equal(t, 100.0, r.W)
		assert.Equal(t, float64(i)*25, r.Y)
	}
	assert.Equal(t, BaseColor, rows[0].Fill)
	assert.Equal(t, ScaleHex(BaseColor, MinIntensity), rows[1].Fill)

	var labels []string
	for _, c := range scene.Commands {
		if c.Op == OpText {
			labels = append(labels, c.Text)
		}
	}
	assert.Equal(t, []string{"Row A", "Row B", "Row C", "Row D"}, labels)
}

func TestRenderSeatTierColoursAndInteractivity(t *testing.T) {
	sec := makeSection("3", 0, 0, 100, 20, 1, 10)
	setStatus(&sec, model.SeatSold, "3-A2", "3-A5", "3-A9")
	venue := &model.Venue{Sections: []model.Section{sec}}

	scene := Render(Input{Venue: venue, Transform: Transform{Scale: 4}, Width: 500, Height: 500})

	assert.Equal(t, TierSeat, scene.Tier)
	seats := commandsFor(scene, OpCircle, TargetSeat)
	require.Len(t, seats, 10)

	var clickable, sold int
	for _, c := range seats {
		if c.Interactive {
			clickable++
			assert.Equal(t, BaseColor, c.Fill)
			assert.Equal(t, "pointer", c.Cursor)
			assert.Equal(t, 1.0, c.Opacity)
			continue
		}
		sold++
		assert.Equal(t, SoldColor, c.Fill)
		assert.Equal(t, "not-allowed", c.Cursor)
		assert.Equal(t, SoldOpacity, c.Opacity)
	}
	assert.Equal(t, 7, clickable)
	assert.Equal(t, 3, sold)

	// 10 columns of 10 wide in a 20 high row: radius = min(10, 20)*0.8/2
	assert.Equal(t, 4.0, seats[0].R)
	assert.Equal(t, 5.0, seats[0].X)
	assert.Equal(t, 95.0, seats[9].X)
	assert.Equal(t, 10.0, seats[0].Y)
}

func TestRenderSelectedSeatOverridesStatus(t *testing.T) {
	sec := makeSection("4", 0, 0, 40, 10, 1, 4)
	setStatus(&sec, model.SeatPending, "4-A3")
	venue := &model.Venue{Sections: []model.Section{sec}}

	scene := Render(Input{
		Venue: venue, Transform: Transform{Scale: 3}, Width: 10, Height: 10,
		Selection: NewSeatSet("4-A1", "4-A3"),
	})

	seats := commandsFor(scene, OpCircle, TargetSeat)
	require.Len(t, seats, 4)
	assert.Equal(t, SelectedColor, seats[0].Fill)
	assert.True(t, seats[0].Selected)
	assert.Equal(t, SelectedColor, seats[2].Fill)
	assert.True(t, seats[2].Interactive, "selected pending seat can be toggled off")
	assert.Equal(t, BaseColor, seats[1].Fill)
}

func TestRenderZeroSizedViewportDrawsNothing(t *testing.T) {
	venue := &model.Venue{Sections: []model.Section{makeSection("1", 0, 0, 10, 10, 1, 1)}}
	scene := Render(Input{Venue: venue, Transform: Identity})
	assert.Empty(t, scene.Commands)
	assert.NotNil(t, scene.Commands)

	scene = Render(Input{Transform: Identity, Width: 100, Height: 100})
	assert.Empty(t, scene.Commands)
}

func TestRenderEmptySection(t *testing.T) {
	venue := &model.Venue{Sections: []model.Section{{ID: "e", Name: "Empty"}}}
	for _, scale := range []float64{1, 2, 4} {
		scene := Render(Input{Venue: venue, Transform: Transform{Scale: scale}, Width: 10, Height: 10})
		require.NotEmpty(t, scene.Commands)
		assert.Equal(t, OpRect, scene.Commands[0].Op)
	}
	scene := Render(Input{Venue: venue, Transform: Identity, Width: 10, Height: 10})
	assert.Equal(t, BaseColor, scene.Commands[0].Fill)
}

func TestRenderExplicitTierWins(t *testing.T) {
	venue := &model.Venue{Sections: []model.Section{makeSection("1", 0, 0, 10, 10, 1, 2)}}
	scene := Render(Input{Venue: venue, Transform: Identity, Tier: TierSeat, Width: 10, Height: 10})
	assert.Equal(t, TierSeat, scene.Tier)
	assert.Len(t, commandsFor(scene, OpCircle, TargetSeat), 2)
}

func TestHitTestRotatedSection(t *testing.T) {
	sec := makeSection("c", 100, 100, 40, 20, 0, 0)
	sec.Rotation = 90
	venue := &model.Venue{Sections: []model.Section{sec}}
	scene := Render(Input{Venue: venue, Transform: Identity, Width: 400, Height: 400})

	// local (10, 5) rotated 90° lands at (95, 110)
	hit, ok := scene.HitTest(95, 110)
	require.True(t, ok)
	assert.Equal(t, TargetSection, hit.Target)
	assert.Equal(t, "c", hit.Section)

	// would be inside the unrotated box
	_, ok = scene.HitTest(130, 105)
	assert.False(t, ok)
}

func TestHitTestRowOverlayFallsThroughToSection(t *testing.T) {
	venue := &model.Venue{Sections: []model.Section{makeSection("r", 0, 0, 100, 100, 4, 4)}}
	scene := Render(Input{Venue: venue, Transform: Transform{Scale: 2}, Width: 400, Height: 400})

	hit, ok := scene.HitTest(20, 150) // world (10, 75), row D
	require.True(t, ok)
	assert.Equal(t, TargetSection, hit.Target)
	assert.Equal(t, "r", hit.Section)
}

func TestHitTestSeatTierBetweenSeats(t *testing.T) {
	venue := &model.Venue{Sections: []model.Section{makeSection("s", 0, 0, 100, 20, 1, 10)}}
	scene := Render(Input{Venue: venue, Transform: Identity, Tier: TierSeat, Width: 400, Height: 400})

	hit, ok := scene.HitTest(5, 10)
	require.True(t, ok)
	assert.Equal(t, "s-A1", hit.Seat)

	_, ok = scene.HitTest(10, 1) // gap between seat 1 and seat 2
	assert.False(t, ok)
}
