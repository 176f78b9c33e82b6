package seatmap

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

func cornerVenue() *model.Venue {
	sec := makeSection("NE", 300, 40, 80, 40, 2, 4)
	sec.Name = "North <East>"
	sec.Rotation = 45
	setStatus(&sec, model.SeatSold, "NE-A1")
	return &model.Venue{ID: "v", Sections: []model.Section{sec, makeSection("C", 100, 100, 0, 0, 1, 3)}}
}

func TestEncodeSVGSectionTier(t *testing.T) {
	scene := Render(Input{Venue: cornerVenue(), Transform: Transform{Scale: 1, X: 10, Y: 20}, Width: 640, Height: 480})

	var buf bytes.Buffer
	require.NoError(t, EncodeSVG(&buf, scene))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<?xml`))
	assert.Contains(t, out, `width="640" height="480"`)
	assert.Contains(t, out, `data-tier="section"`)
	assert.Contains(t, out, `<g transform="translate(10 20) scale(1)">`)
	assert.Contains(t, out, `translate(300 40) rotate(45)`)
	assert.Contains(t, out, `rotate(-45 40 14)`) // label counter-rotated about its anchor
	assert.Contains(t, out, `North &lt;East&gt;`)
	assert.Contains(t, out, `data-section="C"`)
	assert.Equal(t, 2, strings.Count(out, "<rect"))
}

func TestEncodeSVGSeatTier(t *testing.T) {
	scene := Render(Input{
		Venue: cornerVenue(), Transform: Transform{Scale: 3.5}, Width: 640, Height: 480,
		Selection: NewSeatSet("NE-B2"),
	})

	var buf bytes.Buffer
	require.NoError(t, EncodeSVG(&buf, scene))
	out := buf.String()

	assert.Equal(t, 11, strings.Count(out, "<circle"))
	assert.Contains(t, out, `data-seat="NE-A1"`)
	assert.Contains(t, out, `fill="`+SelectedColor+`"`)
	assert.Contains(t, out, `opacity="0.5"`)
	assert.Contains(t, out, `style="cursor:not-allowed"`)
	assert.Contains(t, out, `fill="none"`)
}

func TestEncodePNG(t *testing.T) {
	for _, scale := range []float64{1, 2, 4} {
		scene := Render(Input{Venue: cornerVenue(), Transform: Transform{Scale: scale}, Width: 320, Height: 200})

		var buf bytes.Buffer
		require.NoError(t, EncodePNG(&buf, scene))

		img, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, 320, img.Bounds().Dx())
		assert.Equal(t, 200, img.Bounds().Dy())
	}
}

func TestEncodePNGPaintsSections(t *testing.T) {
	venue := &model.Venue{Sections: []model.Section{makeSection("x", 10, 10, 50, 50, 1, 1)}}
	scene := Render(Input{Venue: venue, Transform: Identity, Width: 100, Height: 100})

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, scene))
	img, err := png.Decode(&buf)
	require.NoError(t, err)

	r, g, b, _ := img.At(15, 50).RGBA()
	assert.Equal(t, uint32(0x4c), r>>8)
	assert.Equal(t, uint32(0xaf), g>>8)
	assert.Equal(t, uint32(0x50), b>>8)

	r, g, b, _ = img.At(90, 90).RGBA()
	assert.Equal(t, []uint32{250, 250, 250}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestEncodePNGEmptyScene(t *testing.T) {
	var buf bytes.Buffer
	err := EncodePNG(&buf, Render(Input{Venue: cornerVenue(), Transform: Identity}))
	assert.ErrorIs(t, err, ErrEmptyScene)
	assert.Zero(t, buf.Len())
}

func TestEncodePNGRejectsOversizedScene(t *testing.T) {
	for _, s := range []Scene{
		{Width: 1e8, Height: 1e8, Transform: Identity},
		{Width: MaxFrameSide + 1, Height: 10, Transform: Identity},
		{Width: 10, Height: math.NaN(), Transform: Identity},
		{Width: math.Inf(1), Height: 10, Transform: Identity},
	} {
		var buf bytes.Buffer
		assert.ErrorIs(t, EncodePNG(&buf, s), ErrSceneTooLarge)
		assert.Zero(t, buf.Len())
	}
}
