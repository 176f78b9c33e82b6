package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/iliyamo/venue-seatmap/internal/cart"
	"github.com/iliyamo/venue-seatmap/internal/middleware"
	"github.com/iliyamo/venue-seatmap/internal/model"
	"github.com/iliyamo/venue-seatmap/internal/repository"
	"github.com/iliyamo/venue-seatmap/internal/seatmap"
	"github.com/iliyamo/venue-seatmap/internal/session"
	"github.com/iliyamo/venue-seatmap/internal/utils"
)

const testSecret = "test-secret"

const hallYAML = `
id: hall
name: Test Hall
sections:
  - id: F
    name: Floor
    price: 40
    width: 100
    height: 20
    rows: 1
    seats_per_row: 10
    sold: [F-A3]
`

type fixture struct {
	e        *echo.Echo
	store    *repository.FileVenueStore
	sessions *session.Manager
	purged   []string
	selected []seatmap.SelectionEvent
}

func newFixture(t *testing.T, carts *cart.Store) *fixture {
	t.Helper()
	v, err := repository.ParseVenue(strings.NewReader(hallYAML))
	require.NoError(t, err)

	f := &fixture{e: echo.New(), store: repository.NewFileVenueStore(v), sessions: session.NewManager(0)}
	f.e.HTTPErrorHandler = NewErrorHandler(true)

	vh := &VenueHandler{
		Venues: f.store, Sessions: f.sessions, DefaultWidth: 400, DefaultHeight: 300,
		Purge: func(_ context.Context, id string) error { f.purged = append(f.purged, id); return nil },
	}
	sh := &SessionHandler{
		Venues: f.store, Sessions: f.sessions, Carts: carts, DefaultWidth: 800, DefaultHeight: 600,
		MaxWidth: 2000, MaxHeight: 2000,
		OnSelect: []func(*session.Session, seatmap.SelectionEvent){func(_ *session.Session, ev seatmap.SelectionEvent) {
			f.selected = append(f.selected, ev)
		}},
	}
	f.e.GET("/v1/venues", vh.ListVenues)
	f.e.GET("/v1/venues/:id", vh.GetVenue)
	f.e.GET("/v1/venues/:id/render", vh.RenderVenue)
	f.e.PUT("/v1/venues/:id/seats/:seatId/status", vh.UpdateSeatStatus)

	g := f.e.Group("/v1/sessions", middleware.OptionalJWT(testSecret))
	g.POST("", sh.CreateSession)
	g.POST("/:id/events", sh.ApplyEvents)
	g.GET("/:id/frame", sh.GetFrame)
	g.GET("/:id/selection", sh.GetSelection)
	g.DELETE("/:id", sh.DeleteSession)
	return f
}

func (f *fixture) do(method, target, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestListAndGetVenue(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/v1/venues", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct{ Items []repository.VenueSummary }](t, rec)
	assert.Equal(t, []repository.VenueSummary{{ID: "hall", Name: "Test Hall", SectionCount: 1, SeatCount: 10}}, list.Items)

	rec = f.do(http.MethodGet, "/v1/venues/hall", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[model.Venue](t, rec)
	assert.Len(t, v.Sections[0].Seats, 10)

	rec = f.do(http.MethodGet, "/v1/venues/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	apiErr := decode[APIError](t, rec)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestRenderVenueFormats(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/v1/venues/hall/render", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	scene := decode[seatmap.Scene](t, rec)
	assert.Equal(t, 400.0, scene.Width)
	assert.Equal(t, seatmap.Transform{Scale: 1, X: 200, Y: 150}, scene.Transform)
	assert.Equal(t, seatmap.TierSection, scene.Tier)

	rec = f.do(http.MethodGet, "/v1/venues/hall/render?scale=10&tx=0&ty=0&width=200&height=100&selected=F-A1,%20F-A3&format=svg", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MIMESVG, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), `data-tier="seat"`)
	assert.Contains(t, rec.Body.String(), `scale(5)`)
	assert.Equal(t, 2, strings.Count(rec.Body.String(), `fill="`+seatmap.SelectedColor+`"`))

	rec = f.do(http.MethodGet, "/v1/venues/hall/render?format=png&width=64&height=32", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())

	rec = f.do(http.MethodGet, "/v1/venues/hall/render?format=msgpack&tier=row", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MIMEMsgpack, rec.Header().Get(echo.HeaderContentType))
	var packed seatmap.Scene
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &packed))
	assert.Equal(t, seatmap.TierRow, packed.Tier)
	assert.NotEmpty(t, packed.Commands)
}

func TestRenderVenueRejectsBadQueries(t *testing.T) {
	f := newFixture(t, nil)
	for _, q := range []string{
		"format=gif", "scale=abc", "width=-1", "tier=galaxy",
		"scale=NaN", "scale=Inf", "tx=NaN", "ty=-Inf", "width=NaN",
	} {
		rec := f.do(http.MethodGet, "/v1/venues/hall/render?"+q, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
	rec := f.do(http.MethodGet, "/v1/venues/hall/render?format=png&width=0", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFrameSizeIsBounded(t *testing.T) {
	f := newFixture(t, nil)

	for _, q := range []string{"width=30000", "height=30000", "format=png&width=9000&height=10"} {
		rec := f.do(http.MethodGet, "/v1/venues/hall/render?"+q, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
	rec := f.do(http.MethodGet, "/v1/venues/hall/render?format=png&width=4000&height=1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/v1/sessions", `{"venue_id":"hall","width":5000,"height":100}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, f.sessions.Len())

	rec = f.do(http.MethodPost, "/v1/sessions", `{"venue_id":"hall","width":2000,"height":2000}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[sessionCreated](t, rec).ID
	s, err := f.sessions.Get(id)
	require.NoError(t, err)
	before := s.State().Transform

	// an oversized resize is refused before the batch touches the viewport
	rec = f.do(http.MethodPost, "/v1/sessions/"+id+"/events",
		`[{"type":"zoom_in"},{"type":"resize","width":30000,"height":100}]`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, before, s.State().Transform)
}

func TestUpdateSeatStatus(t *testing.T) {
	f := newFixture(t, nil)
	s, err := f.sessions.Create(session.Options{Venue: mustVenue(t, f), Width: 100, Height: 100})
	require.NoError(t, err)

	rec := f.do(http.MethodPut, "/v1/venues/hall/seats/F-A1/status", `{"status":"reserved"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(http.MethodPut, "/v1/venues/hall/seats/F-Z9/status", `{"status":"sold"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(http.MethodPut, "/v1/venues/other/seats/F-A1/status", `{"status":"sold"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.purged)

	rec = f.do(http.MethodPut, "/v1/venues/hall/seats/F-A1/status", `{"status":"sold"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"hall"}, f.purged)

	v := mustVenue(t, f)
	_, seat, _ := v.FindSeat("F-A1")
	assert.Equal(t, model.SeatSold, seat.Status)

	// the live session renders the new status
	_, err = s.Apply(context.Background(), []session.Event{{Type: session.EventZoomIn}, {Type: session.EventZoomIn},
		{Type: session.EventZoomIn}, {Type: session.EventZoomIn}, {Type: session.EventZoomIn}, {Type: session.EventZoomIn},
		{Type: session.EventZoomIn}})
	require.NoError(t, err)
	scene, err := s.Frame(context.Background())
	require.NoError(t, err)
	for _, c := range scene.Commands {
		if c.Seat == "F-A1" {
			assert.Equal(t, model.SeatSold, c.Status)
			assert.False(t, c.Interactive)
		}
	}
}

func mustVenue(t *testing.T, f *fixture) *model.Venue {
	t.Helper()
	v, err := f.store.Get(context.Background(), "hall")
	require.NoError(t, err)
	return v
}

type sessionCreated struct {
	ID        string            `json:"id"`
	Transform seatmap.Transform `json:"transform"`
	Tier      seatmap.Tier      `json:"tier"`
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/v1/sessions", `{"venue_id":"nope"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(http.MethodPost, "/v1/sessions", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/v1/sessions", `{"venue_id":"hall","width":1000,"height":1000}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[sessionCreated](t, rec)
	assert.Equal(t, seatmap.Transform{Scale: 1, X: 500, Y: 500}, created.Transform)
	assert.Equal(t, seatmap.TierSection, created.Tier)
	base := "/v1/sessions/" + created.ID

	rec = f.do(http.MethodPost, base+"/events", `[{"type":"warp"}]`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(http.MethodPost, base+"/events", `{"type":"zoom_in"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	zoom := strings.TrimSuffix(strings.Repeat(`{"type":"zoom_in"},`, 7), ",")
	rec = f.do(http.MethodPost, base+"/events", "["+zoom+"]", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[session.Result](t, rec)
	require.Equal(t, seatmap.TierSeat, res.Tier)

	// click seat F-A5 (centre at world 45,10) twice and sold F-A3 once
	x5, y := res.Transform.WorldToScreen(45, 10)
	x3, _ := res.Transform.WorldToScreen(25, 10)
	body, err := json.Marshal([]session.Event{
		{Type: session.EventClick, X: x5, Y: y},
		{Type: session.EventClick, X: x3, Y: y},
	})
	require.NoError(t, err)
	rec = f.do(http.MethodPost, base+"/events", string(body), "")
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[session.Result](t, rec)
	require.Len(t, res.Selections, 1)
	assert.Equal(t, seatmap.Select, res.Selections[0].Kind)
	assert.Equal(t, "F-A5", res.Selections[0].Seat.SeatID)
	assert.Len(t, f.selected, 1)

	rec = f.do(http.MethodGet, base+"/selection", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sel := decode[struct{ Items []seatmap.DomainSeat }](t, rec)
	require.Len(t, sel.Items, 1)
	assert.Equal(t, 40.0, sel.Items[0].Price)

	rec = f.do(http.MethodGet, base+"/frame?format=svg", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-seat="F-A5"`)

	rec = f.do(http.MethodDelete, base, "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(http.MethodGet, base+"/frame", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(http.MethodDelete, base, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionCartOwnership(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	carts := cart.NewStore(rdb, "cart", 15*time.Minute)
	f := newFixture(t, carts)

	tok, err := utils.NewAccessToken(testSecret, "user-42", "CUSTOMER", time.Hour)
	require.NoError(t, err)

	open := func(bearer string) (string, seatmap.Transform) {
		rec := f.do(http.MethodPost, "/v1/sessions", `{"venue_id":"hall","width":200,"height":200}`, bearer)
		require.Equal(t, http.StatusCreated, rec.Code)
		zoom := strings.TrimSuffix(strings.Repeat(`{"type":"zoom_in"},`, 7), ",")
		id := decode[sessionCreated](t, rec).ID
		rec = f.do(http.MethodPost, "/v1/sessions/"+id+"/events", "["+zoom+"]", "")
		require.Equal(t, http.StatusOK, rec.Code)
		return id, decode[session.Result](t, rec).Transform
	}
	click := func(id string, tr seatmap.Transform, worldX float64) {
		x, y := tr.WorldToScreen(worldX, 10)
		body, _ := json.Marshal([]session.Event{{Type: session.EventClick, X: x, Y: y}})
		rec := f.do(http.MethodPost, "/v1/sessions/"+id+"/events", string(body), "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	signedIn, tr := open(tok.Token)
	click(signedIn, tr, 5)
	ids, err := carts.Cart("hall", "user-42").SeatIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"F-A1"}, ids)

	// the selection is served from the seats stored in the cart
	rec := f.do(http.MethodGet, "/v1/sessions/"+signedIn+"/selection", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sel := decode[struct{ Items []seatmap.DomainSeat }](t, rec)
	require.Len(t, sel.Items, 1)
	assert.Equal(t, seatmap.DomainSeat{SeatID: "F-A1", SectionID: "F", SectionName: "Floor", Row: "A", Number: 1, Price: 40}, sel.Items[0])

	anon, tr := open("")
	click(anon, tr, 15)
	ids, err = carts.Cart("hall", anon).SeatIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"F-A2"}, ids)

	// closing sessions drops the anonymous cart only
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/v1/sessions/"+anon, "", "").Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/v1/sessions/"+signedIn, "", "").Code)
	assert.False(t, mr.Exists("cart:hall:"+anon))
	assert.True(t, mr.Exists("cart:hall:user-42"))
}

func TestErrorHandlerHidesInternalDetails(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = NewErrorHandler(false)
	e.GET("/boom", func(c echo.Context) error { return NewInternalError("boom", assert.AnError) })
	e.GET("/raw", func(c echo.Context) error { return assert.AnError })
	e.GET("/http", func(c echo.Context) error { return echo.ErrMethodNotAllowed })

	for path, want := range map[string]APIError{
		"/boom": {Code: "INTERNAL_ERROR", Message: "boom"},
		"/raw":  {Code: "UNKNOWN_ERROR", Message: "an unexpected error occurred"},
		"/http": {Code: "HTTP_ERROR", Message: "Method Not Allowed"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, decode[APIError](t, rec), path)
	}
}
