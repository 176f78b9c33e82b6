package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/iliyamo/venue-seatmap/internal/seatmap"
)

// Frame formats accepted by the render and frame endpoints.
const (
	FormatJSON    = "json"
	FormatSVG     = "svg"
	FormatPNG     = "png"
	FormatMsgpack = "msgpack"

	MIMEMsgpack = "application/msgpack"
	MIMESVG     = "image/svg+xml"
	MIMEPNG     = "image/png"
)

// writeScene encodes scene in the format named by the "format" query
// parameter (json by default).
func writeScene(c echo.Context, scene seatmap.Scene) error {
	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = FormatJSON
	}
	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		return c.JSON(http.StatusOK, scene)
	case FormatMsgpack:
		b, err := msgpack.Marshal(scene)
		if err != nil {
			return NewInternalError("encode frame", err)
		}
		return c.Blob(http.StatusOK, MIMEMsgpack, b)
	case FormatSVG:
		if err := seatmap.EncodeSVG(&buf, scene); err != nil {
			return NewInternalError("encode frame", err)
		}
		return c.Blob(http.StatusOK, MIMESVG, buf.Bytes())
	case FormatPNG:
		if err := seatmap.EncodePNG(&buf, scene); err != nil {
			if errors.Is(err, seatmap.ErrEmptyScene) {
				return NewBadRequestError("viewport has no area", err)
			}
			if errors.Is(err, seatmap.ErrSceneTooLarge) {
				return NewValidationError("width/height", err)
			}
			return NewInternalError("encode frame", err)
		}
		return c.Blob(http.StatusOK, MIMEPNG, buf.Bytes())
	}
	return NewValidationError("format", errors.New("want json, svg, png or msgpack"))
}
