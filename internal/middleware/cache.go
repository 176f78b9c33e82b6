package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/iliyamo/venue-seatmap/internal/config"
)

// cachedResponse is the msgpack value stored per cache key.
type cachedResponse struct {
	Status int                 `msgpack:"s"`
	Header map[string][]string `msgpack:"h"`
	Body   []byte              `msgpack:"b"`
}

// captureWriter tees the body into buf until it grows past limit, after
// which the response is marked uncacheable and only forwarded.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflow {
		if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
			cw.overflow = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// cacheKeyFrom hashes the concrete path (never the route pattern, so
// /v1/venues/a and /v1/venues/b stay apart) plus, for "route_query", the
// sorted query string.  Requests carrying an :id param live under
// "<prefix>:venue:<id>" so PurgeVenue can find them.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	material := r.Method + " " + r.URL.Path
	if !strings.EqualFold(cfg.KeyStrategy, "route") {
		material += "?" + r.URL.Query().Encode() // ?a=1&b=2 == ?b=2&a=1
	}
	return venueNamespace(cfg.Prefix, c.Param("id")) + ":" + strconv.FormatUint(xxhash.Sum64String(material), 16)
}

func venueNamespace(prefix, venueID string) string {
	if venueID == "" {
		return prefix
	}
	return prefix + ":venue:" + venueID
}

// PurgeVenue deletes every cached response recorded for venueID.  It is a
// no-op when caching is disabled.
func PurgeVenue(ctx context.Context, cfg config.CacheConfig, rdb *redis.Client, venueID string) error {
	if !cfg.Enabled || rdb == nil || venueID == "" {
		return nil
	}
	iter := rdb.Scan(ctx, 0, venueNamespace(cfg.Prefix, venueID)+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// NewRedisCache caches 200 responses (headers and body) in Redis so a
// repeated venue or render request is served byte-identical without
// touching the venue source or the rasteriser.  The list endpoint has no
// venue ID and is only bounded by TTL.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKeyFrom(cfg, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var hit cachedResponse
				if err := msgpack.Unmarshal(bs, &hit); err == nil {
					return replay(c, hit)
				}
				c.Logger().Warnf("cache: dropping undecodable entry %s", key)
				rdb.Del(ctx, key)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow {
				return nil
			}

			entry := cachedResponse{Status: cw.status, Header: map[string][]string{}, Body: cw.buf.Bytes()}
			for k, vals := range c.Response().Header() {
				if k == "X-Cache" || k == echo.HeaderContentLength {
					continue
				}
				entry.Header[k] = append([]string(nil), vals...)
			}
			if payload, err := msgpack.Marshal(entry); err == nil {
				// the request context may already be cancelled once the body is out
				_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
			}
			return nil
		}
	}
}

func replay(c echo.Context, r cachedResponse) error {
	h := c.Response().Header()
	for k, vals := range r.Header {
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(r.Status)
	_, err := c.Response().Write(r.Body)
	return err
}
