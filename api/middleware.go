package api

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// errBodyTooLarge is returned by a decompressed body once it yields more
// than its limit.
var errBodyTooLarge = errors.New("decompressed body too large")

// DecompressBody inflates gzip-encoded snapshot uploads before the data
// handlers read them. The inflated stream stops with errBodyTooLarge after
// limit bytes, so a small compressed body cannot expand without bound.
func DecompressBody(limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !gzipEncoded(req.Header.Get(echo.HeaderContentEncoding)) {
				return next(c)
			}

			gr, err := gzip.NewReader(req.Body)
			if err != nil {
				_ = req.Body.Close()
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}
			req.Body = &inflatedBody{gz: gr, raw: req.Body, left: limit}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

func gzipEncoded(header string) bool {
	for _, enc := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			return true
		}
	}
	return false
}

type inflatedBody struct {
	gz   *gzip.Reader
	raw  io.Closer
	left int64
}

func (b *inflatedBody) Read(p []byte) (int, error) {
	if b.left <= 0 {
		// One more byte decides between a clean EOF and an oversized body.
		var one [1]byte
		for {
			n, err := b.gz.Read(one[:])
			if n > 0 {
				return 0, errBodyTooLarge
			}
			if err != nil {
				return 0, err
			}
		}
	}
	if int64(len(p)) > b.left {
		p = p[:b.left]
	}
	n, err := b.gz.Read(p)
	b.left -= int64(n)
	return n, err
}

func (b *inflatedBody) Close() error {
	return errors.Join(b.gz.Close(), b.raw.Close())
}
