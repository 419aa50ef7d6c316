package api

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/tang-isab/swimlane-chart/storage"
)

func gzipped(t *testing.T, data []byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return &buf
}

func TestDecompressBodyStopsAtLimit(t *testing.T) {
	e := echo.New()
	var got []byte
	var readErr error
	e.Use(DecompressBody(16))
	e.POST("/", func(c echo.Context) error {
		got, readErr = io.ReadAll(c.Request().Body)
		return c.NoContent(http.StatusNoContent)
	})

	exact := httptest.NewRequest(http.MethodPost, "/", gzipped(t, bytes.Repeat([]byte("a"), 16)))
	exact.Header.Set(echo.HeaderContentEncoding, "gzip")
	serve(e, exact)
	if readErr != nil || len(got) != 16 {
		t.Fatalf("body at the limit: %d bytes, err %v", len(got), readErr)
	}

	over := httptest.NewRequest(http.MethodPost, "/", gzipped(t, make([]byte, 1<<20)))
	over.Header.Set(echo.HeaderContentEncoding, "gzip")
	serve(e, over)
	if !errors.Is(readErr, errBodyTooLarge) || len(got) != 16 {
		t.Fatalf("oversized body: %d bytes, err %v", len(got), readErr)
	}

	plain := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, 64)))
	serve(e, plain)
	if readErr != nil || len(got) != 64 {
		t.Fatal("identity bodies must pass through untouched")
	}
}

func TestPostDataRejectsExpandingBody(t *testing.T) {
	logger, _ := test.NewNullLogger()
	e := echo.New()
	e.Use(DecompressBody(1 << 10))
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	Register(e, &Server{Store: store, Logger: logger, Now: func() time.Time { return fixedNow }})

	payload := append([]byte(`{"weeks":3,"swimlanes":[],"tasks":[],"pad":"`), bytes.Repeat([]byte(" "), 1<<20)...)
	payload = append(payload, `"}`...)
	req := httptest.NewRequest(http.MethodPost, "/api/data", gzipped(t, payload))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	if rec := serve(e, req); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestGzipEncoded(t *testing.T) {
	for header, want := range map[string]bool{
		"":            false,
		"gzip":        true,
		"br, GZIP":    true,
		"deflate":     false,
		" gzip , br ": true,
		"x-gzip-ish":  false,
	} {
		if got := gzipEncoded(header); got != want {
			t.Errorf("gzipEncoded(%q) = %v", header, got)
		}
	}
}
