package sandbox

import (
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/labstack/echo/v4"
)

type brotliResponseWriter struct {
	http.ResponseWriter
	writer io.Writer
}

func (w brotliResponseWriter) Write(b []byte) (int, error) {
	return w.writer.Write(b)
}

/*
BrotliMiddleware compresses responses for clients sending "Accept-Encoding: br".
*/
func BrotliMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !acceptsBrotli(c.Request().Header.Get("Accept-Encoding")) {
			return next(c)
		}
		res := c.Response()
		res.Header().Set("Content-Encoding", "br")
		res.Header().Add("Vary", "Accept-Encoding")
		res.Header().Del("Content-Length")

		bw := brotli.NewWriter(res.Writer)
		original := res.Writer
		res.Writer = brotliResponseWriter{ResponseWriter: original, writer: bw}
		defer func() {
			_ = bw.Close()
			res.Writer = original
		}()
		return next(c)
	}
}

func acceptsBrotli(header string) bool {
	for _, part := range strings.Split(header, ",") {
		encoding, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(encoding, "br") {
			return true
		}
	}
	return false
}
