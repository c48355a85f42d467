package teamwork

import (
	"compress/flate"
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
readBody returns the decoded body of resp. Teamwork answers with br when asked,
gzip and deflate are handled for proxies in between.
*/
func readBody(resp *http.Response, urlStr string) (body []byte, e *xerr.Error) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))

	var reader io.Reader = resp.Body
	switch encoding {
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "gzip":
		gz, gzErr := gzip.NewReader(resp.Body)
		if gzErr != nil {
			return nil, xerr.NewError(gzErr, "open gzip body", urlStr)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	case "", "identity":
	default:
		tl.Log(tl.Warning, palette.YellowDim, "Unknown Content-Encoding '%s' from '%s', reading as is", encoding, urlStr)
	}

	body, readErr := io.ReadAll(reader)
	if readErr != nil {
		return nil, xerr.NewError(readErr, "read response body", urlStr)
	}
	tl.Log(tl.Debug1, palette.GreenDim, "Read %s bytes (%s) from '%s'", len(body), encoding, urlStr)
	return body, nil
}
