package pdf

import (
	"bytes"
	"encoding/base64"

	"github.com/disintegration/imaging"
	"github.com/tuumbleweed/xerr"
)

const logoWidth = 400

/*
loadLogo opens an image, scales it down to logoWidth (aspect ratio kept) and returns it
as base64 PNG. An empty path yields an empty string.
*/
func loadLogo(path string) (encoded string, e *xerr.Error) {
	if path == "" {
		return "", nil
	}
	img, openErr := imaging.Open(path)
	if openErr != nil {
		return "", xerr.NewError(openErr, "open logo image", path)
	}
	if img.Bounds().Dx() > logoWidth {
		img = imaging.Resize(img, logoWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	encodeErr := imaging.Encode(&buf, img, imaging.PNG)
	if encodeErr != nil {
		return "", xerr.NewError(encodeErr, "encode logo as png", path)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
