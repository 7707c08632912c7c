// Package imaging decodes uploaded images and prepares them for face encoding.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/hamzaharrayhan/face-recognition-login/internal/errs"
)

// JPEGQuality is used when re-encoding images for the encoder sidecar.
const JPEGQuality = 92

// Decode turns raw bytes into pixels. Any format registered with image is accepted.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrImageDecode, err)
	}
	return img, nil
}

// Downscale shrinks img so its longer side is at most maxDim, keeping the
// aspect ratio. Images already within bounds, or maxDim <= 0, are returned as is.
func Downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	nw, nh := maxDim, maxDim
	if w >= h {
		nh = max(1, h*maxDim/w)
	} else {
		nw = max(1, w*maxDim/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// EncodeJPEG serialises img as JPEG.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Prepare decodes data and downscales it to maxDim.
func Prepare(data []byte, maxDim int) (image.Image, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Downscale(img, maxDim), nil
}
