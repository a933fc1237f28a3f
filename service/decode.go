package service

import (
	"image"
	_ "image/gif"  // register GIF decoding
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

func init() {
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
	image.RegisterFormat("webp", "RIFF", webp.Decode, webp.DecodeConfig)
}

// decodeRaster decodes an uploaded test image in any format the
// standard library or golang.org/x/image knows about. Raster decoding
// happens only here, at the HTTP boundary — the core pipeline never
// touches pixels.
func decodeRaster(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}
