package utils

import (
	"bytes"
	"image/jpeg"
)

// JpegDimensions reads the pixel width and height from an encoded JPEG
// without decoding the full image.
func JpegDimensions(jpegBytes []byte) (int, int, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(jpegBytes))
	if err != nil {
		return 0, 0, err
	}

	return cfg.Width, cfg.Height, nil
}
