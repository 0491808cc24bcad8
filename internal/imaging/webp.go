// Package imaging converts generated images into their stored form.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	_ "golang.org/x/image/webp"
)

var (
	// ErrDecode is returned when the source bytes are not a decodable image.
	ErrDecode = errors.New("imaging: decode failed")
	// ErrEncode is returned when WebP encoding fails.
	ErrEncode = errors.New("imaging: encode failed")
)

// Extension is the file extension of a transcoded image, dot included.
type Extension string

const (
	ExtWebP Extension = ".webp"
	ExtPNG  Extension = ".png"
)

// ContentType returns the MIME type for the extension.
func (e Extension) ContentType() string {
	if e == ExtWebP {
		return "image/webp"
	}
	return "image/png"
}

// Transcode re-encodes data as lossless WebP when format is "webp"
// (case-insensitive). Any other format returns data unchanged with a
// .png extension; the bytes are not sniffed.
func Transcode(data []byte, format string) ([]byte, Extension, error) {
	if !strings.EqualFold(format, "webp") {
		return data, ExtPNG, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	buf := new(bytes.Buffer)
	// nil options select the lossless VP8L encoder.
	if err := nativewebp.Encode(buf, img, nil); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), ExtWebP, nil
}
