// Package photo converts photo evidence between binary files and the
// compressed data-URI form kept in the offline queue.
package photo

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/eparkir/setoran/internal/apperr"
	"github.com/eparkir/setoran/internal/models"
)

const (
	// MaxDimension bounds the longer side of a compressed photo, in pixels.
	MaxDimension = 800
	// JPEGQuality is the fixed lossy re-encode quality factor.
	JPEGQuality = 70
)

// Codec compresses photos into size-bounded data URIs and decodes them back.
type Codec struct {
	maxDim  int
	quality int
}

// NewCodec creates a Codec with the standard bounds.
func NewCodec() *Codec {
	return &Codec{maxDim: MaxDimension, quality: JPEGQuality}
}

// Compress decodes the image from r, downscales it proportionally so the
// longer dimension does not exceed the bound, re-encodes it as JPEG at the
// fixed quality and returns the result as a base64 data URI.
func (c *Codec) Compress(r io.Reader) (string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", apperr.Wrap(apperr.ErrImageDecode, "failed to decode image", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > c.maxDim || bounds.Dy() > c.maxDim {
		img = imaging.Fit(img, c.maxDim, c.maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
		return "", fmt.Errorf("failed to encode photo: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

var mimeHeader = regexp.MustCompile(`^data:([a-z]+/[a-z0-9.+-]+);base64$`)

// Decode reconstructs the binary photo from a data URI. The filename's
// extension is normalized to match the encoded format.
//
// Malformed input yields an explicit empty photo alongside a
// MALFORMED_ENCODING error, so callers can submit without evidence instead
// of aborting the whole item.
func (c *Codec) Decode(dataURI, filename string) (models.PhotoFile, error) {
	empty := models.PhotoFile{Name: normalizeName(filename, "image/jpeg")}

	parts := strings.SplitN(dataURI, ",", 2)
	if len(parts) != 2 {
		return empty, apperr.New(apperr.ErrMalformedEncoding, "data URI has no comma separator")
	}

	m := mimeHeader.FindStringSubmatch(parts[0])
	if m == nil {
		return empty, apperr.New(apperr.ErrMalformedEncoding, "data URI has no MIME type header")
	}
	mime := m[1]

	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return empty, apperr.Wrap(apperr.ErrMalformedEncoding, "invalid base64 payload", err)
	}

	return models.PhotoFile{
		Name: normalizeName(filename, mime),
		MIME: mime,
		Data: data,
	}, nil
}

var mimeExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func normalizeName(filename, mime string) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "photo"
	}
	ext, ok := mimeExt[mime]
	if !ok {
		ext = ".jpg"
	}
	return stem + ext
}
