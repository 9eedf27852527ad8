// Package avatar normalizes uploaded profile pictures and stores them.
package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

const (
	// Size is the edge length of a stored avatar in pixels.
	Size = 250
	// MaxUploadBytes bounds an upload before decoding.
	MaxUploadBytes = 1 << 20
	// ContentType is the media type of every stored avatar.
	ContentType = "image/png"
)

var (
	// ErrUnsupportedImage is returned for uploads that are not a JPEG or PNG image.
	ErrUnsupportedImage = errors.New("please upload an image")
	// ErrTooLarge is returned for uploads above MaxUploadBytes.
	ErrTooLarge = errors.New("image exceeds 1MB")
	// ErrNotFound is returned when no avatar is stored.
	ErrNotFound = errors.New("avatar not found")
)

// Store persists normalized avatars keyed by account id.
type Store interface {
	Put(ctx context.Context, accountID string, image []byte) error
	Get(ctx context.Context, accountID string) ([]byte, error)
	Delete(ctx context.Context, accountID string) error
}

// CheckUpload validates the declared filename and sniffed content of an upload.
func CheckUpload(filename string, raw []byte) error {
	if len(raw) > MaxUploadBytes {
		return ErrTooLarge
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
	default:
		return ErrUnsupportedImage
	}
	switch http.DetectContentType(raw) {
	case "image/jpeg", "image/png":
		return nil
	default:
		return ErrUnsupportedImage
	}
}

// centerSquare is the largest square centred in r.
func centerSquare(r image.Rectangle) image.Rectangle {
	side := min(r.Dx(), r.Dy())
	x := r.Min.X + (r.Dx()-side)/2
	y := r.Min.Y + (r.Dy()-side)/2
	return image.Rect(x, y, x+side, y+side)
}

// Normalize decodes a JPEG or PNG image, crops it to its centred square, scales that to
// Size x Size and re-encodes it as PNG.
func Normalize(raw []byte) ([]byte, error) {
	if len(raw) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, centerSquare(src.Bounds()), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
