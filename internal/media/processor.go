// Package media shrinks profile photos before they are written to object
// storage.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"mime"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 512
	defaultJPEGQuality  = 85

	// Provider avatars are small; anything bigger than this is refused.
	maxInputBytes = 10 << 20
)

var ErrUnsupportedImage = errors.New("media: unsupported image")

type Upload struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

type Result struct {
	Bytes       []byte
	ContentType string
	Resized     bool
}

// Extension returns the file extension matching the result's content type.
func (r *Result) Extension() string {
	return ExtensionFor(r.ContentType)
}

type Processor interface {
	Process(ctx context.Context, upload Upload, maxDimension int) (*Result, error)
}

// Resizer decodes JPEG, PNG, GIF and WebP input and re-encodes oversized
// images as JPEG or PNG scaled to fit a square bound.
type Resizer struct {
	maxDimension int
	jpegQuality  int
	scaler       draw.Scaler
}

func NewResizer(maxDimension int) *Resizer {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Resizer{
		maxDimension: maxDimension,
		jpegQuality:  defaultJPEGQuality,
		scaler:       draw.CatmullRom,
	}
}

func (p *Resizer) Process(ctx context.Context, upload Upload, maxDimension int) (*Result, error) {
	if upload.Reader == nil {
		return nil, fmt.Errorf("media: empty reader")
	}
	data, err := io.ReadAll(io.LimitReader(upload.Reader, maxInputBytes+1))
	if err != nil {
		return nil, fmt.Errorf("media: read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("media: empty image data")
	}
	if len(data) > maxInputBytes {
		return nil, fmt.Errorf("media: image exceeds %d bytes", maxInputBytes)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contentType := normalizeContentType(upload.ContentType, upload.FileName)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrUnsupportedImage, cfg.Width, cfg.Height)
	}
	if detected := contentTypeForFormat(format); detected != "" {
		contentType = detected
	}

	targetMax := maxDimension
	if targetMax <= 0 {
		targetMax = p.maxDimension
	}
	if cfg.Width <= targetMax && cfg.Height <= targetMax {
		return &Result{Bytes: data, ContentType: contentType, Resized: false}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	targetW, targetH := scaleToFit(cfg.Width, cfg.Height, targetMax)
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	p.scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	outType := outputContentType(contentType)
	switch outType {
	case "image/png":
		err = png.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.jpegQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("media: encode %s: %w", outType, err)
	}

	return &Result{
		Bytes:       buf.Bytes(),
		ContentType: outType,
		Resized:     true,
	}, nil
}

func scaleToFit(width, height, maxDim int) (int, int) {
	if width >= height {
		newH := int(math.Round(float64(height) * float64(maxDim) / float64(width)))
		return ensureMin(maxDim), ensureMin(newH)
	}
	newW := int(math.Round(float64(width) * float64(maxDim) / float64(height)))
	return ensureMin(newW), ensureMin(maxDim)
}

func ensureMin(value int) int {
	if value < 1 {
		return 1
	}
	return value
}

// There is no WebP or GIF encoder in the image stack, so those formats are
// written back out as PNG to keep transparency.
func outputContentType(contentType string) string {
	switch contentType {
	case "image/png", "image/webp", "image/gif":
		return "image/png"
	default:
		return "image/jpeg"
	}
}

func contentTypeForFormat(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	}
	return ""
}

func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ".img"
}

func normalizeContentType(value, fileName string) string {
	ct := strings.ToLower(strings.TrimSpace(value))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct != "" {
		if ct == "image/jpg" {
			return "image/jpeg"
		}
		return ct
	}
	ext := strings.ToLower(strings.TrimSpace(filepath.Ext(fileName)))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	}
	if ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return strings.ToLower(mt)
		}
	}
	return "image/jpeg"
}
