package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// DefaultMaxImageDimension caps the longest side of an image handed to the
// recognizer. Larger images are scaled down first.
const DefaultMaxImageDimension = 4000

// Recognizer turns a PNG image into text.
type Recognizer interface {
	Recognize(ctx context.Context, png []byte) (string, error)
}

// TesseractRecognizer runs the tesseract command line tool.
type TesseractRecognizer struct {
	// Path is the tesseract binary. Empty means "tesseract" on PATH.
	Path string

	// Language is the tesseract language code. Empty means "eng".
	Language string
}

// Recognize pipes img through tesseract and returns its stdout.
func (t TesseractRecognizer) Recognize(ctx context.Context, img []byte) (string, error) {
	bin := t.Path
	if bin == "" {
		bin = "tesseract"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRecognizerUnavailable, err)
	}

	lang := t.Language
	if lang == "" {
		lang = "eng"
	}

	cmd := exec.CommandContext(ctx, path, "stdin", "stdout", "-l", lang) //nolint:gosec // binary is operator configured
	cmd.Stdin = bytes.NewReader(img)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// OCRExtractor extracts text from raster images.
type OCRExtractor struct {
	recognizer   Recognizer
	maxDimension int
	logger       *slog.Logger
}

// OCROption configures an OCRExtractor.
type OCROption func(*OCRExtractor)

// WithMaxImageDimension sets the longest side images are scaled down to.
func WithMaxImageDimension(n int) OCROption {
	return func(e *OCRExtractor) {
		if n > 0 {
			e.maxDimension = n
		}
	}
}

// WithOCRLogger sets the logger.
func WithOCRLogger(logger *slog.Logger) OCROption {
	return func(e *OCRExtractor) {
		e.logger = logger
	}
}

// NewOCRExtractor creates an OCRExtractor. A nil recognizer uses tesseract.
func NewOCRExtractor(r Recognizer, opts ...OCROption) *OCRExtractor {
	if r == nil {
		r = TesseractRecognizer{}
	}
	e := &OCRExtractor{
		recognizer:   r,
		maxDimension: DefaultMaxImageDimension,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract decodes body, rotates it upright according to its EXIF
// orientation and runs the recognizer. The text is reduced to printable
// ASCII and trimmed.
func (e *OCRExtractor) Extract(ctx context.Context, body []byte) (*Result, error) {
	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, ErrUnsupportedImage)
		}
		return nil, fmt.Errorf("%w: decode image: %w", ErrExtractionFailed, err)
	}

	if format == "jpeg" || format == "tiff" {
		if o := exifOrientation(body); o > 1 {
			e.logger.Debug("applying EXIF orientation", "orientation", o)
			img = applyOrientation(img, o)
		}
	}

	flat := flatten(img, e.maxDimension)

	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return nil, fmt.Errorf("%w: encode png: %w", ErrExtractionFailed, err)
	}

	text, err := e.recognizer.Recognize(ctx, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	return &Result{Text: strings.TrimSpace(FilterPrintableASCII(text))}, nil
}

// flatten composites img over white into an RGBA image, scaling it down so
// that its longest side is at most maxDim.
func flatten(img image.Image, maxDim int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if longest := max(w, h); maxDim > 0 && longest > maxDim {
		w = w * maxDim / longest
		h = h * maxDim / longest
	}
	w, h = max(w, 1), max(h, 1)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	}
	return dst
}
