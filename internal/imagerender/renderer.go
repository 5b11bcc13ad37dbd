package imagerender

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfmanager/internal/document"
)

// ColorMode defines the color mode for rendering
type ColorMode string

const (
	ColorRGB  ColorMode = "rgb"
	ColorGray ColorMode = "gray"
)

// Format is the thumbnail image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// baseDPI is the resolution at which scale 1.0 renders one pixel per point.
const baseDPI = 72.0

// Rasterizer renders document pages with go-fitz (MuPDF).
type Rasterizer struct {
	Color ColorMode
}

// NewRasterizer creates a go-fitz based rasterizer
func NewRasterizer(color ColorMode) *Rasterizer {
	if color == "" {
		color = ColorRGB
	}
	return &Rasterizer{Color: color}
}

// Render rasterizes the page at zero-based pageIndex. scale 1.0 is 72 DPI.
// An out-of-range index yields *document.RenderError.
func (r *Rasterizer) Render(doc *document.Document, pageIndex int, scale float64) (image.Image, error) {
	page, ok := doc.Page(pageIndex)
	if !ok {
		return nil, &document.RenderError{Page: pageIndex, PageCount: doc.PageCount()}
	}
	if scale <= 0 {
		scale = 1
	}

	f, err := fitz.NewFromMemory(page.Bytes())
	if err != nil {
		return nil, &document.RenderError{Page: pageIndex, PageCount: doc.PageCount(), Err: fmt.Errorf("failed to open page: %w", err)}
	}
	defer f.Close()

	img, err := f.ImageDPI(0, baseDPI*scale)
	if err != nil {
		return nil, &document.RenderError{Page: pageIndex, PageCount: doc.PageCount(), Err: err}
	}

	bounds := img.Bounds()
	if r.Color == ColorGray {
		grayImg := image.NewGray(bounds)
		draw.Draw(grayImg, bounds, img, image.Point{}, draw.Src)
		log.Debug().
			Int("page", pageIndex+1).
			Int("width", bounds.Dx()).
			Int("height", bounds.Dy()).
			Str("color", "grayscale").
			Msg("rendered page to grayscale")
		return grayImg, nil
	}

	log.Debug().
		Int("page", pageIndex+1).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Str("color", "rgb").
		Msg("rendered page to RGB")
	return img, nil
}

// Encode writes img in the given format. quality applies to JPEG only.
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if quality <= 0 || quality > 100 {
			quality = 85
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode PNG: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// EncodeToBase64 converts binary data to base64 string
func EncodeToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// blankPDF is a blank single-page document used to check that MuPDF works.
const blankPDF = "%PDF-1.4\n" +
	"1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
	"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n" +
	"3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 20 20]>>endobj\n" +
	"trailer<</Root 1 0 R>>\n%%EOF\n"

// SelfCheck opens and renders a tiny built-in page.
func SelfCheck() error {
	f, err := fitz.NewFromMemory([]byte(blankPDF))
	if err != nil {
		return fmt.Errorf("mupdf open: %w", err)
	}
	defer f.Close()
	if f.NumPage() != 1 {
		return fmt.Errorf("mupdf self-check: unexpected page count %d", f.NumPage())
	}
	if _, err := f.ImageDPI(0, baseDPI); err != nil {
		return fmt.Errorf("mupdf render: %w", err)
	}
	return nil
}
