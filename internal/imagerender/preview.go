package imagerender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfmanager/internal/document"
	"github.com/local/pdfmanager/internal/metrics"
)

// DefaultScale is the thumbnail downscale factor.
const DefaultScale = 0.5

// PageRasterizer converts one page into a bitmap.
type PageRasterizer interface {
	Render(doc *document.Document, pageIndex int, scale float64) (image.Image, error)
}

// Thumbnail is one rendered page preview.
type Thumbnail struct {
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format Format `json:"format"`
	Data   []byte `json:"-"`
}

// DataURI returns the thumbnail as an inline image URI.
func (t Thumbnail) DataURI() string {
	return "data:image/" + string(t.Format) + ";base64," + EncodeToBase64(t.Data)
}

// MarshalJSON sends the image as a ready-to-use data URI under "src".
func (t Thumbnail) MarshalJSON() ([]byte, error) {
	type fields Thumbnail
	return json.Marshal(struct {
		fields
		Src string `json:"src"`
	}{fields(t), t.DataURI()})
}

// PreviewOptions configures a Previewer.
type PreviewOptions struct {
	Scale    float64
	MaxPages int
	Format   Format
	Quality  int
}

// Previewer renders thumbnails for a selection of pages.
type Previewer struct {
	r    PageRasterizer
	opts PreviewOptions
}

// NewPreviewer wraps r. Zero options fall back to scale 0.5, PNG output and
// no page cap.
func NewPreviewer(r PageRasterizer, opts PreviewOptions) *Previewer {
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	if opts.Format == "" {
		opts.Format = FormatPNG
	}
	return &Previewer{r: r, opts: opts}
}

// Preview renders the pages at indices, or every page when indices is nil.
// Indices outside the document are skipped.
func (p *Previewer) Preview(ctx context.Context, doc *document.Document, indices []int) ([]Thumbnail, error) {
	if indices == nil {
		indices = document.AllIndices(doc)
	}
	indices = document.ValidIndices(doc, indices)
	if p.opts.MaxPages > 0 && len(indices) > p.opts.MaxPages {
		log.Debug().Int("requested", len(indices)).Int("max", p.opts.MaxPages).Msg("preview truncated")
		indices = indices[:p.opts.MaxPages]
	}

	out := make([]Thumbnail, 0, len(indices))
	for _, i := range indices {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		img, err := p.r.Render(doc, i, p.opts.Scale)
		if err != nil {
			var re *document.RenderError
			if errors.As(err, &re) && re.Err == nil {
				continue
			}
			return out, err
		}
		data, err := Encode(img, p.opts.Format, p.opts.Quality)
		if err != nil {
			return out, err
		}
		b := img.Bounds()
		out = append(out, Thumbnail{
			Index:  i,
			Label:  fmt.Sprintf("Page %d", i+1),
			Width:  b.Dx(),
			Height: b.Dy(),
			Format: p.opts.Format,
			Data:   data,
		})
		metrics.IncThumbnail()
	}
	return out, nil
}

// FirstN returns indices 0..n-1, the preview selection used for merge
// results.
func FirstN(n int) []int {
	if n < 0 {
		n = 0
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
