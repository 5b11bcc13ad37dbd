// Package pdfcodec converts between PDF bytes and document.Document using
// pdfcpu. Decoding splits the file into self-contained single-page PDFs;
// encoding stitches pages back into one file.
package pdfcodec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfmanager/internal/document"
)

var errEmptyInput = errors.New("empty input")

// Codec is safe for concurrent use. pdfcpu mutates its configuration
// during api calls, so every call gets a fresh one.
type Codec struct {
	optimize bool
}

// Options configures a Codec.
type Options struct {
	// Optimize dedupes shared resources (fonts, images) in encoded output.
	Optimize bool
}

func init() {
	// pdfcpu would otherwise create a config dir under the user's home.
	api.DisableConfigDir()
}

// New returns a Codec with relaxed validation, which accepts the mildly
// broken files most real-world producers emit.
func New(opts Options) *Codec {
	return &Codec{optimize: opts.Optimize}
}

func (c *Codec) config() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Decode reads data into a Document. name is only used in errors.
// Malformed input yields *document.DecodeError.
func (c *Codec) Decode(name string, data []byte) (doc *document.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &document.DecodeError{Name: name, Err: fmt.Errorf("pdfcpu panic: %v", r)}
		}
	}()

	if len(data) == 0 {
		return nil, &document.DecodeError{Name: name, Err: errEmptyInput}
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), c.config())
	if err != nil {
		return nil, &document.DecodeError{Name: name, Err: err}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &document.DecodeError{Name: name, Err: err}
	}
	if ctx.PageCount == 0 {
		return document.New(), nil
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, &document.DecodeError{Name: name, Err: err}
	}

	pages := make([]document.Page, 0, ctx.PageCount)
	for nr := 1; nr <= ctx.PageCount; nr++ {
		raw, err := extractPage(ctx, nr)
		if err != nil {
			return nil, &document.DecodeError{Name: name, Err: fmt.Errorf("page %d: %w", nr, err)}
		}
		pages = append(pages, document.NewPage(raw, nr))
	}

	log.Debug().Str("name", name).Int("pages", len(pages)).Int("bytes", len(data)).Msg("decoded pdf")
	return document.New(pages...), nil
}

func extractPage(ctx *model.Context, nr int) ([]byte, error) {
	one, err := pdfcpu.ExtractPages(ctx, []int{nr}, false)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := api.WriteContext(one, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes d as a single PDF. Pages are copied in order; a zero-page
// Document encodes to a PDF with an empty page tree.
func (c *Codec) Encode(d *document.Document) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("encode pdf: pdfcpu panic: %v", r)
		}
	}()

	conf := c.config()
	dest, err := pdfcpu.CreateContextWithXRefTable(conf, types.PaperSize["A4"])
	if err != nil {
		return nil, fmt.Errorf("encode pdf: %w", err)
	}

	for i, p := range d.Pages() {
		src, err := api.ReadContext(bytes.NewReader(p.Bytes()), conf)
		if err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		if err := src.EnsurePageCount(); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		if err := pdfcpu.AddPages(src, dest, []int{1}, false); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := api.WriteContext(dest, &buf); err != nil {
		return nil, fmt.Errorf("encode pdf: %w", err)
	}

	if c.optimize && d.PageCount() > 1 {
		return c.optimized(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

// optimized merges duplicate resources that page-by-page copying leaves
// behind. Falls back to the unoptimized bytes on failure.
func (c *Codec) optimized(raw []byte) []byte {
	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(raw), &buf, c.config()); err != nil {
		log.Warn().Err(err).Msg("pdf optimize failed; keeping unoptimized output")
		return raw
	}
	log.Debug().Int("before", len(raw)).Int("after", buf.Len()).Msg("optimized pdf")
	return buf.Bytes()
}
