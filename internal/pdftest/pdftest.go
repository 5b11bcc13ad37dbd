// Package pdftest builds small PDF fixtures in memory and reads page
// geometry of encoded PDFs. Each fixture page gets a distinct MediaBox so
// tests can tell pages apart after a decode/encode round trip.
package pdftest

import (
	"errors"
	"fmt"
	"strings"
)

// Size is a page size in PDF points.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SizeFor returns the fixture size used for the i-th (zero-based) page.
func SizeFor(i int) Size { return Size{Width: 200 + 10*i, Height: 300} }

// Pages builds an n-page PDF whose page i has size SizeFor(i).
func Pages(n int) []byte {
	sizes := make([]Size, n)
	for i := range sizes {
		sizes[i] = SizeFor(i)
	}
	return Build(sizes...)
}

// Build writes a minimal valid PDF with one page per size. Every page
// draws a frame and its 1-based number in Helvetica.
func Build(sizes ...Size) []byte {
	n := len(sizes)
	// objects: 1 catalog, 2 pages, 3 font, then (page, content) pairs
	total := 3 + 2*n
	offsets := make([]int, total+1)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, n)
	for i := range sizes {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), n)

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	for i, s := range sizes {
		pageObj := 4 + 2*i
		contentObj := pageObj + 1

		offsets[pageObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>\nendobj\n",
			pageObj, s.Width, s.Height, contentObj)

		stream := fmt.Sprintf("10 10 %d %d re S\nBT\n/F1 24 Tf\n40 %d Td\n(Page %d) Tj\nET", s.Width-20, s.Height-20, s.Height/2, i+1)
		offsets[contentObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(stream), stream)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", total+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xref)
	return []byte(b.String())
}

// Doc abstracts an opened PDF for geometry probing.
type Doc interface {
	NumPage() int
	PageSize(i int) (Size, error)
	Close() error
}

// Opener opens PDF bytes into a Doc.
type Opener interface {
	Open(data []byte) (Doc, error)
}

// defaultOpener is provided in doc_open_fitz.go using go-fitz.
var defaultOpener Opener

// setDefaultOpener allows swapping the default opener, useful for alternate backends.
func setDefaultOpener(o Opener) { defaultOpener = o }

// PageSizes opens data and returns the size of every page in order.
func PageSizes(data []byte) ([]Size, error) {
	if defaultOpener == nil {
		return nil, errors.New("no PDF opener configured")
	}
	d, err := defaultOpener.Open(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer d.Close()

	out := make([]Size, 0, d.NumPage())
	for i := 0; i < d.NumPage(); i++ {
		s, err := d.PageSize(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		out = append(out, s)
	}
	return out, nil
}
