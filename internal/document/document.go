// Package document holds the in-memory page model and the two operations
// over it: page extraction and document merging.
//
// A Document is an ordered list of Pages. Each Page is an immutable,
// self-contained single-page PDF, so moving pages between documents is a
// slice operation and never touches the source.
package document

import "bytes"

// Page is one page of a Document.
type Page struct {
	raw    []byte
	number int
}

// NewPage wraps a single-page PDF. number is the 1-based position the page
// had in the file it was decoded from (0 if unknown).
func NewPage(raw []byte, number int) Page {
	return Page{raw: bytes.Clone(raw), number: number}
}

// Bytes returns a copy of the page's single-page PDF.
func (p Page) Bytes() []byte { return bytes.Clone(p.raw) }

// Len is the encoded size of the page in bytes.
func (p Page) Len() int { return len(p.raw) }

// SourceNumber is the 1-based page number in the originating file.
func (p Page) SourceNumber() int { return p.number }

// Equal reports whether two pages carry the same content.
func (p Page) Equal(o Page) bool { return bytes.Equal(p.raw, o.raw) }

func (p Page) clone() Page {
	return Page{raw: bytes.Clone(p.raw), number: p.number}
}

// Document is an ordered sequence of pages.
type Document struct {
	pages []Page
}

// New builds a Document from pages, taking independent copies.
func New(pages ...Page) *Document {
	d := &Document{pages: make([]Page, 0, len(pages))}
	for _, p := range pages {
		d.pages = append(d.pages, p.clone())
	}
	return d
}

// PageCount returns the number of pages. A nil Document has none.
func (d *Document) PageCount() int {
	if d == nil {
		return 0
	}
	return len(d.pages)
}

// Page returns the page at zero-based index i.
func (d *Document) Page(i int) (Page, bool) {
	if !d.Valid(i) {
		return Page{}, false
	}
	return d.pages[i], true
}

// Pages returns a copy of the page list.
func (d *Document) Pages() []Page {
	if d == nil {
		return nil
	}
	out := make([]Page, len(d.pages))
	copy(out, d.pages)
	return out
}

// SetPage replaces the page at index i. Returns false if i is out of range.
func (d *Document) SetPage(i int, p Page) bool {
	if !d.Valid(i) {
		return false
	}
	d.pages[i] = p.clone()
	return true
}

// Valid reports whether i addresses a page of d.
func (d *Document) Valid(i int) bool {
	return i >= 0 && i < d.PageCount()
}

// Size is the sum of the encoded page sizes.
func (d *Document) Size() int {
	n := 0
	for _, p := range d.Pages() {
		n += p.Len()
	}
	return n
}
