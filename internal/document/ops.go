package document

// Extract builds a new Document holding source's pages at the given
// zero-based indices, in the given order. Indices outside
// [0, source.PageCount()) are dropped; duplicates yield duplicate pages.
// An empty result is a valid zero-page Document.
func Extract(source *Document, indices []int) *Document {
	out := &Document{pages: make([]Page, 0, len(indices))}
	for _, i := range indices {
		if !source.Valid(i) {
			continue
		}
		out.pages = append(out.pages, source.pages[i].clone())
	}
	return out
}

// Merge concatenates the pages of sources in order. Nil sources are skipped.
func Merge(sources []*Document) *Document {
	total := 0
	for _, s := range sources {
		total += s.PageCount()
	}
	out := &Document{pages: make([]Page, 0, total)}
	for _, s := range sources {
		if s == nil {
			continue
		}
		for _, p := range s.pages {
			out.pages = append(out.pages, p.clone())
		}
	}
	return out
}

// ValidIndices filters indices down to those addressing a page of d,
// keeping order and duplicates.
func ValidIndices(d *Document, indices []int) []int {
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if d.Valid(i) {
			out = append(out, i)
		}
	}
	return out
}

// AllIndices returns 0..PageCount()-1.
func AllIndices(d *Document) []int {
	out := make([]int, d.PageCount())
	for i := range out {
		out[i] = i
	}
	return out
}
