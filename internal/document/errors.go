package document

import "fmt"

// DecodeError reports bytes that could not be read as a PDF document.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("decode pdf: %v", e.Err)
	}
	return fmt.Sprintf("decode pdf %q: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RenderError reports a page that could not be rasterized, typically
// because the index is out of range.
type RenderError struct {
	Page      int
	PageCount int
	Err       error
}

func (e *RenderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("render page %d: out of range (document has %d pages)", e.Page, e.PageCount)
	}
	return fmt.Sprintf("render page %d: %v", e.Page, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
