package filetype

import (
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// PDFMIME is the only upload type the service accepts.
const PDFMIME = "application/pdf"

// ErrUnsupportedType is returned for uploads that are not PDF documents.
var ErrUnsupportedType = errors.New("unsupported file type")

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	Supported   bool
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual type of data using magic bytes, not the filename
func (d *Detector) Detect(data []byte) *FileTypeInfo {
	mtype := mimetype.Detect(data)
	info := &FileTypeInfo{MIMEType: mtype.String(), Extension: mtype.Extension()}
	d.classify(info, mtype)
	return info
}

// DetectReader sniffs the head of r.
func (d *Detector) DetectReader(r io.Reader) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	info := &FileTypeInfo{MIMEType: mtype.String(), Extension: mtype.Extension()}
	d.classify(info, mtype)
	return info, nil
}

// RequirePDF returns ErrUnsupportedType (wrapped with the upload name and
// detected type) unless data is a PDF.
func (d *Detector) RequirePDF(name string, data []byte) error {
	info := d.Detect(data)
	if info.Supported {
		return nil
	}
	log.Debug().Str("name", name).Str("mime", info.MIMEType).Msg("rejected upload")
	return fmt.Errorf("%w: %q is %s", ErrUnsupportedType, name, info.Description)
}

// classify determines whether the type can be processed
func (d *Detector) classify(info *FileTypeInfo, mtype *mimetype.MIME) {
	switch {
	case mtype.Is(PDFMIME):
		info.Supported = true
		info.Description = "PDF document"
	case mtype.Is("application/octet-stream"):
		info.Description = "unrecognized binary data"
	default:
		info.Description = fmt.Sprintf("%s, not a PDF", info.MIMEType)
	}
}
