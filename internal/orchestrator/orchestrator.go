// Package orchestrator runs one user action (split, merge, preview) from
// uploaded bytes to a stored, downloadable artifact.
package orchestrator

import (
    "context"
    "errors"
    "time"

    "github.com/rs/zerolog"

    "github.com/local/pdfmanager/internal/artifact"
    "github.com/local/pdfmanager/internal/document"
    "github.com/local/pdfmanager/internal/imagerender"
    "github.com/local/pdfmanager/internal/logger"
    "github.com/local/pdfmanager/internal/metrics"
)

const (
    KindSplit   = "split"
    KindMerge   = "merge"
    KindPreview = "preview"

    SplitFileName = "split.pdf"
    MergeFileName = "merged.pdf"

    // mergePreviewPages caps the post-merge preview at the first few pages.
    mergePreviewPages = 5
)

var (
    ErrEmptySelection = errors.New("select at least one page before splitting the PDF")
    ErrNoFiles        = errors.New("upload at least one PDF file")
    ErrExportDisabled = errors.New("export is not configured")
)

type Codec interface {
    Decode(name string, data []byte) (*document.Document, error)
    Encode(d *document.Document) ([]byte, error)
}

type Previewer interface {
    Preview(ctx context.Context, doc *document.Document, indices []int) ([]imagerender.Thumbnail, error)
}

type TypeChecker interface {
    RequirePDF(name string, data []byte) error
}

type Exporter interface {
    Export(ctx context.Context, a artifact.Artifact) (string, error)
}

type Limiter interface {
    Acquire(ctx context.Context, kind string) (func(), error)
}

type Dependencies struct {
    Codec     Codec
    Previewer Previewer
    Types     TypeChecker
    Artifacts artifact.Store
    Exporter  Exporter // optional
    Limiter   Limiter  // optional
}

type Orchestrator struct {
    deps Dependencies
    log  zerolog.Logger
}

func New(deps Dependencies) *Orchestrator {
    return &Orchestrator{deps: deps, log: logger.Component("orchestrator")}
}

// Upload is one file received from the browser.
type Upload struct {
    Name string
    Data []byte
}

// Result describes a finished split or merge.
type Result struct {
    Artifact     artifact.Artifact       `json:"artifact"`
    SourcePages  int                     `json:"source_pages"`
    Preview      []imagerender.Thumbnail `json:"preview"`
    PreviewError string                  `json:"preview_error,omitempty"`
    Message      string                  `json:"message"`
}

// DocumentPreview is the thumbnail set for one document.
type DocumentPreview struct {
    Name       string                  `json:"name"`
    PageCount  int                     `json:"page_count"`
    Thumbnails []imagerender.Thumbnail `json:"thumbnails"`
    Error      string                  `json:"error,omitempty"`
}

// ExportsEnabled reports whether Export can succeed.
func (o *Orchestrator) ExportsEnabled() bool { return o.deps.Exporter != nil }

// begin reserves a limiter slot and returns a func that releases it and
// records the operation outcome.
func (o *Orchestrator) begin(ctx context.Context, kind string) (func(err *error), error) {
    release := func() {}
    if o.deps.Limiter != nil {
        r, err := o.deps.Limiter.Acquire(ctx, kind)
        if err != nil {
            metrics.ObserveOperation(kind, "rejected", 0)
            o.log.Warn().Err(err).Str("kind", kind).Msg("operation rejected")
            return nil, err
        }
        release = r
    }
    start := time.Now()
    return func(errp *error) {
        release()
        result := "ok"
        if errp != nil && *errp != nil {
            result = "error"
        }
        metrics.ObserveOperation(kind, result, time.Since(start))
    }, nil
}

// decode checks the upload type and decodes it.
func (o *Orchestrator) decode(up Upload) (*document.Document, error) {
    if err := o.deps.Types.RequirePDF(up.Name, up.Data); err != nil {
        return nil, err
    }
    doc, err := o.deps.Codec.Decode(up.Name, up.Data)
    if err != nil {
        var de *document.DecodeError
        if errors.As(err, &de) {
            metrics.IncDecodeFailure()
        }
        return nil, err
    }
    return doc, nil
}

// store encodes doc and keeps it as a downloadable artifact.
func (o *Orchestrator) store(ctx context.Context, kind, name string, doc *document.Document) (artifact.Artifact, error) {
    data, err := o.deps.Codec.Encode(doc)
    if err != nil {
        return artifact.Artifact{}, err
    }
    return o.deps.Artifacts.Put(ctx, artifact.Artifact{
        Name:      name,
        Kind:      kind,
        PageCount: doc.PageCount(),
        Data:      data,
    })
}

// preview renders thumbnails without failing the surrounding operation.
func (o *Orchestrator) preview(ctx context.Context, doc *document.Document, indices []int) ([]imagerender.Thumbnail, string) {
    thumbs, err := o.deps.Previewer.Preview(ctx, doc, indices)
    if err != nil {
        o.log.Warn().Err(err).Int("pages", doc.PageCount()).Msg("preview failed")
        return thumbs, "preview unavailable: " + err.Error()
    }
    return thumbs, ""
}
