package orchestrator

import (
    "context"
    "fmt"

    "github.com/local/pdfmanager/internal/artifact"
    "github.com/local/pdfmanager/internal/document"
    "github.com/local/pdfmanager/internal/imagerender"
    "github.com/local/pdfmanager/internal/metrics"
    "github.com/local/pdfmanager/internal/selection"
)

// Split keeps the selected pages of up, in selection order, and stores the
// result as split.pdf. The preview covers every page of the result.
func (o *Orchestrator) Split(ctx context.Context, up Upload, req selection.Request) (res Result, err error) {
    done, err := o.begin(ctx, KindSplit)
    if err != nil {
        return Result{}, err
    }
    defer done(&err)

    doc, err := o.decode(up)
    if err != nil {
        return Result{}, err
    }
    indices, err := selection.Resolve(req, doc.PageCount())
    if err != nil {
        return Result{}, err
    }
    if len(document.ValidIndices(doc, indices)) == 0 {
        return Result{}, ErrEmptySelection
    }

    out := document.Extract(doc, indices)
    a, err := o.store(ctx, KindSplit, SplitFileName, out)
    if err != nil {
        return Result{}, fmt.Errorf("split %q: %w", up.Name, err)
    }
    metrics.AddPages(KindSplit, out.PageCount())
    o.log.Info().
        Str("source", up.Name).
        Int("source_pages", doc.PageCount()).
        Int("pages", out.PageCount()).
        Int("page_bytes", out.Size()).
        Str("artifact", a.ID).
        Msg("pdf split")

    thumbs, perr := o.preview(ctx, out, nil)
    return Result{
        Artifact:     a,
        SourcePages:  doc.PageCount(),
        Preview:      thumbs,
        PreviewError: perr,
        Message:      "PDF split successfully",
    }, nil
}

// Merge concatenates uploads in order and stores the result as merged.pdf.
// Any upload that fails to decode aborts the merge.
func (o *Orchestrator) Merge(ctx context.Context, ups []Upload) (res Result, err error) {
    if len(ups) == 0 {
        return Result{}, ErrNoFiles
    }
    done, err := o.begin(ctx, KindMerge)
    if err != nil {
        return Result{}, err
    }
    defer done(&err)

    docs := make([]*document.Document, 0, len(ups))
    total := 0
    for _, up := range ups {
        if err := ctx.Err(); err != nil {
            return Result{}, err
        }
        doc, err := o.decode(up)
        if err != nil {
            return Result{}, err
        }
        total += doc.PageCount()
        docs = append(docs, doc)
    }

    out := document.Merge(docs)
    a, err := o.store(ctx, KindMerge, MergeFileName, out)
    if err != nil {
        return Result{}, fmt.Errorf("merge: %w", err)
    }
    metrics.AddPages(KindMerge, out.PageCount())
    o.log.Info().
        Int("files", len(ups)).
        Int("pages", out.PageCount()).
        Int("page_bytes", out.Size()).
        Str("artifact", a.ID).
        Msg("pdfs merged")

    thumbs, perr := o.preview(ctx, out, imagerender.FirstN(min(mergePreviewPages, len(ups))))
    return Result{
        Artifact:     a,
        SourcePages:  total,
        Preview:      thumbs,
        PreviewError: perr,
        Message:      "PDFs merged successfully",
    }, nil
}

// Preview renders thumbnails of up. An empty pages string selects every
// page; otherwise it is a 1-based list such as "1,3,5-7".
func (o *Orchestrator) Preview(ctx context.Context, up Upload, pages string) (p DocumentPreview, err error) {
    done, err := o.begin(ctx, KindPreview)
    if err != nil {
        return DocumentPreview{}, err
    }
    defer done(&err)

    doc, err := o.decode(up)
    if err != nil {
        return DocumentPreview{}, err
    }
    var indices []int
    if pages != "" {
        if indices, err = selection.ParsePages(pages, doc.PageCount()); err != nil {
            return DocumentPreview{}, err
        }
    }
    thumbs, err := o.deps.Previewer.Preview(ctx, doc, indices)
    if err != nil {
        return DocumentPreview{}, fmt.Errorf("preview %q: %w", up.Name, err)
    }
    return DocumentPreview{Name: up.Name, PageCount: doc.PageCount(), Thumbnails: thumbs}, nil
}

// UploadPreviews renders the first page of each upload for the merge tab.
// Failures are reported per file.
func (o *Orchestrator) UploadPreviews(ctx context.Context, ups []Upload) (out []DocumentPreview, err error) {
    if len(ups) == 0 {
        return nil, ErrNoFiles
    }
    done, err := o.begin(ctx, KindPreview)
    if err != nil {
        return nil, err
    }
    defer done(&err)

    out = make([]DocumentPreview, 0, len(ups))
    for _, up := range ups {
        if err := ctx.Err(); err != nil {
            return out, err
        }
        p := DocumentPreview{Name: up.Name}
        doc, derr := o.decode(up)
        if derr != nil {
            p.Error = derr.Error()
            out = append(out, p)
            continue
        }
        p.PageCount = doc.PageCount()
        p.Thumbnails, p.Error = o.preview(ctx, doc, imagerender.FirstN(1))
        out = append(out, p)
    }
    return out, nil
}

// ArtifactPreview renders every page of a stored result.
func (o *Orchestrator) ArtifactPreview(ctx context.Context, id string) (p DocumentPreview, err error) {
    a, err := o.Download(ctx, id)
    if err != nil {
        return DocumentPreview{}, err
    }
    done, err := o.begin(ctx, KindPreview)
    if err != nil {
        return DocumentPreview{}, err
    }
    defer done(&err)

    doc, err := o.deps.Codec.Decode(a.Name, a.Data)
    if err != nil {
        return DocumentPreview{}, err
    }
    thumbs, err := o.deps.Previewer.Preview(ctx, doc, nil)
    if err != nil {
        return DocumentPreview{}, err
    }
    return DocumentPreview{Name: a.Name, PageCount: doc.PageCount(), Thumbnails: thumbs}, nil
}

// Download returns a stored artifact including its bytes.
func (o *Orchestrator) Download(ctx context.Context, id string) (artifact.Artifact, error) {
    if !artifact.ValidID(id) {
        return artifact.Artifact{}, artifact.ErrNotFound
    }
    return o.deps.Artifacts.Get(ctx, id)
}

// Export copies a stored artifact to the configured bucket.
func (o *Orchestrator) Export(ctx context.Context, id string) (string, error) {
    if o.deps.Exporter == nil {
        return "", ErrExportDisabled
    }
    a, err := o.Download(ctx, id)
    if err != nil {
        return "", err
    }
    url, err := o.deps.Exporter.Export(ctx, a)
    if err != nil {
        return "", fmt.Errorf("export %s: %w", id, err)
    }
    o.log.Info().Str("artifact", id).Str("url", url).Msg("artifact exported")
    return url, nil
}
