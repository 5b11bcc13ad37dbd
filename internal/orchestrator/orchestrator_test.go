package orchestrator

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/local/pdfmanager/internal/artifact"
    "github.com/local/pdfmanager/internal/document"
    "github.com/local/pdfmanager/internal/filetype"
    "github.com/local/pdfmanager/internal/imagerender"
    "github.com/local/pdfmanager/internal/limiter"
    "github.com/local/pdfmanager/internal/pdfcodec"
    "github.com/local/pdfmanager/internal/pdftest"
    "github.com/local/pdfmanager/internal/selection"
)

type fakeExporter struct {
    got []artifact.Artifact
    err error
}

func (f *fakeExporter) Export(_ context.Context, a artifact.Artifact) (string, error) {
    if f.err != nil {
        return "", f.err
    }
    f.got = append(f.got, a)
    return "s3://bucket/" + a.ID, nil
}

func newTestOrchestrator(t *testing.T, exp Exporter) (*Orchestrator, *artifact.MemoryStore) {
    t.Helper()
    store := artifact.NewMemoryStore(time.Minute, time.Hour)
    t.Cleanup(func() { _ = store.Close() })
    deps := Dependencies{
        Codec:     pdfcodec.New(pdfcodec.Options{}),
        Previewer: imagerender.NewPreviewer(imagerender.NewRasterizer(imagerender.ColorRGB), imagerender.PreviewOptions{MaxPages: 50}),
        Types:     filetype.New(),
        Artifacts: store,
        Limiter:   limiter.New(limiter.Options{MaxInflight: 2}),
    }
    if exp != nil {
        deps.Exporter = exp
    }
    return New(deps), store
}

func upload(name string, pages int) Upload {
    return Upload{Name: name, Data: pdftest.Pages(pages)}
}

func widths(t *testing.T, raw []byte) []int {
    t.Helper()
    sizes, err := pdftest.PageSizes(raw)
    require.NoError(t, err)
    out := make([]int, len(sizes))
    for i, s := range sizes {
        out[i] = s.Width
    }
    return out
}

func TestSplit_PagesMode(t *testing.T) {
    o, _ := newTestOrchestrator(t, nil)
    ctx := context.Background()

    res, err := o.Split(ctx, upload("in.pdf", 6), selection.Request{Mode: selection.ModePages, Pages: "5,2,2,40"})
    require.NoError(t, err)
    assert.Equal(t, SplitFileName, res.Artifact.Name)
    assert.Equal(t, KindSplit, res.Artifact.Kind)
    assert.Equal(t, 3, res.Artifact.PageCount)
    assert.Equal(t, 6, res.SourcePages)
    require.Len(t, res.Preview, 3)
    assert.Equal(t, "Page 1", res.Preview[0].Label)
    assert.Empty(t, res.PreviewError)

    a, err := o.Download(ctx, res.Artifact.ID)
    require.NoError(t, err)
    assert.Equal(t, []int{240, 210, 210}, widths(t, a.Data))
}

func TestSplit_DefaultRange(t *testing.T) {
    o, _ := newTestOrchestrator(t, nil)
    res, err := o.Split(context.Background(), upload("in.pdf", 8), selection.Request{})
    require.NoError(t, err)
    assert.Equal(t, 5, res.Artifact.PageCount)
}

func TestSplit_EmptySelection(t *testing.T) {
    o, _ := newTestOrchestrator(t, nil)
    _, err := o.Split(context.Background(), upload("in.pdf", 2), selection.Request{Mode: selection.ModePages, Pages: "9"})
    assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestSplit_Rejections(t *testing.T) {
    o, _ := newTestOrchestrator(t, nil)
    ctx := context.Background()

    _, err := o.Split(ctx, Upload{Name: "notes.txt", Data: []byte("plain text")}, selection.Request{})
    assert.ErrorIs(t, err, filetype.ErrUnsupportedType)

    _, err = o.Split(ctx, upload("in.pdf", 2), selection.Request{Mode: selection.ModePages, Pages: "x"})
    assert.ErrorIs(t, err, selection.ErrInvalidSelection)

    _, err = o.Split(ctx, Upload{Name: "broken.pdf", Data: pdftest.Pages(3)[:60]}, selection.Request{})
    var de *document.DecodeError
    require.True(t, errors.As(err, &de))
    assert.Equal(t, "broken.pdf", de.Name)
}

func TestMerge_ConcatenatesInOrder(t *testing.T) {
    o, _ := newTestOrchestrator(t, nil)
    ctx := context.Background()

    res, err := o.Merge(ctx, []Upload{upload("a.pdf", 2), upload("b.pdf", 3)})
    require.NoError(t, err)
    assert.Equal(t, MergeFileName, res.Artifact.Name)
    assert.Equal(t, 5, res.Artifact.PageCount)
    assert.Equal(t, 5, res.SourcePages)
    assert.Len(t, res.Preview, 2)

    a, err := o.Download(ctx, res.Artifact.ID)
    require.NoError(t, err)
    assert.Equal(t, []int{200, 210, 200, 210, 220}, widths(t, a.Data))
}

func TestMerge_Errors(t *testing.T) {
    o, _ := newTestOrchestrator(t, nil)
    ctx := context.Background()

    _, err := o.Merge(ctx, nil)
    assert.ErrorIs(t, err, ErrNoFiles)

    _, err = o.Merge(ctx, []Upload{upload("a.pdf", 1), {Name: "bad.pdf", Data: []byte("%PDF-1.4 nope")}})
    var de *document.DecodeError
    require.True(t, errors.As(err, &de))
    assert.Equal(t, "bad.pdf", de.Name)
}

func TestPreview(t *testing.T) {
    o, _ := newTestOrchestrator(t, nil)
    ctx := context.Background()

    p, err := o.Preview(ctx, upload("in.pdf", 3), "")
    require.NoError(t, err)
    assert.Equal(t, 3, p.PageCount)
    assert.Len(t, p.Thumbnails, 3)

    p, err = o.Preview(ctx, upload("in.pdf", 3), "3,7")
    require.NoError(t, err)
    require.Len(t, p.Thumbnails, 1)
    assert.Equal(t, 2, p.Thumbnails[0].Index)
    assert.Equal(t, "Page 3", p.Thumbnails[0].Label)
}

func TestUploadPreviews_FirstPageEach(t *testing.T) {
    o, _ := newTestOrchestrator(t, nil)
    out, err := o.UploadPreviews(context.Background(), []Upload{
        upload("a.pdf", 3),
        {Name: "b.txt", Data: []byte("hello")},
        upload("c.pdf", 1),
    })
    require.NoError(t, err)
    require.Len(t, out, 3)
    assert.Equal(t, 3, out[0].PageCount)
    assert.Len(t, out[0].Thumbnails, 1)
    assert.NotEmpty(t, out[1].Error)
    assert.Empty(t, out[1].Thumbnails)
    assert.Len(t, out[2].Thumbnails, 1)
}

func TestArtifactPreviewAndDownload(t *testing.T) {
    o, _ := newTestOrchestrator(t, nil)
    ctx := context.Background()

    res, err := o.Split(ctx, upload("in.pdf", 4), selection.Request{Mode: selection.ModeRange, From: 2, To: 3})
    require.NoError(t, err)

    p, err := o.ArtifactPreview(ctx, res.Artifact.ID)
    require.NoError(t, err)
    assert.Equal(t, SplitFileName, p.Name)
    assert.Len(t, p.Thumbnails, 2)

    _, err = o.Download(ctx, "not-an-id")
    assert.ErrorIs(t, err, artifact.ErrNotFound)
    _, err = o.ArtifactPreview(ctx, "6f1c1d1e-0000-4000-8000-000000000000")
    assert.ErrorIs(t, err, artifact.ErrNotFound)
}

func TestExport(t *testing.T) {
    ctx := context.Background()

    o, _ := newTestOrchestrator(t, nil)
    assert.False(t, o.ExportsEnabled())
    _, err := o.Export(ctx, "whatever")
    assert.ErrorIs(t, err, ErrExportDisabled)

    exp := &fakeExporter{}
    o, _ = newTestOrchestrator(t, exp)
    res, err := o.Merge(ctx, []Upload{upload("a.pdf", 1)})
    require.NoError(t, err)

    url, err := o.Export(ctx, res.Artifact.ID)
    require.NoError(t, err)
    assert.Equal(t, "s3://bucket/"+res.Artifact.ID, url)
    require.Len(t, exp.got, 1)
    assert.NotEmpty(t, exp.got[0].Data)

    exp.err = errors.New("denied")
    _, err = o.Export(ctx, res.Artifact.ID)
    assert.ErrorContains(t, err, "denied")
}

type busyLimiter struct{}

func (busyLimiter) Acquire(context.Context, string) (func(), error) { return nil, limiter.ErrBusy }

func TestLimiterRejection(t *testing.T) {
    o, _ := newTestOrchestrator(t, nil)
    o.deps.Limiter = busyLimiter{}
    _, err := o.Split(context.Background(), upload("in.pdf", 1), selection.Request{})
    assert.ErrorIs(t, err, limiter.ErrBusy)
}
