package imagerender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfmanager/internal/document"
	"github.com/local/pdfmanager/internal/pdftest"
)

type fakeRasterizer struct {
	calls []int
	fail  map[int]error
}

func (f *fakeRasterizer) Render(doc *document.Document, i int, scale float64) (image.Image, error) {
	if !doc.Valid(i) {
		return nil, &document.RenderError{Page: i, PageCount: doc.PageCount()}
	}
	if err := f.fail[i]; err != nil {
		return nil, err
	}
	f.calls = append(f.calls, i)
	return image.NewRGBA(image.Rect(0, 0, 10+i, 20)), nil
}

func fixtureDoc(n int) *document.Document {
	pages := make([]document.Page, n)
	for i := range pages {
		pages[i] = document.NewPage(pdftest.Build(pdftest.SizeFor(i)), i+1)
	}
	return document.New(pages...)
}

func TestPreview_AllPagesByDefault(t *testing.T) {
	fr := &fakeRasterizer{}
	p := NewPreviewer(fr, PreviewOptions{})

	thumbs, err := p.Preview(context.Background(), fixtureDoc(3), nil)
	require.NoError(t, err)
	require.Len(t, thumbs, 3)
	assert.Equal(t, []int{0, 1, 2}, fr.calls)
	assert.Equal(t, "Page 1", thumbs[0].Label)
	assert.Equal(t, "Page 3", thumbs[2].Label)
	assert.Equal(t, 12, thumbs[2].Width)
	assert.Equal(t, FormatPNG, thumbs[0].Format)
}

func TestPreview_SkipsInvalidIndices(t *testing.T) {
	fr := &fakeRasterizer{}
	p := NewPreviewer(fr, PreviewOptions{})

	thumbs, err := p.Preview(context.Background(), fixtureDoc(2), []int{5, 1, -1, 0})
	require.NoError(t, err)
	require.Len(t, thumbs, 2)
	assert.Equal(t, 1, thumbs[0].Index)
	assert.Equal(t, 0, thumbs[1].Index)
}

func TestPreview_MaxPages(t *testing.T) {
	p := NewPreviewer(&fakeRasterizer{}, PreviewOptions{MaxPages: 2})
	thumbs, err := p.Preview(context.Background(), fixtureDoc(4), nil)
	require.NoError(t, err)
	assert.Len(t, thumbs, 2)
}

func TestPreview_PropagatesRenderFailure(t *testing.T) {
	boom := errors.New("boom")
	fr := &fakeRasterizer{fail: map[int]error{1: boom}}
	p := NewPreviewer(fr, PreviewOptions{})

	thumbs, err := p.Preview(context.Background(), fixtureDoc(3), nil)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, thumbs, 1)
}

func TestPreview_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPreviewer(&fakeRasterizer{}, PreviewOptions{}).Preview(ctx, fixtureDoc(1), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRasterizer_RendersAtScale(t *testing.T) {
	r := NewRasterizer(ColorRGB)
	img, err := r.Render(fixtureDoc(2), 1, 0.5)
	require.NoError(t, err)

	size := pdftest.SizeFor(1)
	assert.InDelta(t, size.Width/2, img.Bounds().Dx(), 1)
	assert.InDelta(t, size.Height/2, img.Bounds().Dy(), 1)
}

func TestRasterizer_Gray(t *testing.T) {
	img, err := NewRasterizer(ColorGray).Render(fixtureDoc(1), 0, 0.25)
	require.NoError(t, err)
	_, ok := img.(*image.Gray)
	assert.True(t, ok)
}

func TestRasterizer_OutOfRange(t *testing.T) {
	_, err := NewRasterizer("").Render(fixtureDoc(1), 3, 0.5)
	var re *document.RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 3, re.Page)
	assert.Equal(t, 1, re.PageCount)
}

func TestEncode_RoundTripDimensions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 7, 9))
	for _, f := range []Format{FormatPNG, FormatJPEG} {
		data, err := Encode(img, f, 0)
		require.NoError(t, err)
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Width)
		assert.Equal(t, 9, cfg.Height)
	}
}

func TestFirstN(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, FirstN(3))
	assert.Empty(t, FirstN(-1))
}

func TestThumbnailJSON_InlinesImage(t *testing.T) {
	th := Thumbnail{Index: 1, Label: "Page 2", Width: 4, Height: 5, Format: FormatPNG, Data: []byte{1, 2, 3}}
	assert.Equal(t, "data:image/png;base64,AQID", th.DataURI())

	raw, err := json.Marshal([]Thumbnail{th})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"index":1,"label":"Page 2","width":4,"height":5,"format":"png","src":"data:image/png;base64,AQID"}]`, string(raw))
}

func TestSelfCheck(t *testing.T) {
	assert.NoError(t, SelfCheck())
}
