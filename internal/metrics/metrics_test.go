package metrics

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/prometheus/client_golang/prometheus/testutil"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
    before := testutil.ToFloat64(operations.WithLabelValues("split", "ok"))
    ObserveOperation("split", "ok", 20*time.Millisecond)
    assert.Equal(t, before+1, testutil.ToFloat64(operations.WithLabelValues("split", "ok")))

    p := testutil.ToFloat64(pagesProduced.WithLabelValues("merge"))
    AddPages("merge", 3)
    assert.Equal(t, p+3, testutil.ToFloat64(pagesProduced.WithLabelValues("merge")))

    SetArtifacts(4)
    assert.Equal(t, 4.0, testutil.ToFloat64(artifactsStored))
}

func TestHandlerExposesNamespace(t *testing.T) {
    Init()
    Init()
    IncThumbnail()

    rec := httptest.NewRecorder()
    Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
    require.Equal(t, http.StatusOK, rec.Code)
    assert.True(t, strings.Contains(rec.Body.String(), "pdfmanager_thumbnails_rendered_total"))
}
