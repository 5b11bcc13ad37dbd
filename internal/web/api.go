package web

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "mime/multipart"
    "net/http"
    "path/filepath"
    "strconv"
    "strings"

    "github.com/go-chi/chi/v5"
    "github.com/rs/zerolog/log"

    "github.com/local/pdfmanager/internal/artifact"
    "github.com/local/pdfmanager/internal/document"
    "github.com/local/pdfmanager/internal/filetype"
    "github.com/local/pdfmanager/internal/limiter"
    "github.com/local/pdfmanager/internal/orchestrator"
    "github.com/local/pdfmanager/internal/selection"
)

// multipartMemory is how much of a form is buffered in memory before
// spilling file parts to disk.
const multipartMemory = 32 << 20

// statusClientClosedRequest is reported when the client went away before
// the operation finished. Nobody reads the response.
const statusClientClosedRequest = 499

var errMissingFile = errors.New("missing file")

type errorBody struct {
    Error string `json:"error"`
}

func writeJSON(wr http.ResponseWriter, status int, v any) {
    wr.Header().Set("Content-Type", "application/json")
    wr.WriteHeader(status)
    _ = json.NewEncoder(wr).Encode(v)
}

// statusFor maps operation errors to HTTP status codes.
func statusFor(err error) int {
    var de *document.DecodeError
    var tooLarge *http.MaxBytesError
    switch {
    case errors.Is(err, context.Canceled):
        return statusClientClosedRequest
    case errors.As(err, &tooLarge):
        return http.StatusRequestEntityTooLarge
    case errors.Is(err, limiter.ErrBusy):
        return http.StatusTooManyRequests
    case errors.Is(err, filetype.ErrUnsupportedType):
        return http.StatusUnsupportedMediaType
    case errors.Is(err, artifact.ErrNotFound), errors.Is(err, orchestrator.ErrExportDisabled):
        return http.StatusNotFound
    case errors.As(err, &de),
        errors.Is(err, selection.ErrInvalidSelection),
        errors.Is(err, orchestrator.ErrEmptySelection),
        errors.Is(err, orchestrator.ErrNoFiles),
        errors.Is(err, errMissingFile):
        return http.StatusBadRequest
    default:
        return http.StatusInternalServerError
    }
}

func writeError(wr http.ResponseWriter, r *http.Request, err error) {
    status := statusFor(err)
    msg := err.Error()
    if status == http.StatusInternalServerError {
        log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
        msg = "operation failed, please try again"
    } else {
        log.Debug().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request rejected")
    }
    writeJSON(wr, status, errorBody{Error: msg})
}

// parseForm caps the body and parses the multipart form.
func (w *Web) parseForm(wr http.ResponseWriter, r *http.Request) error {
    r.Body = http.MaxBytesReader(wr, r.Body, w.maxUpload)
    if err := r.ParseMultipartForm(multipartMemory); err != nil {
        var tooLarge *http.MaxBytesError
        if errors.As(err, &tooLarge) {
            return err
        }
        if strings.Contains(err.Error(), "request body too large") {
            return &http.MaxBytesError{Limit: w.maxUpload}
        }
        return fmt.Errorf("%w: invalid multipart form: %v", errMissingFile, err)
    }
    return nil
}

func readUpload(fh *multipart.FileHeader) (orchestrator.Upload, error) {
    f, err := fh.Open()
    if err != nil {
        return orchestrator.Upload{}, err
    }
    defer f.Close()
    data, err := io.ReadAll(f)
    if err != nil {
        return orchestrator.Upload{}, err
    }
    return orchestrator.Upload{Name: filepath.Base(fh.Filename), Data: data}, nil
}

func formUploads(r *http.Request, field string) ([]orchestrator.Upload, error) {
    if r.MultipartForm == nil {
        return nil, nil
    }
    fhs := r.MultipartForm.File[field]
    out := make([]orchestrator.Upload, 0, len(fhs))
    for _, fh := range fhs {
        up, err := readUpload(fh)
        if err != nil {
            return nil, err
        }
        out = append(out, up)
    }
    return out, nil
}

func formUpload(r *http.Request) (orchestrator.Upload, error) {
    ups, err := formUploads(r, "file")
    if err != nil {
        return orchestrator.Upload{}, err
    }
    if len(ups) == 0 {
        return orchestrator.Upload{}, errMissingFile
    }
    return ups[0], nil
}

func formInt(r *http.Request, key string) (int, error) {
    v := strings.TrimSpace(r.FormValue(key))
    if v == "" {
        return 0, nil
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        return 0, fmt.Errorf("%w: %s=%q", selection.ErrInvalidSelection, key, v)
    }
    return n, nil
}

func (w *Web) handlePreview(wr http.ResponseWriter, r *http.Request) {
    if err := w.parseForm(wr, r); err != nil {
        writeError(wr, r, err)
        return
    }
    many, err := formUploads(r, "files")
    if err != nil {
        writeError(wr, r, err)
        return
    }
    if len(many) > 0 {
        docs, err := w.ops.UploadPreviews(r.Context(), many)
        if err != nil {
            writeError(wr, r, err)
            return
        }
        writeJSON(wr, http.StatusOK, map[string]any{"documents": docs})
        return
    }
    up, err := formUpload(r)
    if err != nil {
        writeError(wr, r, err)
        return
    }
    p, err := w.ops.Preview(r.Context(), up, r.FormValue("pages"))
    if err != nil {
        writeError(wr, r, err)
        return
    }
    writeJSON(wr, http.StatusOK, p)
}

func (w *Web) handleSplit(wr http.ResponseWriter, r *http.Request) {
    if err := w.parseForm(wr, r); err != nil {
        writeError(wr, r, err)
        return
    }
    up, err := formUpload(r)
    if err != nil {
        writeError(wr, r, err)
        return
    }
    from, err := formInt(r, "from")
    if err != nil {
        writeError(wr, r, err)
        return
    }
    to, err := formInt(r, "to")
    if err != nil {
        writeError(wr, r, err)
        return
    }
    req := selection.Request{
        Mode:    selection.Mode(strings.ToLower(r.FormValue("mode"))),
        From:    from,
        To:      to,
        Pages:   r.FormValue("pages"),
        Checked: r.MultipartForm.Value["page"],
    }
    res, err := w.ops.Split(r.Context(), up, req)
    if err != nil {
        writeError(wr, r, err)
        return
    }
    writeJSON(wr, http.StatusOK, res)
}

func (w *Web) handleMerge(wr http.ResponseWriter, r *http.Request) {
    if err := w.parseForm(wr, r); err != nil {
        writeError(wr, r, err)
        return
    }
    ups, err := formUploads(r, "files")
    if err != nil {
        writeError(wr, r, err)
        return
    }
    res, err := w.ops.Merge(r.Context(), ups)
    if err != nil {
        writeError(wr, r, err)
        return
    }
    writeJSON(wr, http.StatusOK, res)
}

func (w *Web) handleDownload(wr http.ResponseWriter, r *http.Request) {
    a, err := w.ops.Download(r.Context(), chi.URLParam(r, "id"))
    if err != nil {
        writeError(wr, r, err)
        return
    }
    wr.Header().Set("Content-Type", filetype.PDFMIME)
    wr.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
    wr.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
    wr.WriteHeader(http.StatusOK)
    _, _ = wr.Write(a.Data)
}

func (w *Web) handleArtifactPreview(wr http.ResponseWriter, r *http.Request) {
    p, err := w.ops.ArtifactPreview(r.Context(), chi.URLParam(r, "id"))
    if err != nil {
        writeError(wr, r, err)
        return
    }
    writeJSON(wr, http.StatusOK, p)
}

func (w *Web) handleExport(wr http.ResponseWriter, r *http.Request) {
    url, err := w.ops.Export(r.Context(), chi.URLParam(r, "id"))
    if err != nil {
        writeError(wr, r, err)
        return
    }
    writeJSON(wr, http.StatusOK, map[string]string{"url": url})
}
