package web

import (
    "crypto/subtle"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"
    "golang.org/x/crypto/bcrypt"
)

const sessionCookie = "pdfmanager_session"

// authEnabled is true only when both WEB_USERNAME and WEB_PASSWORD_HASH are set.
func (w *Web) authEnabled() bool {
    return w.username != "" && len(w.passwordHash) > 0
}

func (w *Web) requireAuth(next http.Handler) http.Handler {
    return http.HandlerFunc(func(wr http.ResponseWriter, r *http.Request) {
        if !w.authEnabled() {
            next.ServeHTTP(wr, r)
            return
        }
        if c, err := r.Cookie(sessionCookie); err == nil && w.validSession(c.Value) {
            next.ServeHTTP(wr, r)
            return
        }
        if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/status" {
            writeJSON(wr, http.StatusUnauthorized, errorBody{Error: "login required"})
            return
        }
        http.Redirect(wr, r, "/login", http.StatusSeeOther)
    })
}

func (w *Web) checkCredentials(username, password string) bool {
    userOK := subtle.ConstantTimeCompare([]byte(username), []byte(w.username)) == 1
    passOK := bcrypt.CompareHashAndPassword(w.passwordHash, []byte(password)) == nil
    return userOK && passOK
}

func (w *Web) newSession() string {
    id := uuid.NewString()
    now := time.Now()
    w.mu.Lock()
    defer w.mu.Unlock()
    for k, exp := range w.sessions {
        if now.After(exp) {
            delete(w.sessions, k)
        }
    }
    w.sessions[id] = now.Add(w.sessionTTL)
    return id
}

func (w *Web) validSession(id string) bool {
    w.mu.Lock()
    defer w.mu.Unlock()
    exp, ok := w.sessions[id]
    if !ok {
        return false
    }
    if time.Now().After(exp) {
        delete(w.sessions, id)
        return false
    }
    return true
}

func (w *Web) dropSession(id string) {
    w.mu.Lock()
    delete(w.sessions, id)
    w.mu.Unlock()
}

func (w *Web) handleLoginPage(wr http.ResponseWriter, r *http.Request) {
    if !w.authEnabled() {
        http.Redirect(wr, r, "/", http.StatusSeeOther)
        return
    }
    w.render(wr, "login.html", map[string]any{"Error": r.URL.Query().Get("error")})
}

func (w *Web) handleLogin(wr http.ResponseWriter, r *http.Request) {
    if !w.authEnabled() {
        http.Redirect(wr, r, "/", http.StatusSeeOther)
        return
    }
    if err := r.ParseForm(); err != nil {
        http.Redirect(wr, r, "/login?error=invalid+form", http.StatusSeeOther)
        return
    }
    if !w.checkCredentials(r.Form.Get("username"), r.Form.Get("password")) {
        log.Warn().Str("username", r.Form.Get("username")).Msg("login failed")
        http.Redirect(wr, r, "/login?error=invalid+credentials", http.StatusSeeOther)
        return
    }
    http.SetCookie(wr, &http.Cookie{
        Name:     sessionCookie,
        Value:    w.newSession(),
        Path:     "/",
        HttpOnly: true,
        SameSite: http.SameSiteLaxMode,
        MaxAge:   int(w.sessionTTL.Seconds()),
    })
    http.Redirect(wr, r, "/", http.StatusSeeOther)
}

func (w *Web) handleLogout(wr http.ResponseWriter, r *http.Request) {
    if c, err := r.Cookie(sessionCookie); err == nil {
        w.dropSession(c.Value)
    }
    http.SetCookie(wr, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
    http.Redirect(wr, r, "/login", http.StatusSeeOther)
}
