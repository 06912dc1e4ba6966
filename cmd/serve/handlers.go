package main

import (
    "encoding/json"
    "errors"
    "io/fs"
    "net/http"
    "strings"
    "time"

    "github.com/sirupsen/logrus"
)

type healthResponse struct {
    Status      string `json:"status"`
    FetchedAtMs int64  `json:"fetchedAtMs,omitempty"`
    AgeSec      int64  `json:"ageSec,omitempty"`
    Rates       int    `json:"rates,omitempty"`
    Error       string `json:"error,omitempty"`
}

type handlers struct {
    store  *artifactStore
    maxAge time.Duration
    log    logrus.FieldLogger
    now    func() time.Time
}

func (h *handlers) routes() *http.ServeMux {
    mux := http.NewServeMux()
    mux.HandleFunc("GET /healthz", h.health)
    mux.HandleFunc("GET /rates", h.all)
    mux.HandleFunc("GET /rates/{key}", h.one)
    return mux
}

// health reports the artifact's age. It answers 503 when the artifact is
// missing, unreadable or older than maxAge (maxAge 0 disables the age check).
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
    _, p, err := h.store.load()
    if err != nil {
        status := "unreadable"
        if errors.Is(err, fs.ErrNotExist) {
            status = "missing"
        }
        writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: status, Error: err.Error()})
        return
    }
    age := h.now().Sub(time.UnixMilli(p.FetchedAtMs))
    resp := healthResponse{
        Status:      "ok",
        FetchedAtMs: p.FetchedAtMs,
        AgeSec:      int64(age / time.Second),
        Rates:       p.Rates.Len(),
    }
    code := http.StatusOK
    if h.maxAge > 0 && age > h.maxAge {
        resp.Status = "stale"
        code = http.StatusServiceUnavailable
    }
    writeJSON(w, code, resp)
}

// all serves the artifact bytes as published. With ?keys=a,b only those
// records are returned, as {"fetchedAtMs":..,"rates":{..}}.
func (h *handlers) all(w http.ResponseWriter, r *http.Request) {
    raw, p, err := h.store.load()
    if err != nil {
        h.unavailable(w, err)
        return
    }
    keys := splitCSV(r.URL.Query().Get("keys"))
    if len(keys) == 0 {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write(raw)
        return
    }
    out := struct {
        FetchedAtMs int64                      `json:"fetchedAtMs"`
        Rates       map[string]json.RawMessage `json:"rates"`
        Missing     []string                   `json:"missing,omitempty"`
    }{FetchedAtMs: p.FetchedAtMs, Rates: map[string]json.RawMessage{}}
    for _, k := range keys {
        rec, ok := p.Rates.Get(k)
        if !ok {
            out.Missing = append(out.Missing, k)
            continue
        }
        b, err := rec.MarshalJSON()
        if err != nil {
            h.log.WithError(err).WithField("key", k).Error("encode record")
            http.Error(w, "internal server error", http.StatusInternalServerError)
            return
        }
        out.Rates[k] = b
    }
    writeJSON(w, http.StatusOK, out)
}

func (h *handlers) one(w http.ResponseWriter, r *http.Request) {
    _, p, err := h.store.load()
    if err != nil {
        h.unavailable(w, err)
        return
    }
    key := r.PathValue("key")
    rec, ok := p.Rates.Get(key)
    if !ok {
        http.Error(w, "unknown rate "+key, http.StatusNotFound)
        return
    }
    b, err := rec.MarshalJSON()
    if err != nil {
        h.log.WithError(err).WithField("key", key).Error("encode record")
        http.Error(w, "internal server error", http.StatusInternalServerError)
        return
    }
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(b)
}

func (h *handlers) unavailable(w http.ResponseWriter, err error) {
    h.log.WithError(err).Warn("artifact unavailable")
    http.Error(w, "artifact unavailable", http.StatusServiceUnavailable)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
    w.WriteHeader(code)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    _ = enc.Encode(v)
}

func splitCSV(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}
