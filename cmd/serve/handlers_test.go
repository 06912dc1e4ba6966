package main

import (
    "compress/gzip"
    "encoding/json"
    "io"
    "net/http"
    "net/http/httptest"
    "os"
    "path/filepath"
    "testing"
    "time"

    "ratesgen/internal/logging"
)

const artifact = `{"fetchedAtMs":1700000000000,"source":"a + b","rates":{"usd":{"kind":"currency","price":60000,"usdPrice":1},"btc":{"kind":"crypto","price":3900000000,"usdPrice":65000}},"schemaVersion":2}`

func newTestHandlers(t *testing.T, body string, now time.Time, maxAge time.Duration) *handlers {
    t.Helper()
    path := filepath.Join(t.TempDir(), "rates_v2_latest")
    if body != "" {
        if err := os.WriteFile(path, []byte(body), 0o644); err != nil { t.Fatalf("write: %v", err) }
    }
    return &handlers{
        store:  newArtifactStore(path),
        maxAge: maxAge,
        log:    logging.Discard(),
        now:    func() time.Time { return now },
    }
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
    t.Helper()
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
    return rr
}

func TestRates_ServesArtifactVerbatim(t *testing.T) {
    h := newTestHandlers(t, artifact, time.UnixMilli(1700000000000), 0)
    rr := get(t, h.routes(), "/rates")
    if rr.Code != 200 { t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String()) }
    if rr.Body.String() != artifact { t.Fatalf("body changed: %s", rr.Body.String()) }
}

func TestRates_KeysFilter(t *testing.T) {
    h := newTestHandlers(t, artifact, time.UnixMilli(1700000000000), 0)
    rr := get(t, h.routes(), "/rates?keys=btc,,nope")
    if rr.Code != 200 { t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String()) }
    var resp struct {
        FetchedAtMs int64                      `json:"fetchedAtMs"`
        Rates       map[string]json.RawMessage `json:"rates"`
        Missing     []string                   `json:"missing"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if resp.FetchedAtMs != 1700000000000 { t.Fatalf("fetchedAtMs=%d", resp.FetchedAtMs) }
    if len(resp.Rates) != 1 || string(resp.Rates["btc"]) != `{"kind":"crypto","price":3900000000,"usdPrice":65000}` {
        t.Fatalf("unexpected rates: %s", rr.Body.String())
    }
    if len(resp.Missing) != 1 || resp.Missing[0] != "nope" { t.Fatalf("missing=%v", resp.Missing) }
}

func TestRateByKey(t *testing.T) {
    h := newTestHandlers(t, artifact, time.UnixMilli(1700000000000), 0)
    rr := get(t, h.routes(), "/rates/usd")
    if rr.Code != 200 || rr.Body.String() != `{"kind":"currency","price":60000,"usdPrice":1}` {
        t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
    }
    if rr := get(t, h.routes(), "/rates/eur"); rr.Code != http.StatusNotFound {
        t.Fatalf("want 404, got %d", rr.Code)
    }
}

func TestHealth_FreshAndStale(t *testing.T) {
    fetched := time.UnixMilli(1700000000000)

    h := newTestHandlers(t, artifact, fetched.Add(90*time.Second), time.Hour)
    rr := get(t, h.routes(), "/healthz")
    var resp healthResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if rr.Code != 200 || resp.Status != "ok" || resp.AgeSec != 90 || resp.Rates != 2 {
        t.Fatalf("unexpected fresh: %d %+v", rr.Code, resp)
    }

    h = newTestHandlers(t, artifact, fetched.Add(2*time.Hour), time.Hour)
    rr = get(t, h.routes(), "/healthz")
    resp = healthResponse{}
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if rr.Code != http.StatusServiceUnavailable || resp.Status != "stale" {
        t.Fatalf("unexpected stale: %d %+v", rr.Code, resp)
    }
}

func TestHealth_Missing(t *testing.T) {
    h := newTestHandlers(t, "", time.Now(), time.Hour)
    rr := get(t, h.routes(), "/healthz")
    var resp healthResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if rr.Code != http.StatusServiceUnavailable || resp.Status != "missing" {
        t.Fatalf("unexpected: %d %+v", rr.Code, resp)
    }
    if rr := get(t, h.routes(), "/rates"); rr.Code != http.StatusServiceUnavailable {
        t.Fatalf("want 503, got %d", rr.Code)
    }
}

func TestStore_ReloadsOnChange(t *testing.T) {
    h := newTestHandlers(t, artifact, time.Now(), 0)
    if _, p, err := h.store.load(); err != nil || p.Rates.Len() != 2 { t.Fatalf("first load: %v", err) }

    next := `{"fetchedAtMs":1,"source":"","rates":{"usd":{"price":1}}}`
    if err := os.WriteFile(h.store.path, []byte(next), 0o644); err != nil { t.Fatalf("write: %v", err) }
    later := time.Now().Add(time.Minute)
    if err := os.Chtimes(h.store.path, later, later); err != nil { t.Fatalf("chtimes: %v", err) }

    _, p, err := h.store.load()
    if err != nil { t.Fatalf("reload: %v", err) }
    if p.Rates.Len() != 1 { t.Fatalf("stale cache: %d rates", p.Rates.Len()) }
}

func TestMiddleware_GzipAndPanic(t *testing.T) {
    h := newTestHandlers(t, artifact, time.Now(), 0)
    srv := withJSONHeaders(withGzip(recoverPanic(h.log, h.routes())))

    req := httptest.NewRequest(http.MethodGet, "/rates", nil)
    req.Header.Set("Accept-Encoding", "gzip")
    rr := httptest.NewRecorder()
    srv.ServeHTTP(rr, req)
    if rr.Header().Get("Content-Encoding") != "gzip" { t.Fatalf("not gzipped: %v", rr.Header()) }
    zr, err := gzip.NewReader(rr.Body)
    if err != nil { t.Fatalf("gzip: %v", err) }
    b, err := io.ReadAll(zr)
    if err != nil { t.Fatalf("read: %v", err) }
    if string(b) != artifact { t.Fatalf("body: %s", b) }

    boom := recoverPanic(h.log, http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
    rr = httptest.NewRecorder()
    boom.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
    if rr.Code != http.StatusInternalServerError { t.Fatalf("want 500, got %d", rr.Code) }
}
