package notionpress

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
)

// rewriteTransport redirects every request to the test server while leaving
// the requested URL (and thus the allow-list check) intact.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Scheme = rt.target.Scheme
	clone.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(clone)
}

func newProxyTestApp(t *testing.T, upstream *httptest.Server) *App {
	t.Helper()
	a := &App{
		Config:      SiteConfig{PreviewSecret: "s3cret"},
		proxyClient: http.DefaultClient,
	}
	if upstream != nil {
		target, err := url.Parse(upstream.URL)
		if err != nil {
			t.Fatal(err)
		}
		a.proxyClient = &http.Client{Transport: rewriteTransport{target: target}}
	}
	return a
}

func doProxyRequest(t *testing.T, a *App, query string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/image-proxy?"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := a.handleImageProxy(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestImageProxyBadToken(t *testing.T) {
	a := newProxyTestApp(t, nil)
	rec := doProxyRequest(t, a, "url="+url.QueryEscape("https://images.unsplash.com/a.png")+"&token=wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestImageProxyMissingURL(t *testing.T) {
	a := newProxyTestApp(t, nil)
	rec := doProxyRequest(t, a, "token=s3cret")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestImageProxyDisallowedHost(t *testing.T) {
	var hits atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer upstream.Close()

	a := newProxyTestApp(t, upstream)
	rec := doProxyRequest(t, a, "url="+url.QueryEscape("https://evil.example.com/a.png")+"&token=s3cret")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if hits.Load() != 0 {
		t.Error("no outbound fetch may happen for a disallowed host")
	}
}

func TestImageProxySuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer upstream.Close()

	a := newProxyTestApp(t, upstream)
	rec := doProxyRequest(t, a, "url="+url.QueryEscape("https://images.unsplash.com/a.png")+"&token=s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "png-bytes" {
		t.Errorf("body = %q", got)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "image/png") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "max-age=3600") {
		t.Errorf("Cache-Control = %q, want one-hour directive", cc)
	}
}

func TestImageProxyUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer upstream.Close()

	a := newProxyTestApp(t, upstream)
	rec := doProxyRequest(t, a, "url="+url.QueryEscape("https://www.notion.so/image/a.png")+"&token=s3cret")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}
