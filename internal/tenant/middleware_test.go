package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveHeaderWins(t *testing.T) {
	r := NewResolver("", "pos.harumi.id", "")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Org-ID", "toko-melati")
	req.Host = "cempaka.pos.harumi.id"
	if got := r.Resolve(req); got != "toko-melati" {
		t.Fatalf("expected header to win, got %q", got)
	}
}

func TestResolveSubdomain(t *testing.T) {
	r := NewResolver("", "pos.harumi.id", "")
	cases := map[string]string{
		"cempaka.pos.harumi.id":      "cempaka",
		"cempaka.pos.harumi.id:8080": "cempaka",
		"pos.harumi.id":              "",
		"other.example.com":          "",
	}
	for host, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = host
		if got := r.Resolve(req); got != want {
			t.Fatalf("host %q: expected %q, got %q", host, want, got)
		}
	}
}

func TestMiddlewareInjectsDefaultOrg(t *testing.T) {
	r := NewResolver("", "", "harumi")
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		seen = From(req.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)
	if seen != "harumi" {
		t.Fatalf("expected default org in context, got %q", seen)
	}
}

func TestRequireRejectsMissingOrg(t *testing.T) {
	handler := Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
