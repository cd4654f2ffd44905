package tenant

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type contextKey string

const orgContextKey contextKey = "org.id"

// Resolver resolves the organization owning a request from the
// X-Org-ID header or, for white-labelled storefront domains, the
// subdomain.
type Resolver struct {
	HeaderName string
	RootDomain string
	DefaultOrg string
}

// NewResolver returns a resolver configured with the provided header name,
// root domain, and default organization slug. If headerName is empty,
// "X-Org-ID" is used.
func NewResolver(headerName, rootDomain, defaultOrg string) *Resolver {
	if headerName == "" {
		headerName = "X-Org-ID"
	}
	return &Resolver{
		HeaderName: headerName,
		RootDomain: strings.ToLower(strings.TrimSpace(rootDomain)),
		DefaultOrg: strings.TrimSpace(defaultOrg),
	}
}

// Middleware resolves the organization and injects it into the context
// passed downstream. Requests without a resolvable organization fall back
// to the configured default so single-store deployments need no header.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		orgID := r.Resolve(req)
		if orgID == "" {
			orgID = r.DefaultOrg
		}
		if orgID != "" {
			req = req.WithContext(With(req.Context(), orgID))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve attempts to find the organization identifier from the configured
// header or the request subdomain.
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return ""
	}
	if orgID := strings.TrimSpace(req.Header.Get(r.HeaderName)); orgID != "" {
		return orgID
	}
	host := hostWithoutPort(req.Host)
	if host == "" {
		return ""
	}
	return strings.TrimSpace(r.subdomainFromHost(host))
}

func (r *Resolver) subdomainFromHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if r.RootDomain != "" {
		if host == r.RootDomain {
			return ""
		}
		suffix := "." + r.RootDomain
		if !strings.HasSuffix(host, suffix) {
			return ""
		}
		host = strings.TrimSuffix(host, suffix)
	}
	parts := strings.Split(host, ".")
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func hostWithoutPort(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if strings.HasPrefix(hostport, "[") {
		if idx := strings.Index(hostport, "]"); idx != -1 {
			if host := hostport[1:idx]; host != "" {
				return host
			}
		}
	}
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	if idx := strings.Index(hostport, ":"); idx != -1 && strings.Count(hostport, ":") == 1 {
		return hostport[:idx]
	}
	return hostport
}

// With stores the organization identifier inside the context.
func With(ctx context.Context, orgID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, orgContextKey, orgID)
}

// From extracts the organization identifier from the context, or "" when
// the request carries none.
func From(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	orgID, _ := ctx.Value(orgContextKey).(string)
	return strings.TrimSpace(orgID)
}

// PrefixKey creates a namespaced cache/queue key per organization slug or id.
func PrefixKey(orgSlugOrID, key string) string {
	if orgSlugOrID == "" {
		return key
	}
	return orgSlugOrID + ":" + key
}

// Require rejects requests that carry no resolvable organization. Mounted
// in front of tenant-scoped write routes.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if From(r.Context()) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"ORG_REQUIRED","message":"organization could not be resolved"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
