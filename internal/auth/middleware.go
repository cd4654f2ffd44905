package auth

import (
	"net/http"
	"strings"

	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/tenant"
)

// Middleware authenticates requests using bearer tokens.
type Middleware struct {
	Validator Validator
}

// Authenticate requires a valid bearer token and stores the identity in the
// request context. Tokens scoped to an organization must match the resolved
// tenant.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
			return
		}
		claims, err := m.Validator.Parse(raw)
		if err != nil {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token", nil)
			return
		}
		if claims.OrgID != "" {
			if org := tenant.From(r.Context()); org != "" && org != claims.OrgID {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "token not valid for this organization", nil)
				return
			}
		}
		ctx := common.WithUser(r.Context(), claims.UserID, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects authenticated requests whose role is not in the allow
// list. Admins always pass.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles)+1)
	allowed["admin"] = struct{}{}
	for _, role := range roles {
		allowed[strings.ToLower(role)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := common.UserRole(r.Context())
			role := strings.ToLower(raw)
			if _, ok := allowed[role]; !ok {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
