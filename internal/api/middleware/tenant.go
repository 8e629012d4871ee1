package middleware

import (
	"net/http"
	"regexp"

	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/tenant"
)

// Identity headers set by the gateway in front of the service.
const (
	TenantHeader = "X-Tenant-ID"
	BranchHeader = "X-Branch-ID"
	UserHeader   = "X-User-ID"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]{0,63}$`)

// TenantMiddleware resolves the tenant, branch and user of the request from
// its headers into a tenant.Scope on the request context. Requests under
// /api/ without a valid tenant are rejected.
func TenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := tenant.Scope{
			TenantID: r.Header.Get(TenantHeader),
			BranchID: r.Header.Get(BranchHeader),
			UserID:   r.Header.Get(UserHeader),
		}

		for _, id := range []string{scope.TenantID, scope.BranchID, scope.UserID} {
			if id != "" && !identifierPattern.MatchString(id) {
				writeError(w, http.StatusBadRequest, "INVALID_IDENTITY", "invalid identity header")
				return
			}
		}

		if scope.TenantID == "" {
			if isAPIPath(r.URL.Path) {
				writeError(w, http.StatusUnauthorized, "TENANT_REQUIRED", TenantHeader+" header is required")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(tenant.WithScope(r.Context(), scope)))
	})
}
