package feature

import (
	"net/http"

	"yksilo/pkg/platform/httputil"
)

// RequireFeature short-circuits with 403 FEATURE_DISABLED before the wrapped
// handler runs.
func RequireFeature(checker Checker, feat Feature) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Require(r.Context(), checker, feat); err != nil {
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
