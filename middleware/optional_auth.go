package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// OptionalAuth attaches the identity when the request authenticates and
// otherwise proceeds anonymously. It never rejects a request and performs none
// of Handler's side effects.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := a.Authenticate(r)
		if err != nil {
			a.logger.Debug("optional authentication skipped",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("code", errorCode(err)))
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}
