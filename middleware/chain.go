package middleware

import "net/http"

// Protect composes one authenticator followed by gates in the declared order.
// The first failure writes the response and stops the chain.
func Protect(authn *Authenticator, gates ...Gate) func(http.Handler) http.Handler {
	authorize := Authorize(gates...)
	return func(next http.Handler) http.Handler {
		return authn.Handler(authorize(next))
	}
}

// Authorize runs gates in order without an authenticator, for routes nested
// under one that already authenticated
func Authorize(gates ...Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := next
		for i := len(gates) - 1; i >= 0; i-- {
			h = gates[i].Handler(h)
		}
		return h
	}
}
