package middleware

import (
	"errors"
	"net"
	"net/http"

	"github.com/upb/socialhub/services"
	"github.com/upb/socialhub/services/audit"
	"github.com/upb/socialhub/utils"
)

// writeError renders err as the shared failure body. Causes wrapped inside a
// domain error are never rendered.
func writeError(w http.ResponseWriter, err error) {
	var domainErr *services.DomainError
	if !errors.As(err, &domainErr) {
		domainErr = services.ErrAuthFailed
	}
	_ = utils.WriteFailure(w, domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details)
}

// errorCode returns the stable code carried by err, if any
func errorCode(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// clientIP returns the caller address without the port. RealIP upstream has
// already replaced RemoteAddr when a proxy header was present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequestMetadata describes r for an audit entry
func RequestMetadata(r *http.Request, details map[string]interface{}) audit.Metadata {
	return audit.Metadata{
		Endpoint:  r.URL.Path,
		Method:    r.Method,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		RequestID: GetRequestIDFromContext(r.Context()),
		Details:   details,
	}
}
