package snshttp

import (
	"net/http"
)

// NewForwarder serves h behind Middleware, and RequireScope when scopes is
// non-empty.
func NewForwarder(h http.Handler, e Evaluator, scopes ...string) *Server {
	if len(scopes) > 0 {
		h = RequireScope(h, scopes...)
	}

	return &Server{
		Server: &http.Server{
			Handler: Middleware(e, h),
		},
	}
}
