package snshttp

import (
	"context"
	"net"
	"net/http"
	"sync"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type Server struct {
	Server *http.Server

	h2cOnce sync.Once
}

// Serve accepts HTTP/1.1 and h2c connections on l until the server is shut
// down. Server.Handler may be replaced up until the first call.
func (s *Server) Serve(l net.Listener) error {
	s.h2cOnce.Do(func() {
		s.Server.Handler = h2c.NewHandler(s.Server.Handler, &http2.Server{})
	})

	return s.Server.Serve(l)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}
