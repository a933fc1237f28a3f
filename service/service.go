// Package service exposes the ambient inspection/compare HTTP surface:
// a small gin-based API that drives the encoder collaborator and the
// core fingerprint pipeline for manual debugging and for the CLI's
// remote mode. It is not part of the core pipeline and holds no
// invariant the core relies on.
package service

import (
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/ugparu/fingerprint/encoder"
)

// Server wraps the HTTP router with its dependencies: the encoder
// collaborator used to compress uploaded rasters before they reach the
// fingerprint extractor.
type Server struct {
	router *gin.Engine
	enc    encoder.Encoder
}

// New builds a Server that drives enc to produce the Annex-B streams
// it fingerprints. enc must not be nil.
func New(enc encoder.Encoder) *Server {
	s := &Server{enc: enc}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	router := gin.Default()

	v1 := router.Group("/v1")
	{
		v1.POST("/fingerprint", s.handleFingerprint)
		v1.POST("/compare", s.handleCompare)
	}

	pprof.Register(router)

	s.router = router
}

// Router exposes the underlying gin engine, primarily for tests that
// drive it with httptest.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server on addr, blocking until it stops.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
