// Package server exposes derived schemas and design inference over a REST
// API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dgarant/qed/internal/manager"
)

// Server holds the state for the REST API server.
type Server struct {
	manager *manager.SessionManager
	router  *gin.Engine
}

// NewServer creates a new Server instance.
func NewServer(mgr *manager.SessionManager) *Server {
	r := gin.Default()
	s := &Server{
		manager: mgr,
		router:  r,
	}
	s.setupRoutes()
	return s
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/v1/projects", s.handleProjects)
	s.router.GET("/v1/predicates", s.handlePredicates)
	s.router.POST("/v1/query", s.handleQuery)
	s.router.GET("/v1/designs/:outcome", s.handleDesigns)
	s.router.GET("/v1/graph", s.handleGraph)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}
