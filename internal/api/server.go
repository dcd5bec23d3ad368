// Package api provides the HTTP surface of the vpsbridge server.
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vpsbridge/vpsbridge/internal/service/bridge"
	"github.com/vpsbridge/vpsbridge/internal/service/calllog"
	"github.com/vpsbridge/vpsbridge/internal/telemetry"
	"github.com/vpsbridge/vpsbridge/pkg/types"
	"github.com/vpsbridge/vpsbridge/pkg/version"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	V0PathPrefix    = "/v0"
	V0ApiPathPrefix = "/api" + V0PathPrefix
)

type ServerOptions struct {
	// Port is the HTTP port to bind the server to
	Port string

	// MCPServer exposes the registered tools over the streamable HTTP
	// transport on /mcp.
	MCPServer *server.MCPServer

	Dispatcher     *bridge.Dispatcher
	CallLogService *calllog.Service

	OtelProviders *telemetry.Providers
	Metrics       telemetry.CustomMetrics

	Logger *zap.Logger
}

// Server handles the vpsbridge REST API and the MCP endpoint.
type Server struct {
	port   string
	router *gin.Engine

	mcpServer *server.MCPServer

	dispatcher     *bridge.Dispatcher
	callLogService *calllog.Service

	otelProviders *telemetry.Providers
	metrics       telemetry.CustomMetrics

	logger *zap.Logger
}

// NewServer initializes a new Gin server for the bridge API and MCP endpoint
func NewServer(opts *ServerOptions) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		port:           opts.Port,
		mcpServer:      opts.MCPServer,
		dispatcher:     opts.Dispatcher,
		callLogService: opts.CallLogService,
		otelProviders:  opts.OtelProviders,
		metrics:        opts.Metrics,
		logger:         logger,
	}

	s.registerMCPTools()

	// Set up the router after the server is fully initialized
	r, err := s.setupRouter()
	if err != nil {
		return nil, err
	}
	s.router = r

	return s, nil
}

// Start runs the Gin server (blocking call)
func (s *Server) Start() error {
	if err := s.router.Run(":" + s.port); err != nil {
		return fmt.Errorf("failed to run the server: %w", err)
	}
	return nil
}

// setupRouter sets up the Gin router with the MCP endpoint and API endpoints.
func (s *Server) setupRouter() (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// if otel is enabled, setup prometheus metrics endpoint
	if s.otelProviders != nil && s.otelProviders.IsEnabled() {
		// instrument gin
		r.Use(otelgin.Middleware(s.otelProviders.ServiceName()))

		// expose prometheus metrics endpoint
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET(
		"/health",
		func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		},
	)

	r.GET(
		"/metadata",
		func(c *gin.Context) {
			m := &types.ServerMetadata{
				Version: version.GetVersion(),
			}
			c.JSON(http.StatusOK, m)
		},
	)

	// Set up the MCP server on /mcp
	if s.mcpServer != nil {
		streamableHTTPServer := server.NewStreamableHTTPServer(s.mcpServer)
		r.Any("/mcp", gin.WrapH(streamableHTTPServer))
	}

	// Setup /v0 API endpoints
	apiV0 := r.Group(V0ApiPathPrefix)
	{
		apiV0.GET("/tools", s.listToolsHandler())
		apiV0.POST("/tools/invoke", s.invokeToolHandler())

		apiV0.GET("/calls", s.listCallsHandler())
		apiV0.GET("/calls/:id", s.getCallHandler())
	}

	return r, nil
}
