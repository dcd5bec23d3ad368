package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vpsbridge/vpsbridge/pkg/types"
)

func (s *Server) listToolsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.dispatcher.Registry().Describe())
	}
}

// invokeToolHandler runs a tool call through the dispatcher.
// Tool failures come back as 200 with is_error set: the HTTP layer
// succeeded, the tool did not. Only an unparseable body is a 400.
func (s *Server) invokeToolHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input types.ToolInvokeRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": types.NewToolError(types.ErrMalformedRequest, "invalid request body: %v", err),
			})
			return
		}

		result := s.dispatcher.Dispatch(c.Request.Context(), input.Name, input.Arguments)
		c.JSON(http.StatusOK, result)
	}
}
