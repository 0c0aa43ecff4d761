package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
)

func (s *Server) GetTaxonomy(c *gin.Context) {
	resp, err := s.taxonomySvc.Get(c.Request.Context(), c.Param("kind"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReplaceTaxonomy(c *gin.Context) {
	var req taxonomydomain.ReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Kind = c.Param("kind")

	resp, err := s.taxonomySvc.Replace(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
