package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/api"
	"github.com/Zachkp/portfolio/internal/site"
)

// reveal receives the client's "section became visible" beacon. The first
// beacon per section and view is delivered; repeats get 208.
func (s *Server) reveal(c *gin.Context) {
	section := c.PostForm("section")
	if !site.IsSection(section) {
		api.HandleAPIError(c, nil, http.StatusBadRequest, api.ErrCodeValidation, "Unknown section")
		return
	}

	v, ok := s.views.Get(c.PostForm(viewIDField))
	if !ok {
		api.HandleAPIError(c, nil, http.StatusNotFound, api.ErrCodeNotFound, "Page view not found")
		return
	}

	if v.Reveal.Notify(section) {
		c.Status(http.StatusNoContent)
		return
	}
	c.Status(http.StatusAlreadyReported)
}
