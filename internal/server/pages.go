package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/pageview"
	"github.com/Zachkp/portfolio/internal/site"
)

const (
	themeCookie     = "theme"
	themeCookieAge  = 365 * 24 * 3600
	colorSchemeHint = "Sec-CH-Prefers-Color-Scheme"
	viewIDField     = "view_id"
)

// Home page route
func (s *Server) home(c *gin.Context) {
	v := s.views.Create(s.requestTheme(c))

	c.Header("Accept-CH", colorSchemeHint)
	c.Header("Vary", colorSchemeHint+", Cookie")
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "index.html", pageData(v, s.content))
}

func (s *Server) privacy(c *gin.Context) {
	c.HTML(http.StatusOK, "privacy.html", gin.H{
		"title":   "Privacy Policy",
		"content": s.content,
	})
}

func (s *Server) requestTheme(c *gin.Context) site.Theme {
	stored, _ := c.Cookie(themeCookie)
	return site.InitialTheme(stored, c.GetHeader(colorSchemeHint))
}

// viewFor returns the view named by the request, or a fresh one when it has
// expired (for example after a restart or eviction). A request naming a view
// comes from a page that already ran the captcha script, so the fresh view
// is marked as loaded.
func (s *Server) viewFor(c *gin.Context, id string) *pageview.View {
	if id == "" {
		return s.views.Create(s.requestTheme(c))
	}
	if v, ok := s.views.Get(id); ok {
		return v
	}
	v := s.views.Create(s.requestTheme(c))
	v.Captcha.Load(v.Doc)
	return v
}
