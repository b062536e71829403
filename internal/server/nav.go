package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/api"
	"github.com/Zachkp/portfolio/internal/site"
)

// navigate applies a navbar action and re-renders the navbar. Theme changes
// are remembered in a cookie.
func (s *Server) navigate(c *gin.Context) {
	action := c.Param("action")
	if !site.IsAction(action) {
		api.HandleAPIError(c, nil, http.StatusNotFound, api.ErrCodeNotFound, "Unknown navigation action")
		return
	}
	y, _ := strconv.Atoi(c.PostForm("y"))

	v := s.viewFor(c, c.PostForm(viewIDField))
	before := v.Nav()
	next, err := v.UpdateNav(func(st site.NavState) (site.NavState, error) {
		return st.Apply(action, y)
	})
	if err != nil {
		api.HandleAPIError(c, nil, http.StatusNotFound, api.ErrCodeNotFound, err.Error())
		return
	}

	if next.Theme != before.Theme {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(themeCookie, string(next.Theme), themeCookieAge, "/", "", s.cfg.IsProduction(), false)
	}

	c.HTML(http.StatusOK, "navbar.html", newNavView(v, s.content.Owner))
}
