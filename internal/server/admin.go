package server

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/api"
)

const adminCookie = "admin_token"

// adminAuth holds the admin credentials and the per-process session token.
type adminAuth struct {
	username string
	password string
	token    string
}

func newAdminAuth(username, password string) (*adminAuth, error) {
	token, err := generateAdminToken()
	if err != nil {
		return nil, err
	}
	return &adminAuth{username: username, password: password, token: token}, nil
}

func generateAdminToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate admin token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (a *adminAuth) checkCredentials(username, password string) bool {
	if a.username == "" || a.password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return userOK && passOK
}

// Middleware to check admin authentication. Pages redirect to the login
// form; JSON endpoints answer 401.
func (a *adminAuth) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
				api.HandleAPIError(c, nil, http.StatusUnauthorized, api.ErrCodeUnauthorized, "Admin login required")
				return
			}
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Setup all admin routes
func (s *Server) setupAdminRoutes(r *gin.Engine) {
	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		if !s.admin.checkCredentials(c.PostForm("username"), c.PostForm("password")) {
			s.logger.Warn("Failed admin login attempt from %s", s.store.HashIP(c.ClientIP()))
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"title": "Admin Login",
				"error": "Invalid credentials",
			})
			return
		}

		// Set secure cookie (24 hours)
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(adminCookie, s.admin.token, 3600*24, "/admin", "", s.cfg.IsProduction(), true)
		s.logger.Info("Admin login successful from %s", s.store.HashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", s.cfg.IsProduction(), true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	admin := r.Group("/admin")
	admin.Use(s.admin.middleware())

	admin.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			s.logger.Error("Error loading admin stats: %v", err)
			c.HTML(http.StatusInternalServerError, "admin-dashboard.html", gin.H{
				"title": "Dashboard",
				"error": "Failed to load statistics",
			})
			return
		}

		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"title":     "Dashboard",
			"stats":     stats,
			"liveViews": s.views.Len(),
			"relay":     s.cfg.AccessKey != "",
		})
	})

	admin.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			api.HandleAPIError(c, err, http.StatusInternalServerError, api.ErrCodeInternalServer, "Failed to load statistics")
			return
		}
		api.HandleSuccess(c, stats)
	})

	admin.GET("/api/visitors", func(c *gin.Context) {
		visitors, err := s.store.RecentVisitors(c.Request.Context(), 200)
		if err != nil {
			api.HandleAPIError(c, err, http.StatusInternalServerError, api.ErrCodeInternalServer, "Failed to load visitors")
			return
		}
		api.HandleSuccess(c, visitors)
	})

	// Privacy compliance: apply the retention window now
	admin.POST("/privacy/prune", func(c *gin.Context) {
		res, err := s.store.Prune(c.Request.Context(), s.cfg.VisitRetention)
		if err != nil {
			api.HandleAPIError(c, err, http.StatusInternalServerError, api.ErrCodeInternalServer, "Privacy cleanup failed")
			return
		}
		s.logger.Info("Privacy cleanup by admin removed %d records", res.Total())
		api.HandleSuccess(c, res)
	})

	admin.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			api.HandleAPIError(c, err, http.StatusInternalServerError, api.ErrCodeInternalServer, "Failed to load statistics")
			return
		}

		c.Header("Content-Disposition", "attachment; filename=site-stats.json")
		c.JSON(http.StatusOK, stats)
	})
}
