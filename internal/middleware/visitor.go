package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/logging"
)

// VisitRecorder stores a page visit. Implementations hash the IP.
type VisitRecorder interface {
	RecordVisit(ctx context.Context, ip, userAgent, path string) error
}

var untrackedPrefixes = []string{
	"/static/",
	"/admin",
	"/favicon",
	"/privacy",
	"/healthz",
	"/reveal",
	"/nav/",
	"/contact",
	"/api/",
}

// VisitorTracking records GET page visits in the background. Static assets,
// admin pages, HTMX endpoints and Do Not Track requests are skipped.
func VisitorTracking(rec VisitRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !shouldTrack(c) {
			c.Next()
			return
		}

		ip, ua, path := c.ClientIP(), c.GetHeader("User-Agent"), c.Request.URL.Path
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := rec.RecordVisit(ctx, ip, ua, path); err != nil {
				logging.GetLogger().Error("Error recording visitor: %v", err)
			}
		}()
		c.Next()
	}
}

func shouldTrack(c *gin.Context) bool {
	if c.Request.Method != "GET" {
		return false
	}
	// Respect Do Not Track and Global Privacy Control
	if c.GetHeader("DNT") == "1" || c.GetHeader("Sec-GPC") == "1" {
		return false
	}
	path := c.Request.URL.Path
	for _, p := range untrackedPrefixes {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}
